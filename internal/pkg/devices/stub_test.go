package devices

import (
	"context"
	"sync"

	"github.com/jake-scott/gira-x1/internal/pkg/x1api"
)

// stubGateway is an in-memory ValueClient and ValueSource
type stubGateway struct {
	mu        sync.Mutex
	values    map[string]uint16
	functions map[string][]string // function uid -> data point uids
	readErr   error
	writeErr  error
	reads     int
	writes    int
	fnReads   int
}

func newStubGateway() *stubGateway {
	return &stubGateway{
		values:    make(map[string]uint16),
		functions: make(map[string][]string),
	}
}

func (s *stubGateway) Value(_ context.Context, uid string) (uint16, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reads++
	if s.readErr != nil {
		return 0, s.readErr
	}
	v, ok := s.values[uid]
	if !ok {
		return 0, &x1api.CommandError{Reason: x1api.ErrGatewayError, UID: uid}
	}
	return v, nil
}

func (s *stubGateway) SetValue(_ context.Context, uid string, value uint16) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.writes++
	if s.writeErr != nil {
		return s.writeErr
	}
	s.values[uid] = value
	return nil
}

func (s *stubGateway) FunctionValues(_ context.Context, functionUID string) (map[string]uint16, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fnReads++
	if s.readErr != nil {
		return nil, s.readErr
	}
	out := make(map[string]uint16)
	for _, uid := range s.functions[functionUID] {
		out[uid] = s.values[uid]
	}
	return out, nil
}

// function builds a gateway function and registers its data point values
func (s *stubGateway) function(uid string, channelType string, points map[string]uint16, names ...string) x1api.Function {
	fn := x1api.Function{
		UID:         uid,
		DisplayName: "name-" + uid,
		ChannelType: channelType,
	}
	for _, name := range names {
		dpUID := uid + "-" + name
		fn.DataPoints = append(fn.DataPoints, x1api.DataPoint{Name: name, UID: dpUID})
		s.values[dpUID] = points[name]
		s.functions[uid] = append(s.functions[uid], dpUID)
	}
	return fn
}

const (
	chSwitch  = "de.gira.schema.channels.Switch"
	chDimmer  = "de.gira.schema.channels.KNX.Dimmer"
	chTunable = "de.gira.schema.channels.DimmerWhite"
	chBlind   = "de.gira.schema.channels.BlindWithPos"
)
