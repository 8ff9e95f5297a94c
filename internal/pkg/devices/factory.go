package devices

import (
	"context"
	"sync/atomic"

	"github.com/korovkin/limiter"
	"github.com/pkg/errors"

	"github.com/jake-scott/gira-x1/internal/pkg/logging"
	"github.com/jake-scott/gira-x1/internal/pkg/x1api"
)

/*
 *   Classification of gateway functions into lights and blinds
 */

type Kind int

const (
	KindSwitchLight Kind = iota
	KindDimmableLight
	KindTunableLight
	KindBlind
)

var kindNames = []string{
	"switch light",
	"dimmable light",
	"tunable light",
	"blind",
}

func (k Kind) String() string {
	if int(k) < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}

	return kindNames[k]
}

// Channel types that are turned into devices.  Anything else is ignored.
var channelKinds = map[string]Kind{
	"de.gira.schema.channels.Switch":       KindSwitchLight,
	"de.gira.schema.channels.DimmerWhite":  KindTunableLight,
	"de.gira.schema.channels.KNX.Dimmer":   KindDimmableLight,
	"de.gira.schema.channels.BlindWithPos": KindBlind,
}

// Data point names and the capability each one binds to
var dataPointCapabilities = map[string]Capability{
	"OnOff":             CapabilitySwitch,
	"Brightness":        CapabilityDimmer,
	"Color-Temperature": CapabilityTuner,
	"Step-Up-Down":      CapabilityStepUpDown,
	"Up-Down":           CapabilityUpDown,
	"Position":          CapabilityPosition,
	"Movement":          CapabilityMovement,
}

// The capabilities each kind of device takes from its function
var kindCapabilities = map[Kind][]Capability{
	KindSwitchLight:   {CapabilitySwitch},
	KindDimmableLight: {CapabilitySwitch, CapabilityDimmer},
	KindTunableLight:  {CapabilitySwitch, CapabilityDimmer, CapabilityTuner},
	KindBlind:         {CapabilityStepUpDown, CapabilityUpDown, CapabilityPosition, CapabilityMovement},
}

var lightKinds = map[Kind]LightKind{
	KindSwitchLight:   LightSwitch,
	KindDimmableLight: LightDimmable,
	KindTunableLight:  LightTunable,
}

// Classify maps a channel type to a device kind
func Classify(channelType string) (Kind, bool) {
	k, ok := channelKinds[channelType]
	return k, ok
}

func (k Kind) consumes(c Capability) bool {
	for _, kc := range kindCapabilities[k] {
		if kc == c {
			return true
		}
	}

	return false
}

// ValueSource returns the current values of all data points of a function,
// keyed by data point UID
type ValueSource interface {
	FunctionValues(ctx context.Context, functionUID string) (map[string]uint16, error)
}

type Lifecycle int32

const (
	NotStarted Lifecycle = iota
	InProgress
	Done
)

func (l Lifecycle) String() string {
	switch l {
	case NotStarted:
		return "not started"
	case InProgress:
		return "in progress"
	case Done:
		return "done"
	}

	return "unknown"
}

const defaultConcurrency = 4

// Factory fills a Store from the function list of a configuration document.
// It does so once; later calls return immediately.
type Factory struct {
	store       *Store
	state       atomic.Int32
	concurrency int
}

func NewFactory(store *Store) *Factory {
	return &Factory{
		store:       store,
		concurrency: defaultConcurrency,
	}
}

// SetConcurrency limits the number of value reads in flight during Populate
func (f *Factory) SetConcurrency(n int) {
	if n < 1 {
		n = 1
	}
	f.concurrency = n
}

func (f *Factory) State() Lifecycle {
	return Lifecycle(f.state.Load())
}

type candidate struct {
	function x1api.Function
	kind     Kind
	values   map[string]uint16
	err      error
}

// Populate classifies functions and adds the resulting devices to the store.
// The values of each classified function are read first; any read failure
// aborts the whole population and leaves the store untouched.
func (f *Factory) Populate(ctx context.Context, functions []x1api.Function, values ValueSource) error {
	if !f.state.CompareAndSwap(int32(NotStarted), int32(InProgress)) {
		if f.State() == Done {
			logging.Logger(ctx).Debug("devices already populated, skipping")
			return nil
		}
		return ErrPopulationInProgress
	}

	if f.store.Len() > 0 {
		logging.Logger(ctx).Debug("device store already holds devices, skipping")
		f.state.Store(int32(Done))
		return nil
	}

	var candidates []*candidate
	for _, fn := range functions {
		kind, ok := Classify(fn.ChannelType)
		if !ok {
			logging.Logger(ctx).Debugf("Ignoring function %s (%s), unsupported channel type %s", fn.UID, fn.DisplayName, fn.ChannelType)
			continue
		}
		candidates = append(candidates, &candidate{function: fn, kind: kind})
	}

	limit := limiter.NewConcurrencyLimiter(f.concurrency)
	for _, c := range candidates {
		c := c
		limit.ExecuteWithTicket(func(ticket int) {
			logging.Logger(ctx).Debugf("value-reader %d: reading function %s", ticket, c.function.UID)
			c.values, c.err = values.FunctionValues(ctx, c.function.UID)
		})
	}
	limit.Wait()

	for _, c := range candidates {
		if c.err != nil {
			f.state.Store(int32(NotStarted))
			return errors.Wrapf(c.err, "reading values of function %s", c.function.UID)
		}
	}

	for _, c := range candidates {
		f.add(ctx, c)
	}

	logging.Logger(ctx).Infof("classified %d of %d functions", f.store.Len(), len(functions))
	f.state.Store(int32(Done))
	return nil
}

func (f *Factory) add(ctx context.Context, c *candidate) {
	fn := c.function

	var added bool
	if c.kind == KindBlind {
		b := newBlind(fn.UID, fn.DisplayName)
		bind(ctx, &b.bindingSet, c)
		added = f.store.addBlind(b)
	} else {
		l := newLight(fn.UID, fn.DisplayName, lightKinds[c.kind])
		bind(ctx, &l.bindingSet, c)
		added = f.store.addLight(l)
	}

	if !added {
		logging.Logger(ctx).Warnf("duplicate function uid %s (%s), keeping the first", fn.UID, fn.DisplayName)
		return
	}

	logging.Logger(ctx).Debugf("added %s %s (%s)", c.kind, fn.UID, fn.DisplayName)
}

// bind creates a binding for each data point the device kind consumes.
// Missing data points leave the capability unbound.
func bind(ctx context.Context, set *bindingSet, c *candidate) {
	for _, dp := range c.function.DataPoints {
		capability, ok := dataPointCapabilities[dp.Name]
		if !ok || !c.kind.consumes(capability) {
			logging.Logger(ctx).Debugf("function %s: ignoring data point %s", c.function.UID, dp.Name)
			continue
		}

		if _, dup := set.bindings[capability]; dup {
			logging.Logger(ctx).Warnf("function %s: second %s data point %s ignored", c.function.UID, dp.Name, dp.UID)
			continue
		}

		value, ok := c.values[dp.UID]
		if !ok {
			logging.Logger(ctx).Debugf("function %s: no value for data point %s, assuming 0", c.function.UID, dp.UID)
		}

		set.bindings[capability] = NewBinding(capability, dp.UID, value)
	}
}
