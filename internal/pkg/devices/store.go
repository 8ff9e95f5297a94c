package devices

import (
	"sync"

	"github.com/jake-scott/gira-x1/internal/pkg/logging"
)

// Store holds the classified lights and blinds.  A UID is held at most once
// across both lists.
type Store struct {
	mu     sync.Mutex
	lights []*Light
	blinds []*Blind
	uids   map[string]struct{}
}

func NewStore() *Store {
	return &Store{
		uids: make(map[string]struct{}),
	}
}

// addLight returns false if the UID is already present
func (s *Store) addLight(l *Light) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.uids[l.uid]; ok {
		return false
	}

	s.uids[l.uid] = struct{}{}
	s.lights = append(s.lights, l)
	return true
}

func (s *Store) addBlind(b *Blind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.uids[b.uid]; ok {
		return false
	}

	s.uids[b.uid] = struct{}{}
	s.blinds = append(s.blinds, b)
	return true
}

// Len is the number of devices of any kind
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.lights) + len(s.blinds)
}

// Lights returns the lights in classification order
func (s *Store) Lights() []*Light {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]*Light(nil), s.lights...)
}

// Blinds returns the blinds in classification order
func (s *Store) Blinds() []*Blind {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]*Blind(nil), s.blinds...)
}

func (s *Store) LightNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.lights))
	for _, l := range s.lights {
		names = append(names, l.name)
	}

	return names
}

func (s *Store) BlindNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.blinds))
	for _, b := range s.blinds {
		names = append(names, b.name)
	}

	return names
}

func (s *Store) Light(uid string) (*Light, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, l := range s.lights {
		if l.uid == uid {
			return l, nil
		}
	}

	return nil, ErrDeviceNotFound
}

func (s *Store) Blind(uid string) (*Blind, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range s.blinds {
		if b.uid == uid {
			return b, nil
		}
	}

	return nil, ErrDeviceNotFound
}

// AssignLocation sets the location of the device whose UID is functionUID.
// Lights are searched before blinds.  It returns false when no device
// matches, which is normal for functions that were never classified.
func (s *Store) AssignLocation(functionUID string, locationID uint16) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	for _, l := range s.lights {
		if l.uid == functionUID {
			l.setLocation(locationID)
			found = true
		}
	}
	for _, b := range s.blinds {
		if b.uid == functionUID {
			b.setLocation(locationID)
			found = true
		}
	}

	return found
}

// InLocation lists the UIDs of every device placed directly in a location
func (s *Store) InLocation(locationID uint16) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var uids []string
	for _, l := range s.lights {
		if id, ok := l.Location(); ok && id == locationID {
			uids = append(uids, l.uid)
		}
	}
	for _, b := range s.blinds {
		if id, ok := b.Location(); ok && id == locationID {
			uids = append(uids, b.uid)
		}
	}

	return uids
}

// ApplyValue updates the cached value of every binding on the data point.
// It returns the number of bindings updated.
func (s *Store) ApplyValue(dataPointUID string, value uint16) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	apply := func(set *bindingSet) {
		for _, b := range set.bindings {
			if b.uid == dataPointUID {
				b.setCached(value)
				n++
			}
		}
	}

	for _, l := range s.lights {
		apply(&l.bindingSet)
	}
	for _, b := range s.blinds {
		apply(&b.bindingSet)
	}

	if n == 0 {
		logging.Logger(nil).Debugf("value for unbound data point %s ignored", dataPointUID)
	}

	return n
}
