package locations

import (
	"errors"
	"sort"
	"sync"
)

// ErrLocationNotFound is returned for an ID that was never assigned
var ErrLocationNotFound = errors.New("locations: not found")

// Location is the flat record of one node of the location tree
type Location struct {
	ID           uint16   `json:"id" yaml:"id"`
	ParentID     *uint16  `json:"parentId,omitempty" yaml:"parentId,omitempty"`
	DisplayName  string   `json:"displayName" yaml:"displayName"`
	LocationType string   `json:"locationType" yaml:"locationType"`
	Functions    []string `json:"functions" yaml:"functions"`
	Children     []uint16 `json:"children" yaml:"children"`
}

func (l Location) clone() Location {
	c := l
	if l.ParentID != nil {
		c.ParentID = uint16Ptr(*l.ParentID)
	}
	c.Functions = append([]string{}, l.Functions...)
	c.Children = append([]uint16{}, l.Children...)

	return c
}

// Map indexes flattened locations by ID
type Map struct {
	mu        sync.RWMutex
	locations map[uint16]Location
}

func NewMap() *Map {
	return &Map{
		locations: make(map[uint16]Location),
	}
}

func (m *Map) insert(records []Location) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range records {
		m.locations[r.ID] = r
	}
}

func (m *Map) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.locations)
}

func (m *Map) Get(id uint16) (Location, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	l, ok := m.locations[id]
	if !ok {
		return Location{}, ErrLocationNotFound
	}

	return l.clone(), nil
}

// Root returns the synthetic root location
func (m *Map) Root() (Location, error) {
	return m.Get(RootID)
}

// All returns every location ordered by ID
func (m *Map) All() []Location {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := make([]Location, 0, len(m.locations))
	for _, l := range m.locations {
		all = append(all, l.clone())
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	return all
}

// Children returns the direct children of a location in tree order
func (m *Map) Children(id uint16) ([]Location, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	parent, ok := m.locations[id]
	if !ok {
		return nil, ErrLocationNotFound
	}

	children := make([]Location, 0, len(parent.Children))
	for _, cid := range parent.Children {
		if c, ok := m.locations[cid]; ok {
			children = append(children, c.clone())
		}
	}

	return children, nil
}

// Path returns the display names from the root down to the location
func (m *Map) Path(id uint16) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var path []string
	for seen := 0; seen <= len(m.locations); seen++ {
		l, ok := m.locations[id]
		if !ok {
			return nil, ErrLocationNotFound
		}
		path = append([]string{l.DisplayName}, path...)

		if l.ParentID == nil {
			return path, nil
		}
		id = *l.ParentID
	}

	// only reachable if the parent links form a cycle
	return nil, ErrLocationNotFound
}
