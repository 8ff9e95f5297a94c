package locations

import (
	"context"
	"sync"

	"github.com/jake-scott/gira-x1/internal/pkg/logging"
	"github.com/jake-scott/gira-x1/internal/pkg/x1api"
)

const (
	RootID   uint16 = 0
	RootName        = "Home"
	RootType        = "root"
)

// DeviceLinker records which location a function was found in
type DeviceLinker interface {
	AssignLocation(functionUID string, locationID uint16) bool
}

// Flattener numbers the nodes of a location tree and writes a flat record
// for each node into a Map.  IDs keep increasing across calls on the same
// Flattener, the synthetic root is always 0.
type Flattener struct {
	mu      sync.Mutex
	lastID  uint16
	devices DeviceLinker
	out     *Map
}

func NewFlattener(devices DeviceLinker, out *Map) *Flattener {
	return &Flattener{
		devices: devices,
		out:     out,
	}
}

// arenaNode is one tree node addressed by index instead of by pointer
type arenaNode struct {
	raw      *x1api.LocationNode
	id       uint16
	parent   int
	children []int
}

// Flatten assigns IDs in pre-order under a synthetic root whose children are
// the top level nodes of tree.  The nodes in tree get their ID and ParentID
// filled in.  Functions listed on a node are linked to matching devices;
// function IDs without a device are skipped.
func (f *Flattener) Flatten(ctx context.Context, tree []x1api.LocationNode) Location {
	f.mu.Lock()
	defer f.mu.Unlock()

	root := &x1api.LocationNode{
		DisplayName:  RootName,
		LocationType: RootType,
		Functions:    []string{},
		Locations:    tree,
	}

	type link struct {
		functionUID string
		locationID  uint16
	}

	arena := []arenaNode{{raw: root, parent: -1}}
	stack := []int{0}
	var links []link

	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		id := RootID
		if i != 0 {
			f.lastID++
			id = f.lastID
		}
		arena[i].id = id

		raw := arena[i].raw
		raw.ID = uint16Ptr(id)
		if p := arena[i].parent; p >= 0 {
			raw.ParentID = uint16Ptr(arena[p].id)
		}

		for _, fnUID := range raw.Functions {
			links = append(links, link{functionUID: fnUID, locationID: id})
		}

		first := len(arena)
		for j := range raw.Locations {
			arena = append(arena, arenaNode{raw: &raw.Locations[j], parent: i})
			arena[i].children = append(arena[i].children, first+j)
		}

		// push in reverse so the first child is visited next
		for j := len(raw.Locations) - 1; j >= 0; j-- {
			stack = append(stack, first+j)
		}
	}

	records := make([]Location, len(arena))
	for i, n := range arena {
		loc := Location{
			ID:           n.id,
			DisplayName:  n.raw.DisplayName,
			LocationType: n.raw.LocationType,
			Functions:    append([]string{}, n.raw.Functions...),
			Children:     make([]uint16, 0, len(n.children)),
		}
		if n.parent >= 0 {
			loc.ParentID = uint16Ptr(arena[n.parent].id)
		}
		for _, c := range n.children {
			loc.Children = append(loc.Children, arena[c].id)
		}
		records[i] = loc
	}

	// devices only point at locations already in the map
	f.out.insert(records)

	unresolved := 0
	for _, l := range links {
		if !f.devices.AssignLocation(l.functionUID, l.locationID) {
			unresolved++
		}
	}

	logging.Logger(ctx).Infof("flattened %d locations", len(records))
	if unresolved > 0 {
		logging.Logger(ctx).Debugf("%d function ids in the location tree have no device", unresolved)
	}

	return records[0].clone()
}

func uint16Ptr(v uint16) *uint16 {
	return &v
}
