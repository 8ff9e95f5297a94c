package devices

import (
	"context"
	"fmt"
	"sync/atomic"
)

// ValueClient reads and writes single data points on the gateway
type ValueClient interface {
	Value(ctx context.Context, uid string) (uint16, error)
	SetValue(ctx context.Context, uid string, value uint16) error
}

type Capability int

const (
	CapabilitySwitch Capability = iota
	CapabilityDimmer
	CapabilityTuner
	CapabilityStepUpDown
	CapabilityUpDown
	CapabilityPosition
	CapabilityMovement
)

var capabilityNames = []string{
	"switch",
	"dimmer",
	"tuner",
	"step-up-down",
	"up-down",
	"position",
	"movement",
}

func (c Capability) String() string {
	if int(c) < 0 || int(c) >= len(capabilityNames) {
		return fmt.Sprintf("unknown (id: %d)", int(c))
	}

	return capabilityNames[c]
}

// Binding ties a capability to one gateway data point and remembers the last
// value seen for it
type Binding struct {
	capability Capability
	uid        string
	value      atomic.Uint32
}

func NewBinding(capability Capability, uid string, value uint16) *Binding {
	b := &Binding{
		capability: capability,
		uid:        uid,
	}
	b.value.Store(uint32(value))

	return b
}

func (b *Binding) Capability() Capability {
	return b.capability
}

// UID is the data point identifier
func (b *Binding) UID() string {
	return b.uid
}

// Cached returns the last known value without contacting the gateway
func (b *Binding) Cached() uint16 {
	return uint16(b.value.Load())
}

func (b *Binding) setCached(v uint16) {
	b.value.Store(uint32(v))
}

// Write sends value to the data point.  The cached value is updated once the
// gateway accepts the write; it is not read back.
func (b *Binding) Write(ctx context.Context, c ValueClient, value uint16) error {
	if err := c.SetValue(ctx, b.uid, value); err != nil {
		return err
	}

	b.setCached(value)
	return nil
}

// Read fetches the current value from the gateway and caches it
func (b *Binding) Read(ctx context.Context, c ValueClient) (uint16, error) {
	v, err := c.Value(ctx, b.uid)
	if err != nil {
		return 0, err
	}

	b.setCached(v)
	return v, nil
}

// bindingSet is the shared part of lights and blinds
type bindingSet struct {
	uid      string
	name     string
	location atomic.Int32
	bindings map[Capability]*Binding
}

const noLocation = -1

func (d *bindingSet) init(uid string, name string) {
	d.uid = uid
	d.name = name
	d.bindings = make(map[Capability]*Binding)
	d.location.Store(noLocation)
}

func (d *bindingSet) UID() string {
	return d.uid
}

func (d *bindingSet) Name() string {
	return d.name
}

// Location returns the id of the location the device was found in
func (d *bindingSet) Location() (uint16, bool) {
	loc := d.location.Load()
	if loc == noLocation {
		return 0, false
	}

	return uint16(loc), true
}

func (d *bindingSet) setLocation(id uint16) {
	d.location.Store(int32(id))
}

// Binding returns the binding for a capability, or nil
func (d *bindingSet) Binding(c Capability) *Binding {
	return d.bindings[c]
}

// Bindings returns the bound capabilities in capability order
func (d *bindingSet) Bindings() []*Binding {
	out := make([]*Binding, 0, len(d.bindings))
	for c := CapabilitySwitch; c <= CapabilityMovement; c++ {
		if b, ok := d.bindings[c]; ok {
			out = append(out, b)
		}
	}

	return out
}

// Has reports whether the device was built with the capability
func (d *bindingSet) Has(c Capability) bool {
	_, ok := d.bindings[c]
	return ok
}

// require returns the binding or a missing capability error
func (d *bindingSet) require(c Capability) (*Binding, error) {
	b, ok := d.bindings[c]
	if !ok {
		return nil, missingCapability(d.uid, c)
	}

	return b, nil
}

func (d *bindingSet) write(ctx context.Context, vc ValueClient, c Capability, value uint16) error {
	b, err := d.require(c)
	if err != nil {
		return err
	}

	return b.Write(ctx, vc, value)
}

func (d *bindingSet) cached(c Capability) (uint16, error) {
	b, err := d.require(c)
	if err != nil {
		return 0, err
	}

	return b.Cached(), nil
}

// Refresh re-reads every bound data point
func (d *bindingSet) Refresh(ctx context.Context, vc ValueClient) error {
	for _, b := range d.bindings {
		if _, err := b.Read(ctx, vc); err != nil {
			return err
		}
	}

	return nil
}
