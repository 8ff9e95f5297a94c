package devices

import (
	"context"
)

type LightKind int

const (
	LightSwitch LightKind = iota
	LightDimmable
	LightTunable
)

func (k LightKind) String() string {
	switch k {
	case LightSwitch:
		return "switchable"
	case LightDimmable:
		return "dimmable"
	case LightTunable:
		return "tunable"
	}

	return "unknown"
}

// Light is a switch-only, dimmable or tunable-white light
type Light struct {
	bindingSet
	kind LightKind
}

func newLight(uid string, name string, kind LightKind) *Light {
	l := &Light{kind: kind}
	l.init(uid, name)

	return l
}

func (l *Light) Kind() LightKind {
	return l.kind
}

func (l *Light) SwitchOn(ctx context.Context, c ValueClient) error {
	return l.write(ctx, c, CapabilitySwitch, 1)
}

func (l *Light) SwitchOff(ctx context.Context, c ValueClient) error {
	return l.write(ctx, c, CapabilitySwitch, 0)
}

// Toggle flips the switch based on the cached state
func (l *Light) Toggle(ctx context.Context, c ValueClient) error {
	on, err := l.IsOn()
	if err != nil {
		return err
	}

	if on {
		return l.SwitchOff(ctx, c)
	}
	return l.SwitchOn(ctx, c)
}

// Dim sets the brightness in percent
func (l *Light) Dim(ctx context.Context, c ValueClient, value uint16) error {
	return l.write(ctx, c, CapabilityDimmer, value)
}

// Tune sets the colour temperature in Kelvin
func (l *Light) Tune(ctx context.Context, c ValueClient, value uint16) error {
	return l.write(ctx, c, CapabilityTuner, value)
}

func (l *Light) IsOn() (bool, error) {
	v, err := l.cached(CapabilitySwitch)
	return v != 0, err
}

func (l *Light) Brightness() (uint16, error) {
	return l.cached(CapabilityDimmer)
}

func (l *Light) ColorTemperature() (uint16, error) {
	return l.cached(CapabilityTuner)
}
