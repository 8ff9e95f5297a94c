package devices

import (
	"context"
)

// Up-Down and Step-Up-Down take 0 for up and 1 for down
const (
	directionUp   uint16 = 0
	directionDown uint16 = 1
)

// Blind is a shutter or blind with position feedback
type Blind struct {
	bindingSet
}

func newBlind(uid string, name string) *Blind {
	b := &Blind{}
	b.init(uid, name)

	return b
}

// Up drives the blind all the way up
func (b *Blind) Up(ctx context.Context, c ValueClient) error {
	return b.write(ctx, c, CapabilityUpDown, directionUp)
}

// Down drives the blind all the way down
func (b *Blind) Down(ctx context.Context, c ValueClient) error {
	return b.write(ctx, c, CapabilityUpDown, directionDown)
}

func (b *Blind) StepUp(ctx context.Context, c ValueClient) error {
	return b.write(ctx, c, CapabilityStepUpDown, directionUp)
}

func (b *Blind) StepDown(ctx context.Context, c ValueClient) error {
	return b.write(ctx, c, CapabilityStepUpDown, directionDown)
}

// SetPosition moves the blind to a position in percent, 100 being closed
func (b *Blind) SetPosition(ctx context.Context, c ValueClient, value uint16) error {
	return b.write(ctx, c, CapabilityPosition, value)
}

func (b *Blind) Position() (uint16, error) {
	return b.cached(CapabilityPosition)
}

// Moving reports the last movement status seen
func (b *Blind) Moving() (bool, error) {
	v, err := b.cached(CapabilityMovement)
	return v != 0, err
}
