package devices

import (
	"context"
	"errors"
	"testing"

	"github.com/jake-scott/gira-x1/internal/pkg/x1api"
)

func TestBindingWriteThenRead(t *testing.T) {
	gw := newStubGateway()
	b := NewBinding(CapabilitySwitch, "dp1", 0)

	if err := b.Write(context.Background(), gw, 1); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if b.Cached() != 1 {
		t.Errorf("cached = %d after write", b.Cached())
	}

	v, err := b.Read(context.Background(), gw)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if v != 1 {
		t.Errorf("read back %d, want 1", v)
	}
}

func TestBindingFailedWriteKeepsCache(t *testing.T) {
	gw := newStubGateway()
	gw.writeErr = &x1api.CommandError{Reason: x1api.ErrTransportFailure, UID: "dp1"}
	b := NewBinding(CapabilityDimmer, "dp1", 20)

	err := b.Write(context.Background(), gw, 80)
	if !errors.Is(err, x1api.ErrTransportFailure) {
		t.Fatalf("expected transport failure, got %v", err)
	}
	if b.Cached() != 20 {
		t.Errorf("cache changed to %d after a failed write", b.Cached())
	}
}

func TestLightCommands(t *testing.T) {
	gw := newStubGateway()
	store := populate(t, gw, gw.function("f1", chDimmer, nil, "OnOff", "Brightness"))
	l, _ := store.Light("f1")
	ctx := context.Background()

	if err := l.SwitchOn(ctx, gw); err != nil {
		t.Fatalf("SwitchOn: %v", err)
	}
	if gw.values["f1-OnOff"] != 1 {
		t.Errorf("gateway OnOff = %d", gw.values["f1-OnOff"])
	}

	if err := l.Toggle(ctx, gw); err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if on, _ := l.IsOn(); on {
		t.Errorf("toggle from on should switch off")
	}

	if err := l.Dim(ctx, gw, 55); err != nil {
		t.Fatalf("Dim: %v", err)
	}
	if v, _ := l.Brightness(); v != 55 {
		t.Errorf("brightness = %d", v)
	}
}

func TestMissingCapability(t *testing.T) {
	gw := newStubGateway()
	store := populate(t, gw, gw.function("f1", chSwitch, nil, "OnOff"))
	l, _ := store.Light("f1")

	err := l.Tune(context.Background(), gw, 4000)
	if !errors.Is(err, x1api.ErrMissingCapability) {
		t.Fatalf("Tune: expected ErrMissingCapability, got %v", err)
	}

	var cmdErr *x1api.CommandError
	if !errors.As(err, &cmdErr) {
		t.Errorf("expected a CommandError")
	}
	var classErr *x1api.ClassificationError
	if !errors.As(err, &classErr) || classErr.Capability != "tuner" || classErr.DeviceUID != "f1" {
		t.Errorf("expected ClassificationError for f1/tuner, got %v", err)
	}
	if gw.writes != 0 {
		t.Errorf("no write should reach the gateway")
	}
}

func TestBlindCommands(t *testing.T) {
	gw := newStubGateway()
	store := populate(t, gw, gw.function("b1", chBlind, nil, "Step-Up-Down", "Up-Down", "Position", "Movement"))
	b, _ := store.Blind("b1")
	ctx := context.Background()

	if err := b.Down(ctx, gw); err != nil {
		t.Fatalf("Down: %v", err)
	}
	if gw.values["b1-Up-Down"] != 1 {
		t.Errorf("down should write 1, got %d", gw.values["b1-Up-Down"])
	}
	if err := b.Up(ctx, gw); err != nil {
		t.Fatalf("Up: %v", err)
	}
	if gw.values["b1-Up-Down"] != 0 {
		t.Errorf("up should write 0, got %d", gw.values["b1-Up-Down"])
	}
	if err := b.StepDown(ctx, gw); err != nil {
		t.Fatalf("StepDown: %v", err)
	}
	if err := b.SetPosition(ctx, gw, 30); err != nil {
		t.Fatalf("SetPosition: %v", err)
	}
	if p, _ := b.Position(); p != 30 {
		t.Errorf("position = %d", p)
	}
}

func TestRefresh(t *testing.T) {
	gw := newStubGateway()
	store := populate(t, gw, gw.function("b1", chBlind, nil, "Position", "Movement"))
	b, _ := store.Blind("b1")

	gw.values["b1-Position"] = 90
	gw.values["b1-Movement"] = 1
	if err := b.Refresh(context.Background(), gw); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if p, _ := b.Position(); p != 90 {
		t.Errorf("position = %d", p)
	}
	if moving, _ := b.Moving(); !moving {
		t.Errorf("blind should be moving")
	}
}

func TestCapabilityString(t *testing.T) {
	if CapabilityPosition.String() != "position" {
		t.Errorf("got %q", CapabilityPosition.String())
	}
	if Capability(99).String() != "unknown (id: 99)" {
		t.Errorf("got %q", Capability(99).String())
	}
}

func TestBindingsInCapabilityOrder(t *testing.T) {
	gw := newStubGateway()
	store := populate(t, gw, gw.function("b1", chBlind, nil, "Movement", "Position", "Up-Down"))
	b, _ := store.Blind("b1")

	var got []Capability
	for _, binding := range b.Bindings() {
		got = append(got, binding.Capability())
	}

	want := []Capability{CapabilityUpDown, CapabilityPosition, CapabilityMovement}
	if len(got) != len(want) {
		t.Fatalf("bindings = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("binding %d = %v, want %v", i, got[i], want[i])
		}
	}
}
