package devices

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/jake-scott/gira-x1/internal/pkg/x1api"
)

func populate(t *testing.T, gw *stubGateway, functions ...x1api.Function) *Store {
	t.Helper()

	store := NewStore()
	if err := NewFactory(store).Populate(context.Background(), functions, gw); err != nil {
		t.Fatalf("Populate: %v", err)
	}
	return store
}

func TestClassify(t *testing.T) {
	tests := []struct {
		channelType string
		want        Kind
		ok          bool
	}{
		{chSwitch, KindSwitchLight, true},
		{chDimmer, KindDimmableLight, true},
		{chTunable, KindTunableLight, true},
		{chBlind, KindBlind, true},
		{"de.gira.schema.channels.Trigger", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		got, ok := Classify(tt.channelType)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("Classify(%q) = %v, %v; want %v, %v", tt.channelType, got, ok, tt.want, tt.ok)
		}
	}
}

func TestSwitchLight(t *testing.T) {
	gw := newStubGateway()
	store := populate(t, gw, gw.function("f1", chSwitch, map[string]uint16{"OnOff": 1}, "OnOff"))

	l, err := store.Light("f1")
	if err != nil {
		t.Fatalf("light f1 missing: %v", err)
	}
	if l.Kind() != LightSwitch {
		t.Errorf("kind = %v", l.Kind())
	}
	if !l.Has(CapabilitySwitch) {
		t.Errorf("switch binding missing")
	}
	if l.Has(CapabilityDimmer) || l.Has(CapabilityTuner) {
		t.Errorf("switch light should have no dimmer or tuner")
	}
	if on, err := l.IsOn(); err != nil || !on {
		t.Errorf("IsOn = %v, %v; want seeded value true", on, err)
	}
	if l.Name() != "name-f1" {
		t.Errorf("name = %q", l.Name())
	}
	if _, ok := l.Location(); ok {
		t.Errorf("location should be unset before flattening")
	}
}

func TestSwitchLightIgnoresOtherDataPoints(t *testing.T) {
	gw := newStubGateway()
	store := populate(t, gw, gw.function("f1", chSwitch, nil, "OnOff", "Brightness", "Feedback"))

	l, _ := store.Light("f1")
	if l.Has(CapabilityDimmer) {
		t.Errorf("a switch light does not consume Brightness")
	}
}

func TestTunableLight(t *testing.T) {
	gw := newStubGateway()
	store := populate(t, gw, gw.function("f1", chTunable,
		map[string]uint16{"OnOff": 1, "Brightness": 40, "Color-Temperature": 3000},
		"OnOff", "Brightness", "Color-Temperature"))

	l, _ := store.Light("f1")
	if l.Kind() != LightTunable {
		t.Fatalf("kind = %v", l.Kind())
	}
	if v, _ := l.Brightness(); v != 40 {
		t.Errorf("brightness = %d", v)
	}
	if v, _ := l.ColorTemperature(); v != 3000 {
		t.Errorf("colour temperature = %d", v)
	}
}

func TestPartialBlind(t *testing.T) {
	gw := newStubGateway()
	store := populate(t, gw, gw.function("b1", chBlind, map[string]uint16{"Position": 60}, "Up-Down", "Position"))

	b, err := store.Blind("b1")
	if err != nil {
		t.Fatalf("blind missing: %v", err)
	}
	if !b.Has(CapabilityUpDown) || !b.Has(CapabilityPosition) {
		t.Errorf("Up-Down and Position should be bound")
	}
	if b.Has(CapabilityStepUpDown) || b.Has(CapabilityMovement) {
		t.Errorf("Step-Up-Down and Movement should be absent")
	}
	if p, _ := b.Position(); p != 60 {
		t.Errorf("position = %d", p)
	}

	err = b.StepUp(context.Background(), gw)
	if !errors.Is(err, x1api.ErrMissingCapability) {
		t.Errorf("StepUp: expected ErrMissingCapability, got %v", err)
	}
	if _, err := b.Moving(); !errors.Is(err, x1api.ErrMissingCapability) {
		t.Errorf("Moving: expected ErrMissingCapability, got %v", err)
	}
}

func TestUnknownChannelsIgnored(t *testing.T) {
	gw := newStubGateway()
	store := populate(t, gw,
		gw.function("f1", "de.gira.schema.channels.Trigger", nil, "Trigger"),
		gw.function("f2", chSwitch, nil, "OnOff"),
	)

	if store.Len() != 1 {
		t.Fatalf("store holds %d devices, want 1", store.Len())
	}
	if gw.fnReads != 1 {
		t.Errorf("values read for %d functions, want only the classified one", gw.fnReads)
	}
}

func TestPopulateOnce(t *testing.T) {
	gw := newStubGateway()
	fns := []x1api.Function{gw.function("f1", chSwitch, nil, "OnOff")}

	store := NewStore()
	f := NewFactory(store)
	for i := 0; i < 3; i++ {
		if err := f.Populate(context.Background(), fns, gw); err != nil {
			t.Fatalf("Populate %d: %v", i, err)
		}
	}

	if store.Len() != 1 {
		t.Errorf("store holds %d devices after repeated populate", store.Len())
	}
	if gw.fnReads != 1 {
		t.Errorf("function values read %d times", gw.fnReads)
	}
	if f.State() != Done {
		t.Errorf("state = %v", f.State())
	}
}

func TestPopulateConcurrent(t *testing.T) {
	gw := newStubGateway()
	var fns []x1api.Function
	for _, uid := range []string{"a", "b", "c", "d", "e", "f"} {
		fns = append(fns, gw.function(uid, chDimmer, nil, "OnOff", "Brightness"))
	}

	store := NewStore()
	f := NewFactory(store)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := f.Populate(context.Background(), fns, gw); err != nil && !errors.Is(err, ErrPopulationInProgress) {
				t.Errorf("Populate: %v", err)
			}
		}()
	}
	wg.Wait()

	if store.Len() != len(fns) {
		t.Errorf("store holds %d devices, want %d", store.Len(), len(fns))
	}
	if gw.fnReads != len(fns) {
		t.Errorf("function values read %d times, want %d", gw.fnReads, len(fns))
	}
}

func TestPopulateReadFailure(t *testing.T) {
	gw := newStubGateway()
	fns := []x1api.Function{gw.function("f1", chSwitch, nil, "OnOff")}
	gw.readErr = &x1api.CommandError{Reason: x1api.ErrTransportFailure, UID: "f1"}

	store := NewStore()
	f := NewFactory(store)
	err := f.Populate(context.Background(), fns, gw)
	if !errors.Is(err, x1api.ErrTransportFailure) {
		t.Fatalf("expected transport failure, got %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("store should be empty after a failed population")
	}
	if f.State() != NotStarted {
		t.Errorf("state = %v, want not started", f.State())
	}

	gw.readErr = nil
	if err := f.Populate(context.Background(), fns, gw); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if store.Len() != 1 {
		t.Errorf("retry did not populate")
	}
}

func TestDuplicateFunctionUID(t *testing.T) {
	gw := newStubGateway()
	store := populate(t, gw,
		gw.function("f1", chSwitch, nil, "OnOff"),
		gw.function("f1", chBlind, nil, "Up-Down"),
	)

	if store.Len() != 1 {
		t.Fatalf("store holds %d devices, want 1", store.Len())
	}
	if _, err := store.Blind("f1"); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("duplicate uid should not be added as a blind")
	}
}
