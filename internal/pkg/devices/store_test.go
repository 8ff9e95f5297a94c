package devices

import (
	"errors"
	"reflect"
	"testing"
)

func TestStoreListing(t *testing.T) {
	gw := newStubGateway()
	store := populate(t, gw,
		gw.function("l1", chSwitch, nil, "OnOff"),
		gw.function("b1", chBlind, nil, "Up-Down"),
		gw.function("l2", chDimmer, nil, "OnOff", "Brightness"),
	)

	if got := store.LightNames(); !reflect.DeepEqual(got, []string{"name-l1", "name-l2"}) {
		t.Errorf("LightNames = %v", got)
	}
	if got := store.BlindNames(); !reflect.DeepEqual(got, []string{"name-b1"}) {
		t.Errorf("BlindNames = %v", got)
	}
	if len(store.Lights()) != 2 || len(store.Blinds()) != 1 {
		t.Errorf("unexpected counts %d/%d", len(store.Lights()), len(store.Blinds()))
	}
	if _, err := store.Light("nope"); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("expected ErrDeviceNotFound, got %v", err)
	}
}

func TestAssignLocation(t *testing.T) {
	gw := newStubGateway()
	store := populate(t, gw,
		gw.function("l1", chSwitch, nil, "OnOff"),
		gw.function("b1", chBlind, nil, "Up-Down"),
	)

	if !store.AssignLocation("b1", 4) {
		t.Fatalf("b1 should be found")
	}
	if store.AssignLocation("trade-only", 4) {
		t.Errorf("unknown function uid should not match")
	}

	b, _ := store.Blind("b1")
	if id, ok := b.Location(); !ok || id != 4 {
		t.Errorf("location = %d, %v", id, ok)
	}
	if got := store.InLocation(4); !reflect.DeepEqual(got, []string{"b1"}) {
		t.Errorf("InLocation(4) = %v", got)
	}

	store.AssignLocation("l1", 0)
	l, _ := store.Light("l1")
	if id, ok := l.Location(); !ok || id != 0 {
		t.Errorf("location 0 should be a valid assignment, got %d, %v", id, ok)
	}
}

func TestApplyValue(t *testing.T) {
	gw := newStubGateway()
	store := populate(t, gw, gw.function("l1", chDimmer, nil, "OnOff", "Brightness"))

	if n := store.ApplyValue("l1-Brightness", 70); n != 1 {
		t.Fatalf("ApplyValue updated %d bindings", n)
	}
	l, _ := store.Light("l1")
	if v, _ := l.Brightness(); v != 70 {
		t.Errorf("brightness = %d", v)
	}
	if n := store.ApplyValue("unbound", 1); n != 0 {
		t.Errorf("unbound data point updated %d bindings", n)
	}
}
