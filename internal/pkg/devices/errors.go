package devices

import (
	"errors"

	"github.com/jake-scott/gira-x1/internal/pkg/x1api"
)

var (
	// ErrDeviceNotFound is returned when no light or blind has the UID
	ErrDeviceNotFound = errors.New("devices: not found")

	// ErrPopulationInProgress is returned to a caller that races another
	// Populate call which has not finished yet
	ErrPopulationInProgress = errors.New("devices: population in progress")
)

func missingCapability(deviceUID string, c Capability) error {
	return x1api.MissingCapability(deviceUID, c.String())
}
