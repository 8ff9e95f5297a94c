package x1api

import (
	"errors"
	"fmt"
)

/*
 *  Failure reasons.  Each typed error below carries one of these as its
 *  Reason so callers can test with errors.Is() regardless of which
 *  operation failed.
 */
var (
	ErrTransportFailure  = errors.New("transport failure")
	ErrMalformedResponse = errors.New("malformed response")
	ErrNotConnected      = errors.New("not connected to gateway")
	ErrMalformedDocument = errors.New("malformed configuration document")
	ErrMissingCapability = errors.New("missing capability")
	ErrGatewayError      = errors.New("gateway reported an error")
)

// AuthError is returned by session operations
type AuthError struct {
	Reason error
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth: %s: %s", e.Reason, e.Err)
	}
	return "auth: " + e.Reason.Error()
}

func (e *AuthError) Unwrap() error { return e.Err }

func (e *AuthError) Is(target error) bool { return target == e.Reason }

// FetchError is returned when the configuration document cannot be loaded
type FetchError struct {
	Reason error
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch configuration: %s: %s", e.Reason, e.Err)
	}
	return "fetch configuration: " + e.Reason.Error()
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == e.Reason }

// ClassificationError reports a capability that the device was built without.
// It is raised when the capability is used, never while building the device.
type ClassificationError struct {
	DeviceUID  string
	Capability string
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("device %s: %s: %s", e.DeviceUID, ErrMissingCapability, e.Capability)
}

func (e *ClassificationError) Is(target error) bool { return target == ErrMissingCapability }

// CommandError is returned by value reads and writes
type CommandError struct {
	Reason error
	UID    string
	Err    error
}

func (e *CommandError) Error() string {
	msg := "command"
	if e.UID != "" {
		msg += " [" + e.UID + "]"
	}
	msg += ": " + e.Reason.Error()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CommandError) Unwrap() error { return e.Err }

func (e *CommandError) Is(target error) bool { return target == e.Reason }

// MissingCapability builds the error returned when a device is asked to use a
// binding it does not have
func MissingCapability(deviceUID string, capability string) error {
	return &CommandError{
		Reason: ErrMissingCapability,
		UID:    deviceUID,
		Err:    &ClassificationError{DeviceUID: deviceUID, Capability: capability},
	}
}

// APIError holds the error object returned in a gateway response body
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code" mapstructure:"code"`
	Message string `json:"message" mapstructure:"message"`
}

func (e *APIError) Error() string {
	switch {
	case e.Code != "" && e.Status != 0:
		return fmt.Sprintf("HTTP %d: %s: %s", e.Status, e.Code, e.Message)
	case e.Code != "":
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	default:
		return fmt.Sprintf("HTTP %d: %s", e.Status, e.Message)
	}
}

func (e *APIError) Is(target error) bool { return target == ErrGatewayError }
