package callback

import (
	"strconv"

	"github.com/go-openapi/errors"
	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/swag"
	"github.com/go-openapi/validate"
)

const maxUIDLength = 64

// For request validation routines
var formats = strfmt.NewFormats()

// Validate checks a decoded notification the way swagger models are checked
func (n *Notification) Validate(formats strfmt.Registry) error {
	var res []error

	if err := validate.RequiredString("token", "body", n.Token); err != nil {
		res = append(res, err)
	}

	if err := n.validateEvents(formats); err != nil {
		res = append(res, err)
	}

	if err := n.validateFailures(formats); err != nil {
		res = append(res, err)
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

func (n *Notification) validateEvents(formats strfmt.Registry) error {
	if err := validate.Required("events", "body", n.Events); err != nil {
		return err
	}

	for i := range n.Events {
		if err := n.Events[i].Validate(formats); err != nil {
			if ve, ok := err.(*errors.Validation); ok {
				return ve.ValidateName("events" + "." + strconv.Itoa(i))
			}
			return err
		}
	}

	return nil
}

func (n *Notification) validateFailures(formats strfmt.Registry) error {
	if swag.IsZero(n.Failures) {
		return nil
	}

	if err := validate.MinimumInt("failures", "body", int64(*n.Failures), 0, false); err != nil {
		return err
	}

	return nil
}

func (e *Event) Validate(formats strfmt.Registry) error {
	if err := validate.RequiredString("uid", "body", e.UID); err != nil {
		return err
	}

	if err := validate.MaxLength("uid", "body", e.UID, maxUIDLength); err != nil {
		return err
	}

	return nil
}
