package x1api

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

// ParseValue converts a value string from the gateway to an integer.  Any
// fractional part is cut off at the first '.', so "-0.5" reads as 0.
func ParseValue(s string) (uint16, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}

	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, errors.Wrapf(ErrMalformedResponse, "value %q is not a number", s)
	}

	if n < 0 || n > math.MaxUint16 {
		return 0, errors.Wrapf(ErrMalformedResponse, "value %d out of range", n)
	}

	return uint16(n), nil
}

// Body of GET /api/v2/values/{uid}.  Values and error are loosely typed on the
// wire (numbers and strings both turn up), so they are decoded in two passes.
type valuesResponse struct {
	Values []map[string]interface{} `json:"values"`
	Error  map[string]interface{}   `json:"error"`
}

type setValuesRequest struct {
	Values []setValue `json:"values"`
}

type setValue struct {
	UID   string `json:"uid"`
	Value uint16 `json:"value"`
}

type operationResponse struct {
	Error map[string]interface{} `json:"error"`
}

func weakDecode(input interface{}, out interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}

	return dec.Decode(input)
}

// decodeAPIError turns a non-null "error" member into an APIError
func decodeAPIError(status int, raw map[string]interface{}) *APIError {
	if raw == nil {
		return nil
	}

	apiErr := &APIError{Status: status}
	if err := weakDecode(raw, apiErr); err != nil || (apiErr.Code == "" && apiErr.Message == "") {
		b, _ := json.Marshal(raw)
		apiErr.Message = string(b)
	}

	return apiErr
}

func decodeValues(body []byte) ([]Value, *APIError, error) {
	resp := valuesResponse{}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, nil, errors.Wrap(err, "decoding values response")
	}

	if apiErr := decodeAPIError(0, resp.Error); apiErr != nil {
		return nil, apiErr, nil
	}

	values := make([]Value, 0, len(resp.Values))
	for _, raw := range resp.Values {
		v := Value{}
		if err := weakDecode(raw, &v); err != nil {
			return nil, nil, errors.Wrap(err, "decoding value entry")
		}
		if v.UID == "" {
			return nil, nil, errors.Errorf("value entry without uid: %v", raw)
		}
		values = append(values, v)
	}

	return values, nil, nil
}
