package x1api

import (
	"errors"
	"testing"
)

func TestParseValue(t *testing.T) {
	tests := []struct {
		in      string
		want    uint16
		wantErr bool
	}{
		{in: "0", want: 0},
		{in: "1", want: 1},
		{in: "50.7", want: 50},
		{in: "99.99", want: 99},
		{in: " 12 ", want: 12},
		{in: "-0.5", want: 0},
		{in: "-0", want: 0},
		{in: "65535", want: 65535},
		{in: "65536", wantErr: true},
		{in: "-3", wantErr: true},
		{in: "", wantErr: true},
		{in: "on", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseValue(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrMalformedResponse) {
				t.Errorf("ParseValue(%q): expected ErrMalformedResponse, got %v", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseValue(%q): unexpected error %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseValue(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestDecodeValuesLooseTypes(t *testing.T) {
	body := []byte(`{"values":[{"uid":"a1","value":"1"},{"uid":"a2","value":42.5},{"uid":"a3","value":true}],"error":null}`)

	values, apiErr, err := decodeValues(body)
	if err != nil || apiErr != nil {
		t.Fatalf("unexpected error: %v %v", err, apiErr)
	}

	want := []Value{{"a1", "1"}, {"a2", "42.5"}, {"a3", "1"}}
	if len(values) != len(want) {
		t.Fatalf("got %d values, want %d", len(values), len(want))
	}
	for i := range want {
		if values[i] != want[i] {
			t.Errorf("value %d = %+v, want %+v", i, values[i], want[i])
		}
	}
}

func TestDecodeValuesErrorObject(t *testing.T) {
	body := []byte(`{"values":[],"error":{"code":"invalidToken","message":"token unknown"}}`)

	_, apiErr, err := decodeValues(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if apiErr == nil || apiErr.Code != "invalidToken" {
		t.Fatalf("expected invalidToken error, got %+v", apiErr)
	}
	if !errors.Is(apiErr, ErrGatewayError) {
		t.Errorf("APIError should match ErrGatewayError")
	}
}

func TestDecodeValuesRejectsMissingUID(t *testing.T) {
	if _, _, err := decodeValues([]byte(`{"values":[{"value":"1"}]}`)); err == nil {
		t.Fatalf("expected an error for a value without uid")
	}
}
