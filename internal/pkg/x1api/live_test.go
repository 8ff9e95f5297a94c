package x1api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestLive(t *testing.T, h http.HandlerFunc) *Live {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	return NewLiveClient("unused", "user", "secret", "test.client").WithBaseURL(srv.URL)
}

func TestRegisterClient(t *testing.T) {
	c := newTestLive(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/clients" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "user" || pass != "secret" {
			t.Errorf("bad basic auth: %s %s %v", user, pass, ok)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body["client"] != "test.client" {
			t.Errorf("bad body %v (%v)", body, err)
		}
		_, _ = io.WriteString(w, `{"token":"tok123"}`)
	})

	token, err := c.RegisterClient(context.Background())
	if err != nil {
		t.Fatalf("RegisterClient: %v", err)
	}
	if token != "tok123" {
		t.Errorf("token = %q", token)
	}
}

func TestRegisterClientMalformed(t *testing.T) {
	for _, body := range []string{`{"nottoken":"x"}`, `not json`, `{"token":""}`} {
		c := newTestLive(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, body)
		})

		_, err := c.RegisterClient(context.Background())
		var authErr *AuthError
		if !errors.As(err, &authErr) {
			t.Fatalf("body %q: expected AuthError, got %v", body, err)
		}
		if !errors.Is(err, ErrMalformedResponse) {
			t.Errorf("body %q: expected ErrMalformedResponse, got %v", body, err)
		}
	}
}

func TestRegisterClientTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c := NewLiveClient("unused", "u", "p", "c").WithBaseURL(srv.URL)
	_, err := c.RegisterClient(context.Background())
	if !errors.Is(err, ErrTransportFailure) {
		t.Fatalf("expected ErrTransportFailure, got %v", err)
	}
}

func TestUIConfig(t *testing.T) {
	c := newTestLive(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/uiconfig" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("token") != "tok" {
			t.Errorf("missing token in query: %s", r.URL.RawQuery)
		}
		if r.URL.Query().Get("expand") != uiConfigExpand {
			t.Errorf("bad expand: %s", r.URL.Query().Get("expand"))
		}
		_, _ = io.WriteString(w, `{
			"functions":[{"channelType":"de.gira.schema.channels.Switch","displayName":"Lamp","uid":"f1",
				"dataPoints":[{"name":"OnOff","uid":"d1"}]}],
			"locations":[{"displayName":"Floor1","locationType":"floor","functions":["f1"],
				"locations":[{"displayName":"Room1","locationType":"room"}]}],
			"trades":[{"displayName":"Lights","tradeType":"lights","functions":["f1"]}]}`)
	})

	doc, err := c.UIConfig(context.Background(), "tok")
	if err != nil {
		t.Fatalf("UIConfig: %v", err)
	}
	if len(doc.Functions) != 1 || doc.Functions[0].DataPoints[0].UID != "d1" {
		t.Errorf("functions not decoded: %+v", doc.Functions)
	}
	if len(doc.Locations) != 1 || len(doc.Locations[0].Locations) != 1 {
		t.Errorf("locations not decoded: %+v", doc.Locations)
	}
	if doc.Locations[0].ID != nil {
		t.Errorf("raw location should have no id")
	}
	if len(doc.Trades) != 1 {
		t.Errorf("trades not decoded")
	}
}

func TestUIConfigMalformed(t *testing.T) {
	c := newTestLive(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"functions": 12}`)
	})

	_, err := c.UIConfig(context.Background(), "tok")
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) || !errors.Is(err, ErrMalformedDocument) {
		t.Fatalf("expected FetchError/ErrMalformedDocument, got %v", err)
	}
}

func TestValuesGatewayError(t *testing.T) {
	c := newTestLive(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"values":null,"error":{"code":"unknownUid","message":"no such uid"}}`)
	})

	_, err := c.Values(context.Background(), "tok", "x")
	if !errors.Is(err, ErrGatewayError) {
		t.Fatalf("expected ErrGatewayError, got %v", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Code != "unknownUid" {
		t.Errorf("expected APIError unknownUid, got %v", err)
	}
}

func TestSetValue(t *testing.T) {
	c := newTestLive(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/v2/values" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body struct {
			Values []struct {
				UID   string      `json:"uid"`
				Value json.Number `json:"value"`
			} `json:"values"`
		}
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		if err := dec.Decode(&body); err != nil {
			t.Errorf("decoding body: %v", err)
		}
		if len(body.Values) != 1 || body.Values[0].UID != "d1" || body.Values[0].Value.String() != "75" {
			t.Errorf("unexpected body %+v", body)
		}
		w.WriteHeader(http.StatusOK)
	})

	if err := c.SetValue(context.Background(), "tok", "d1", 75); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
}

func TestSetValueHTTPError(t *testing.T) {
	c := newTestLive(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "locked", http.StatusLocked)
	})

	err := c.SetValue(context.Background(), "tok", "d1", 1)
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) || cmdErr.UID != "d1" {
		t.Fatalf("expected CommandError for d1, got %v", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusLocked {
		t.Errorf("expected APIError with status 423, got %v", err)
	}
}
