package x1api

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jake-scott/gira-x1/internal/pkg/logging"
	"github.com/pkg/errors"
)

const uiConfigExpand = "dataPointFlags,parameters,locations,trades"

// Live talks to a real gateway over HTTPS
type Live struct {
	baseURL  string
	username string
	password string
	clientID string
	timeout  time.Duration
	client   *http.Client
}

func NewLiveClient(address string, username string, password string, clientID string) *Live {
	return &Live{
		baseURL:  "https://" + strings.TrimRight(address, "/"),
		username: username,
		password: password,
		clientID: clientID,
		client:   http.DefaultClient,
	}
}

func (c *Live) WithTimeout(d time.Duration) Gateway {
	nc := *c
	nc.timeout = d
	return &nc
}

// WithBaseURL replaces the scheme and host derived from the gateway address
func (c *Live) WithBaseURL(baseURL string) *Live {
	nc := *c
	nc.baseURL = strings.TrimRight(baseURL, "/")
	return &nc
}

func (c *Live) WithHTTPClient(client *http.Client) *Live {
	nc := *c
	nc.client = client
	return &nc
}

// WithInsecureTLS skips certificate verification.  Gateways ship with a
// self-signed certificate.
func (c *Live) WithInsecureTLS() *Live {
	nc := *c
	nc.client = &http.Client{
		Transport: &http.Transport{
			Proxy:           http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec
		},
	}
	return &nc
}

func (c *Live) makeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	var cancel context.CancelFunc = func() {}
	if c.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
	}

	return ctx, cancel
}

// do executes a request and returns the status code and body
func (c *Live) do(ctx context.Context, method string, path string, query url.Values, body interface{}, basicAuth bool) (int, []byte, error) {
	ctx, cancel := c.makeContext(ctx)
	defer cancel()

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, errors.Wrap(err, "encoding request body")
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return 0, nil, errors.Wrap(err, "building request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if basicAuth {
		req.SetBasicAuth(c.username, c.password)
	}

	logging.Logger(ctx).Debugf("gateway request: %s %s", method, path)

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, errors.Wrap(err, "reading response body")
	}

	return resp.StatusCode, respBody, nil
}

func statusError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}

	resp := operationResponse{}
	if err := json.Unmarshal(body, &resp); err == nil && resp.Error != nil {
		apiErr = decodeAPIError(status, resp.Error)
	} else {
		apiErr.Message = strings.TrimSpace(string(body))
	}

	return apiErr
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// RegisterClient authenticates with basic auth and returns the session token
func (c *Live) RegisterClient(ctx context.Context) (string, error) {
	reqBody := map[string]string{"client": c.clientID}

	status, body, err := c.do(ctx, http.MethodPost, "/api/clients", nil, reqBody, true)
	if err != nil {
		return "", &AuthError{Reason: ErrTransportFailure, Err: err}
	}

	if !isSuccess(status) {
		return "", &AuthError{Reason: ErrTransportFailure, Err: statusError(status, body)}
	}

	tokenResp := map[string]interface{}{}
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", &AuthError{Reason: ErrMalformedResponse, Err: errors.Wrap(err, "decoding token response")}
	}

	token, ok := tokenResp["token"].(string)
	if !ok || token == "" {
		return "", &AuthError{Reason: ErrMalformedResponse, Err: fmt.Errorf("no token in response: %s", body)}
	}

	return token, nil
}

// UIConfig downloads the configuration document
func (c *Live) UIConfig(ctx context.Context, token string) (*UIConfig, error) {
	query := url.Values{}
	query.Set("expand", uiConfigExpand)
	query.Set("token", token)

	status, body, err := c.do(ctx, http.MethodGet, "/api/v2/uiconfig", query, nil, false)
	if err != nil {
		return nil, &FetchError{Reason: ErrTransportFailure, Err: err}
	}

	if !isSuccess(status) {
		return nil, &FetchError{Reason: ErrTransportFailure, Err: statusError(status, body)}
	}

	doc := &UIConfig{}
	if err := json.Unmarshal(body, doc); err != nil {
		return nil, &FetchError{Reason: ErrMalformedDocument, Err: errors.Wrap(err, "decoding uiconfig")}
	}

	return doc, nil
}

// Values reads the values of a function (all of its data points) or of a
// single data point
func (c *Live) Values(ctx context.Context, token string, uid string) ([]Value, error) {
	query := url.Values{}
	query.Set("token", token)

	status, body, err := c.do(ctx, http.MethodGet, "/api/v2/values/"+url.PathEscape(uid), query, nil, false)
	if err != nil {
		return nil, &CommandError{Reason: ErrTransportFailure, UID: uid, Err: err}
	}

	if !isSuccess(status) {
		return nil, &CommandError{Reason: ErrGatewayError, UID: uid, Err: statusError(status, body)}
	}

	values, apiErr, err := decodeValues(body)
	if err != nil {
		return nil, &CommandError{Reason: ErrMalformedResponse, UID: uid, Err: err}
	}
	if apiErr != nil {
		return nil, &CommandError{Reason: ErrGatewayError, UID: uid, Err: apiErr}
	}

	return values, nil
}

// SetValue writes one data point
func (c *Live) SetValue(ctx context.Context, token string, uid string, value uint16) error {
	query := url.Values{}
	query.Set("token", token)

	reqBody := setValuesRequest{
		Values: []setValue{{UID: uid, Value: value}},
	}

	status, body, err := c.do(ctx, http.MethodPut, "/api/v2/values", query, reqBody, false)
	if err != nil {
		return &CommandError{Reason: ErrTransportFailure, UID: uid, Err: err}
	}

	if !isSuccess(status) {
		return &CommandError{Reason: ErrGatewayError, UID: uid, Err: statusError(status, body)}
	}

	// An empty body is a success, otherwise look for an error object
	if len(bytes.TrimSpace(body)) > 0 {
		resp := operationResponse{}
		if err := json.Unmarshal(body, &resp); err != nil {
			return &CommandError{Reason: ErrMalformedResponse, UID: uid, Err: errors.Wrap(err, "decoding set value response")}
		}
		if apiErr := decodeAPIError(status, resp.Error); apiErr != nil {
			return &CommandError{Reason: ErrGatewayError, UID: uid, Err: apiErr}
		}
	}

	logging.Logger(ctx).Debugf("set %s = %d", uid, value)
	return nil
}
