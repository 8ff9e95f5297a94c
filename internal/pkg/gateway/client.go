package gateway

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jake-scott/gira-x1/internal/pkg/callback"
	"github.com/jake-scott/gira-x1/internal/pkg/devices"
	"github.com/jake-scott/gira-x1/internal/pkg/locations"
	"github.com/jake-scott/gira-x1/internal/pkg/logging"
	"github.com/jake-scott/gira-x1/internal/pkg/x1api"
	"github.com/pkg/errors"
)

const DefaultClientID = "de.jakescott.girax1"

// State is how far Connect has progressed.  It only moves forward, except
// that a failed registration returns to Disconnected.
type State int32

const (
	Disconnected State = iota
	Authenticating
	Authenticated
	ConfigurationFetched
	DevicesPopulated
	LocationsFlattened
)

var stateNames = []string{
	"disconnected",
	"authenticating",
	"authenticated",
	"configuration fetched",
	"devices populated",
	"locations flattened",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("unknown (id: %d)", s)
	}
	return stateNames[s]
}

type Options struct {
	Address          string
	Username         string
	Password         string
	ClientID         string
	Timeout          time.Duration
	InsecureTLS      bool
	ValueConcurrency int
}

// Client is the single owner of the session, the configuration document, the
// device store and the location map of one gateway
type Client struct {
	api       x1api.Gateway
	session   *Session
	config    *ConfigCache
	store     *devices.Store
	factory   *devices.Factory
	locations *locations.Map
	flattener *locations.Flattener

	populateMu sync.Mutex

	flattenMu sync.Mutex
	flattened bool

	state atomic.Int32
}

// New returns a client for the gateway at opts.Address
func New(opts Options) *Client {
	clientID := opts.ClientID
	if clientID == "" {
		clientID = DefaultClientID
	}

	live := x1api.NewLiveClient(opts.Address, opts.Username, opts.Password, clientID)
	if opts.InsecureTLS {
		live = live.WithInsecureTLS()
	}

	var api x1api.Gateway = live
	if opts.Timeout > 0 {
		api = live.WithTimeout(opts.Timeout)
	}

	return NewWithGateway(api, opts.ValueConcurrency)
}

// NewWithGateway builds a client on any Gateway implementation.  A
// concurrency below 1 keeps the factory default.
func NewWithGateway(api x1api.Gateway, concurrency int) *Client {
	c := &Client{
		api:       api,
		store:     devices.NewStore(),
		locations: locations.NewMap(),
	}

	c.session = NewSession(api)
	c.config = NewConfigCache(api, c.session)
	c.factory = devices.NewFactory(c.store)
	if concurrency > 0 {
		c.factory.SetConcurrency(concurrency)
	}
	c.flattener = locations.NewFlattener(c.store, c.locations)

	return c
}

func (c *Client) State() State {
	return State(c.state.Load())
}

// advance moves the state forward to s, never back
func (c *Client) advance(s State) {
	for {
		cur := c.state.Load()
		if cur >= int32(s) || c.state.CompareAndSwap(cur, int32(s)) {
			return
		}
	}
}

// Connect registers with the gateway, fetches the configuration, builds the
// devices and flattens the location tree.  Steps already done are skipped,
// so calling it again is cheap.
func (c *Client) Connect(ctx context.Context) error {
	c.advance(Authenticating)
	if err := c.session.Connect(ctx); err != nil {
		c.state.CompareAndSwap(int32(Authenticating), int32(Disconnected))
		return errors.Wrap(err, "connecting to gateway")
	}
	c.advance(Authenticated)

	if err := c.config.Fetch(ctx); err != nil {
		return errors.Wrap(err, "fetching configuration")
	}
	c.advance(ConfigurationFetched)

	doc, ok := c.config.Document()
	if !ok {
		return &x1api.FetchError{Reason: x1api.ErrMalformedDocument, Err: errors.New("configuration cache is empty")}
	}

	if err := c.populate(ctx, doc); err != nil {
		return errors.Wrap(err, "populating devices")
	}
	c.advance(DevicesPopulated)

	c.flattenOnce(ctx, doc)
	c.advance(LocationsFlattened)

	logging.Logger(ctx).Debugf("gateway client is %s", c.State())
	return nil
}

// populate runs one population at a time, so a Connect that overlaps another
// waits for it and then finds the store already populated
func (c *Client) populate(ctx context.Context, doc *x1api.UIConfig) error {
	c.populateMu.Lock()
	defer c.populateMu.Unlock()

	return c.factory.Populate(ctx, doc.Functions, c)
}

func (c *Client) flattenOnce(ctx context.Context, doc *x1api.UIConfig) {
	c.flattenMu.Lock()
	defer c.flattenMu.Unlock()

	if c.flattened {
		return
	}

	c.flattener.Flatten(ctx, doc.Locations)
	c.flattened = true
}

// Value reads a single data point
func (c *Client) Value(ctx context.Context, uid string) (uint16, error) {
	token, err := c.session.requireToken()
	if err != nil {
		return 0, err
	}

	values, err := c.api.Values(ctx, token, uid)
	if err != nil {
		return 0, err
	}

	for _, v := range values {
		if v.UID == uid {
			return parseValue(uid, v.Value)
		}
	}

	return 0, &x1api.CommandError{Reason: x1api.ErrMalformedResponse, UID: uid, Err: errors.New("no value for data point in response")}
}

// SetValue writes a single data point
func (c *Client) SetValue(ctx context.Context, uid string, value uint16) error {
	token, err := c.session.requireToken()
	if err != nil {
		return err
	}

	return c.api.SetValue(ctx, token, uid, value)
}

// FunctionValues reads every data point of a function, keyed by data point uid
func (c *Client) FunctionValues(ctx context.Context, functionUID string) (map[string]uint16, error) {
	token, err := c.session.requireToken()
	if err != nil {
		return nil, err
	}

	values, err := c.api.Values(ctx, token, functionUID)
	if err != nil {
		return nil, err
	}

	// unreadable values are left out; the device treats them as 0
	out := make(map[string]uint16, len(values))
	for _, v := range values {
		n, err := parseValue(v.UID, v.Value)
		if err != nil {
			logging.Logger(ctx).WithError(err).Debugf("function %s: skipping value of %s", functionUID, v.UID)
			continue
		}
		out[v.UID] = n
	}

	return out, nil
}

// ApplyEvent updates the cached value of every binding on the event's data
// point and returns how many were updated
func (c *Client) ApplyEvent(ctx context.Context, ev callback.Event) (int, error) {
	v, err := parseValue(ev.UID, ev.Value)
	if err != nil {
		return 0, err
	}

	n := c.store.ApplyValue(ev.UID, v)
	logging.Logger(ctx).Debugf("event %s = %d updated %d bindings", ev.UID, v, n)

	return n, nil
}

// CheckToken reports whether token is the one this client registered with
func (c *Client) CheckToken(token string) bool {
	t, ok := c.session.Token()
	return ok && t == token
}

func (c *Client) Devices() *devices.Store {
	return c.store
}

func (c *Client) Locations() *locations.Map {
	return c.locations
}

func (c *Client) Document() (*x1api.UIConfig, bool) {
	return c.config.Document()
}

func parseValue(uid string, s string) (uint16, error) {
	v, err := x1api.ParseValue(s)
	if err != nil {
		return 0, &x1api.CommandError{Reason: x1api.ErrMalformedResponse, UID: uid, Err: err}
	}

	return v, nil
}
