package gateway

import (
	"context"
	"sync"

	"github.com/jake-scott/gira-x1/internal/pkg/logging"
	"github.com/jake-scott/gira-x1/internal/pkg/x1api"
)

// ConfigCache holds the uiconfig document, downloaded at most once
type ConfigCache struct {
	mu      sync.Mutex
	doc     *x1api.UIConfig
	api     x1api.Gateway
	session *Session
}

func NewConfigCache(api x1api.Gateway, session *Session) *ConfigCache {
	return &ConfigCache{
		api:     api,
		session: session,
	}
}

// Fetch downloads the document unless one is already cached.  It fails with
// ErrNotConnected before the session has a token.
func (c *ConfigCache) Fetch(ctx context.Context) error {
	if _, ok := c.Document(); ok {
		return nil
	}

	token, err := c.session.requireToken()
	if err != nil {
		return err
	}

	doc, err := c.api.UIConfig(ctx, token)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.doc == nil {
		c.doc = doc
		logging.Logger(ctx).Infof("fetched configuration %s: %d functions, %d top level locations, %d trades",
			doc.UID, len(doc.Functions), len(doc.Locations), len(doc.Trades))
	}

	return nil
}

func (c *ConfigCache) Document() (*x1api.UIConfig, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.doc, c.doc != nil
}

// Clear drops the cached document so the next Fetch downloads it again
func (c *ConfigCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.doc = nil
}
