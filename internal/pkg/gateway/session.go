package gateway

import (
	"context"
	"crypto/sha1" //nolint:gosec
	"encoding/base64"
	"sync"

	"github.com/jake-scott/gira-x1/internal/pkg/logging"
	"github.com/jake-scott/gira-x1/internal/pkg/x1api"
)

// Session owns the token issued by the gateway.  Once set the token is
// never replaced within the process.
type Session struct {
	mu    sync.Mutex
	token string
	api   x1api.Gateway
}

func NewSession(api x1api.Gateway) *Session {
	return &Session{api: api}
}

// Connect registers this client with the gateway unless a token is already
// held.  The lock is not held during the request; if two callers race, the
// first token stored wins.
func (s *Session) Connect(ctx context.Context) error {
	if _, ok := s.Token(); ok {
		return nil
	}

	token, err := s.api.RegisterClient(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token == "" {
		s.token = token
		logging.Logger(ctx).Infof("registered with gateway, token digest [%s]", digest(token))
	}

	return nil
}

// Token returns the cached token, if there is one
func (s *Session) Token() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.token, s.token != ""
}

func (s *Session) requireToken() (string, error) {
	token, ok := s.Token()
	if !ok {
		return "", &x1api.AuthError{Reason: x1api.ErrNotConnected}
	}

	return token, nil
}

// digest lets the token be correlated in logs without revealing it
func digest(s string) string {
	sum := sha1.Sum([]byte(s)) //nolint:gosec
	return base64.StdEncoding.EncodeToString(sum[:])
}
