package shiprocket

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/trovecart/shipping/pkg/carrier"
)

// defaultTokenTTL is applied when the carrier omits expires_in. Shiprocket
// tokens are valid for ten days.
const defaultTokenTTL = 240 * time.Hour

// expirySkew refreshes slightly before the reported expiry so in-flight
// requests never carry a token that lapses mid-call.
const expirySkew = 30 * time.Second

// LoginFunc performs a raw login call against the carrier.
type LoginFunc func(ctx context.Context) (*LoginResponse, error)

// Session owns the process-wide bearer token and its expiry. Any number of
// callers may read the cached token concurrently; refreshes are coalesced
// so at most one login call is in flight at a time.
type Session struct {
	login LoginFunc
	now   func() time.Time

	mu      sync.RWMutex
	token   string
	expires time.Time

	group singleflight.Group
}

// NewSession creates a session around the given login call.
func NewSession(login LoginFunc) *Session {
	return &Session{
		login: login,
		now:   time.Now,
	}
}

// SetClock overrides the session clock. Test use only.
func (s *Session) SetClock(now func() time.Time) {
	s.now = now
}

// Token guarantees that on return a valid, non-expired token is available.
// It logs in when no token is cached or the cached one has expired. Login
// failures surface as authentication errors; callers decide whether to
// retry the outer operation.
func (s *Session) Token(ctx context.Context) (string, error) {
	s.mu.RLock()
	token, expires := s.token, s.expires
	s.mu.RUnlock()

	if token != "" && s.now().Before(expires) {
		return token, nil
	}

	v, err, _ := s.group.Do("login", func() (any, error) {
		// Another caller may have refreshed while we waited on the group.
		s.mu.RLock()
		token, expires := s.token, s.expires
		s.mu.RUnlock()
		if token != "" && s.now().Before(expires) {
			return token, nil
		}

		resp, err := s.login(ctx)
		if err != nil {
			return "", err
		}
		if resp.Token == "" {
			return "", carrier.NewAuthenticationError("carrier returned an empty token")
		}

		ttl := defaultTokenTTL
		if resp.ExpiresIn > 0 {
			ttl = time.Duration(resp.ExpiresIn) * time.Second
		}

		s.mu.Lock()
		s.token = resp.Token
		s.expires = s.now().Add(ttl - expirySkew)
		s.mu.Unlock()

		return resp.Token, nil
	})
	if err != nil {
		if carrier.KindOf(err) == "" {
			return "", carrier.NewAuthenticationError("carrier login failed").WithCause(err)
		}
		return "", err
	}
	return v.(string), nil
}

// Invalidate drops the cached token so the next call logs in again. Used
// when the carrier rejects a token before its reported expiry.
func (s *Session) Invalidate() {
	s.mu.Lock()
	s.token = ""
	s.expires = time.Time{}
	s.mu.Unlock()
}
