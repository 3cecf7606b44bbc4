package upstream

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stocksentry/stocksentry/internal/config"
	"github.com/stocksentry/stocksentry/pkg/logger"
	"golang.org/x/sync/singleflight"
)

// SessionProvider obtains and caches the upstream access credential. The
// cached session is valid for the configured TTL; concurrent refreshes are
// collapsed into a single upstream login via singleflight.
type SessionProvider struct {
	client *resty.Client
	cfg    config.UpstreamConfig
	ttl    time.Duration

	mu      sync.RWMutex
	current *Session
	group   singleflight.Group
}

// NewSessionProvider creates a new session provider
func NewSessionProvider(cfg config.UpstreamConfig) *SessionProvider {
	return &SessionProvider{
		client: resty.New().
			SetBaseURL(cfg.BaseURL).
			SetTimeout(cfg.RequestTimeout()),
		cfg: cfg,
		ttl: cfg.SessionTTL(),
	}
}

// Session returns a valid cached session, refreshing it when expired.
// forceRefresh always re-authenticates regardless of TTL.
func (p *SessionProvider) Session(ctx context.Context, forceRefresh bool) (*Session, error) {
	if !forceRefresh {
		p.mu.RLock()
		cached := p.current
		p.mu.RUnlock()
		if cached != nil && time.Since(cached.AcquiredAt) < p.ttl {
			return cached, nil
		}
	}

	v, err, _ := p.group.Do("login", func() (interface{}, error) {
		return p.login(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}

// login performs the username/password exchange and overwrites the single
// cached session. No session history is kept.
func (p *SessionProvider) login(ctx context.Context) (*Session, error) {
	var out loginResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(loginRequest{Username: p.cfg.Username, Password: p.cfg.Password}).
		SetResult(&out).
		Post(p.cfg.LoginPath)

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	if resp.StatusCode() != http.StatusOK || out.Token == "" {
		return nil, NewUpstreamError(p.cfg.LoginPath, resp.StatusCode(), "login rejected", ErrAuthFailed)
	}

	session := &Session{Token: out.Token, AcquiredAt: time.Now()}

	p.mu.Lock()
	p.current = session
	p.mu.Unlock()

	logger.Log.Debug().Time("acquired_at", session.AcquiredAt).Msg("upstream session refreshed")
	return session, nil
}
