// Package session owns the lifecycle of automation sessions: identity
// randomization at open, guaranteed teardown, and the cooldown that keeps
// session churn itself from becoming a detection signal.
package session

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/skiptrace-cli/internal/browser"
)

// Session is one live automation instance with its randomized identity.
// Owned exclusively by the orchestrator for the duration of one batch or
// until a blocking-triggered switch replaces it.
type Session struct {
	Backend   browser.Backend
	Identity  browser.Identity
	CreatedAt time.Time

	handle   browser.Session
	requests int
}

// Handle exposes the underlying automation session.
func (s *Session) Handle() browser.Session {
	return s.handle
}

// CountRequest increments the session's request counter and returns it.
func (s *Session) CountRequest() int {
	s.requests++
	return s.requests
}

// Requests returns how many page loads this session has performed.
func (s *Session) Requests() int {
	return s.requests
}

// Manager opens and closes sessions against a Driver.
type Manager struct {
	driver  browser.Driver
	pool    IdentityPool
	cooldown time.Duration
	opened  int
}

// NewManager creates a Manager. cooldown is the fixed delay applied after
// every close; zero disables it (tests).
func NewManager(driver browser.Driver, pool IdentityPool, cooldown time.Duration) *Manager {
	return &Manager{driver: driver, pool: pool, cooldown: cooldown}
}

// Opened returns how many sessions this manager has created.
func (m *Manager) Opened() int {
	return m.opened
}

// Open creates a fresh session on the given backend with an identity
// drawn at random from the pool.
func (m *Manager) Open(ctx context.Context, backend browser.Backend) (*Session, error) {
	id := m.pool.Draw(backend)

	handle, err := m.driver.OpenSession(ctx, backend, id)
	if err != nil {
		return nil, eris.Wrapf(err, "session: open %s", backend)
	}
	m.opened++

	zap.L().Info("session opened",
		zap.Int("session_num", m.opened),
		zap.String("backend", string(backend)),
		zap.String("user_agent", truncate(id.UserAgent, 50)),
		zap.Int("viewport_w", id.ViewportWidth),
		zap.Int("viewport_h", id.ViewportHeight),
	)

	return &Session{
		Backend:   backend,
		Identity:  id,
		CreatedAt: time.Now().UTC(),
		handle:    handle,
	}, nil
}

// Close releases the session's resources and applies the cooldown. The
// close itself must succeed even when the session errored mid-use; the
// cooldown is skipped only on context cancellation.
func (m *Manager) Close(ctx context.Context, s *Session) error {
	if s == nil {
		return nil
	}

	err := s.handle.Close(ctx)
	if err != nil {
		err = eris.Wrapf(err, "session: close %s", s.Backend)
	}

	zap.L().Info("session closed",
		zap.String("backend", string(s.Backend)),
		zap.Int("requests", s.requests),
		zap.Duration("lifetime", time.Since(s.CreatedAt)),
	)

	if m.cooldown > 0 {
		timer := time.NewTimer(m.cooldown)
		defer timer.Stop()
		select {
		case <-ctx.Done():
		case <-timer.C:
		}
	}

	return err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
