package session

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/skiptrace-cli/internal/browser"
)

// fakeDriver records open calls and hands out fakeSessions.
type fakeDriver struct {
	opened  []browser.Backend
	openErr error
}

func (d *fakeDriver) OpenSession(_ context.Context, backend browser.Backend, _ browser.Identity) (browser.Session, error) {
	if d.openErr != nil {
		return nil, d.openErr
	}
	d.opened = append(d.opened, backend)
	return &fakeSession{}, nil
}

type fakeSession struct {
	closed   int
	closeErr error
}

func (s *fakeSession) Navigate(context.Context, string) (browser.Page, error) {
	return nil, eris.New("not implemented")
}

func (s *fakeSession) Close(context.Context) error {
	s.closed++
	return s.closeErr
}

func TestManager_OpenDrawsIdentity(t *testing.T) {
	d := &fakeDriver{}
	m := NewManager(d, DefaultIdentityPool(), 0)

	s, err := m.Open(context.Background(), browser.BackendChromium)
	require.NoError(t, err)

	assert.Equal(t, browser.BackendChromium, s.Backend)
	assert.NotEmpty(t, s.Identity.UserAgent)
	assert.GreaterOrEqual(t, s.Identity.ViewportWidth, 1366)
	assert.LessOrEqual(t, s.Identity.ViewportWidth, 1920)
	assert.GreaterOrEqual(t, s.Identity.ViewportHeight, 768)
	assert.LessOrEqual(t, s.Identity.ViewportHeight, 1080)
	assert.Equal(t, 1, m.Opened())
	assert.Zero(t, s.Requests())
}

func TestManager_OpenError(t *testing.T) {
	d := &fakeDriver{openErr: eris.New("launch failed")}
	m := NewManager(d, DefaultIdentityPool(), 0)

	_, err := m.Open(context.Background(), browser.BackendFirefox)
	assert.Error(t, err)
	assert.Zero(t, m.Opened())
}

func TestManager_CloseReleasesAndReportsError(t *testing.T) {
	d := &fakeDriver{}
	m := NewManager(d, DefaultIdentityPool(), 0)

	s, err := m.Open(context.Background(), browser.BackendChromium)
	require.NoError(t, err)

	fake := s.Handle().(*fakeSession)
	fake.closeErr = eris.New("teardown failed")

	err = m.Close(context.Background(), s)
	assert.Error(t, err)
	assert.Equal(t, 1, fake.closed)
}

func TestManager_CloseNilIsNoop(t *testing.T) {
	m := NewManager(&fakeDriver{}, DefaultIdentityPool(), 0)
	assert.NoError(t, m.Close(context.Background(), nil))
}

func TestManager_CloseAppliesCooldown(t *testing.T) {
	d := &fakeDriver{}
	m := NewManager(d, DefaultIdentityPool(), 30*time.Millisecond)

	s, err := m.Open(context.Background(), browser.BackendChromium)
	require.NoError(t, err)

	start := time.Now()
	require.NoError(t, m.Close(context.Background(), s))
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestSession_CountRequest(t *testing.T) {
	s := &Session{}
	assert.Equal(t, 1, s.CountRequest())
	assert.Equal(t, 2, s.CountRequest())
	assert.Equal(t, 2, s.Requests())
}

func TestIdentityPool_DrawFallsBackAcrossBackends(t *testing.T) {
	pool := IdentityPool{
		UserAgents: map[browser.Backend][]string{
			browser.BackendChromium: {"ua-chromium"},
		},
		MinWidth: 800, MaxWidth: 800,
		MinHeight: 600, MaxHeight: 600,
		Locale: "en-US", Timezone: "America/New_York",
	}

	id := pool.Draw(browser.BackendFirefox)
	assert.Equal(t, "ua-chromium", id.UserAgent)
	assert.Equal(t, 800, id.ViewportWidth)
	assert.Equal(t, 600, id.ViewportHeight)
}

func TestBackend_Alternate(t *testing.T) {
	assert.Equal(t, browser.BackendFirefox, browser.BackendChromium.Alternate())
	assert.Equal(t, browser.BackendChromium, browser.BackendFirefox.Alternate())
}
