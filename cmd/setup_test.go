package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/skiptrace-cli/internal/browser"
	"github.com/sells-group/skiptrace-cli/internal/config"
)

func TestNewSleeper_UsesConfiguredRanges(t *testing.T) {
	s := newSleeper(config.PacingConfig{
		BetweenSearches: config.DelayRange{MinMs: 10, MaxMs: 11},
	})

	for i := 0; i < 20; i++ {
		d := s.Draw("between_searches")
		assert.GreaterOrEqual(t, d, 10*time.Millisecond)
		assert.Less(t, d, 11*time.Millisecond)
	}

	// Classes left zero fall back to the built-in profile.
	d := s.Draw("session_break")
	assert.GreaterOrEqual(t, d, 60*time.Second)
}

func TestNewIdentityPool_Overlay(t *testing.T) {
	pool := newIdentityPool(config.SessionConfig{
		ChromiumUserAgents: []string{"ua-custom"},
	})

	assert.Equal(t, []string{"ua-custom"}, pool.UserAgents[browser.BackendChromium])
	assert.NotEmpty(t, pool.UserAgents[browser.BackendFirefox])
}

func TestLoadSelectors_DefaultWhenUnset(t *testing.T) {
	set, err := loadSelectors(config.LookupConfig{})
	assert.NoError(t, err)
	assert.NotEmpty(t, set.EntryURL)
}
