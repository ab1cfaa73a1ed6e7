package session

import (
	"math/rand/v2"

	"github.com/sells-group/skiptrace-cli/internal/browser"
)

// IdentityPool configures the fingerprint fields a session can draw.
type IdentityPool struct {
	// UserAgents maps backend to its candidate user-agent strings.
	UserAgents map[browser.Backend][]string

	// Viewport dimension bounds, inclusive.
	MinWidth, MaxWidth   int
	MinHeight, MaxHeight int

	Locale   string
	Timezone string
}

// DefaultIdentityPool returns the stock identity pool: current desktop
// user agents per engine family and common desktop viewport sizes.
func DefaultIdentityPool() IdentityPool {
	return IdentityPool{
		UserAgents: map[browser.Backend][]string{
			browser.BackendChromium: {
				"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
				"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
				"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Edge/121.0.0.0 Safari/537.36",
				"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
			},
			browser.BackendFirefox: {
				"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:122.0) Gecko/20100101 Firefox/122.0",
				"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:122.0) Gecko/20100101 Firefox/122.0",
			},
		},
		MinWidth:  1366,
		MaxWidth:  1920,
		MinHeight: 768,
		MaxHeight: 1080,
		Locale:    "en-US",
		Timezone:  "America/New_York",
	}
}

// Draw selects a random identity for the backend. An empty user-agent
// list for the backend falls back to any configured list.
func (p IdentityPool) Draw(backend browser.Backend) browser.Identity {
	agents := p.UserAgents[backend]
	if len(agents) == 0 {
		for _, alt := range p.UserAgents {
			if len(alt) > 0 {
				agents = alt
				break
			}
		}
	}

	id := browser.Identity{
		Locale:   p.Locale,
		Timezone: p.Timezone,
	}
	if len(agents) > 0 {
		id.UserAgent = agents[rand.IntN(len(agents))]
	}
	id.ViewportWidth = randBetween(p.MinWidth, p.MaxWidth)
	id.ViewportHeight = randBetween(p.MinHeight, p.MaxHeight)
	return id
}

func randBetween(min, max int) int {
	if max <= min {
		return min
	}
	return min + rand.IntN(max-min+1)
}
