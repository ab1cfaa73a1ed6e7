// Package browser defines the narrow capability interface the lookup
// engine drives. The engine never touches HTTP, HTML, or element location
// directly; it navigates, locates, reads, fills, and clicks through these
// interfaces, so the automation backend can be swapped without touching
// the matching or orchestration logic.
package browser

import (
	"context"

	"github.com/rotisserie/eris"
)

// Backend enumerates the interchangeable automation engines. Blocking
// recovery switches between them mid-batch.
type Backend string

const (
	BackendChromium Backend = "chromium"
	BackendFirefox  Backend = "firefox"
)

// ParseBackend converts a string into a Backend.
func ParseBackend(s string) (Backend, error) {
	switch s {
	case "chromium":
		return BackendChromium, nil
	case "firefox":
		return BackendFirefox, nil
	default:
		return "", eris.Errorf("unknown backend: %q (valid: chromium, firefox)", s)
	}
}

// Alternate returns the other backend.
func (b Backend) Alternate() Backend {
	if b == BackendChromium {
		return BackendFirefox
	}
	return BackendChromium
}

// Identity is the per-session fingerprint drawn from the configured pool.
type Identity struct {
	UserAgent      string
	ViewportWidth  int
	ViewportHeight int
	Locale         string
	Timezone       string
}

// Driver creates automation sessions on a given backend.
type Driver interface {
	// OpenSession launches a fresh session configured with the identity
	// and the backend's baseline anti-fingerprinting profile.
	OpenSession(ctx context.Context, backend Backend, id Identity) (Session, error)
}

// Session is one live automation instance. Not safe for concurrent use;
// the orchestrator drives exactly one session at a time.
type Session interface {
	// Navigate loads a URL and returns the resulting page.
	Navigate(ctx context.Context, url string) (Page, error)
	// Close releases all underlying resources. Idempotent.
	Close(ctx context.Context) error
}

// Page is a loaded document.
type Page interface {
	Title() string
	// Text returns the page's visible text content.
	Text() string
	// Locate resolves a selector descriptor to matching elements.
	Locate(sel Selector) []Element
}

// Element is a located page element.
type Element interface {
	// Text returns the element's text content.
	Text() string
	// Fill sets a form field's value.
	Fill(value string) error
	// SelectOption chooses a dropdown option by visible label or value.
	SelectOption(value string) error
	// Click activates the element. Clicks that trigger navigation
	// (submit buttons, links) return the new page; others return the
	// current page.
	Click(ctx context.Context) (Page, error)
}
