// Package webclient implements the browser capability interface over
// plain HTTP with cookie persistence and header shaping per backend.
// It is the degraded in-process automation engine: no JavaScript runs,
// so challenge pages surface as blocked content for the detector rather
// than being solved.
package webclient

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"github.com/sells-group/skiptrace-cli/internal/browser"
	"github.com/sells-group/skiptrace-cli/internal/resilience"
)

const maxBodyBytes = 2 * 1024 * 1024

// Driver implements browser.Driver over net/http.
type Driver struct {
	// Timeout bounds each page load. Default 30s.
	Timeout time.Duration
}

// OpenSession creates a session with a fresh cookie jar and the identity's
// header profile. Each session is isolated: no cookies or connection state
// survive from previous sessions.
func (d *Driver) OpenSession(_ context.Context, backend browser.Backend, id browser.Identity) (browser.Session, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, eris.Wrap(err, "webclient: cookie jar")
	}

	timeout := d.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &session{
		backend:  backend,
		identity: id,
		client: &http.Client{
			Jar:     jar,
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
	}, nil
}

type session struct {
	backend  browser.Backend
	identity browser.Identity
	client   *http.Client
	closed   bool
}

// Navigate fetches a URL and parses it into a page.
func (s *session) Navigate(ctx context.Context, pageURL string) (browser.Page, error) {
	if s.closed {
		return nil, eris.New("webclient: session closed")
	}
	return s.fetch(ctx, http.MethodGet, pageURL, nil)
}

// Close drops the cookie jar and idle connections. Idempotent.
func (s *session) Close(_ context.Context) error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.client.CloseIdleConnections()
	return nil
}

func (s *session) fetch(ctx context.Context, method, pageURL string, form url.Values) (browser.Page, error) {
	var body io.Reader
	if method == http.MethodPost && form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, pageURL, body)
	if err != nil {
		return nil, eris.Wrapf(err, "webclient: build request for %s", pageURL)
	}
	s.applyHeaders(req)
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrapf(err, "webclient: fetch %s", pageURL), 0)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrapf(err, "webclient: read %s", pageURL), resp.StatusCode)
	}

	if resilience.IsTransientHTTPStatus(resp.StatusCode) {
		// Parse anyway: a 503 challenge page is exactly what the
		// blocking detector needs to see.
		p, perr := parsePage(s, resp.Request.URL, raw)
		if perr != nil {
			return nil, resilience.NewTransientError(eris.Errorf("webclient: status %d for %s", resp.StatusCode, pageURL), resp.StatusCode)
		}
		return p, nil
	}

	return parsePage(s, resp.Request.URL, raw)
}

// applyHeaders shapes request headers to match the session's claimed
// engine. The identity's user agent always wins.
func (s *session) applyHeaders(req *http.Request) {
	req.Header.Set("User-Agent", s.identity.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", s.identity.Locale+",en;q=0.9")

	switch s.backend {
	case browser.BackendChromium:
		req.Header.Set("Sec-Ch-Ua-Mobile", "?0")
		req.Header.Set("Sec-Fetch-Dest", "document")
		req.Header.Set("Sec-Fetch-Mode", "navigate")
		req.Header.Set("Upgrade-Insecure-Requests", "1")
	case browser.BackendFirefox:
		req.Header.Set("DNT", "1")
		req.Header.Set("Upgrade-Insecure-Requests", "1")
	}
}

func parsePage(s *session, base *url.URL, raw []byte) (browser.Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(raw)))
	if err != nil {
		return nil, eris.Wrap(err, "webclient: parse html")
	}
	return &page{
		session: s,
		base:    base,
		doc:     doc,
		fills:   make(map[string]string),
	}, nil
}
