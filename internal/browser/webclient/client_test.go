package webclient

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/skiptrace-cli/internal/browser"
)

const searchFormHTML = `<html><head><title>People Search</title></head><body>
<button id="consent">I AGREE</button>
<form action="/results" method="get">
  <input name="fn" placeholder="eg. John">
  <input name="ln" placeholder="eg. Smith">
  <select name="state">
    <option value="">Any</option>
    <option value="FL">Florida</option>
  </select>
  <button type="submit">Search</button>
</form>
</body></html>`

func testIdentity() browser.Identity {
	return browser.Identity{
		UserAgent:      "Mozilla/5.0 (test)",
		ViewportWidth:  1366,
		ViewportHeight: 768,
		Locale:         "en-US",
		Timezone:       "America/New_York",
	}
}

func openTestSession(t *testing.T, backend browser.Backend) browser.Session {
	t.Helper()
	d := &Driver{}
	sess, err := d.OpenSession(context.Background(), backend, testIdentity())
	require.NoError(t, err)
	t.Cleanup(func() { _ = sess.Close(context.Background()) })
	return sess
}

func TestNavigate_ParsesTitleAndText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>Hello</title><script>var x=1;</script></head><body><p>Visible text</p></body></html>`)
	}))
	defer srv.Close()

	sess := openTestSession(t, browser.BackendChromium)
	page, err := sess.Navigate(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, "Hello", page.Title())
	assert.Contains(t, page.Text(), "Visible text")
	assert.NotContains(t, page.Text(), "var x=1")
}

func TestNavigate_SendsIdentityHeaders(t *testing.T) {
	var gotUA, gotLang string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotLang = r.Header.Get("Accept-Language")
		fmt.Fprint(w, "<html><body>ok page content here</body></html>")
	}))
	defer srv.Close()

	sess := openTestSession(t, browser.BackendFirefox)
	_, err := sess.Navigate(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, "Mozilla/5.0 (test)", gotUA)
	assert.Contains(t, gotLang, "en-US")
}

func TestLocate_TextContainsFilter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, searchFormHTML)
	}))
	defer srv.Close()

	sess := openTestSession(t, browser.BackendChromium)
	page, err := sess.Navigate(context.Background(), srv.URL)
	require.NoError(t, err)

	buttons := page.Locate(browser.Selector{CSS: "button", TextContains: "I AGREE"})
	require.Len(t, buttons, 1)
	assert.Contains(t, buttons[0].Text(), "I AGREE")

	all := page.Locate(browser.Selector{CSS: "button"})
	assert.Len(t, all, 2)
}

func TestFormFillAndSubmit(t *testing.T) {
	var gotQuery string
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, searchFormHTML)
	})
	mux.HandleFunc("/results", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		fmt.Fprint(w, `<html><head><title>Results</title></head><body><div class="person">John Smith</div></body></html>`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	sess := openTestSession(t, browser.BackendChromium)
	page, err := sess.Navigate(context.Background(), srv.URL)
	require.NoError(t, err)

	first := page.Locate(browser.Selector{CSS: `input[placeholder*="John"]`})
	require.Len(t, first, 1)
	require.NoError(t, first[0].Fill("John"))

	last := page.Locate(browser.Selector{CSS: `input[placeholder*="Smith"]`})
	require.Len(t, last, 1)
	require.NoError(t, last[0].Fill("Smith"))

	state := page.Locate(browser.Selector{CSS: "select"})
	require.Len(t, state, 1)
	require.NoError(t, state[0].SelectOption("Florida"))

	submit := page.Locate(browser.Selector{CSS: "button", TextContains: "Search"})
	require.Len(t, submit, 1)

	results, err := submit[0].Click(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Results", results.Title())
	assert.Contains(t, gotQuery, "fn=John")
	assert.Contains(t, gotQuery, "ln=Smith")
	assert.Contains(t, gotQuery, "state=FL")
}

func TestSelectOption_UnknownValue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, searchFormHTML)
	}))
	defer srv.Close()

	sess := openTestSession(t, browser.BackendChromium)
	page, err := sess.Navigate(context.Background(), srv.URL)
	require.NoError(t, err)

	state := page.Locate(browser.Selector{CSS: "select"})
	require.Len(t, state, 1)
	assert.Error(t, state[0].SelectOption("Atlantis"))
}

func TestClick_NonFormButtonIsNoop(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, searchFormHTML)
	}))
	defer srv.Close()

	sess := openTestSession(t, browser.BackendChromium)
	page, err := sess.Navigate(context.Background(), srv.URL)
	require.NoError(t, err)

	consent := page.Locate(browser.Selector{CSS: "button", TextContains: "I AGREE"})
	require.Len(t, consent, 1)

	after, err := consent[0].Click(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "People Search", after.Title())
}

func TestNavigate_ClosedSession(t *testing.T) {
	sess := openTestSession(t, browser.BackendChromium)
	require.NoError(t, sess.Close(context.Background()))

	_, err := sess.Navigate(context.Background(), "http://127.0.0.1:0/")
	assert.Error(t, err)
}

func TestNavigate_ChallengePageStillParsed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, `<html><head><title>Access Denied</title></head><body>unusual traffic detected</body></html>`)
	}))
	defer srv.Close()

	sess := openTestSession(t, browser.BackendChromium)
	page, err := sess.Navigate(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "Access Denied", page.Title())
	assert.Contains(t, page.Text(), "unusual traffic")
}
