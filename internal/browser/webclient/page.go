package webclient

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"github.com/sells-group/skiptrace-cli/internal/browser"
)

// page wraps a parsed document plus the form state accumulated by Fill
// and SelectOption calls, flushed when a submit element is clicked.
type page struct {
	session *session
	base    *url.URL
	doc     *goquery.Document
	fills   map[string]string
}

func (p *page) Title() string {
	return strings.TrimSpace(p.doc.Find("title").First().Text())
}

func (p *page) Text() string {
	p.doc.Find("script, style, noscript").Remove()
	return p.doc.Find("body").Text()
}

func (p *page) Locate(sel browser.Selector) []browser.Element {
	if sel.CSS == "" {
		return nil
	}

	var out []browser.Element
	p.doc.Find(sel.CSS).Each(func(_ int, s *goquery.Selection) {
		if sel.TextContains != "" && !strings.Contains(s.Text(), sel.TextContains) {
			return
		}
		out = append(out, &element{page: p, sel: s})
	})
	return out
}

type element struct {
	page *page
	sel  *goquery.Selection
}

func (e *element) Text() string {
	return e.sel.Text()
}

// Fill records a value for the element's form field. The field must carry
// a name attribute to survive submission.
func (e *element) Fill(value string) error {
	name, ok := e.sel.Attr("name")
	if !ok || name == "" {
		return eris.New("webclient: fill target has no name attribute")
	}
	e.page.fills[name] = value
	return nil
}

// SelectOption records the dropdown option whose value or visible label
// matches.
func (e *element) SelectOption(value string) error {
	name, ok := e.sel.Attr("name")
	if !ok || name == "" {
		return eris.New("webclient: select target has no name attribute")
	}

	var chosen string
	e.sel.Find("option").EachWithBreak(func(_ int, opt *goquery.Selection) bool {
		v, hasVal := opt.Attr("value")
		if (hasVal && v == value) || strings.TrimSpace(opt.Text()) == value {
			if hasVal {
				chosen = v
			} else {
				chosen = strings.TrimSpace(opt.Text())
			}
			return false
		}
		return true
	})
	if chosen == "" {
		return eris.Errorf("webclient: no option %q in select %q", value, name)
	}

	e.page.fills[name] = chosen
	return nil
}

// Click follows links and submits forms. A click on an element inside a
// form submits that form with the accumulated fills; a link navigates to
// its href; anything else is a no-op returning the current page (consent
// banners driven by script have their effect captured via cookies on the
// next navigation).
func (e *element) Click(ctx context.Context) (browser.Page, error) {
	if href, ok := e.sel.Attr("href"); ok && href != "" {
		target, err := e.page.resolve(href)
		if err != nil {
			return nil, err
		}
		return e.page.session.fetch(ctx, http.MethodGet, target, nil)
	}

	form := e.sel.Closest("form")
	if form.Length() > 0 {
		return e.page.submitForm(ctx, form)
	}

	return e.page, nil
}

func (p *page) resolve(href string) (string, error) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", eris.Wrapf(err, "webclient: bad href %q", href)
	}
	if p.base == nil {
		return ref.String(), nil
	}
	return p.base.ResolveReference(ref).String(), nil
}

// submitForm gathers the form's named fields, overlays the recorded
// fills, and performs the form's method against its action.
func (p *page) submitForm(ctx context.Context, form *goquery.Selection) (browser.Page, error) {
	values := url.Values{}

	form.Find("input[name], select[name], textarea[name]").Each(func(_ int, field *goquery.Selection) {
		name, _ := field.Attr("name")
		if v, ok := field.Attr("value"); ok {
			values.Set(name, v)
		} else {
			values.Set(name, "")
		}
	})
	for name, v := range p.fills {
		values.Set(name, v)
	}

	action, _ := form.Attr("action")
	target, err := p.resolve(action)
	if err != nil {
		return nil, err
	}

	method, _ := form.Attr("method")
	if strings.EqualFold(method, "post") {
		return p.session.fetch(ctx, http.MethodPost, target, values)
	}

	u, err := url.Parse(target)
	if err != nil {
		return nil, eris.Wrapf(err, "webclient: bad form action %q", action)
	}
	u.RawQuery = values.Encode()
	return p.session.fetch(ctx, http.MethodGet, u.String(), nil)
}
