// Package lookup drives one person/address search through an automation
// session and turns the result page into a structured LookupResult.
package lookup

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/skiptrace-cli/internal/browser"
	"github.com/sells-group/skiptrace-cli/internal/match"
	"github.com/sells-group/skiptrace-cli/internal/model"
	"github.com/sells-group/skiptrace-cli/internal/pacing"
	"github.com/sells-group/skiptrace-cli/internal/resilience"
	"github.com/sells-group/skiptrace-cli/internal/session"
)

// maxResultCards bounds how many result entries one lookup inspects.
const maxResultCards = 20

// Engine performs lookups. Safe to reuse across sessions and batches.
type Engine struct {
	selectors browser.SelectorSet
	matcher   match.Matcher
	detector  Detector
	sleeper   *pacing.Sleeper
	state     string
	retry     resilience.RetryConfig
}

// New creates an Engine. state may be an abbreviation or full name.
func New(selectors browser.SelectorSet, matcher match.Matcher, detector Detector, sleeper *pacing.Sleeper, state string) *Engine {
	retry := resilience.DefaultRetryConfig()
	retry.OnRetry = resilience.RetryLogger("lookup", "navigate")
	return &Engine{
		selectors: selectors,
		matcher:   matcher,
		detector:  detector,
		sleeper:   sleeper,
		state:     NormalizeState(state),
		retry:     retry,
	}
}

// Lookup runs one search. It never returns an error: per-record failures
// are downgraded into the result status so a single record cannot abort
// the batch. blocked reports whether the target site denied the session;
// the caller decides whether to switch backends.
func (e *Engine) Lookup(ctx context.Context, sess *session.Session, item model.WorkItem) (result model.LookupResult, blocked bool) {
	log := zap.L().With(
		zap.Int("record", item.RecordID),
		zap.String("group", string(item.Group)),
	)

	first, last, ok := ParseName(item.SubjectName)
	if !ok {
		log.Warn("unparsable subject name", zap.String("name", item.SubjectName))
		return model.LookupResult{Status: model.StatusInvalidInput}, false
	}

	log.Info("searching", zap.String("first", first), zap.String("last", last))

	results, err := e.search(ctx, sess, first, last)
	if err != nil {
		log.Warn("lookup failed", zap.Error(err))
		return model.LookupResult{Status: model.StatusError, Detail: eris.Cause(err).Error()}, false
	}

	cards := results.Locate(e.selectors.ResultCard)
	if e.detector.IsBlocked(results.Text(), results.Title(), len(cards)) {
		log.Warn("blocking detected", zap.String("title", results.Title()))
		return model.LookupResult{Status: model.StatusError, Detail: "blocked"}, true
	}

	if res, found := e.scanCards(cards, first, last, item.TargetAddress, log); found {
		return res, false
	}

	return model.LookupResult{Status: model.StatusNoResults}, false
}

// search navigates to the entry page, accepts the consent prompt if
// present, fills the form, and submits. Returns the results page.
func (e *Engine) search(ctx context.Context, sess *session.Session, first, last string) (browser.Page, error) {
	page, err := e.navigate(ctx, sess, e.selectors.EntryURL)
	if err != nil {
		return nil, err
	}
	if err := e.sleeper.Sleep(ctx, pacing.Quick); err != nil {
		return nil, err
	}

	page, err = e.acceptConsent(ctx, page)
	if err != nil {
		return nil, err
	}

	if err := e.fillField(ctx, page, e.selectors.FirstNameInput, first); err != nil {
		return nil, err
	}
	if err := e.fillField(ctx, page, e.selectors.LastNameInput, last); err != nil {
		return nil, err
	}

	if e.state != "" {
		if sel := page.Locate(e.selectors.StateSelect); len(sel) > 0 {
			if err := sel[0].SelectOption(e.state); err != nil {
				return nil, eris.Wrap(err, "lookup: select state")
			}
		}
		if err := e.sleeper.Sleep(ctx, pacing.Quick); err != nil {
			return nil, err
		}
	}

	buttons := page.Locate(e.selectors.SearchButton)
	if len(buttons) == 0 {
		return nil, eris.New("lookup: search button not found")
	}
	if err := e.sleeper.WaitRequest(ctx); err != nil {
		return nil, err
	}
	results, err := buttons[0].Click(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "lookup: submit search")
	}
	sess.CountRequest()

	if err := e.sleeper.Sleep(ctx, pacing.Normal); err != nil {
		return nil, err
	}
	return results, nil
}

// acceptConsent clicks through a one-time consent prompt. Safe to call
// when the prompt is absent or already accepted.
func (e *Engine) acceptConsent(ctx context.Context, page browser.Page) (browser.Page, error) {
	buttons := page.Locate(e.selectors.ConsentButton)
	if len(buttons) == 0 {
		return page, nil
	}
	after, err := buttons[0].Click(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "lookup: accept consent")
	}
	if err := e.sleeper.Sleep(ctx, pacing.Quick); err != nil {
		return nil, err
	}
	return after, nil
}

func (e *Engine) fillField(ctx context.Context, page browser.Page, sel browser.Selector, value string) error {
	fields := page.Locate(sel)
	if len(fields) == 0 {
		return eris.Errorf("lookup: field %q not found", sel.CSS)
	}
	if err := fields[0].Fill(value); err != nil {
		return eris.Wrapf(err, "lookup: fill %q", sel.CSS)
	}
	return e.sleeper.Sleep(ctx, pacing.Typing)
}

func (e *Engine) navigate(ctx context.Context, sess *session.Session, url string) (browser.Page, error) {
	if err := e.sleeper.WaitRequest(ctx); err != nil {
		return nil, err
	}
	page, err := resilience.DoVal(ctx, e.retry, func(ctx context.Context) (browser.Page, error) {
		return sess.Handle().Navigate(ctx, url)
	})
	if err != nil {
		return nil, eris.Wrapf(err, "lookup: navigate %s", url)
	}
	sess.CountRequest()
	return page, nil
}

// scanCards walks the result entries in page order. The first entry whose
// text contains both name parts, whose addresses satisfy the matcher (an
// empty target address accepts any identity match), and which yields at
// least one phone wins.
func (e *Engine) scanCards(cards []browser.Element, first, last, targetAddress string, log *zap.Logger) (model.LookupResult, bool) {
	firstLower := strings.ToLower(first)
	lastLower := strings.ToLower(last)

	for i, card := range cards {
		if i >= maxResultCards {
			break
		}

		text := card.Text()
		textLower := strings.ToLower(text)

		// Coarse identity filter, not exact matching.
		if !strings.Contains(textLower, firstLower) || !strings.Contains(textLower, lastLower) {
			continue
		}

		matchedAddress := ""
		if targetAddress != "" {
			for _, line := range match.ExtractAddressLines(text) {
				if e.matcher.Matches(targetAddress, line) {
					matchedAddress = line
					break
				}
			}
			if matchedAddress == "" {
				continue
			}
		}

		phones := match.ExtractPhones(text)
		if len(phones) == 0 {
			continue
		}

		log.Info("match found",
			zap.Int("card", i+1),
			zap.Int("phones", len(phones)),
			zap.String("matched_address", matchedAddress),
		)
		return model.LookupResult{
			Status:         model.StatusSuccess,
			Phones:         phones,
			MatchedAddress: matchedAddress,
		}, true
	}

	return model.LookupResult{}, false
}
