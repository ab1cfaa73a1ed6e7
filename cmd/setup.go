package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/skiptrace-cli/internal/browser"
	"github.com/sells-group/skiptrace-cli/internal/config"
	"github.com/sells-group/skiptrace-cli/internal/journal"
	"github.com/sells-group/skiptrace-cli/internal/lookup"
	"github.com/sells-group/skiptrace-cli/internal/match"
	"github.com/sells-group/skiptrace-cli/internal/pacing"
	"github.com/sells-group/skiptrace-cli/internal/session"
)

// newSleeper builds the pacing sleeper from configured delay ranges.
func newSleeper(pc config.PacingConfig) *pacing.Sleeper {
	ranges := map[pacing.DelayClass]pacing.Range{}
	for class, dr := range map[pacing.DelayClass]config.DelayRange{
		pacing.Quick:           pc.Quick,
		pacing.Normal:          pc.Normal,
		pacing.Typing:          pc.Typing,
		pacing.BetweenSearches: pc.BetweenSearches,
		pacing.BetweenBatches:  pc.BetweenBatches,
		pacing.SessionBreak:    pc.SessionBreak,
	} {
		min, max := dr.Range()
		ranges[class] = pacing.Range{Min: min, Max: max}
	}
	return pacing.New(ranges, time.Duration(pc.MinRequestIntervalMs)*time.Millisecond)
}

// newIdentityPool starts from the built-in pool and overlays any
// configured user-agent lists.
func newIdentityPool(sc config.SessionConfig) session.IdentityPool {
	pool := session.DefaultIdentityPool()
	if len(sc.ChromiumUserAgents) > 0 {
		pool.UserAgents[browser.BackendChromium] = sc.ChromiumUserAgents
	}
	if len(sc.FirefoxUserAgents) > 0 {
		pool.UserAgents[browser.BackendFirefox] = sc.FirefoxUserAgents
	}
	return pool
}

// loadSelectors returns the selector descriptors, overlaid from the
// configured file when one is set.
func loadSelectors(lc config.LookupConfig) (browser.SelectorSet, error) {
	if lc.SelectorsPath == "" {
		return browser.DefaultSelectors(), nil
	}
	return browser.LoadSelectors(lc.SelectorsPath)
}

// newEngine wires the lookup engine from config.
func newEngine(c *config.Config, sleeper *pacing.Sleeper) (*lookup.Engine, error) {
	selectors, err := loadSelectors(c.Lookup)
	if err != nil {
		return nil, err
	}
	matcher := match.Matcher{SimilarityThreshold: c.Lookup.SimilarityThreshold}
	detector := lookup.Detector{ZeroResultsBlocking: c.Lookup.ZeroResultsBlocking}
	return lookup.New(selectors, matcher, detector, sleeper, c.Lookup.State), nil
}

// openJournal opens and migrates the run journal.
func openJournal(ctx context.Context, jc config.JournalConfig) (*journal.Journal, error) {
	j, err := journal.Open(jc.Path)
	if err != nil {
		return nil, err
	}
	if err := j.Migrate(ctx); err != nil {
		_ = j.Close()
		return nil, err
	}
	zap.L().Debug("journal open", zap.String("path", jc.Path))
	return j, nil
}
