// Package pacing spaces requests out so the lookup traffic does not
// present a detectable cadence. Delays are drawn uniformly from
// configured [min,max] ranges, never fixed, and a token-bucket limiter
// enforces an absolute floor between page loads regardless of how the
// randomized delays land. Pacing is load-bearing for avoiding detection,
// not cosmetic; callers must not skip it.
package pacing

import (
	"context"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DelayClass names one of the configured delay ranges.
type DelayClass string

const (
	// Quick paces minor page interactions (consent clicks, dropdowns).
	Quick DelayClass = "quick"
	// Normal paces post-navigation settling.
	Normal DelayClass = "normal"
	// Typing paces individual form-field fills.
	Typing DelayClass = "typing"
	// BetweenSearches paces consecutive lookups within a batch.
	BetweenSearches DelayClass = "between_searches"
	// BetweenBatches paces consecutive batches.
	BetweenBatches DelayClass = "between_batches"
	// SessionBreak is the long cooldown after blocking is detected.
	SessionBreak DelayClass = "session_break"
)

// Range is a [Min,Max] delay interval.
type Range struct {
	Min time.Duration
	Max time.Duration
}

// DefaultRanges mirror the pacing profile the lookup site tolerates.
func DefaultRanges() map[DelayClass]Range {
	return map[DelayClass]Range{
		Quick:           {500 * time.Millisecond, 1200 * time.Millisecond},
		Normal:          {1500 * time.Millisecond, 3 * time.Second},
		Typing:          {100 * time.Millisecond, 300 * time.Millisecond},
		BetweenSearches: {2 * time.Second, 4 * time.Second},
		BetweenBatches:  {30 * time.Second, 60 * time.Second},
		SessionBreak:    {60 * time.Second, 120 * time.Second},
	}
}

// Sleeper draws jittered delays and enforces the request-rate floor.
type Sleeper struct {
	ranges  map[DelayClass]Range
	limiter *rate.Limiter
}

// New creates a Sleeper. Classes missing from ranges fall back to the
// defaults. minRequestInterval > 0 additionally caps page loads to one
// per interval via Reserve.
func New(ranges map[DelayClass]Range, minRequestInterval time.Duration) *Sleeper {
	merged := DefaultRanges()
	for class, r := range ranges {
		if r.Max > 0 {
			merged[class] = r
		}
	}

	var limiter *rate.Limiter
	if minRequestInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(minRequestInterval), 1)
	}

	return &Sleeper{ranges: merged, limiter: limiter}
}

// Sleep blocks for a random duration drawn from the class range, or until
// ctx is done, whichever comes first. Returns ctx.Err() on cancellation.
func (s *Sleeper) Sleep(ctx context.Context, class DelayClass) error {
	d := s.Draw(class)
	if d >= 10*time.Second {
		zap.L().Info("pacing delay",
			zap.String("class", string(class)),
			zap.Duration("delay", d),
		)
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Draw returns a random duration from the class range without sleeping.
func (s *Sleeper) Draw(class DelayClass) time.Duration {
	r, ok := s.ranges[class]
	if !ok {
		r = s.ranges[Normal]
	}
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + time.Duration(rand.Int64N(int64(r.Max-r.Min)))
}

// WaitRequest blocks until the rate floor admits another page load.
// No-op when the Sleeper was built without a floor.
func (s *Sleeper) WaitRequest(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	return s.limiter.Wait(ctx)
}
