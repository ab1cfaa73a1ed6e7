package lookup

import "strings"

// blockingPhrases are the denial markers the target site serves when it
// has flagged the traffic as automated.
var blockingPhrases = []string{
	"captcha",
	"unusual traffic",
	"blocked",
	"service unavailable",
	"access denied",
	"too many requests",
}

// Detector inspects a fetched page for signs of access denial.
type Detector struct {
	// ZeroResultsBlocking treats an empty result set as a blocking
	// signal. Off by default: it conflates genuine no-match outcomes
	// with blocking and produces false positives.
	ZeroResultsBlocking bool
}

// IsBlocked reports whether the page indicates automated-traffic denial.
// A page whose text could not be retrieved at all counts as blocked;
// failing toward caution costs one backend switch, failing the other way
// burns the whole batch.
func (d Detector) IsBlocked(pageText, pageTitle string, resultCount int) bool {
	if strings.TrimSpace(pageText) == "" {
		return true
	}

	textLower := strings.ToLower(pageText)
	titleLower := strings.ToLower(pageTitle)
	for _, phrase := range blockingPhrases {
		if strings.Contains(textLower, phrase) || strings.Contains(titleLower, phrase) {
			return true
		}
	}

	if d.ZeroResultsBlocking && resultCount == 0 {
		return true
	}

	return false
}
