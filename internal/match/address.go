// Package match implements the pure text-matching layer of the skip-trace
// pipeline: address normalization and comparison plus phone extraction.
// Everything here is side-effect free so the scraping layer can change
// without touching the matching logic.
package match

import (
	"regexp"
	"strings"
)

// DefaultSimilarityThreshold is the token-overlap ratio required for two
// street phrases to be considered the same when they are not exactly equal.
// Tuned for precision over recall against noisy scraped text.
const DefaultSimilarityThreshold = 0.7

// suffixAbbrev maps full street-suffix words to their standard
// abbreviations. Applied on whole tokens only.
var suffixAbbrev = map[string]string{
	"STREET":    "ST",
	"AVENUE":    "AVE",
	"DRIVE":     "DR",
	"COURT":     "CT",
	"PLACE":     "PL",
	"ROAD":      "RD",
	"CIRCLE":    "CIR",
	"BOULEVARD": "BLVD",
	"LANE":      "LN",
	"TERRACE":   "TER",
}

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	ordinalRe    = regexp.MustCompile(`\b(\d+)(?:ST|ND|RD|TH)\b`)
)

// NormalizeAddress canonicalizes a free-text address for comparison:
// uppercase, single-space runs, trimmed, street suffixes abbreviated.
// Empty input yields "". Idempotent.
func NormalizeAddress(address string) string {
	if address == "" {
		return ""
	}

	normalized := whitespaceRe.ReplaceAllString(strings.ToUpper(strings.TrimSpace(address)), " ")

	tokens := strings.Split(normalized, " ")
	for i, tok := range tokens {
		if abbr, ok := suffixAbbrev[tok]; ok {
			tokens[i] = abbr
		}
	}
	return strings.Join(tokens, " ")
}

// Matcher decides whether two addresses denote the same place.
type Matcher struct {
	// SimilarityThreshold overrides DefaultSimilarityThreshold when > 0.
	SimilarityThreshold float64
}

// Matches reports whether reference and candidate denote the same place.
// Both sides are normalized first. The house number (leading token) must
// match exactly; it is the highest-precision discriminator and cheap to
// check. The remaining street phrase matches either exactly after ordinal
// suffixes are stripped ("3RD" == "3") or by token-overlap similarity at
// the configured threshold.
func (m Matcher) Matches(reference, candidate string) bool {
	refNorm := NormalizeAddress(reference)
	candNorm := NormalizeAddress(candidate)
	if refNorm == "" || candNorm == "" {
		return false
	}

	refParts := strings.Split(refNorm, " ")
	candParts := strings.Split(candNorm, " ")
	if len(refParts) < 2 || len(candParts) < 2 {
		return false
	}

	// House number veto.
	if refParts[0] != candParts[0] {
		return false
	}

	refStreet := stripOrdinals(strings.Join(refParts[1:], " "))
	candStreet := stripOrdinals(strings.Join(candParts[1:], " "))

	if refStreet == candStreet {
		return true
	}

	return tokenOverlap(refStreet, candStreet) >= m.threshold()
}

func (m Matcher) threshold() float64 {
	if m.SimilarityThreshold > 0 {
		return m.SimilarityThreshold
	}
	return DefaultSimilarityThreshold
}

// stripOrdinals reduces ordinal tokens to their bare digits ("3RD" -> "3").
func stripOrdinals(street string) string {
	return ordinalRe.ReplaceAllString(street, "$1")
}

// tokenOverlap computes |intersection| / max(len(a), len(b)) over the
// whitespace token sets of the two phrases.
func tokenOverlap(a, b string) float64 {
	aTokens := strings.Fields(a)
	bTokens := strings.Fields(b)

	total := len(aTokens)
	if len(bTokens) > total {
		total = len(bTokens)
	}
	if total == 0 {
		return 0
	}

	seen := make(map[string]bool, len(aTokens))
	for _, tok := range aTokens {
		seen[tok] = true
	}

	shared := 0
	counted := make(map[string]bool, len(bTokens))
	for _, tok := range bTokens {
		if seen[tok] && !counted[tok] {
			shared++
			counted[tok] = true
		}
	}

	return float64(shared) / float64(total)
}

// addressLineRe matches a "street" line: leading house number followed by
// text containing a street-suffix token.
var addressLineRe = regexp.MustCompile(`(?i)^\d+\s+.*\b(?:ST|DR|AVE|CT|RD|LN|BLVD|WAY|PL|CIR|TER|DRIVE|STREET|AVENUE|COURT|ROAD|LANE|BOULEVARD|PLACE|CIRCLE|TERRACE)\b`)

// cityStateZipRe matches a "City, ST 12345" line.
var cityStateZipRe = regexp.MustCompile(`[A-Za-z][A-Za-z\s]*,\s*[A-Z]{2}\s+\d{5}`)

// ExtractAddressLines returns the lines of text that look like street
// addresses or city/state/zip lines, trimmed, in order of appearance.
func ExtractAddressLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) < 10 {
			continue
		}
		if addressLineRe.MatchString(line) || cityStateZipRe.MatchString(line) {
			out = append(out, line)
		}
	}
	return out
}
