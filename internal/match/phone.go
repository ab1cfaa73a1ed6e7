package match

import (
	"regexp"
	"strings"
)

// phoneRe matches a relaxed US phone shape: optional parenthesized area
// code, space/dot/hyphen separators, 3-3-4 grouping.
var phoneRe = regexp.MustCompile(`\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)

var nonDigitRe = regexp.MustCompile(`\D`)

// ExtractPhones scans text for phone-shaped digit sequences and returns
// them canonicalized to "(AAA) BBB-CCCC", deduplicated in first-seen
// order. Candidates that do not reduce to exactly 10 digits are dropped;
// there is no country-code handling. No matches yields nil, not an error.
func ExtractPhones(text string) []string {
	if text == "" {
		return nil
	}

	var phones []string
	seen := make(map[string]bool)

	for _, raw := range phoneRe.FindAllString(text, -1) {
		digits := nonDigitRe.ReplaceAllString(raw, "")
		if len(digits) != 10 || seen[digits] {
			continue
		}
		seen[digits] = true
		phones = append(phones, FormatPhone(digits))
	}

	return phones
}

// FormatPhone renders a 10-digit string as "(AAA) BBB-CCCC". Inputs that
// are not exactly 10 digits are returned unchanged.
func FormatPhone(digits string) string {
	if len(digits) != 10 {
		return digits
	}
	var b strings.Builder
	b.Grow(14)
	b.WriteByte('(')
	b.WriteString(digits[:3])
	b.WriteString(") ")
	b.WriteString(digits[3:6])
	b.WriteByte('-')
	b.WriteString(digits[6:])
	return b.String()
}
