package lookup

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.AmericanEnglish)

// ParseName splits a subject name into (first, last). "Last, First M"
// takes the text before the comma as last name and the first word after
// it as first name; otherwise the first token is the first name and the
// final token the last name. Either part empty means the name is
// unusable. Parts are title-cased for form fill since record stores
// commonly carry names in all caps.
func ParseName(subject string) (first, last string, ok bool) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", "", false
	}

	if before, after, found := strings.Cut(subject, ","); found {
		last = strings.TrimSpace(before)
		afterFields := strings.Fields(after)
		if len(afterFields) > 0 {
			first = afterFields[0]
		}
	} else {
		fields := strings.Fields(subject)
		first = fields[0]
		if len(fields) > 1 {
			last = fields[len(fields)-1]
		}
	}

	if first == "" || last == "" {
		return "", "", false
	}
	return titleCaser.String(strings.ToLower(first)), titleCaser.String(strings.ToLower(last)), true
}
