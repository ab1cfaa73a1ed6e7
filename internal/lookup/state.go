package lookup

import "strings"

// abbrToState maps state abbreviations to the full names the search
// form's dropdown uses.
var abbrToState = map[string]string{
	"AL": "Alabama", "AK": "Alaska", "AZ": "Arizona", "AR": "Arkansas",
	"CA": "California", "CO": "Colorado", "CT": "Connecticut", "DE": "Delaware",
	"FL": "Florida", "GA": "Georgia", "HI": "Hawaii", "ID": "Idaho",
	"IL": "Illinois", "IN": "Indiana", "IA": "Iowa", "KS": "Kansas",
	"KY": "Kentucky", "LA": "Louisiana", "ME": "Maine", "MD": "Maryland",
	"MA": "Massachusetts", "MI": "Michigan", "MN": "Minnesota", "MS": "Mississippi",
	"MO": "Missouri", "MT": "Montana", "NE": "Nebraska", "NV": "Nevada",
	"NH": "New Hampshire", "NJ": "New Jersey", "NM": "New Mexico", "NY": "New York",
	"NC": "North Carolina", "ND": "North Dakota", "OH": "Ohio", "OK": "Oklahoma",
	"OR": "Oregon", "PA": "Pennsylvania", "RI": "Rhode Island", "SC": "South Carolina",
	"SD": "South Dakota", "TN": "Tennessee", "TX": "Texas", "UT": "Utah",
	"VT": "Vermont", "VA": "Virginia", "WA": "Washington", "WV": "West Virginia",
	"WI": "Wisconsin", "WY": "Wyoming", "DC": "District of Columbia",
}

var stateNames = func() map[string]string {
	m := make(map[string]string, len(abbrToState))
	for _, full := range abbrToState {
		m[strings.ToUpper(full)] = full
	}
	return m
}()

// NormalizeState converts an abbreviation or full name, in any case, to
// the dropdown's full-name form. Unrecognized input is returned trimmed.
func NormalizeState(state string) string {
	trimmed := strings.TrimSpace(state)
	upper := strings.ToUpper(trimmed)
	if full, ok := abbrToState[upper]; ok {
		return full
	}
	if full, ok := stateNames[upper]; ok {
		return full
	}
	return trimmed
}
