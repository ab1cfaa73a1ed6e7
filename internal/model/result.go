package model

// LookupStatus classifies the outcome of a single lookup.
type LookupStatus string

const (
	StatusSuccess      LookupStatus = "success"
	StatusNoResults    LookupStatus = "no_results"
	StatusInvalidInput LookupStatus = "invalid_input"
	StatusError        LookupStatus = "error"
)

// LookupResult is the outcome of one work item. Produced once by the
// lookup engine and never mutated afterward.
type LookupResult struct {
	Status         LookupStatus `json:"status"`
	Phones         []string     `json:"phones,omitempty"` // canonical "(AAA) BBB-CCCC", first-seen order, deduplicated
	MatchedAddress string       `json:"matched_address,omitempty"`
	Detail         string       `json:"detail,omitempty"` // error detail when Status == StatusError
}

// PrimaryPhone returns the first extracted phone, or "".
func (r *LookupResult) PrimaryPhone() string {
	if len(r.Phones) > 0 {
		return r.Phones[0]
	}
	return ""
}

// SecondaryPhone returns the second extracted phone, or "".
func (r *LookupResult) SecondaryPhone() string {
	if len(r.Phones) > 1 {
		return r.Phones[1]
	}
	return ""
}

// StoreStatus renders the status string written into the record store.
// Success is spelled exactly "Success" so the resume scan can rely on the
// phone column instead of parsing failure details.
func (r *LookupResult) StoreStatus() string {
	switch r.Status {
	case StatusSuccess:
		return "Success"
	case StatusNoResults:
		return "Failed: No phones found"
	case StatusInvalidInput:
		return "Failed: Invalid name format"
	case StatusError:
		if r.Detail != "" {
			return "Failed: " + r.Detail
		}
		return "Failed: Lookup error"
	default:
		return "Failed: Unknown"
	}
}
