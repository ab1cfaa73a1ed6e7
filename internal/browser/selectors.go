package browser

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Selector is an opaque element descriptor fed to the automation
// capability. The engine does not interpret it; when the target site's
// markup changes only the descriptor file needs updating.
type Selector struct {
	CSS string `yaml:"css"`
	// TextContains additionally filters matches to elements whose text
	// contains this substring (case-sensitive).
	TextContains string `yaml:"text_contains,omitempty"`
}

// SelectorSet declares every element the lookup engine touches on the
// target site.
type SelectorSet struct {
	EntryURL       string   `yaml:"entry_url"`
	ConsentButton  Selector `yaml:"consent_button"`
	FirstNameInput Selector `yaml:"first_name_input"`
	LastNameInput  Selector `yaml:"last_name_input"`
	StateSelect    Selector `yaml:"state_select"`
	SearchButton   Selector `yaml:"search_button"`
	ResultCard     Selector `yaml:"result_card"`
}

// DefaultSelectors returns the descriptor set for the current markup of
// the lookup site.
func DefaultSelectors() SelectorSet {
	return SelectorSet{
		EntryURL:       "https://www.zabasearch.com/",
		ConsentButton:  Selector{CSS: "button", TextContains: "I AGREE"},
		FirstNameInput: Selector{CSS: `input[placeholder*="John"]`},
		LastNameInput:  Selector{CSS: `input[placeholder*="Smith"]`},
		StateSelect:    Selector{CSS: "select"},
		SearchButton:   Selector{CSS: "button", TextContains: "Search"},
		ResultCard:     Selector{CSS: ".person"},
	}
}

// LoadSelectors reads a selector descriptor file, overlaying the defaults
// so a partial file only overrides what it names.
func LoadSelectors(path string) (SelectorSet, error) {
	set := DefaultSelectors()

	data, err := os.ReadFile(path)
	if err != nil {
		return set, eris.Wrapf(err, "selectors: read %s", path)
	}
	if err := yaml.Unmarshal(data, &set); err != nil {
		return set, eris.Wrapf(err, "selectors: parse %s", path)
	}
	if set.EntryURL == "" {
		return set, eris.New("selectors: entry_url is required")
	}
	return set, nil
}
