package classify

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// KeywordRule describes one keyword to look for in table cells. Word is a
// literal word or a small regular-expression fragment (e.g. `Uranium\sserie`).
// Matching always anchors on a leading word boundary; MatchEnd anchors the
// trailing boundary too, so "year" with MatchEnd=false also matches "years"
// while "BP" with MatchEnd=true does not match "BPX".
type KeywordRule struct {
	Word          string `json:"word"`
	CaseSensitive bool   `json:"case_sensitive"`
	MatchEnd      bool   `json:"match_end"`
}

var escapedCharPattern = regexp.MustCompile(`\\.`)

// Name derives the rule's stable column name for the output index, encoding
// the matching options: w_<cs|ci>_<e|ne>_<word>.
func (r KeywordRule) Name() string {
	word := r.Word
	if !r.CaseSensitive {
		word = strings.ToLower(word)
	}
	word = escapedCharPattern.ReplaceAllString(word, "_")

	sensitivity := "ci"
	if r.CaseSensitive {
		sensitivity = "cs"
	}
	boundary := "ne"
	if r.MatchEnd {
		boundary = "e"
	}
	return fmt.Sprintf("w_%s_%s_%s", sensitivity, boundary, word)
}

// compile builds the rule's matcher.
func (r KeywordRule) compile() (*regexp.Regexp, error) {
	pattern := `\b` + r.Word
	if r.MatchEnd {
		pattern += `\b`
	}
	if !r.CaseSensitive {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid keyword rule %q: %w", r.Word, err)
	}
	return re, nil
}

// DefaultRules returns the keyword set the index is built with when no rules
// file is configured. The words target dating and rock-art vocabulary: dating
// methods, chronology units, depiction techniques and sample materials.
func DefaultRules() []KeywordRule {
	return []KeywordRule{
		{Word: "age", CaseSensitive: false, MatchEnd: true},
		{Word: "date", CaseSensitive: false, MatchEnd: true},
		{Word: "year", CaseSensitive: false, MatchEnd: false},
		{Word: "BP", CaseSensitive: true, MatchEnd: true},
		{Word: "BC", CaseSensitive: true, MatchEnd: true},
		{Word: "AD", CaseSensitive: false, MatchEnd: true},
		{Word: "Ka", CaseSensitive: true, MatchEnd: true},
		{Word: "CAL", CaseSensitive: false, MatchEnd: true},
		{Word: "painting", CaseSensitive: false, MatchEnd: false},
		{Word: "drawing", CaseSensitive: false, MatchEnd: false},
		{Word: "engraving", CaseSensitive: false, MatchEnd: false},
		{Word: "pictograph", CaseSensitive: false, MatchEnd: false},
		{Word: "petroglyph", CaseSensitive: false, MatchEnd: false},
		{Word: "AMS", CaseSensitive: true, MatchEnd: true},
		{Word: `Uranium\sserie`, CaseSensitive: false, MatchEnd: false},
		{Word: "Radiocarbon", CaseSensitive: false, MatchEnd: true},
		{Word: "RC14", CaseSensitive: false, MatchEnd: true},
		{Word: "charcoal", CaseSensitive: false, MatchEnd: true},
		{Word: "pigment", CaseSensitive: false, MatchEnd: false},
		{Word: "calcite", CaseSensitive: false, MatchEnd: false},
		{Word: "beeswax", CaseSensitive: false, MatchEnd: true},
		{Word: "varnish", CaseSensitive: false, MatchEnd: true},
		{Word: "bone", CaseSensitive: false, MatchEnd: false},
		{Word: "cave", CaseSensitive: false, MatchEnd: false},
		{Word: "site", CaseSensitive: false, MatchEnd: false},
	}
}

// LoadRules reads a keyword rule set from a JSON file. The file holds an
// array of KeywordRule objects and replaces the default set entirely.
func LoadRules(path string) ([]KeywordRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	var rules []KeywordRule
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse rules file %s: %w", path, err)
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("rules file %s contains no rules", path)
	}

	for _, r := range rules {
		if strings.TrimSpace(r.Word) == "" {
			return nil, fmt.Errorf("rules file %s contains a rule with an empty word", path)
		}
	}
	return rules, nil
}
