// Package sanitizer provides a fluent and composable interface for sanitizing
// strings based on configurable rules using bitwise filter flags and transforms.
package sanitizer

import (
	"encoding/hex"
	"strconv"
	"unicode"
	"unicode/utf8"
)

// Filter flags for character matching
const (
	FilterNonPrintable  uint64 = 1 << iota // Matches runes not classified as printable by strconv.IsPrint
	FilterControl                          // Matches control characters (unicode.IsControl)
	FilterMarkupSpecial                    // Matches characters with meaning in HTML markup: '<', '>', '&', '"', '\''
)

// Transform flags for character transformation
const (
	TransformStrip        uint64 = 1 << iota // Removes the character
	TransformHexEncode                       // Encodes the character's UTF-8 bytes as "<XXYY>"
	TransformMarkupEscape                    // Replaces the character with its HTML entity
)

// PolicyPreset defines pre-configured sanitization policies
type PolicyPreset string

const (
	PolicyRaw    PolicyPreset = "raw"    // Raw is a no-op (passthrough)
	PolicyTxt    PolicyPreset = "txt"    // Policy for text that must stay on one log line
	PolicyMarkup PolicyPreset = "markup" // Policy for text embedded in subscriber markup
)

// rule represents a single sanitization rule
type rule struct {
	filter    uint64
	transform uint64
}

// policyRules contains pre-configured rules for each policy
var policyRules = map[PolicyPreset][]rule{
	PolicyRaw:    {},
	PolicyTxt:    {{filter: FilterNonPrintable, transform: TransformHexEncode}},
	PolicyMarkup: {{filter: FilterMarkupSpecial, transform: TransformMarkupEscape}},
}

// filterCheckers maps individual filter flags to their check functions
var filterCheckers = map[uint64]func(rune) bool{
	FilterNonPrintable: func(r rune) bool { return !strconv.IsPrint(r) },
	FilterControl:      unicode.IsControl,
	FilterMarkupSpecial: func(r rune) bool {
		switch r {
		case '<', '>', '&', '"', '\'':
			return true
		}
		return false
	},
}

// markupEntities maps markup special characters to their entities
var markupEntities = map[rune]string{
	'<':  "&lt;",
	'>':  "&gt;",
	'&':  "&amp;",
	'"':  "&quot;",
	'\'': "&#39;",
}

// Sanitizer provides chainable text sanitization.
// Configure it before sharing; Sanitize is safe for concurrent use.
type Sanitizer struct {
	rules []rule
}

// New creates a new Sanitizer instance
func New() *Sanitizer {
	return &Sanitizer{
		rules: []rule{},
	}
}

// Rule adds a custom rule to the sanitizer (appended, earliest rule applies first)
func (s *Sanitizer) Rule(filter uint64, transform uint64) *Sanitizer {
	s.rules = append(s.rules, rule{filter: filter, transform: transform})
	return s
}

// Policy applies a pre-configured policy to the sanitizer (appended)
func (s *Sanitizer) Policy(preset PolicyPreset) *Sanitizer {
	if rules, ok := policyRules[preset]; ok {
		s.rules = append(s.rules, rules...)
	}
	return s
}

// Sanitize applies all configured rules to the input string
func (s *Sanitizer) Sanitize(data string) string {
	if !s.needsWork(data) {
		return data
	}

	buf := make([]byte, 0, len(data)+16)
	for _, r := range data {
		matched := false
		// Check rules in order (first match wins)
		for _, rl := range s.rules {
			if matchesFilter(r, rl.filter) {
				buf = applyTransform(buf, r, rl.transform)
				matched = true
				break
			}
		}
		if !matched {
			buf = utf8.AppendRune(buf, r)
		}
	}

	return string(buf)
}

// needsWork reports whether any rune of data matches a rule
func (s *Sanitizer) needsWork(data string) bool {
	if len(s.rules) == 0 {
		return false
	}
	for _, r := range data {
		for _, rl := range s.rules {
			if matchesFilter(r, rl.filter) {
				return true
			}
		}
	}
	return false
}

// matchesFilter checks if a rune matches any filter in the mask
func matchesFilter(r rune, filterMask uint64) bool {
	for flag, checker := range filterCheckers {
		if (filterMask&flag) != 0 && checker(r) {
			return true
		}
	}
	return false
}

// applyTransform appends the transformed rune to buf
func applyTransform(buf []byte, r rune, transformMask uint64) []byte {
	switch {
	case (transformMask & TransformStrip) != 0:
		// Do nothing (strip)

	case (transformMask & TransformHexEncode) != 0:
		var runeBytes [utf8.UTFMax]byte
		n := utf8.EncodeRune(runeBytes[:], r)
		buf = append(buf, '<')
		buf = append(buf, hex.EncodeToString(runeBytes[:n])...)
		buf = append(buf, '>')

	case (transformMask & TransformMarkupEscape) != 0:
		if entity, ok := markupEntities[r]; ok {
			buf = append(buf, entity...)
		} else {
			buf = utf8.AppendRune(buf, r)
		}

	default:
		buf = utf8.AppendRune(buf, r)
	}
	return buf
}
