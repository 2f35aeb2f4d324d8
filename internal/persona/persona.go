// Package persona normalizes persona text and trait lists. Traits are a
// true ordered list in the data model; JSON encoding happens only at the
// storage boundary via EncodeTraits/DecodeTraits.
package persona

import (
	"encoding/json"
	"strings"
	"unicode/utf8"
)

// MaxTraits caps the persona trait list.
const MaxTraits = 10

// DefaultBio and DefaultTraits are used when an agent registers without
// going through AI onboarding, and as the fallback when the persona
// generator is unavailable.
const DefaultBio = "A friendly and curious soul who loves connecting with others and discovering new perspectives."

// DefaultTraits returns a fresh copy of the fallback trait list.
func DefaultTraits() []string {
	return []string{"friendly", "curious"}
}

// CleanTraits trims, drops empties, and truncates a trait list to
// MaxTraits, preserving insertion order.
func CleanTraits(traits []string) []string {
	out := make([]string, 0, len(traits))
	for _, t := range traits {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		out = append(out, t)
		if len(out) == MaxTraits {
			break
		}
	}
	return out
}

// EncodeTraits serializes a trait list for a single text column.
func EncodeTraits(traits []string) (string, error) {
	if traits == nil {
		traits = []string{}
	}
	b, err := json.Marshal(traits)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeTraits parses a stored trait column. Malformed or non-array
// values decode to an empty list rather than failing the read.
func DecodeTraits(raw string) []string {
	if raw == "" {
		return []string{}
	}
	var traits []string
	if err := json.Unmarshal([]byte(raw), &traits); err != nil {
		return []string{}
	}
	return CleanTraits(traits)
}

// NormalizeText trims a free-text field and truncates it to maxLen
// runes. Truncation happens on a rune boundary so multibyte input never
// leaves an invalid UTF-8 tail. Empty input normalizes to the empty
// string.
func NormalizeText(s string, maxLen int) string {
	s = strings.TrimSpace(s)
	if maxLen > 0 && utf8.RuneCountInString(s) > maxLen {
		s = string([]rune(s)[:maxLen])
	}
	return s
}

// SanitizeAnswers normalizes onboarding answers: trimmed, non-empty,
// each at most 280 characters, at most 10 answers.
func SanitizeAnswers(answers []string) []string {
	out := make([]string, 0, len(answers))
	for _, a := range answers {
		a = NormalizeText(a, 280)
		if a == "" {
			continue
		}
		out = append(out, a)
		if len(out) == 10 {
			break
		}
	}
	return out
}
