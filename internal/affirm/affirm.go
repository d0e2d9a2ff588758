// Package affirm classifies free-text replies to yes/no questions by
// keyword matching. It is the deterministic fallback behind the LLM
// confirmation classifier and the primary mechanism for the final
// confirmation step.
package affirm

import (
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
)

// Result is the three-way classification of a reply.
type Result int

const (
	// Ambiguous means no affirmative or negative keyword was found.
	Ambiguous Result = iota

	// Affirmative means the reply agrees.
	Affirmative

	// Negative means the reply disagrees.
	Negative
)

var affirmatives = []string{
	"yes", "yeah", "yep", "yup", "correct", "right", "true",
	"sure", "absolutely", "affirmative", "exactly",
}

var negatives = []string{
	"no", "not", "nope", "nah", "wrong", "incorrect", "false", "negative",
}

// Contraction declines ("I don't have one") match exactly, never
// fuzzily: one edit away sit common neutral words like "want" and
// "done" that must not read as refusals.
var exactNegatives = []string{
	"dont", "cant", "wont",
}

// Classify tokenizes the reply and returns the classification of the
// first affirmative or negative keyword found, scanning in utterance
// order so "no, that's right" reads as a correction rather than
// agreement. Longer keywords tolerate one edit to absorb transcription
// noise ("yeh", "corect"); short words must match exactly.
func Classify(text string) Result {
	for _, token := range tokenize(text) {
		if matchesAny(token, affirmatives) {
			return Affirmative
		}
		if matchesAny(token, negatives) || matchesExact(token, exactNegatives) {
			return Negative
		}
	}
	return Ambiguous
}

// IsAffirmative is the binary form used for plain yes/no confirmations.
// Anything other than a clear affirmative, ambiguous replies included,
// counts as false.
func IsAffirmative(text string) bool {
	return Classify(text) == Affirmative
}

func matchesAny(token string, keywords []string) bool {
	for _, kw := range keywords {
		if token == kw {
			return true
		}
		if len(kw) >= 4 && len(token) >= 4 && levenshtein.ComputeDistance(token, kw) <= 1 {
			return true
		}
	}
	return false
}

func matchesExact(token string, keywords []string) bool {
	for _, kw := range keywords {
		if token == kw {
			return true
		}
	}
	return false
}

// tokenize lowercases the reply and splits it on anything that is not
// a letter or digit. Apostrophes are stripped rather than split on so
// contractions stay whole ("don't" tokenizes to "dont", not "don"/"t").
func tokenize(text string) []string {
	text = strings.ToLower(text)
	text = strings.ReplaceAll(text, "'", "")
	text = strings.ReplaceAll(text, "’", "")
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
