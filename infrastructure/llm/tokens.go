package llm

import "strings"

// CharacterEstimator approximates tokens as one per four characters,
// which tracks English prose closely enough for usage accounting when a
// provider does not report counts.
type CharacterEstimator struct{}

// EstimateTokens returns len(text)/4, with a floor of one for non-empty
// text.
func (CharacterEstimator) EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	n := len(text) / 4
	if n == 0 {
		n = 1
	}
	return n
}

// WordEstimator approximates tokens as words times 4/3, the common
// rule of thumb for subword tokenizers.
type WordEstimator struct{}

// EstimateTokens counts whitespace-separated words and scales by 4/3.
func (WordEstimator) EstimateTokens(text string) int {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	return (words*4 + 2) / 3
}

// estimateOrActual prefers the provider-reported count and falls back to
// the character heuristic when the provider reported nothing.
func estimateOrActual(actual int64, text string) int {
	if actual > 0 {
		return int(actual)
	}
	return CharacterEstimator{}.EstimateTokens(text)
}
