package affirm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Result
	}{
		{name: "plain yes", text: "yes", want: Affirmative},
		{name: "yes with filler", text: "Yes, that's correct", want: Affirmative},
		{name: "casual agreement", text: "yeah totally", want: Affirmative},
		{name: "plain no", text: "no", want: Negative},
		{name: "denial with filler", text: "No, that's wrong", want: Negative},
		{name: "negated affirmative", text: "that's not correct", want: Negative},
		{name: "correction order wins", text: "no, that's right", want: Negative},
		{name: "ambiguous", text: "explained", want: Ambiguous},
		{name: "empty", text: "", want: Ambiguous},
		{name: "unrelated statement", text: "the weather is nice", want: Ambiguous},
		{name: "typo tolerated", text: "corect", want: Affirmative},
		{name: "punctuation stripped", text: "Right!", want: Affirmative},
		{name: "contraction decline", text: "I don't have email", want: Negative},
		{name: "curly apostrophe contraction", text: "I can’t say", want: Negative},
		{name: "contraction without apostrophe", text: "i dont think so", want: Negative},
		{name: "want is not wont", text: "I want to continue", want: Ambiguous},
		{name: "done is not dont", text: "all done", want: Ambiguous},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.text))
		})
	}
}

func TestIsAffirmative(t *testing.T) {
	assert.True(t, IsAffirmative("yes, that's me"))
	assert.False(t, IsAffirmative("nope"))

	// Ambiguity defaults to false for binary confirmations.
	assert.False(t, IsAffirmative("maybe"))
}
