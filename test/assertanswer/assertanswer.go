// Package assertanswer provides testing functions to validate a plugin's answer
package assertanswer

import (
	"github.com/codeclub/challengescot"
	"github.com/stretchr/testify/assert"
	"testing"
)

// ResolvedAnswerOption holds a pair of Key/Value representing the physical AnswerOption
type ResolvedAnswerOption struct {
	Key   string
	Value string
}

// HasText asserts that the answer's text is the expected text
func HasText(t *testing.T, answer *challengescot.Answer, text string) bool {
	if assert.NotNil(t, answer) {
		return assert.Equalf(t, text, answer.Text, "Answer text expected to be [%s] but was [%s]", text, answer.Text)
	}
	return false
}

// HasTextContaining asserts that the answer's text contains the expected subString
func HasTextContaining(t *testing.T, answer *challengescot.Answer, subString string) bool {
	if assert.NotNil(t, answer) {
		return assert.Containsf(t, answer.Text, subString, "Answer expected to have text containing [%s] but its text [%s] didn't", subString, answer.Text)
	}
	return false
}

// HasOptions asserts that the answer's options contains the expected configuration key/values
func HasOptions(t *testing.T, answer *challengescot.Answer, options ...ResolvedAnswerOption) bool {
	if assert.NotNil(t, answer) {
		ropts := resolveOptions(answer)
		return assert.ElementsMatchf(t, options, ropts, "Answer options expected %s but were %s", options, ropts)
	}
	return false
}

// IsPrivate asserts that a slash command answer is only shown to the user who typed the command
func IsPrivate(t *testing.T, answer *challengescot.Answer) bool {
	if assert.NotNil(t, answer) {
		sendOpts := challengescot.ApplyAnswerOpts(answer.Options...)
		return assert.NotEqualf(t, "true", sendOpts[challengescot.InChannelOpt], "Answer [%s] expected to be private but is answered in channel", answer.Text)
	}
	return false
}

// IsInChannel asserts that a slash command answer is visible to everyone in the channel
func IsInChannel(t *testing.T, answer *challengescot.Answer) bool {
	return HasOptions(t, answer, ResolvedAnswerOption{Key: challengescot.InChannelOpt, Value: "true"})
}

// resolveOptions converts the options of an answer to an array of ResolvedAnswerOptions for easier matching
func resolveOptions(answer *challengescot.Answer) (ropts []ResolvedAnswerOption) {
	ropts = make([]ResolvedAnswerOption, 0)

	for key, value := range challengescot.ApplyAnswerOpts(answer.Options...) {
		ropts = append(ropts, ResolvedAnswerOption{Key: key, Value: value})
	}

	return ropts
}
