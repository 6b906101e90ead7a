package assertanswer_test

import (
	"github.com/codeclub/challengescot"
	"github.com/codeclub/challengescot/test/assertanswer"
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestHasTextNoMatch(t *testing.T) {
	mockT := new(testing.T)
	assert.Equal(t, false, assertanswer.HasText(mockT, &challengescot.Answer{Text: "this is my final answer"}, "this is my first answer"))
}

func TestHasTextNilAnswer(t *testing.T) {
	mockT := new(testing.T)
	assert.Equal(t, false, assertanswer.HasText(mockT, nil, "this is my first answer"))
}

func TestHasTextMatch(t *testing.T) {
	mockT := new(testing.T)
	assert.Equal(t, true, assertanswer.HasText(mockT, &challengescot.Answer{Text: "this is my final answer"}, "this is my final answer"))
}

func TestHasTextContainingMatch(t *testing.T) {
	mockT := new(testing.T)
	assert.Equal(t, true, assertanswer.HasTextContaining(mockT, &challengescot.Answer{Text: "this is my final answer"}, "final"))
}

func TestHasTextContainingNoMatch(t *testing.T) {
	mockT := new(testing.T)
	assert.Equal(t, false, assertanswer.HasTextContaining(mockT, &challengescot.Answer{Text: "this is my final answer"}, "the gopher always has more answers"))
}

func TestHasTextContainingNilAnswer(t *testing.T) {
	mockT := new(testing.T)
	assert.Equal(t, false, assertanswer.HasTextContaining(mockT, nil, "the gopher always has more answers"))
}

func TestHasOptionsMismatch(t *testing.T) {
	mockT := new(testing.T)
	assert.Equal(t, false, assertanswer.HasOptions(mockT, &challengescot.Answer{Text: "this is my final answer", Options: []challengescot.AnswerOption{challengescot.AnswerInThread()}}, assertanswer.ResolvedAnswerOption{Key: challengescot.BroadcastOpt, Value: "true"}))
}

func TestHasOptionsMissingOne(t *testing.T) {
	mockT := new(testing.T)
	assert.Equal(t, false, assertanswer.HasOptions(mockT, &challengescot.Answer{Text: "this is my final answer", Options: []challengescot.AnswerOption{challengescot.AnswerInThreadWithBroadcast()}}, assertanswer.ResolvedAnswerOption{Key: challengescot.ThreadedReplyOpt, Value: "true"}))
}

func TestHasOptionsMatch(t *testing.T) {
	mockT := new(testing.T)
	assert.Equal(t, true, assertanswer.HasOptions(mockT, &challengescot.Answer{Text: "this is my final answer", Options: []challengescot.AnswerOption{challengescot.AnswerInThreadWithBroadcast()}}, assertanswer.ResolvedAnswerOption{Key: challengescot.ThreadedReplyOpt, Value: "true"}, assertanswer.ResolvedAnswerOption{Key: challengescot.BroadcastOpt, Value: "true"}))
}

func TestHasOptionsNilAnswer(t *testing.T) {
	mockT := new(testing.T)
	assert.Equal(t, false, assertanswer.HasOptions(mockT, nil))
}

func TestIsPrivate(t *testing.T) {
	mockT := new(testing.T)
	assert.Equal(t, true, assertanswer.IsPrivate(mockT, &challengescot.Answer{Text: "No active challenges."}))
	assert.Equal(t, false, assertanswer.IsPrivate(mockT, &challengescot.Answer{Text: "No active challenges.", Options: []challengescot.AnswerOption{challengescot.AnswerInChannel()}}))
	assert.Equal(t, false, assertanswer.IsPrivate(mockT, nil))
}

func TestIsInChannel(t *testing.T) {
	mockT := new(testing.T)
	assert.Equal(t, true, assertanswer.IsInChannel(mockT, &challengescot.Answer{Text: "Results", Options: []challengescot.AnswerOption{challengescot.AnswerInChannel()}}))
	assert.Equal(t, false, assertanswer.IsInChannel(mockT, &challengescot.Answer{Text: "Results"}))
	assert.Equal(t, false, assertanswer.IsInChannel(mockT, &challengescot.Answer{Text: "Results", Options: []challengescot.AnswerOption{challengescot.AnswerInChannel(), challengescot.AnswerInThread()}}))
}
