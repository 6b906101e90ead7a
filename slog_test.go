package challengescot_test

import (
	"github.com/codeclub/challengescot"
	"github.com/stretchr/testify/assert"
	"strings"
	"testing"
)

func TestLogWhenDebugEnabled(t *testing.T) {
	var b strings.Builder
	slog := challengescot.NewSLogger(&b, true)

	slog.Debugf("Writing a log statement for my little %s", "red bird")
	o := b.String()

	assert.Contains(t, o, "level=debug")
	assert.Contains(t, o, "Writing a log statement for my little red bird")
}

func TestLogWhenDebugDisabled(t *testing.T) {
	var b strings.Builder
	slog := challengescot.NewSLogger(&b, false)

	slog.Debugf("Writing a log statement for my little %s", "red bird")
	o := b.String()

	// Nothing should have been logged
	assert.Equal(t, "", o)
}

func TestPrintfLogsWhenDebugDisabled(t *testing.T) {
	var b strings.Builder
	slog := challengescot.NewSLogger(&b, false)

	slog.Printf("Writing a log statement for my little %s", "red bird")
	o := b.String()

	assert.Contains(t, o, "level=info")
	assert.Contains(t, o, "Writing a log statement for my little red bird")
}

func TestPrintfLogsWhenDebugEnabled(t *testing.T) {
	var b strings.Builder
	slog := challengescot.NewSLogger(&b, true)

	slog.Printf("Writing a log statement for my little %s", "red bird")
	o := b.String()

	assert.Contains(t, o, "Writing a log statement for my little red bird")
}
