package challengescot

import (
	"context"
	"github.com/slack-go/slack"
	"go.opentelemetry.io/otel/metric"
	"time"
)

// emojiReactorWithTelemetry implements EmojiReactor with all methods wrapped with open telemetry metrics
type emojiReactorWithTelemetry struct {
	base EmojiReactor
	*callTelemetry
}

// newEmojiReactorWithTelemetry returns an instance of the EmojiReactor decorated with open telemetry timing and count metrics
func newEmojiReactorWithTelemetry(base EmojiReactor, name string, meter metric.Meter) (er *emojiReactorWithTelemetry, err error) {
	ct, err := newCallTelemetry("emojiReactor", name, meter)
	if err != nil {
		return nil, err
	}

	return &emojiReactorWithTelemetry{base: base, callTelemetry: ct}, nil
}

// AddReactionContext implements EmojiReactor
func (er *emojiReactorWithTelemetry) AddReactionContext(ctx context.Context, name string, item slack.ItemRef) (err error) {
	defer func(start time.Time) {
		er.record(ctx, "AddReaction", start, err)
	}(time.Now())

	return er.base.AddReactionContext(ctx, name, item)
}
