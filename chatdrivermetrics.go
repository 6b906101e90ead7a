package challengescot

import (
	"context"
	"github.com/slack-go/slack"
	"go.opentelemetry.io/otel/metric"
	"io"
	"time"
)

// chatDriverWithTelemetry implements ChatDriver with all methods wrapped with open telemetry metrics
type chatDriverWithTelemetry struct {
	base ChatDriver
	*callTelemetry
}

// newChatDriverWithTelemetry returns an instance of the ChatDriver decorated with open telemetry timing and count metrics
func newChatDriverWithTelemetry(base ChatDriver, name string, meter metric.Meter) (cd *chatDriverWithTelemetry, err error) {
	ct, err := newCallTelemetry("chatDriver", name, meter)
	if err != nil {
		return nil, err
	}

	return &chatDriverWithTelemetry{base: base, callTelemetry: ct}, nil
}

// PostMessageContext implements ChatDriver
func (cd *chatDriverWithTelemetry) PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (respChannel string, respTimestamp string, err error) {
	defer func(start time.Time) {
		cd.record(ctx, "PostMessage", start, err)
	}(time.Now())

	return cd.base.PostMessageContext(ctx, channelID, options...)
}

// PostEphemeralContext implements ChatDriver
func (cd *chatDriverWithTelemetry) PostEphemeralContext(ctx context.Context, channelID string, userID string, options ...slack.MsgOption) (timestamp string, err error) {
	defer func(start time.Time) {
		cd.record(ctx, "PostEphemeral", start, err)
	}(time.Now())

	return cd.base.PostEphemeralContext(ctx, channelID, userID, options...)
}

// DeleteMessageContext implements ChatDriver
func (cd *chatDriverWithTelemetry) DeleteMessageContext(ctx context.Context, channelID string, timestamp string) (respChannel string, respTimestamp string, err error) {
	defer func(start time.Time) {
		cd.record(ctx, "DeleteMessage", start, err)
	}(time.Now())

	return cd.base.DeleteMessageContext(ctx, channelID, timestamp)
}

// OpenConversationContext implements ChatDriver
func (cd *chatDriverWithTelemetry) OpenConversationContext(ctx context.Context, params *slack.OpenConversationParameters) (channel *slack.Channel, noOp bool, alreadyOpen bool, err error) {
	defer func(start time.Time) {
		cd.record(ctx, "OpenConversation", start, err)
	}(time.Now())

	return cd.base.OpenConversationContext(ctx, params)
}

// OpenViewContext implements ChatDriver
func (cd *chatDriverWithTelemetry) OpenViewContext(ctx context.Context, triggerID string, view slack.ModalViewRequest) (resp *slack.ViewResponse, err error) {
	defer func(start time.Time) {
		cd.record(ctx, "OpenView", start, err)
	}(time.Now())

	return cd.base.OpenViewContext(ctx, triggerID, view)
}

// GetFileContext implements ChatDriver
func (cd *chatDriverWithTelemetry) GetFileContext(ctx context.Context, downloadURL string, writer io.Writer) (err error) {
	defer func(start time.Time) {
		cd.record(ctx, "GetFile", start, err)
	}(time.Now())

	return cd.base.GetFileContext(ctx, downloadURL, writer)
}
