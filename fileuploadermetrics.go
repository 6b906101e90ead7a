package challengescot

import (
	"context"
	"github.com/slack-go/slack"
	"go.opentelemetry.io/otel/metric"
	"time"
)

// slackFileUploaderWithTelemetry implements SlackFileUploader with all methods wrapped with open telemetry metrics
type slackFileUploaderWithTelemetry struct {
	base SlackFileUploader
	*callTelemetry
}

// newSlackFileUploaderWithTelemetry returns an instance of the SlackFileUploader decorated with open telemetry timing and count metrics
func newSlackFileUploaderWithTelemetry(base SlackFileUploader, name string, meter metric.Meter) (fu *slackFileUploaderWithTelemetry, err error) {
	ct, err := newCallTelemetry("fileUploader", name, meter)
	if err != nil {
		return nil, err
	}

	return &slackFileUploaderWithTelemetry{base: base, callTelemetry: ct}, nil
}

// UploadFileContext implements SlackFileUploader
func (fu *slackFileUploaderWithTelemetry) UploadFileContext(ctx context.Context, params slack.FileUploadParameters) (file *slack.File, err error) {
	defer func(start time.Time) {
		fu.record(ctx, "UploadFile", start, err)
	}(time.Now())

	return fu.base.UploadFileContext(ctx, params)
}
