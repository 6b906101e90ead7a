package challenge

import (
	"bytes"
	"context"
	"fmt"
	"github.com/pkg/errors"
	"unicode/utf8"
)

const (
	// DefaultPreviewLimit is the default maximum number of bytes of a submission kept for preview
	DefaultPreviewLimit = 1900

	truncationMarker = "\n... (truncated)"
)

// Logger is the logging interface used by challenges. *logrus.Logger and the bot's SLogger implement it
type Logger interface {
	Printf(format string, v ...interface{})

	Debugf(format string, v ...interface{})
}

// Intake validates and records submissions
type Intake struct {
	messenger    Messenger
	fetcher      AttachmentFetcher
	clock        Clock
	logger       Logger
	previewLimit int
	metrics      *metrics
}

// Submit validates a participant's attempt and records it as the participant's submission. Rejected
// attempts are discarded and the participant is privately told why. The returned error is one of
// ErrWindowClosed, ErrMissingAttachment, ErrDuplicateSubmission or a wrapped fetch error
func (in *Intake) Submit(ctx context.Context, c *Challenge, p Participant, a Attempt) (s *Submission, err error) {
	if err = in.precheck(c, p, a); err != nil {
		in.reject(ctx, p, a, err)
		return nil, err
	}

	preview, err := in.fetchPreview(ctx, *a.Attachment)
	if err != nil {
		in.logger.Printf("Failed to fetch attachment [%s] from [%s] for challenge [%s]: %v", a.Attachment.ID, p.ID, c.ID, err)
		in.notify(ctx, p, ":warning: Something went wrong reading your submission. Please try again.")
		in.metrics.recordSubmission(ctx, "fetchFailed")

		return nil, errors.Wrapf(err, "failed to read submission from [%s]", p.ID)
	}

	sub := Submission{Participant: p, Attachment: *a.Attachment, Preview: preview, AcceptedAt: in.clock.Now()}

	// The fetch above let other events in so the invariants are checked again against the current state
	if err = c.commitSubmission(sub); err != nil {
		in.reject(ctx, p, a, err)
		return nil, err
	}

	in.metrics.recordSubmission(ctx, "accepted")
	in.logger.Debugf("Accepted submission [%s] from [%s] for challenge [%s]", sub.Attachment.ID, p.ID, c.ID)

	if err := in.messenger.Acknowledge(ctx, a); err != nil {
		in.logger.Printf("Error acknowledging submission from [%s]: %v", p.ID, err)
	}

	if err := in.messenger.LogEvent(ctx, fmt.Sprintf(":white_check_mark: Accepted and read submission from %s", p.Name)); err != nil {
		in.logger.Printf("Error logging accepted submission from [%s]: %v", p.ID, err)
	}

	return &sub, nil
}

// precheck evaluates the rejection rules in order: closed window, missing attachment and duplicate
func (in *Intake) precheck(c *Challenge, p Participant, a Attempt) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Open {
		return ErrWindowClosed
	}

	if a.Attachment == nil {
		return ErrMissingAttachment
	}

	return c.checkIntake(p.ID)
}

// reject discards the attempt and privately tells the participant why
func (in *Intake) reject(ctx context.Context, p Participant, a Attempt, reason error) {
	switch reason {
	case ErrMissingAttachment:
		in.metrics.recordSubmission(ctx, "missingAttachment")
		in.discard(ctx, p, a)
		in.notify(ctx, p, ":warning: Please submit your code as a file attachment only.")
		in.log(ctx, fmt.Sprintf("Deleted message from %s (no attachment).", p.Name))

	case ErrDuplicateSubmission:
		in.metrics.recordSubmission(ctx, "duplicate")
		in.discard(ctx, p, a)
		in.notify(ctx, p, ":warning: You have already submitted your code. Please wait for grading.")
		in.log(ctx, fmt.Sprintf("Deleted duplicate message from %s.", p.Name))

	case ErrWindowClosed:
		in.metrics.recordSubmission(ctx, "windowClosed")

		// Late chatter in the thread is left alone but late files get an explanation
		if a.Attachment != nil {
			in.notify(ctx, p, ":warning: The challenge is closed, submissions aren't accepted anymore.")
		}
	}
}

func (in *Intake) discard(ctx context.Context, p Participant, a Attempt) {
	if err := in.messenger.Discard(ctx, a); err != nil {
		in.logger.Printf("Could not delete message [%s] from [%s]: %v", a.Timestamp, p.ID, err)
	}
}

func (in *Intake) notify(ctx context.Context, p Participant, text string) {
	if err := in.messenger.NotifyUser(ctx, p.ID, text); err != nil {
		in.logger.Printf("Could not notify [%s]: %v", p.ID, err)
	}
}

func (in *Intake) log(ctx context.Context, text string) {
	if err := in.messenger.LogEvent(ctx, text); err != nil {
		in.logger.Printf("Could not log event [%s]: %v", text, err)
	}
}

// fetchPreview downloads at most previewLimit bytes of the attachment, appending a truncation marker when
// the content is longer than that
func (in *Intake) fetchPreview(ctx context.Context, a Attachment) (preview string, err error) {
	pb := &previewBuffer{limit: in.previewLimit}
	if err = in.fetcher.Fetch(ctx, a, pb); err != nil {
		return "", err
	}

	if pb.truncated {
		return pb.String() + truncationMarker, nil
	}

	return pb.String(), nil
}

// previewBuffer keeps the first limit bytes written to it and silently drops the rest
type previewBuffer struct {
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func (pb *previewBuffer) Write(p []byte) (n int, err error) {
	remaining := pb.limit - pb.buf.Len()
	if remaining < len(p) {
		pb.truncated = true
		if remaining > 0 {
			pb.buf.Write(p[:remaining])
		}

		return len(p), nil
	}

	return pb.buf.Write(p)
}

// String returns the kept content. A multi-byte character cut by the limit is dropped entirely
func (pb *previewBuffer) String() string {
	b := pb.buf.Bytes()
	if !pb.truncated {
		return string(b)
	}

	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if utf8.RuneStart(b[i]) {
			if !utf8.FullRune(b[i:]) {
				b = b[:i]
			}
			break
		}
	}

	return string(b)
}
