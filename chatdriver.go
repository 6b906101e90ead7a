package challengescot

import (
	"context"
	"github.com/slack-go/slack"
	"io"
)

// ChatDriver is the subset of the slack web api used to talk in channels, threads and direct messages, to
// open modals and to download files. slack.Client implements this interface
type ChatDriver interface {
	// PostMessageContext sends a message to a channel (or a thread with slack.MsgOptionTS)
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (respChannel string, respTimestamp string, err error)

	// PostEphemeralContext sends a message only visible to the user on a channel
	PostEphemeralContext(ctx context.Context, channelID string, userID string, options ...slack.MsgOption) (timestamp string, err error)

	// DeleteMessageContext deletes a message
	DeleteMessageContext(ctx context.Context, channelID string, timestamp string) (respChannel string, respTimestamp string, err error)

	// OpenConversationContext opens (or resumes) a direct message conversation
	OpenConversationContext(ctx context.Context, params *slack.OpenConversationParameters) (channel *slack.Channel, noOp bool, alreadyOpen bool, err error)

	// OpenViewContext opens a modal for the user who triggered an interaction
	OpenViewContext(ctx context.Context, triggerID string, view slack.ModalViewRequest) (resp *slack.ViewResponse, err error)

	// GetFileContext downloads a private file into writer
	GetFileContext(ctx context.Context, downloadURL string, writer io.Writer) (err error)
}

// webhookPoster posts a message to a response url (slash command responses)
type webhookPoster func(ctx context.Context, url string, msg *slack.WebhookMessage) (err error)

// SendDirectMessage opens a direct message conversation with a user and sends a message in it
func SendDirectMessage(ctx context.Context, chatDriver ChatDriver, userID string, options ...slack.MsgOption) (err error) {
	channel, _, _, err := chatDriver.OpenConversationContext(ctx, &slack.OpenConversationParameters{Users: []string{userID}})
	if err != nil {
		return err
	}

	_, _, err = chatDriver.PostMessageContext(ctx, channel.ID, options...)
	return err
}
