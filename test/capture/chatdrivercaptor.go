package capture

import (
	"context"
	"fmt"
	"github.com/slack-go/slack"
	"io"
	"strings"
	"sync"
)

// Message holds the resolved values of a captured message
type Message struct {
	Channel         string
	Text            string
	ThreadTimestamp string
	Timestamp       string

	// User is set for ephemeral messages only
	User string

	// Blocks holds the json encoded blocks of the message, if any
	Blocks string
}

// ChatDriverCaptor captures everything sent through it. Messages are resolved from their options the same way
// slack would receive them
type ChatDriverCaptor struct {
	mu sync.Mutex

	SentMessages      map[string][]Message
	EphemeralMessages map[string][]Message
	DeletedMessages   map[string][]string
	OpenedViews       map[string]slack.ModalViewRequest

	// Files holds the content served for downloads keyed by url
	Files map[string]string

	// FailDelete makes message deletions fail
	FailDelete bool

	nextTimestamp int
}

// NewChatDriver returns a new initialized ChatDriverCaptor
func NewChatDriver() (c *ChatDriverCaptor) {
	c = new(ChatDriverCaptor)
	c.SentMessages = make(map[string][]Message)
	c.EphemeralMessages = make(map[string][]Message)
	c.DeletedMessages = make(map[string][]string)
	c.OpenedViews = make(map[string]slack.ModalViewRequest)
	c.Files = make(map[string]string)

	return c
}

// PostMessageContext captures a message sent to a channel
func (c *ChatDriverCaptor) PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (respChannel string, respTimestamp string, err error) {
	m, err := resolveMessage(channelID, options...)
	if err != nil {
		return "", "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextTimestamp = c.nextTimestamp + 1
	m.Timestamp = fmt.Sprintf("1000.%d", c.nextTimestamp)
	c.SentMessages[channelID] = append(c.SentMessages[channelID], m)

	return channelID, m.Timestamp, nil
}

// PostEphemeralContext captures a message only visible to a user
func (c *ChatDriverCaptor) PostEphemeralContext(ctx context.Context, channelID string, userID string, options ...slack.MsgOption) (timestamp string, err error) {
	m, err := resolveMessage(channelID, options...)
	if err != nil {
		return "", err
	}
	m.User = userID

	c.mu.Lock()
	defer c.mu.Unlock()

	c.EphemeralMessages[channelID] = append(c.EphemeralMessages[channelID], m)

	return "", nil
}

// DeleteMessageContext captures a message deletion
func (c *ChatDriverCaptor) DeleteMessageContext(ctx context.Context, channelID string, timestamp string) (respChannel string, respTimestamp string, err error) {
	if c.FailDelete {
		return "", "", fmt.Errorf("cant_delete_message")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.DeletedMessages[channelID] = append(c.DeletedMessages[channelID], timestamp)

	return channelID, timestamp, nil
}

// OpenConversationContext returns a direct message channel named D<userID>
func (c *ChatDriverCaptor) OpenConversationContext(ctx context.Context, params *slack.OpenConversationParameters) (channel *slack.Channel, noOp bool, alreadyOpen bool, err error) {
	if len(params.Users) == 0 {
		return nil, false, false, fmt.Errorf("no users to open a conversation with")
	}

	channel = new(slack.Channel)
	channel.ID = "D" + strings.Join(params.Users, "")

	return channel, false, true, nil
}

// OpenViewContext captures a view opened for a trigger id
func (c *ChatDriverCaptor) OpenViewContext(ctx context.Context, triggerID string, view slack.ModalViewRequest) (resp *slack.ViewResponse, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.OpenedViews[triggerID] = view

	return &slack.ViewResponse{}, nil
}

// GetFileContext writes the content registered for the url
func (c *ChatDriverCaptor) GetFileContext(ctx context.Context, downloadURL string, writer io.Writer) (err error) {
	c.mu.Lock()
	content, ok := c.Files[downloadURL]
	c.mu.Unlock()

	if !ok {
		return fmt.Errorf("file_not_found [%s]", downloadURL)
	}

	_, err = io.WriteString(writer, content)
	return err
}

// Sent returns a copy of the messages sent to a channel
func (c *ChatDriverCaptor) Sent(channelID string) (messages []Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	messages = make([]Message, len(c.SentMessages[channelID]))
	copy(messages, c.SentMessages[channelID])

	return messages
}

func resolveMessage(channelID string, options ...slack.MsgOption) (m Message, err error) {
	_, values, err := slack.UnsafeApplyMsgOptions("", channelID, "", options...)
	if err != nil {
		return m, err
	}

	m.Channel = channelID
	m.Text = values.Get("text")
	m.ThreadTimestamp = values.Get("thread_ts")
	m.Blocks = values.Get("blocks")

	return m, nil
}
