package capture

import (
	"context"
	"fmt"
	"github.com/codeclub/challengescot/challenge"
	"sync"
)

// MessengerCaptor captures everything challenges say to people. It is safe for concurrent use
type MessengerCaptor struct {
	mu sync.Mutex

	Announced       []*challenge.Challenge
	ThreadPosts     map[challenge.Thread][]string
	Notifications   map[string][]string
	Discarded       []challenge.Attempt
	Acknowledged    []challenge.Attempt
	LogEvents       []string
	GradingRequests []challenge.Submission
	Results         []*challenge.Result

	// FailAnnounce makes announcements fail
	FailAnnounce bool

	// FailGradingRequestsOf makes grading requests for submissions of these participant ids fail
	FailGradingRequestsOf map[string]bool

	// OnGradingRequest is called, outside of the captor's lock, after a grading request is captured
	OnGradingRequest func(c *challenge.Challenge, s challenge.Submission)

	threadSeq int
}

// NewMessenger returns a new initialized MessengerCaptor
func NewMessenger() (m *MessengerCaptor) {
	m = new(MessengerCaptor)
	m.Announced = make([]*challenge.Challenge, 0)
	m.ThreadPosts = make(map[challenge.Thread][]string)
	m.Notifications = make(map[string][]string)
	m.Discarded = make([]challenge.Attempt, 0)
	m.Acknowledged = make([]challenge.Attempt, 0)
	m.LogEvents = make([]string, 0)
	m.GradingRequests = make([]challenge.Submission, 0)
	m.Results = make([]*challenge.Result, 0)

	return m
}

// Announce captures the challenge and returns a new thread in the challenge's channel
func (m *MessengerCaptor) Announce(ctx context.Context, c *challenge.Challenge) (t challenge.Thread, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailAnnounce {
		return t, fmt.Errorf("channel_not_found")
	}

	m.threadSeq = m.threadSeq + 1
	m.Announced = append(m.Announced, c)

	return challenge.Thread{ChannelID: c.ChannelID, Timestamp: fmt.Sprintf("2000.%d", m.threadSeq)}, nil
}

// PostInThread captures a message posted in a thread
func (m *MessengerCaptor) PostInThread(ctx context.Context, t challenge.Thread, text string) (err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ThreadPosts[t] = append(m.ThreadPosts[t], text)

	return nil
}

// NotifyUser captures a private message to a user
func (m *MessengerCaptor) NotifyUser(ctx context.Context, userID string, text string) (err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Notifications[userID] = append(m.Notifications[userID], text)

	return nil
}

// Discard captures a discarded attempt
func (m *MessengerCaptor) Discard(ctx context.Context, a challenge.Attempt) (err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Discarded = append(m.Discarded, a)

	return nil
}

// Acknowledge captures an acknowledged attempt
func (m *MessengerCaptor) Acknowledge(ctx context.Context, a challenge.Attempt) (err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Acknowledged = append(m.Acknowledged, a)

	return nil
}

// LogEvent captures an operator log event
func (m *MessengerCaptor) LogEvent(ctx context.Context, text string) (err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LogEvents = append(m.LogEvents, text)

	return nil
}

// SendGradingRequest captures a grading request
func (m *MessengerCaptor) SendGradingRequest(ctx context.Context, c *challenge.Challenge, s challenge.Submission) (err error) {
	m.mu.Lock()
	if m.FailGradingRequestsOf[s.Participant.ID] {
		m.mu.Unlock()
		return fmt.Errorf("cannot_dm_bot")
	}

	m.GradingRequests = append(m.GradingRequests, s)
	hook := m.OnGradingRequest
	m.mu.Unlock()

	if hook != nil {
		hook(c, s)
	}

	return nil
}

// DeliverResult captures a delivered result
func (m *MessengerCaptor) DeliverResult(ctx context.Context, c *challenge.Challenge, r *challenge.Result) (err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Results = append(m.Results, r)

	return nil
}

// NotificationsOf returns a copy of the private messages sent to a user
func (m *MessengerCaptor) NotificationsOf(userID string) (texts []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	texts = make([]string, len(m.Notifications[userID]))
	copy(texts, m.Notifications[userID])

	return texts
}

// PostsIn returns a copy of the messages posted in a thread
func (m *MessengerCaptor) PostsIn(t challenge.Thread) (texts []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	texts = make([]string, len(m.ThreadPosts[t]))
	copy(texts, m.ThreadPosts[t])

	return texts
}

// DeliveredResults returns a copy of the delivered results
func (m *MessengerCaptor) DeliveredResults() (results []*challenge.Result) {
	m.mu.Lock()
	defer m.mu.Unlock()

	results = make([]*challenge.Result, len(m.Results))
	copy(results, m.Results)

	return results
}
