// Package challenge implements timed coding challenges: a submission window bounded by a timer, one file
// submission per participant, a grading round-trip per submission once the window closes and a final
// aggregate result emitted once every submission is graded.
//
// All state lives in memory and is owned by an Orchestrator. Every mutation of a Challenge or of its
// GradingSession is a single check-and-commit step under that entity's lock, and no lock is ever held while
// talking to a collaborator (Messenger, AttachmentFetcher, Authorizer) so that a slow network call never blocks
// other participants.
package challenge

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

// State is the lifecycle state of a Challenge
type State int

// Challenge states. Transitions only ever go forward: Open -> Closed -> Grading -> Completed (Closed -> Completed
// when nobody submitted)
const (
	Open State = iota
	Closed
	Grading
	Completed
)

var stateNames = map[State]string{
	Open:      "open",
	Closed:    "closed",
	Grading:   "grading",
	Completed: "completed",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}

	return fmt.Sprintf("unknown(%d)", int(s))
}

// Participant identifies a user taking part in a challenge (a submitter, a grader or an initiator)
type Participant struct {
	ID   string
	Name string
}

// Attachment is a reference to a file hosted by the chat platform. The content is never owned by a challenge
type Attachment struct {
	ID        string
	Name      string
	URL       string
	Permalink string
}

// Attempt is an inbound message in a challenge thread, with its file, if any
type Attempt struct {
	ChannelID  string
	Timestamp  string
	Attachment *Attachment
}

// Thread identifies the conversation thread where a challenge runs
type Thread struct {
	ChannelID string
	Timestamp string
}

// Submission is a participant's accepted entry. It is never modified once accepted
type Submission struct {
	Participant Participant
	Attachment  Attachment

	// Preview is a bounded copy of the attachment content, only meant for display to the grader
	Preview    string
	AcceptedAt time.Time
}

// Challenge is one timed submission-and-grading exercise
type Challenge struct {
	ID        string
	Initiator Participant
	Prompt    string
	Duration  time.Duration
	StartedAt time.Time
	EndsAt    time.Time

	// ChannelID is the channel the challenge was opened from
	ChannelID string
	Thread    Thread

	mu          sync.Mutex
	state       State
	submissions []Submission
	submitted   map[string]bool
	session     *GradingSession
}

func newChallenge(id string, inv Invocation, now time.Time) (c *Challenge) {
	c = new(Challenge)
	c.ID = id
	c.Initiator = inv.Initiator
	c.Prompt = inv.Prompt
	c.Duration = inv.Duration
	c.StartedAt = now
	c.EndsAt = now.Add(inv.Duration)
	c.ChannelID = inv.ChannelID
	c.state = Open
	c.submissions = make([]Submission, 0)
	c.submitted = make(map[string]bool)

	return c
}

// State returns the current lifecycle state
func (c *Challenge) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// Submissions returns a copy of the accepted submissions, in acceptance order
func (c *Challenge) Submissions() (subs []Submission) {
	c.mu.Lock()
	defer c.mu.Unlock()

	subs = make([]Submission, len(c.submissions))
	copy(subs, c.submissions)

	return subs
}

// Session returns the grading session or nil if the challenge never reached grading
func (c *Challenge) Session() *GradingSession {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.session
}

// checkIntake verifies that a participant may still submit. Must be called with the lock held
func (c *Challenge) checkIntake(participantID string) error {
	if c.state != Open {
		return ErrWindowClosed
	}

	if c.submitted[participantID] {
		return ErrDuplicateSubmission
	}

	return nil
}

// commitSubmission re-checks the intake invariants against the current state and appends the submission
func (c *Challenge) commitSubmission(s Submission) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkIntake(s.Participant.ID); err != nil {
		return err
	}

	c.submissions = append(c.submissions, s)
	c.submitted[s.Participant.ID] = true

	return nil
}

// close moves an open challenge to closed and returns the final submissions. It returns false if the challenge
// wasn't open anymore, in which case nothing changes
func (c *Challenge) close() (subs []Submission, closed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Open {
		return nil, false
	}

	c.state = Closed
	subs = make([]Submission, len(c.submissions))
	copy(subs, c.submissions)

	return subs, true
}

// startGrading attaches the grading session and moves a closed challenge to grading
func (c *Challenge) startGrading(s *GradingSession) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Closed {
		return false
	}

	c.session = s
	c.state = Grading

	return true
}

// complete moves the challenge to its terminal state. It returns false if it was already completed
func (c *Challenge) complete() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Completed {
		return false
	}

	c.state = Completed

	return true
}

// Messenger is implemented by the chat platform integration and is how a challenge talks to people
type Messenger interface {
	// Announce posts the challenge announcement in the challenge's channel and returns the thread where
	// submissions are expected
	Announce(ctx context.Context, c *Challenge) (t Thread, err error)

	// PostInThread posts a message in a challenge thread
	PostInThread(ctx context.Context, t Thread, text string) (err error)

	// NotifyUser sends a private message to a user
	NotifyUser(ctx context.Context, userID string, text string) (err error)

	// Discard deletes an inbound message
	Discard(ctx context.Context, a Attempt) (err error)

	// Acknowledge marks an inbound message as accepted
	Acknowledge(ctx context.Context, a Attempt) (err error)

	// LogEvent reports an event to the operators' log channel
	LogEvent(ctx context.Context, text string) (err error)

	// SendGradingRequest privately sends a submission to the challenge initiator with a grading affordance
	// keyed by the submitter and the challenge id
	SendGradingRequest(ctx context.Context, c *Challenge, s Submission) (err error)

	// DeliverResult delivers the aggregate result in the challenge thread
	DeliverResult(ctx context.Context, c *Challenge, r *Result) (err error)
}

// AttachmentFetcher downloads the content of an attachment
type AttachmentFetcher interface {
	Fetch(ctx context.Context, a Attachment, w io.Writer) (err error)
}

// Authorizer tells if a user is allowed to open challenges
type Authorizer interface {
	IsAdmin(ctx context.Context, userID string) (admin bool, err error)
}

// ResultArchive keeps results once challenges are completed
type ResultArchive interface {
	Archive(r *Result) (err error)
}
