package challenge

import (
	"context"
	"fmt"
	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/metric"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultGradingTimeout is how long the initiator has to grade all submissions once a challenge closes
	DefaultGradingTimeout = time.Hour

	// DefaultMaxDuration is the longest submission window a challenge can have
	DefaultMaxDuration = 7 * 24 * time.Hour

	// MaxPromptLength is the maximum number of characters of a challenge prompt
	MaxPromptLength = 200

	// RetiredChallengeCount is how many completed challenges are remembered to answer late grading interactions
	RetiredChallengeCount = 256
)

// Invocation holds everything known about a request to open a challenge
type Invocation struct {
	Initiator Participant

	// ChannelID is the channel the request comes from
	ChannelID string `validate:"required"`

	// Direct is true when the request comes from a direct message conversation
	Direct   bool
	Prompt   string        `validate:"required,max=200"`
	Duration time.Duration `validate:"gte=1m"`
}

// Orchestrator owns every active challenge and drives each one through its lifecycle. Challenges are
// registered by id and by thread while active. Once their result is delivered, they move to a bounded set of
// retired challenges that only serves late grading interactions
type Orchestrator struct {
	messenger  Messenger
	fetcher    AttachmentFetcher
	authorizer Authorizer
	archive    ResultArchive
	clock      Clock
	logger     Logger
	meter      metric.Meter
	validate   *validator.Validate
	metrics    *metrics
	intake     *Intake

	gradingTimeout time.Duration
	maxDuration    time.Duration
	previewLimit   int

	mu       sync.Mutex
	lastID   int64
	byID     map[string]*Challenge
	byThread map[Thread]*Challenge
	retired  *lru.Cache
}

// Option defines an option for an Orchestrator
type Option func(o *Orchestrator)

// OptionClock sets the clock driving challenge timers
func OptionClock(clock Clock) Option {
	return func(o *Orchestrator) {
		o.clock = clock
	}
}

// OptionLogger sets the logger
func OptionLogger(logger Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// OptionArchive sets an archive that receives results of completed challenges
func OptionArchive(archive ResultArchive) Option {
	return func(o *Orchestrator) {
		o.archive = archive
	}
}

// OptionMeter sets the meter used to create challenge metrics
func OptionMeter(meter metric.Meter) Option {
	return func(o *Orchestrator) {
		o.meter = meter
	}
}

// OptionGradingTimeout sets how long grading stays open once a challenge closes
func OptionGradingTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.gradingTimeout = d
	}
}

// OptionMaxDuration sets the longest submission window allowed
func OptionMaxDuration(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.maxDuration = d
	}
}

// OptionPreviewLimit sets the maximum number of bytes of a submission kept for preview
func OptionPreviewLimit(limit int) Option {
	return func(o *Orchestrator) {
		o.previewLimit = limit
	}
}

// NewOrchestrator returns a new Orchestrator using the given collaborators
func NewOrchestrator(messenger Messenger, fetcher AttachmentFetcher, authorizer Authorizer, options ...Option) (o *Orchestrator, err error) {
	o = new(Orchestrator)
	o.messenger = messenger
	o.fetcher = fetcher
	o.authorizer = authorizer
	o.clock = SystemClock{}
	o.logger = discardLogger{}
	o.gradingTimeout = DefaultGradingTimeout
	o.maxDuration = DefaultMaxDuration
	o.previewLimit = DefaultPreviewLimit
	o.byID = make(map[string]*Challenge)
	o.byThread = make(map[Thread]*Challenge)
	o.validate = validator.New()

	if o.retired, err = lru.New(RetiredChallengeCount); err != nil {
		return nil, errors.Wrap(err, "failed to create retired challenges cache")
	}

	for _, opt := range options {
		opt(o)
	}

	if o.metrics, err = newMetrics(o.meter); err != nil {
		return nil, errors.Wrap(err, "failed to create challenge metrics")
	}

	o.intake = &Intake{messenger: messenger, fetcher: fetcher, clock: o.clock, logger: o.logger, previewLimit: o.previewLimit, metrics: o.metrics}

	return o, nil
}

// Open checks that the request is allowed, announces a new challenge and starts its timer. Nothing
// happens if the request comes from a direct message (ContextError), from a user who isn't an
// administrator (AuthorizationError) or if the parameters are invalid (ValidationError)
func (o *Orchestrator) Open(ctx context.Context, inv Invocation) (c *Challenge, err error) {
	if inv.Direct {
		return nil, &ContextError{ChannelID: inv.ChannelID}
	}

	admin, err := o.authorizer.IsAdmin(ctx, inv.Initiator.ID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to verify privileges of [%s]", inv.Initiator.ID)
	}

	if !admin {
		return nil, &AuthorizationError{UserID: inv.Initiator.ID}
	}

	if err = o.validateInvocation(inv); err != nil {
		return nil, err
	}

	now := o.clock.Now()
	c = newChallenge(o.nextID(now), inv, now)

	thread, err := o.messenger.Announce(ctx, c)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to announce challenge [%s]", c.ID)
	}
	c.Thread = thread

	o.register(c)
	o.metrics.recordOpened(ctx)

	NewTimer(o.clock).Start(c.Duration, func() {
		o.closeChallenge(context.Background(), c)
	})

	o.logger.Printf("Opened challenge [%s] by [%s] in [%s] for [%s]", c.ID, c.Initiator.ID, c.ChannelID, c.Duration)

	return c, nil
}

// validateInvocation checks the challenge parameters and turns validation failures into a ValidationError
func (o *Orchestrator) validateInvocation(inv Invocation) error {
	err := o.validate.Struct(inv)
	if err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return errors.Wrap(err, "failed to validate challenge")
		}

		reasons := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			reasons = append(reasons, describeFieldError(fe))
		}

		return &ValidationError{Reason: strings.Join(reasons, ", ")}
	}

	if inv.Duration > o.maxDuration {
		return &ValidationError{Reason: fmt.Sprintf("the duration can't be longer than %s", o.maxDuration)}
	}

	return nil
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Field() {
	case "Prompt":
		if fe.Tag() == "max" {
			return fmt.Sprintf("the prompt can't be longer than %d characters", MaxPromptLength)
		}

		return "a prompt is required"
	case "Duration":
		return "the duration must be at least 1 minute"
	}

	return fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag())
}

// nextID returns the creation timestamp as an identifier, bumped if needed so that ids keep increasing
func (o *Orchestrator) nextID(now time.Time) string {
	o.mu.Lock()
	defer o.mu.Unlock()

	id := now.UnixNano()
	if id <= o.lastID {
		id = o.lastID + 1
	}
	o.lastID = id

	return strconv.FormatInt(id, 10)
}

func (o *Orchestrator) register(c *Challenge) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.byID[c.ID] = c
	o.byThread[c.Thread] = c
}

// retire drops a completed challenge from the active ones and remembers it as retired
func (o *Orchestrator) retire(c *Challenge) {
	o.mu.Lock()
	defer o.mu.Unlock()

	delete(o.byID, c.ID)
	delete(o.byThread, c.Thread)
	o.retired.Add(c.ID, c)
}

// gradable returns the active or retired challenge with the given id
func (o *Orchestrator) gradable(id string) (c *Challenge, ok bool) {
	if c, ok = o.Challenge(id); ok {
		return c, true
	}

	v, ok := o.retired.Get(id)
	if !ok {
		return nil, false
	}

	return v.(*Challenge), true
}

// Challenge returns the active challenge with the given id
func (o *Orchestrator) Challenge(id string) (c *Challenge, ok bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	c, ok = o.byID[id]
	return c, ok
}

// ChallengeInThread returns the active challenge running in a thread
func (o *Orchestrator) ChallengeInThread(t Thread) (c *Challenge, ok bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	c, ok = o.byThread[t]
	return c, ok
}

// Active returns all active challenges, oldest first
func (o *Orchestrator) Active() (challenges []*Challenge) {
	o.mu.Lock()
	challenges = make([]*Challenge, 0, len(o.byID))
	for _, c := range o.byID {
		challenges = append(challenges, c)
	}
	o.mu.Unlock()

	sort.Slice(challenges, func(i, j int) bool {
		return challenges[i].StartedAt.Before(challenges[j].StartedAt) ||
			(challenges[i].StartedAt.Equal(challenges[j].StartedAt) && challenges[i].ID < challenges[j].ID)
	})

	return challenges
}

// Submit hands an attempt posted in a thread to the intake of the challenge running in that thread
func (o *Orchestrator) Submit(ctx context.Context, t Thread, p Participant, a Attempt) (s *Submission, err error) {
	c, ok := o.ChallengeInThread(t)
	if !ok {
		return nil, ErrUnknownChallenge
	}

	return o.intake.Submit(ctx, c, p, a)
}

// closeChallenge runs when the submission window elapses. It hands the submissions to a new grading
// session and sends one grading request per submission to the initiator
func (o *Orchestrator) closeChallenge(ctx context.Context, c *Challenge) {
	subs, closed := c.close()
	if !closed {
		o.logger.Debugf("Challenge [%s] already closed, ignoring expiry", c.ID)
		return
	}

	o.logger.Printf("Closed challenge [%s] with [%d] submission(s)", c.ID, len(subs))

	if err := o.messenger.PostInThread(ctx, c.Thread, ":stopwatch: The challenge is now closed. Results will be posted once grading is done."); err != nil {
		o.logger.Printf("Error posting closing notice for challenge [%s]: %v", c.ID, err)
	}

	if len(subs) == 0 {
		o.completeEmpty(ctx, c)
		return
	}

	s := newGradingSession(c.ID, subs, o.clock, o.gradingTimeout)
	if !c.startGrading(s) {
		return
	}

	for _, sub := range subs {
		if err := o.messenger.SendGradingRequest(ctx, c, sub); err != nil {
			o.logger.Printf("Error sending grading request for submission from [%s] to [%s]: %v", sub.Participant.ID, c.Initiator.ID, err)
			o.notifyUndeliveredRequest(ctx, c, sub)
		}
	}

	NewTimer(o.clock).Start(o.gradingTimeout, func() {
		o.expireGrading(context.Background(), c)
	})
}

// notifyUndeliveredRequest tells the initiator that a submission can't be graded from its request. Without
// a grade, that submission shows as not graded once grading expires
func (o *Orchestrator) notifyUndeliveredRequest(ctx context.Context, c *Challenge, sub Submission) {
	text := fmt.Sprintf(":warning: The grading request for the submission from %s couldn't be delivered. It will show as not graded when grading time is up, at %s.",
		sub.Participant.Name, c.Session().Deadline().Format(time.RFC1123))

	if err := o.messenger.NotifyUser(ctx, c.Initiator.ID, text); err != nil {
		o.logger.Printf("Error notifying [%s] of undelivered grading request for challenge [%s]: %v", c.Initiator.ID, c.ID, err)
	}
}

// completeEmpty ends a challenge that closed without any submission. No grading session is ever created for it
func (o *Orchestrator) completeEmpty(ctx context.Context, c *Challenge) {
	if !c.complete() {
		return
	}

	if err := o.messenger.NotifyUser(ctx, c.Initiator.ID, "No submissions were received for your challenge."); err != nil {
		o.logger.Printf("Error notifying [%s] of empty challenge [%s]: %v", c.Initiator.ID, c.ID, err)
	}

	o.deliver(ctx, c, buildResult(c, nil, nil, false))
	o.metrics.recordCompleted(ctx, "empty")
}

// RequestScore validates a grader's click on a submission's grading affordance. Only the initiator of a
// challenge can grade its submissions
func (o *Orchestrator) RequestScore(ctx context.Context, challengeID string, grader Participant, participantID string) (sub Submission, err error) {
	_, s, err := o.gradingSession(challengeID, grader)
	if err != nil {
		return Submission{}, err
	}

	sub, err = s.RequestScore(participantID)
	if err != nil {
		o.metrics.recordGrade(ctx, outcome(err))
		return Submission{}, err
	}

	return sub, nil
}

// RecordGrade records the score given by the grader to a participant's submission. The grade that
// completes the session triggers the delivery of the result before RecordGrade returns
func (o *Orchestrator) RecordGrade(ctx context.Context, challengeID string, grader Participant, participantID string, rawScore string) (g Grade, err error) {
	g, finish, err := o.StoreGrade(ctx, challengeID, grader, participantID, rawScore)
	if err != nil {
		return Grade{}, err
	}

	finish(ctx)

	return g, nil
}

// StoreGrade validates and stores the score given by the grader to a participant's submission. Nothing is said
// to anyone until finish is called: it acknowledges the grade to the grader and, for the grade that completes
// the session, delivers the result
func (o *Orchestrator) StoreGrade(ctx context.Context, challengeID string, grader Participant, participantID string, rawScore string) (g Grade, finish func(ctx context.Context), err error) {
	c, s, err := o.gradingSession(challengeID, grader)
	if err != nil {
		return Grade{}, nil, err
	}

	g, complete, err := s.Record(participantID, rawScore)
	if err != nil {
		o.metrics.recordGrade(ctx, outcome(err))
		return Grade{}, nil, err
	}

	o.metrics.recordGrade(ctx, "accepted")
	o.logger.Debugf("Recorded grade [%s] for [%s] in challenge [%s]", g.Score, participantID, challengeID)

	finish = func(ctx context.Context) {
		if err := o.messenger.NotifyUser(ctx, grader.ID, fmt.Sprintf("Graded submission from %s with a score of %s.", g.Participant.Name, g.Score)); err != nil {
			o.logger.Printf("Error acknowledging grade to [%s]: %v", grader.ID, err)
		}

		if complete {
			o.complete(ctx, c, false)
		}
	}

	return g, finish, nil
}

// gradingSession returns the grading session of a challenge once the grader is confirmed to be its initiator.
// The session of a completed challenge is still returned so that it refuses late grades itself
func (o *Orchestrator) gradingSession(challengeID string, grader Participant) (c *Challenge, s *GradingSession, err error) {
	c, ok := o.gradable(challengeID)
	if !ok {
		return nil, nil, ErrUnknownChallenge
	}

	if grader.ID != c.Initiator.ID {
		return nil, nil, &AuthorizationError{UserID: grader.ID}
	}

	s = c.Session()
	if s == nil {
		return nil, nil, ErrUnknownChallenge
	}

	return c, s, nil
}

// expireGrading ends grading once its own timeout elapses and emits a partial result if some submissions
// were never graded
func (o *Orchestrator) expireGrading(ctx context.Context, c *Challenge) {
	s := c.Session()
	if s == nil || !s.expire() {
		return
	}

	o.logger.Printf("Grading of challenge [%s] expired with [%d/%d] submission(s) graded", c.ID, s.GradedCount(), s.Target())

	if err := o.messenger.NotifyUser(ctx, c.Initiator.ID, "Grading time is up. Results were posted with ungraded submissions marked as not graded."); err != nil {
		o.logger.Printf("Error notifying [%s] of grading expiry for challenge [%s]: %v", c.Initiator.ID, c.ID, err)
	}

	o.complete(ctx, c, true)
}

// complete moves a challenge to completed, delivers its result and retires it
func (o *Orchestrator) complete(ctx context.Context, c *Challenge, partial bool) {
	if !c.complete() {
		return
	}

	order, grades := c.Session().snapshot()
	o.deliver(ctx, c, buildResult(c, order, grades, partial))

	if partial {
		o.metrics.recordCompleted(ctx, "partial")
	} else {
		o.metrics.recordCompleted(ctx, "graded")
	}
}

func (o *Orchestrator) deliver(ctx context.Context, c *Challenge, r *Result) {
	o.retire(c)

	if err := o.messenger.DeliverResult(ctx, c, r); err != nil {
		o.logger.Printf("Error delivering result of challenge [%s]: %v", c.ID, err)
	}

	if o.archive != nil {
		if err := o.archive.Archive(r); err != nil {
			o.logger.Printf("Error archiving result of challenge [%s]: %v", c.ID, err)
		}
	}

	o.logger.Printf("Completed challenge [%s] with [%d] result row(s)", c.ID, len(r.Rows))
}

// outcome names a rejection for metrics
func outcome(err error) string {
	switch errors.Cause(err) {
	case ErrAlreadyGraded:
		return "alreadyGraded"
	case ErrInvalidScore:
		return "invalidScore"
	case ErrExpiredSession:
		return "expired"
	case ErrUnknownSubmission:
		return "unknownSubmission"
	}

	return "error"
}

type discardLogger struct{}

func (discardLogger) Printf(format string, v ...interface{}) {}

func (discardLogger) Debugf(format string, v ...interface{}) {}
