package challenge

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"strings"
	"sync"
	"time"
)

var (
	minScore = decimal.Zero
	maxScore = decimal.NewFromInt(100)
)

// Grade is the score given to one submission. It is never modified once recorded
type Grade struct {
	Participant Participant
	Score       decimal.Decimal
	GradedAt    time.Time
}

// GradingSession collects exactly one Grade per Submission of a closed challenge. The set of submissions
// to grade is fixed when the session is created
type GradingSession struct {
	challengeID string
	clock       Clock

	mu          sync.Mutex
	order       []Participant
	submissions map[string]Submission
	grades      map[string]Grade
	target      int
	deadline    time.Time
	expired     bool
	detector    completionDetector
}

func newGradingSession(challengeID string, subs []Submission, clock Clock, timeout time.Duration) (s *GradingSession) {
	s = new(GradingSession)
	s.challengeID = challengeID
	s.clock = clock
	s.order = make([]Participant, 0, len(subs))
	s.submissions = make(map[string]Submission, len(subs))
	s.grades = make(map[string]Grade, len(subs))

	for _, sub := range subs {
		s.order = append(s.order, sub.Participant)
		s.submissions[sub.Participant.ID] = sub
	}

	s.target = len(s.submissions)
	s.deadline = clock.Now().Add(timeout)

	return s
}

// Target returns the number of submissions to grade
func (s *GradingSession) Target() int {
	return s.target
}

// Deadline returns the time after which grades are refused
func (s *GradingSession) Deadline() time.Time {
	return s.deadline
}

// GradedCount returns how many submissions have been graded so far
func (s *GradingSession) GradedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.grades)
}

// Grade returns the grade recorded for a participant's submission, if any
func (s *GradingSession) Grade(participantID string) (g Grade, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok = s.grades[participantID]
	return g, ok
}

// checkGradable returns the submission of a participant if it can still be graded. Must be called with the
// lock held
func (s *GradingSession) checkGradable(participantID string) (sub Submission, err error) {
	if s.expired || !s.clock.Now().Before(s.deadline) {
		return Submission{}, ErrExpiredSession
	}

	sub, ok := s.submissions[participantID]
	if !ok {
		return Submission{}, ErrUnknownSubmission
	}

	if _, graded := s.grades[participantID]; graded {
		return Submission{}, ErrAlreadyGraded
	}

	return sub, nil
}

// RequestScore validates a grader's approval of a submission before a score is asked for
func (s *GradingSession) RequestScore(participantID string) (sub Submission, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.checkGradable(participantID)
}

// Record validates and stores the grade of a participant's submission. Nothing is stored when validation
// fails. complete is true only for the one call that graded the last submission
func (s *GradingSession) Record(participantID string, rawScore string) (g Grade, complete bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, err := s.checkGradable(participantID)
	if err != nil {
		return Grade{}, false, err
	}

	score, err := ParseScore(rawScore)
	if err != nil {
		return Grade{}, false, err
	}

	g = Grade{Participant: sub.Participant, Score: score, GradedAt: s.clock.Now()}
	s.grades[participantID] = g

	return g, s.detector.observe(len(s.grades), s.target), nil
}

// expire refuses any further grade. It returns true if the session wasn't complete yet, meaning that the
// caller is responsible for emitting the partial result
func (s *GradingSession) expire() (partial bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expired = true

	return s.detector.force()
}

// snapshot returns the graded participants in submission order along with their grades
func (s *GradingSession) snapshot() (order []Participant, grades map[string]Grade) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order = make([]Participant, len(s.order))
	copy(order, s.order)

	grades = make(map[string]Grade, len(s.grades))
	for k, v := range s.grades {
		grades[k] = v
	}

	return order, grades
}

// ParseScore parses a raw score input. Valid scores are numbers between 0 and 100, inclusively
func ParseScore(raw string) (score decimal.Decimal, err error) {
	score, err = decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, errors.Wrapf(ErrInvalidScore, "[%s] isn't a number", raw)
	}

	if score.LessThan(minScore) || score.GreaterThan(maxScore) {
		return decimal.Zero, errors.Wrapf(ErrInvalidScore, "[%s] is out of range", raw)
	}

	return score, nil
}
