package challenge

import (
	"fmt"
	"github.com/pkg/errors"
)

// Intake rejections. The challenge keeps running after any of those
var (
	ErrWindowClosed        = errors.New("submission window is closed")
	ErrMissingAttachment   = errors.New("submission has no file attached")
	ErrDuplicateSubmission = errors.New("participant already submitted")
)

// Grading rejections. The grading session keeps running after any of those
var (
	ErrAlreadyGraded     = errors.New("submission already graded")
	ErrInvalidScore      = errors.New("score must be a number between 0 and 100")
	ErrExpiredSession    = errors.New("grading session expired")
	ErrUnknownSubmission = errors.New("no submission from participant")
)

// ErrUnknownChallenge is returned when no active challenge matches an identifier
var ErrUnknownChallenge = errors.New("no active challenge")

// AuthorizationError is returned when the user opening a challenge isn't an administrator
type AuthorizationError struct {
	UserID string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("user [%s] is not allowed to open challenges", e.UserID)
}

// ContextError is returned when a challenge is opened from a direct message conversation
type ContextError struct {
	ChannelID string
}

func (e *ContextError) Error() string {
	return fmt.Sprintf("challenges can't be opened from direct message channel [%s]", e.ChannelID)
}

// ValidationError is returned when the parameters of a challenge are invalid
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid challenge: %s", e.Reason)
}

// IsRejection returns true if err is one of the recoverable intake or grading rejections (possibly wrapped)
func IsRejection(err error) bool {
	switch errors.Cause(err) {
	case ErrWindowClosed, ErrMissingAttachment, ErrDuplicateSubmission,
		ErrAlreadyGraded, ErrInvalidScore, ErrExpiredSession, ErrUnknownSubmission:
		return true
	}

	return false
}
