package session

import (
	"errors"
	"fmt"

	"github.com/brightpath-lms/assess/internal/eligibility"
)

var (
	// ErrSessionConflict refuses a second concurrent session for the same
	// (learner, assessment) pair. The first session stays authoritative.
	ErrSessionConflict = errors.New("a session is already active for this assessment")
	ErrSessionNotFound = errors.New("session not found")
	// ErrNotActive covers every operation against a terminal session,
	// including a second Submit.
	ErrNotActive     = errors.New("session is not active")
	ErrInvalidAnswer = errors.New("invalid answer")
)

// IncompleteError is the recoverable submit rejection: the session stays
// alive and the caller gets the indexes still to answer.
type IncompleteError struct {
	Unanswered []int
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("submission incomplete: %d unanswered question(s)", len(e.Unanswered))
}

// NotEligibleError rejects a start with the resolver snapshot so the UI can
// show the exact reason (locked, overdue, out of attempts, cooldown).
type NotEligibleError struct {
	Snapshot eligibility.Snapshot
}

func (e *NotEligibleError) Error() string {
	return fmt.Sprintf("cannot start: %s", e.Snapshot.Reason)
}
