package ledger

import "time"

// CategoryScore is the per-topic earned/possible subtotal within one attempt.
type CategoryScore struct {
	Earned   float64 `json:"earned"`
	Possible float64 `json:"possible"`
}

// AttemptRecord is one graded pass through an assessment. Records are
// append-only: nothing updates or deletes them after Append.
type AttemptRecord struct {
	ID            string                   `json:"id"`
	AssessmentID  string                   `json:"assessment_id"`
	LearnerID     string                   `json:"learner_id"`
	AttemptNumber int                      `json:"attempt_number"` // 1-based, gapless per learner+assessment
	StartedAt     time.Time                `json:"started_at"`
	CompletedAt   *time.Time               `json:"completed_at,omitempty"`
	ScorePercent  *int                     `json:"score_percent,omitempty"`
	Passed        *bool                    `json:"passed,omitempty"`
	Breakdown     map[string]CategoryScore `json:"category_breakdown,omitempty"`
	Expired       bool                     `json:"expired"` // true when the time limit forced termination
	PendingManual bool                     `json:"pending_manual,omitempty"`
}

func (r AttemptRecord) Completed() bool { return r.CompletedAt != nil }
