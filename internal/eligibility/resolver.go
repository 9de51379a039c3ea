// Package eligibility derives the learner-visible assessment status from
// durable facts: the definition, the attempt history, and the wall clock.
// Nothing here is stored; status can never drift from the underlying data.
package eligibility

import (
	"time"

	"github.com/brightpath-lms/assess/internal/catalog"
	"github.com/brightpath-lms/assess/internal/ledger"
)

type Status string

const (
	StatusAvailable Status = "available"
	StatusCompleted Status = "completed"
	StatusOverdue   Status = "overdue"
	StatusLocked    Status = "locked"
)

// Reason codes explain a CanStart=false result to the UI. These are expected
// outcomes, not errors.
type Reason string

const (
	ReasonOK            Reason = "ok"
	ReasonLocked        Reason = "locked"
	ReasonPassed        Reason = "passed"
	ReasonOutOfAttempts Reason = "out_of_attempts"
	ReasonOverdue       Reason = "overdue"
	ReasonCooldown      Reason = "cooldown"
)

type Snapshot struct {
	Status         Status     `json:"status"`
	CanStart       bool       `json:"can_start"`
	Reason         Reason     `json:"reason"`
	AttemptsUsed   int        `json:"attempts_used"`
	MaxAttempts    int        `json:"max_attempts"`
	RetakeEligible bool       `json:"retake_eligible"`
	NextRetakeAt   *time.Time `json:"next_retake_at,omitempty"`
	BestScore      *int       `json:"best_score,omitempty"`
}

// Resolve is a pure function of its inputs. prereqMet comes from the
// course/enrollment collaborator; history must be chronological.
func Resolve(def catalog.Definition, history []ledger.AttemptRecord, now time.Time, prereqMet bool) Snapshot {
	snap := Snapshot{MaxAttempts: def.MaxAttempts, Reason: ReasonOK}

	var completed []ledger.AttemptRecord
	for _, r := range history {
		if r.Completed() {
			completed = append(completed, r)
		}
	}
	snap.AttemptsUsed = len(completed)
	for _, r := range completed {
		if r.ScorePercent != nil && (snap.BestScore == nil || *r.ScorePercent > *snap.BestScore) {
			v := *r.ScorePercent
			snap.BestScore = &v
		}
	}

	if !prereqMet {
		snap.Status = StatusLocked
		snap.Reason = ReasonLocked
		return snap
	}

	for _, r := range completed {
		if r.Passed != nil && *r.Passed {
			// Passing is final: no retakes even with attempts remaining.
			snap.Status = StatusCompleted
			snap.Reason = ReasonPassed
			return snap
		}
	}

	if snap.AttemptsUsed >= def.MaxAttempts {
		snap.Status = StatusCompleted
		snap.Reason = ReasonOutOfAttempts
		return snap
	}

	if def.Deadline != nil && now.After(*def.Deadline) {
		snap.Status = StatusOverdue
		snap.Reason = ReasonOverdue
		return snap
	}

	snap.Status = StatusAvailable
	snap.CanStart = true

	// A failed attempt with attempts remaining makes a retake; the cooldown
	// gates when it may begin.
	if len(completed) > 0 {
		last := completed[len(completed)-1]
		snap.RetakeEligible = true
		if def.RetakeCooldownDays > 0 {
			next := last.CompletedAt.AddDate(0, 0, def.RetakeCooldownDays)
			snap.NextRetakeAt = &next
			if now.Before(next) {
				snap.CanStart = false
				snap.Reason = ReasonCooldown
			}
		}
	}
	return snap
}
