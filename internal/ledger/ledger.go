package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrDuplicateAttempt means a record with the same (learner, assessment,
// attemptNumber) key already exists. Attempt numbers are never reused, so
// this always indicates a concurrency violation upstream.
var ErrDuplicateAttempt = errors.New("duplicate attempt")

type Ledger interface {
	// AttemptsFor returns the learner's records for one assessment in
	// chronological order (attempt number ascending). Empty slice if none.
	AttemptsFor(ctx context.Context, learnerID, assessmentID string) ([]AttemptRecord, error)
	Append(ctx context.Context, rec AttemptRecord) error
	// BestScore is the maximum score among completed attempts; ok=false if
	// the learner has no graded attempt yet.
	BestScore(ctx context.Context, learnerID, assessmentID string) (score int, ok bool, err error)
}

type memoryLedger struct {
	mu      sync.RWMutex
	records map[string][]AttemptRecord // learnerID|assessmentID
}

func NewInMemoryLedger() Ledger {
	return &memoryLedger{records: map[string][]AttemptRecord{}}
}

func key(learnerID, assessmentID string) string {
	return learnerID + "|" + assessmentID
}

func (m *memoryLedger) AttemptsFor(_ context.Context, learnerID, assessmentID string) ([]AttemptRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	recs := m.records[key(learnerID, assessmentID)]
	out := make([]AttemptRecord, len(recs))
	copy(out, recs)
	sort.Slice(out, func(i, j int) bool { return out[i].AttemptNumber < out[j].AttemptNumber })
	return out, nil
}

func (m *memoryLedger) Append(_ context.Context, rec AttemptRecord) error {
	if rec.LearnerID == "" || rec.AssessmentID == "" || rec.AttemptNumber < 1 {
		return fmt.Errorf("ledger: invalid record key %q/%q #%d", rec.LearnerID, rec.AssessmentID, rec.AttemptNumber)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key(rec.LearnerID, rec.AssessmentID)
	for _, r := range m.records[k] {
		if r.AttemptNumber == rec.AttemptNumber {
			return ErrDuplicateAttempt
		}
	}
	m.records[k] = append(m.records[k], rec)
	return nil
}

func (m *memoryLedger) BestScore(_ context.Context, learnerID, assessmentID string) (int, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	best, ok := 0, false
	for _, r := range m.records[key(learnerID, assessmentID)] {
		if r.Completed() && r.ScorePercent != nil && (!ok || *r.ScorePercent > best) {
			best, ok = *r.ScorePercent, true
		}
	}
	return best, ok, nil
}
