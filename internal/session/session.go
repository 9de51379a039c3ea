package session

import (
	"context"
	"log"
	"sort"
	"sync"

	"github.com/brightpath-lms/assess/internal/catalog"
	"github.com/brightpath-lms/assess/internal/ledger"
	"github.com/brightpath-lms/assess/internal/scoring"
	"github.com/brightpath-lms/assess/internal/timer"
)

type State string

const (
	StateActive    State = "active"
	StateSubmitted State = "submitted"
	StateExpired   State = "expired"
	StateExited    State = "exited"
)

// Session is the transient state of one in-progress attempt. All operations
// are synchronous and atomic under the session mutex; the countdown's
// callbacks come in from the timer goroutine and take the same mutex.
//
// Lock order: timer.mu may be held while acquiring s.mu (tick delivery), so a
// session must never acquire timer.mu while holding s.mu. Cancel is always
// called after unlocking.
type Session struct {
	mu        sync.Mutex
	id        string
	learnerID string
	def       catalog.Definition
	mgr       *Manager

	state     State
	attempt   ledger.AttemptRecord
	current   int
	answers   map[int]scoring.Answer
	remaining int
	countdown *timer.Countdown
}

func (s *Session) ID() string        { return s.id }
func (s *Session) LearnerID() string { return s.learnerID }

// View is the JSON shape served to the UI. Answer contents are not echoed;
// the client owns what it typed.
type View struct {
	ID              string `json:"id"`
	AssessmentID    string `json:"assessment_id"`
	LearnerID       string `json:"learner_id"`
	State           State  `json:"state"`
	AttemptNumber   int    `json:"attempt_number"`
	CurrentQuestion int    `json:"current_question"`
	QuestionCount   int    `json:"question_count"`
	Answered        []int  `json:"answered"`
	RemainingSec    *int   `json:"remaining_sec,omitempty"`
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := View{
		ID:              s.id,
		AssessmentID:    s.def.ID,
		LearnerID:       s.learnerID,
		State:           s.state,
		AttemptNumber:   s.attempt.AttemptNumber,
		CurrentQuestion: s.current,
		QuestionCount:   len(s.def.Questions),
		Answered:        make([]int, 0, len(s.answers)),
	}
	for i := range s.answers {
		v.Answered = append(v.Answered, i)
	}
	sort.Ints(v.Answered)
	if s.def.Timed() {
		rem := s.remaining
		v.RemainingSec = &rem
	}
	return v
}

// GoTo moves navigation. Out-of-range targets clamp to the nearest bound;
// clamping is not an error.
func (s *Session) GoTo(index int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return 0, ErrNotActive
	}
	if index < 0 {
		index = 0
	}
	if max := len(s.def.Questions) - 1; index > max {
		index = max
	}
	s.current = index
	return s.current, nil
}

// Answer records or overwrites the response for one question. Questions may
// be answered in any order.
func (s *Session) Answer(index int, ans scoring.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return ErrNotActive
	}
	if index < 0 || index >= len(s.def.Questions) {
		return ErrInvalidAnswer
	}
	q := s.def.Questions[index]
	if q.Kind.AutoGradable() {
		if ans.Option == nil || *ans.Option < 0 || *ans.Option >= len(q.Options) {
			return ErrInvalidAnswer
		}
	} else if ans.Text == "" {
		return ErrInvalidAnswer
	}
	s.answers[index] = ans
	return nil
}

// Submit terminates the session voluntarily. Every question must have an
// answer; otherwise the session stays alive and IncompleteError lists the
// gaps. On success the graded record is in the ledger before Submit returns.
func (s *Session) Submit(ctx context.Context) (ledger.AttemptRecord, error) {
	s.mu.Lock()
	if s.state != StateActive {
		s.mu.Unlock()
		return ledger.AttemptRecord{}, ErrNotActive
	}
	var unanswered []int
	for i := range s.def.Questions {
		if _, ok := s.answers[i]; !ok {
			unanswered = append(unanswered, i)
		}
	}
	if len(unanswered) > 0 {
		s.mu.Unlock()
		return ledger.AttemptRecord{}, &IncompleteError{Unanswered: unanswered}
	}
	s.state = StateSubmitted
	rec := s.gradeLocked(false)
	cd := s.countdown
	s.mu.Unlock()

	if cd != nil {
		cd.Cancel()
	}
	if err := s.mgr.finalize(ctx, s, rec, EventAttemptSubmitted); err != nil {
		return ledger.AttemptRecord{}, err
	}
	return rec, nil
}

// Exit abandons the session. The timer is cancelled synchronously and no
// attempt record is written: an exit does not consume an attempt.
func (s *Session) Exit() error {
	s.mu.Lock()
	if s.state != StateActive {
		s.mu.Unlock()
		return ErrNotActive
	}
	s.state = StateExited
	cd := s.countdown
	s.mu.Unlock()

	if cd != nil {
		cd.Cancel()
	}
	s.mgr.remove(s)
	return nil
}

// tick mirrors the countdown into the session for the UI.
func (s *Session) tick(remaining int) {
	s.mu.Lock()
	if s.state == StateActive {
		s.remaining = remaining
	}
	s.mu.Unlock()
}

// expire terminates the session when the countdown hits zero. Unlike Submit
// it skips the completeness check; unanswered questions score zero.
func (s *Session) expire() {
	s.mu.Lock()
	if s.state != StateActive {
		s.mu.Unlock()
		return
	}
	s.state = StateExpired
	s.remaining = 0
	rec := s.gradeLocked(true)
	s.mu.Unlock()

	if err := s.mgr.finalize(context.Background(), s, rec, EventAttemptExpired); err != nil {
		log.Printf("session %s: expiry write failed: %v", s.id, err)
	}
}

// gradeLocked stamps completion and grades exactly once. Caller holds s.mu
// and has already moved the state to a terminal value.
func (s *Session) gradeLocked(expired bool) ledger.AttemptRecord {
	now := s.mgr.now()
	res := s.mgr.engine.Grade(s.def, s.answers)

	rec := s.attempt
	rec.CompletedAt = &now
	rec.ScorePercent = &res.ScorePercent
	rec.Passed = &res.Passed
	rec.Breakdown = res.Breakdown
	rec.Expired = expired
	rec.PendingManual = res.PendingManual
	return rec
}
