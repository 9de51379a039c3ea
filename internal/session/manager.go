package session

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/brightpath-lms/assess/internal/catalog"
	"github.com/brightpath-lms/assess/internal/eligibility"
	"github.com/brightpath-lms/assess/internal/ledger"
	"github.com/brightpath-lms/assess/internal/scoring"
	"github.com/brightpath-lms/assess/internal/timer"
)

// Event types appended to the audit log on session transitions.
const (
	EventAttemptStarted   = "attempt_started"
	EventAttemptSubmitted = "attempt_submitted"
	EventAttemptExpired   = "attempt_expired"
)

// EventSink receives attempt lifecycle events. Failures are logged, never
// surfaced: the audit trail must not block a submission.
type EventSink interface {
	Append(ctx context.Context, typ, key string, data any) error
}

// PrereqChecker is the course/enrollment collaborator deciding whether the
// assessment is locked for a learner.
type PrereqChecker interface {
	Met(ctx context.Context, learnerID, assessmentID string) (bool, error)
}

type Option func(*Manager)

// WithClock injects the time source, for tests.
func WithClock(now func() time.Time) Option { return func(m *Manager) { m.nowFn = now } }

// WithTickInterval shortens the countdown tick, for tests.
func WithTickInterval(d time.Duration) Option { return func(m *Manager) { m.tickInterval = d } }

func WithEvents(sink EventSink) Option { return func(m *Manager) { m.events = sink } }

func WithPrereq(p PrereqChecker) Option { return func(m *Manager) { m.prereq = p } }

// Manager owns every live session and enforces mutual exclusion: at most one
// session per (learner, assessment) pair at any instant.
type Manager struct {
	catalog catalog.Store
	ledger  ledger.Ledger
	engine  *scoring.Engine
	events  EventSink
	prereq  PrereqChecker

	nowFn        func() time.Time
	tickInterval time.Duration

	mu     sync.Mutex
	active map[string]*Session // learnerID|assessmentID
	byID   map[string]*Session
}

func NewManager(cat catalog.Store, led ledger.Ledger, opts ...Option) *Manager {
	m := &Manager{
		catalog:      cat,
		ledger:       led,
		engine:       scoring.NewEngine(),
		nowFn:        time.Now,
		tickInterval: time.Second,
		active:       map[string]*Session{},
		byID:         map[string]*Session{},
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *Manager) now() time.Time { return m.nowFn() }

// Eligibility resolves the learner's current snapshot without touching any
// session state.
func (m *Manager) Eligibility(ctx context.Context, learnerID, assessmentID string) (eligibility.Snapshot, error) {
	def, err := m.catalog.GetDefinition(assessmentID)
	if err != nil {
		return eligibility.Snapshot{}, err
	}
	history, err := m.ledger.AttemptsFor(ctx, learnerID, assessmentID)
	if err != nil {
		return eligibility.Snapshot{}, err
	}
	prereqMet, err := m.prereqMet(ctx, learnerID, assessmentID)
	if err != nil {
		return eligibility.Snapshot{}, err
	}
	return eligibility.Resolve(def, history, m.now(), prereqMet), nil
}

// Start performs the Preview→Active transition: eligibility gate, mutual
// exclusion, attempt numbering, and the countdown for timed definitions.
func (m *Manager) Start(ctx context.Context, learnerID, assessmentID string) (*Session, error) {
	def, err := m.catalog.GetDefinition(assessmentID)
	if err != nil {
		return nil, err
	}
	history, err := m.ledger.AttemptsFor(ctx, learnerID, assessmentID)
	if err != nil {
		return nil, err
	}
	prereqMet, err := m.prereqMet(ctx, learnerID, assessmentID)
	if err != nil {
		return nil, err
	}
	snap := eligibility.Resolve(def, history, m.now(), prereqMet)
	if !snap.CanStart {
		return nil, &NotEligibleError{Snapshot: snap}
	}

	s := &Session{
		id:        uuid.NewString(),
		learnerID: learnerID,
		def:       def,
		mgr:       m,
		state:     StateActive,
		answers:   map[int]scoring.Answer{},
		attempt: ledger.AttemptRecord{
			ID:            uuid.NewString(),
			AssessmentID:  assessmentID,
			LearnerID:     learnerID,
			AttemptNumber: len(history) + 1,
			StartedAt:     m.now(),
		},
	}
	if def.Timed() {
		s.remaining = def.TimeLimitSec
	}

	m.mu.Lock()
	k := learnerID + "|" + assessmentID
	if _, exists := m.active[k]; exists {
		m.mu.Unlock()
		return nil, ErrSessionConflict
	}
	m.active[k] = s
	m.byID[s.id] = s
	m.mu.Unlock()

	if def.Timed() {
		cd := timer.Start(def.TimeLimitSec, s.tick, s.expire, timer.WithInterval(m.tickInterval))
		s.mu.Lock()
		s.countdown = cd
		s.mu.Unlock()
	}
	m.logEvent(ctx, EventAttemptStarted, s.attempt)
	return s, nil
}

func (m *Manager) Get(sessionID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (m *Manager) prereqMet(ctx context.Context, learnerID, assessmentID string) (bool, error) {
	if m.prereq == nil {
		return true, nil
	}
	return m.prereq.Met(ctx, learnerID, assessmentID)
}

// finalize destroys the session and writes the graded record. A ledger
// failure here is fatal for the session: it is already terminal and gone
// from the manager, so the caller must reload state.
func (m *Manager) finalize(ctx context.Context, s *Session, rec ledger.AttemptRecord, event string) error {
	m.remove(s)
	if err := m.ledger.Append(ctx, rec); err != nil {
		return fmt.Errorf("record attempt #%d of %s on %s: %w",
			rec.AttemptNumber, rec.LearnerID, rec.AssessmentID, err)
	}
	m.logEvent(ctx, event, rec)
	return nil
}

func (m *Manager) remove(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.active, s.learnerID+"|"+s.def.ID)
	delete(m.byID, s.id)
}

func (m *Manager) logEvent(ctx context.Context, typ string, rec ledger.AttemptRecord) {
	if m.events == nil {
		return
	}
	if err := m.events.Append(ctx, typ, rec.ID, rec); err != nil {
		log.Printf("event log: %s %s: %v", typ, rec.ID, err)
	}
}
