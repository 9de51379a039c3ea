package catalog

import (
	"errors"
	"sort"
	"sync"
)

// ErrNotFound is fatal for the operation that needed the definition: no
// eligibility or session work can proceed without one.
var ErrNotFound = errors.New("assessment not found")

type ListOpts struct {
	CourseID string
	Limit    int
	Offset   int
}

type Summary struct {
	ID            string         `json:"id"`
	CourseID      string         `json:"course_id,omitempty"`
	Title         string         `json:"title"`
	Type          AssessmentType `json:"type"`
	QuestionCount int            `json:"question_count"`
	TimeLimitSec  int            `json:"time_limit_sec"`
}

type Store interface {
	PutDefinition(d Definition) error
	// GetDefinition returns the full definition, answer keys included.
	// Handlers serving learners must Redact before encoding.
	GetDefinition(id string) (Definition, error)
	ListDefinitions(opts ListOpts) ([]Summary, error)
}

type memoryStore struct {
	mu   sync.RWMutex
	defs map[string]Definition
}

func NewInMemoryStore() Store {
	return &memoryStore{defs: map[string]Definition{}}
}

func (m *memoryStore) PutDefinition(d Definition) error {
	if err := d.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defs[d.ID] = d
	return nil
}

func (m *memoryStore) GetDefinition(id string) (Definition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.defs[id]
	if !ok {
		return Definition{}, ErrNotFound
	}
	return d, nil
}

func (m *memoryStore) ListDefinitions(opts ListOpts) ([]Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Summary, 0, len(m.defs))
	for _, d := range m.defs {
		if opts.CourseID != "" && d.CourseID != opts.CourseID {
			continue
		}
		out = append(out, summarize(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, opts.Limit, opts.Offset), nil
}

func summarize(d Definition) Summary {
	return Summary{
		ID:            d.ID,
		CourseID:      d.CourseID,
		Title:         d.Title,
		Type:          d.Type,
		QuestionCount: len(d.Questions),
		TimeLimitSec:  d.TimeLimitSec,
	}
}

func page(s []Summary, limit, offset int) []Summary {
	if offset >= len(s) {
		return []Summary{}
	}
	s = s[offset:]
	if limit > 0 && limit < len(s) {
		s = s[:limit]
	}
	return s
}
