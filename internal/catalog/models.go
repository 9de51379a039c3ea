package catalog

import (
	"fmt"
	"time"
)

// Kind enumerates question kinds. Choice kinds are auto-gradable; essays go
// to manual review.
type Kind string

const (
	KindMultipleChoice Kind = "multiple_choice"
	KindTrueFalse      Kind = "true_false"
	KindEssay          Kind = "essay"
)

func (k Kind) AutoGradable() bool {
	return k == KindMultipleChoice || k == KindTrueFalse
}

// AssessmentType mirrors the catalog taxonomy used by course pages.
type AssessmentType string

const (
	TypeQuiz          AssessmentType = "quiz"
	TypeExam          AssessmentType = "exam"
	TypeAssignment    AssessmentType = "assignment"
	TypeProject       AssessmentType = "project"
	TypeCertification AssessmentType = "certification"
)

type Question struct {
	ID            string   `json:"id"`
	Prompt        string   `json:"prompt"`
	Kind          Kind     `json:"kind"`
	Options       []string `json:"options,omitempty"`
	Points        float64  `json:"points"`
	CorrectOption int      `json:"correct_option,omitempty"` // index into Options; -1 for essay
	Category      string   `json:"category,omitempty"`
}

// Definition is immutable once published. Sessions, scoring and eligibility
// all read it; nothing writes it back.
type Definition struct {
	ID                  string         `json:"id"`
	CourseID            string         `json:"course_id,omitempty"`
	Title               string         `json:"title"`
	Type                AssessmentType `json:"type"`
	Questions           []Question     `json:"questions"`
	TimeLimitSec        int            `json:"time_limit_sec"` // 0 = untimed
	MaxAttempts         int            `json:"max_attempts"`
	PassingScorePercent int            `json:"passing_score_percent"`
	Deadline            *time.Time     `json:"deadline,omitempty"`
	RetakeCooldownDays  int            `json:"retake_cooldown_days"`
}

func (d Definition) Timed() bool { return d.TimeLimitSec > 0 }

// Validate rejects definitions the engine cannot run against.
func (d Definition) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("definition: missing id")
	}
	if len(d.Questions) == 0 {
		return fmt.Errorf("definition %s: no questions", d.ID)
	}
	if d.MaxAttempts < 1 {
		return fmt.Errorf("definition %s: max_attempts must be >= 1", d.ID)
	}
	if d.PassingScorePercent < 0 || d.PassingScorePercent > 100 {
		return fmt.Errorf("definition %s: passing_score_percent out of range", d.ID)
	}
	if d.TimeLimitSec < 0 {
		return fmt.Errorf("definition %s: negative time_limit_sec", d.ID)
	}
	if d.RetakeCooldownDays < 0 {
		return fmt.Errorf("definition %s: negative retake_cooldown_days", d.ID)
	}
	for i, q := range d.Questions {
		if q.Points <= 0 {
			return fmt.Errorf("definition %s: question %d has non-positive points", d.ID, i)
		}
		if q.Kind.AutoGradable() {
			if len(q.Options) == 0 {
				return fmt.Errorf("definition %s: question %d has no options", d.ID, i)
			}
			if q.CorrectOption < 0 || q.CorrectOption >= len(q.Options) {
				return fmt.Errorf("definition %s: question %d correct_option out of range", d.ID, i)
			}
		}
	}
	return nil
}

// Redact strips answer keys before a definition is served to learners.
func Redact(d Definition) Definition {
	qs := make([]Question, len(d.Questions))
	copy(qs, d.Questions)
	for i := range qs {
		qs[i].CorrectOption = -1
	}
	d.Questions = qs
	return d
}
