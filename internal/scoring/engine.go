package scoring

import (
	"math"

	"github.com/brightpath-lms/assess/internal/catalog"
	"github.com/brightpath-lms/assess/internal/ledger"
)

// Answer is one captured response: a selected option index for choice kinds,
// free text for essays.
type Answer struct {
	Option *int   `json:"option,omitempty"`
	Text   string `json:"text,omitempty"`
}

// Result is the outcome of grading one attempt.
type Result struct {
	ScorePercent int                             `json:"score_percent"`
	Passed       bool                            `json:"passed"`
	Breakdown    map[string]ledger.CategoryScore `json:"category_breakdown"`
	// PendingManual marks results that still contain ungraded essay
	// responses; the auto percentage excludes those questions entirely.
	PendingManual  bool    `json:"pending_manual,omitempty"`
	EarnedPoints   float64 `json:"earned_points"`
	PossiblePoints float64 `json:"possible_points"`
}

// outcome is the grade of a single question.
type outcome struct {
	earned      float64
	possible    float64
	needsManual bool
}

// strategy grades one question kind. ans is nil when the question was never
// answered (expiry path); strategies score that as zero.
type strategy interface {
	score(q catalog.Question, ans *Answer) outcome
}

type Engine struct {
	strategies map[catalog.Kind]strategy
}

func NewEngine() *Engine {
	return &Engine{strategies: map[catalog.Kind]strategy{
		catalog.KindMultipleChoice: choiceStrategy{},
		catalog.KindTrueFalse:      choiceStrategy{},
		catalog.KindEssay:          essayStrategy{},
	}}
}

// Grade computes the score for a terminated session. answers maps question
// index to the captured response; missing entries count as unanswered.
func (e *Engine) Grade(def catalog.Definition, answers map[int]Answer) Result {
	res := Result{Breakdown: map[string]ledger.CategoryScore{}}
	for i, q := range def.Questions {
		s, ok := e.strategies[q.Kind]
		if !ok {
			s = essayStrategy{} // unknown kinds go to manual review
		}
		var ans *Answer
		if a, answered := answers[i]; answered {
			ans = &a
		}
		out := s.score(q, ans)
		if out.needsManual {
			res.PendingManual = true
			continue
		}
		res.EarnedPoints += out.earned
		res.PossiblePoints += out.possible
		cat := q.Category
		if cat == "" {
			cat = "general"
		}
		cs := res.Breakdown[cat]
		cs.Earned += out.earned
		cs.Possible += out.possible
		res.Breakdown[cat] = cs
	}
	res.ScorePercent = percent(res.EarnedPoints, res.PossiblePoints)
	res.Passed = res.ScorePercent >= def.PassingScorePercent
	return res
}

// percent rounds half up, so 92.5 grades to 93. An attempt with no
// auto-gradable points (all-essay) reports 100 pending manual review.
func percent(earned, possible float64) int {
	if possible <= 0 {
		return 100
	}
	return int(math.Floor(100*earned/possible + 0.5))
}

type choiceStrategy struct{}

func (choiceStrategy) score(q catalog.Question, ans *Answer) outcome {
	out := outcome{possible: q.Points}
	if ans == nil || ans.Option == nil {
		return out
	}
	if *ans.Option == q.CorrectOption {
		out.earned = q.Points
	}
	return out
}

type essayStrategy struct{}

func (essayStrategy) score(q catalog.Question, ans *Answer) outcome {
	return outcome{possible: q.Points, needsManual: true}
}
