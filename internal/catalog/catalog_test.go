package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDef() Definition {
	deadline := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	return Definition{
		ID:                  "quiz-1",
		CourseID:            "course-9",
		Title:               "Module 3 Quiz",
		Type:                TypeQuiz,
		TimeLimitSec:        1800,
		MaxAttempts:         3,
		PassingScorePercent: 70,
		Deadline:            &deadline,
		Questions: []Question{
			{ID: "q0", Kind: KindMultipleChoice, Options: []string{"a", "b", "c"}, CorrectOption: 2, Points: 5, Category: "algebra"},
			{ID: "q1", Kind: KindEssay, Points: 10, CorrectOption: -1},
		},
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, validDef().Validate())

	bad := validDef()
	bad.MaxAttempts = 0
	assert.Error(t, bad.Validate())

	bad = validDef()
	bad.Questions[0].CorrectOption = 3
	assert.Error(t, bad.Validate())

	bad = validDef()
	bad.Questions[0].Points = 0
	assert.Error(t, bad.Validate())

	bad = validDef()
	bad.Questions = nil
	assert.Error(t, bad.Validate())

	bad = validDef()
	bad.PassingScorePercent = 101
	assert.Error(t, bad.Validate())
}

func TestRedactStripsAnswerKeys(t *testing.T) {
	def := validDef()
	red := Redact(def)
	assert.Equal(t, -1, red.Questions[0].CorrectOption)
	assert.Equal(t, 2, def.Questions[0].CorrectOption, "original untouched")
}

func TestMemoryStore(t *testing.T) {
	store := NewInMemoryStore()

	_, err := store.GetDefinition("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.PutDefinition(validDef()))
	got, err := store.GetDefinition("quiz-1")
	require.NoError(t, err)
	assert.Equal(t, "Module 3 Quiz", got.Title)
	assert.True(t, got.Timed())

	other := validDef()
	other.ID = "quiz-2"
	other.CourseID = "course-10"
	require.NoError(t, store.PutDefinition(other))

	all, err := store.ListDefinitions(ListOpts{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, 2, all[0].QuestionCount)

	scoped, err := store.ListDefinitions(ListOpts{CourseID: "course-10"})
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, "quiz-2", scoped[0].ID)
}

func TestMemoryStore_RejectsInvalid(t *testing.T) {
	store := NewInMemoryStore()
	bad := validDef()
	bad.ID = ""
	assert.Error(t, store.PutDefinition(bad))
}
