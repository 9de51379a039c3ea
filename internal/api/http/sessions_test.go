package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	api "github.com/brightpath-lms/assess/internal/api/http"
	"github.com/brightpath-lms/assess/internal/catalog"
	"github.com/brightpath-lms/assess/internal/ledger"
	"github.com/brightpath-lms/assess/internal/rbac"
	"github.com/brightpath-lms/assess/internal/scoring"
	"github.com/brightpath-lms/assess/internal/session"
)

// asUser stands in for the JWT middleware in tests.
func asUser(sub, role string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := rbac.WithSubject(r.Context(), sub)
		ctx = rbac.WithRole(ctx, role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func newRouter(t *testing.T) (*chi.Mux, *session.Manager) {
	t.Helper()
	cat := catalog.NewInMemoryStore()
	require.NoError(t, cat.PutDefinition(catalog.Definition{
		ID:                  "quiz-1",
		Title:               "Quiz",
		Type:                catalog.TypeQuiz,
		MaxAttempts:         2,
		PassingScorePercent: 50,
		Questions: []catalog.Question{
			{ID: "q0", Kind: catalog.KindTrueFalse, Options: []string{"true", "false"}, CorrectOption: 0, Points: 10},
			{ID: "q1", Kind: catalog.KindTrueFalse, Options: []string{"true", "false"}, CorrectOption: 1, Points: 10},
		},
	}))
	mgr := session.NewManager(cat, ledger.NewInMemoryLedger())

	r := chi.NewRouter()
	r.Get("/assessments/{assessmentID}", api.GetAssessmentHandler(cat))
	r.Get("/assessments/{assessmentID}/eligibility", api.EligibilityHandler(mgr))
	r.Post("/assessments/{assessmentID}/sessions", api.StartSessionHandler(mgr))
	r.Get("/sessions/{sessionID}", api.GetSessionHandler(mgr))
	r.Put("/sessions/{sessionID}/answers/{questionIndex}", api.AnswerHandler(mgr))
	r.Post("/sessions/{sessionID}/submit", api.SubmitHandler(mgr))
	r.Delete("/sessions/{sessionID}", api.ExitHandler(mgr))
	return r, mgr
}

func doAs(t *testing.T, r http.Handler, sub, role, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	asUser(sub, role, r).ServeHTTP(w, req)
	return w
}

func TestSessionFlowOverHTTP(t *testing.T) {
	r, _ := newRouter(t)

	// learner never sees answer keys
	w := doAs(t, r, "lena", "learner", http.MethodGet, "/assessments/quiz-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var def catalog.Definition
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &def))
	assert.Equal(t, -1, def.Questions[0].CorrectOption)

	w = doAs(t, r, "lena", "learner", http.MethodGet, "/assessments/quiz-1/eligibility", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"can_start":true`)

	w = doAs(t, r, "lena", "learner", http.MethodPost, "/assessments/quiz-1/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var view session.View
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	sid := view.ID

	// second start conflicts
	w = doAs(t, r, "lena", "learner", http.MethodPost, "/assessments/quiz-1/sessions", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	// incomplete submit is a structured 422
	w = doAs(t, r, "lena", "learner", http.MethodPost, "/sessions/"+sid+"/submit", nil)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), `"incomplete_submission"`)

	w = doAs(t, r, "lena", "learner", http.MethodPut, "/sessions/"+sid+"/answers/0", map[string]int{"option": 0})
	require.Equal(t, http.StatusOK, w.Code)
	w = doAs(t, r, "lena", "learner", http.MethodPut, "/sessions/"+sid+"/answers/1", map[string]int{"option": 1})
	require.Equal(t, http.StatusOK, w.Code)

	w = doAs(t, r, "lena", "learner", http.MethodPost, "/sessions/"+sid+"/submit", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var rec ledger.AttemptRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	require.NotNil(t, rec.ScorePercent)
	assert.Equal(t, 100, *rec.ScorePercent)

	// the session is gone now
	w = doAs(t, r, "lena", "learner", http.MethodGet, "/sessions/"+sid, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionOwnership(t *testing.T) {
	r, mgr := newRouter(t)

	s, err := mgr.Start(context.Background(), "lena", "quiz-1")
	require.NoError(t, err)

	// another learner cannot see or exit lena's session
	w := doAs(t, r, "marc", "learner", http.MethodGet, "/sessions/"+s.ID(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = doAs(t, r, "marc", "learner", http.MethodDelete, "/sessions/"+s.ID(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doAs(t, r, "lena", "learner", http.MethodDelete, "/sessions/"+s.ID(), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestStartRejectionCarriesReason(t *testing.T) {
	r, mgr := newRouter(t)
	ctx := context.Background()

	// burn both attempts with failing scores
	wrong0, wrong1 := 1, 0
	for i := 0; i < 2; i++ {
		s, err := mgr.Start(ctx, "lena", "quiz-1")
		require.NoError(t, err)
		require.NoError(t, s.Answer(0, scoring.Answer{Option: &wrong0}))
		require.NoError(t, s.Answer(1, scoring.Answer{Option: &wrong1}))
		_, err = s.Submit(ctx)
		require.NoError(t, err)
	}

	w := doAs(t, r, "lena", "learner", http.MethodPost, "/assessments/quiz-1/sessions", nil)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), `"out_of_attempts"`)
}
