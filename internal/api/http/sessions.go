package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/brightpath-lms/assess/internal/rbac"
	"github.com/brightpath-lms/assess/internal/scoring"
	"github.com/brightpath-lms/assess/internal/session"
)

// GET /assessments/{assessmentID}/eligibility
func EligibilityHandler(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub := rbac.SubjectFromContext(r.Context())
		snap, err := mgr.Eligibility(r.Context(), sub, chi.URLParam(r, "assessmentID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

// POST /assessments/{assessmentID}/sessions starts a new attempt.
func StartSessionHandler(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub := rbac.SubjectFromContext(r.Context())
		s, err := mgr.Start(r.Context(), sub, chi.URLParam(r, "assessmentID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, s.View())
	}
}

// GET /sessions/{sessionID}
func GetSessionHandler(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := ownedSession(mgr, r)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s.View())
	}
}

// PUT /sessions/{sessionID}/answers/{questionIndex}
func AnswerHandler(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := ownedSession(mgr, r)
		if err != nil {
			writeErr(w, err)
			return
		}
		idx := parseIntDefault(chi.URLParam(r, "questionIndex"), -1)
		var ans scoring.Answer
		if err := json.NewDecoder(r.Body).Decode(&ans); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := s.Answer(idx, ans); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s.View())
	}
}

// POST /sessions/{sessionID}/goto  { "index": 3 }
func GoToHandler(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := ownedSession(mgr, r)
		if err != nil {
			writeErr(w, err)
			return
		}
		var req struct {
			Index int `json:"index"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if _, err := s.GoTo(req.Index); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s.View())
	}
}

// POST /sessions/{sessionID}/submit
func SubmitHandler(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := ownedSession(mgr, r)
		if err != nil {
			writeErr(w, err)
			return
		}
		rec, err := s.Submit(r.Context())
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

// DELETE /sessions/{sessionID} exits without consuming an attempt.
func ExitHandler(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := ownedSession(mgr, r)
		if err != nil {
			writeErr(w, err)
			return
		}
		if err := s.Exit(); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ownedSession loads the session and refuses callers other than its learner.
// A foreign session id reads as not found rather than forbidden, so ids do
// not leak.
func ownedSession(mgr *session.Manager, r *http.Request) (*session.Session, error) {
	s, err := mgr.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		return nil, err
	}
	if s.LearnerID() != rbac.SubjectFromContext(r.Context()) {
		return nil, session.ErrSessionNotFound
	}
	return s, nil
}
