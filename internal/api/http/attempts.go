package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/brightpath-lms/assess/internal/ledger"
	"github.com/brightpath-lms/assess/internal/rbac"
)

// GET /assessments/{assessmentID}/attempts?learner_id=...
// RBAC:
// - attempt:view-all may pass any learner_id
// - attempt:view-own is forced to the caller's own subject
func ListAttemptsHandler(led ledger.Ledger) http.HandlerFunc {
	checker := rbac.NewChecker(nil)
	return func(w http.ResponseWriter, r *http.Request) {
		role := rbac.RoleFromContext(r.Context())
		sub := rbac.SubjectFromContext(r.Context())
		assessmentID := chi.URLParam(r, "assessmentID")

		learnerID := strings.TrimSpace(r.URL.Query().Get("learner_id"))
		if !checker.Has(role, "attempt:view-all") || learnerID == "" {
			learnerID = sub
		}

		recs, err := led.AttemptsFor(r.Context(), learnerID, assessmentID)
		if err != nil {
			writeErr(w, err)
			return
		}
		best, ok, err := led.BestScore(r.Context(), learnerID, assessmentID)
		if err != nil {
			writeErr(w, err)
			return
		}
		resp := map[string]any{"attempts": recs}
		if ok {
			resp["best_score"] = best
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
