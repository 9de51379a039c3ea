package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/brightpath-lms/assess/internal/catalog"
	"github.com/brightpath-lms/assess/internal/ledger"
	"github.com/brightpath-lms/assess/internal/session"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr maps engine errors to HTTP. Logical rejections (incomplete
// submission, not eligible) carry structured payloads the UI renders
// distinctly from failures.
func writeErr(w http.ResponseWriter, err error) {
	var incomplete *session.IncompleteError
	if errors.As(err, &incomplete) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":      "incomplete_submission",
			"unanswered": incomplete.Unanswered,
		})
		return
	}
	var notEligible *session.NotEligibleError
	if errors.As(err, &notEligible) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":       "not_eligible",
			"eligibility": notEligible.Snapshot,
		})
		return
	}
	switch {
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, session.ErrSessionNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, session.ErrSessionConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ledger.ErrDuplicateAttempt):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, session.ErrNotActive):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, session.ErrInvalidAnswer):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
