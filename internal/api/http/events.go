package http

import (
	"net/http"
	"strconv"

	"github.com/brightpath-lms/assess/internal/eventlog"
)

// GET /events?after=0&limit=100 serves the attempt event feed consumed by the
// certificate/report collaborator. Cursor is the last offset seen.
func EventFeedHandler(repo *eventlog.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		after, _ := strconv.ParseInt(r.URL.Query().Get("after"), 10, 64)
		limit := parseIntDefault(r.URL.Query().Get("limit"), 100)
		events, err := repo.Since(r.Context(), after, limit)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"events": events})
	}
}
