package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/brightpath-lms/assess/internal/catalog"
	"github.com/brightpath-lms/assess/internal/rbac"
)

// POST /assessments (instructor). Body is a full definition; republishing an
// id overwrites it.
func PublishAssessmentHandler(store catalog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var def catalog.Definition
		if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := store.PutDefinition(def); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"id": def.ID})
	}
}

// GET /assessments?course_id=...&limit=50&offset=0
func ListAssessmentsHandler(store catalog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.ListDefinitions(catalog.ListOpts{
			CourseID: r.URL.Query().Get("course_id"),
			Limit:    parseIntDefault(r.URL.Query().Get("limit"), 50),
			Offset:   parseIntDefault(r.URL.Query().Get("offset"), 0),
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// GET /assessments/{assessmentID}. Learners get a redacted copy; roles with
// assessment:publish see answer keys.
func GetAssessmentHandler(store catalog.Store) http.HandlerFunc {
	checker := rbac.NewChecker(nil)
	return func(w http.ResponseWriter, r *http.Request) {
		def, err := store.GetDefinition(chi.URLParam(r, "assessmentID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		if !checker.Has(rbac.RoleFromContext(r.Context()), "assessment:publish") {
			def = catalog.Redact(def)
		}
		writeJSON(w, http.StatusOK, def)
	}
}
