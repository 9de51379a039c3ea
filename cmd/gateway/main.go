package main

import (
	"context"
	"log"
	"net/http"
	"time"

	api "github.com/brightpath-lms/assess/internal/api/http"
	"github.com/brightpath-lms/assess/internal/auth"
	"github.com/brightpath-lms/assess/internal/catalog"
	"github.com/brightpath-lms/assess/internal/config"
	"github.com/brightpath-lms/assess/internal/db"
	"github.com/brightpath-lms/assess/internal/eventlog"
	"github.com/brightpath-lms/assess/internal/ledger"
	"github.com/brightpath-lms/assess/internal/rbac"
	"github.com/brightpath-lms/assess/internal/session"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func main() {
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	catalogStore := catalog.NewSQLStore(dbh)
	attemptLedger := ledger.NewSQLLedger(dbh)
	events := eventlog.New(dbh, cfg.SiteID)

	mgr := session.NewManager(catalogStore, attemptLedger, session.WithEvents(events))

	// --- Auth (local JWT) ---
	authSvc := auth.NewAuthService(cfg.AuthHMACSecret)
	creds := auth.ParseCredentials(cfg.LocalUsers)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if cfg.EnableLocalAuth {
		r.Post("/auth/login", auth.LoginHandler(authSvc, creds))
	}

	// Protected API (JWT → subject/role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		// Instructor: publish definitions
		pr.With(rbac.Require("assessment:publish")).
			Post("/assessments", api.PublishAssessmentHandler(catalogStore))

		// Catalog reads
		pr.With(rbac.Require("assessment:view")).
			Get("/assessments", api.ListAssessmentsHandler(catalogStore))
		pr.With(rbac.Require("assessment:view")).
			Get("/assessments/{assessmentID}", api.GetAssessmentHandler(catalogStore))

		// Eligibility + attempt history
		pr.With(rbac.Require("eligibility:view")).
			Get("/assessments/{assessmentID}/eligibility", api.EligibilityHandler(mgr))
		pr.With(rbac.RequireAny("attempt:view-own", "attempt:view-all")).
			Get("/assessments/{assessmentID}/attempts", api.ListAttemptsHandler(attemptLedger))

		// Session flow
		pr.With(rbac.Require("session:start")).
			Post("/assessments/{assessmentID}/sessions", api.StartSessionHandler(mgr))
		pr.With(rbac.RequireAny("session:answer", "session:submit")).
			Get("/sessions/{sessionID}", api.GetSessionHandler(mgr))
		pr.With(rbac.Require("session:answer")).
			Put("/sessions/{sessionID}/answers/{questionIndex}", api.AnswerHandler(mgr))
		pr.With(rbac.Require("session:answer")).
			Post("/sessions/{sessionID}/goto", api.GoToHandler(mgr))
		pr.With(rbac.Require("session:submit")).
			Post("/sessions/{sessionID}/submit", api.SubmitHandler(mgr))
		pr.With(rbac.Require("session:exit")).
			Delete("/sessions/{sessionID}", api.ExitHandler(mgr))

		// Downstream consumers (certificates, reporting)
		pr.With(rbac.Require("attempt:view-all")).
			Get("/events", api.EventFeedHandler(events))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("listening on %s (db=%s)", cfg.HTTPAddr, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
