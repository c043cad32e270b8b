// Package httpserver assembles the chi router exposing every inbound
// surface: provider event endpoints (§4.E), provider-API impersonation
// (§4.F), and health/readiness (§6), grounded on cmd/server/main.go's
// router assembly and health/readiness handler pair.
package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cedricziel/unihook/internal/providers/github"
	"github.com/cedricziel/unihook/internal/providers/jira"
	"github.com/cedricziel/unihook/internal/providers/slack"
	"github.com/cedricziel/unihook/internal/store"
)

// Routers bundles the three per-provider Routers, needed by the health
// endpoint's last-synced-at detail.
type Routers struct {
	GitHub *github.Router
	Jira   *jira.Router
	Slack  *slack.Router
}

// Handlers bundles the three inbound provider handlers.
type Handlers struct {
	GitHub *github.Handler
	Jira   *jira.Handler
	Slack  *slack.Handler
}

// Impersonation bundles the provider-API impersonation surfaces. Slack has
// no impersonation surface (§4.F only defines GitHub and Jira).
type Impersonation struct {
	GitHub *github.Impersonation
	Jira   *jira.Impersonation
}

// New assembles the complete chi router.
func New(s *store.Store, routers Routers, handlers Handlers, imp Impersonation, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)

	r.Get("/health", healthHandler(s, routers, logger))
	r.Get("/ready", readyHandler(s, logger))

	r.Post("/slack/events", handlers.Slack.ServeHTTP)
	r.Post("/jira/events", handlers.Jira.ServeHTTP)
	r.Post("/github/events", handlers.GitHub.ServeHTTP)

	imp.GitHub.Mount(r)
	imp.Jira.Mount(r)

	return r
}

type healthResponse struct {
	Status       string            `json:"status"`
	Timestamp    string            `json:"timestamp"`
	Triggers     map[string]int    `json:"triggers"`
	Secrets      int               `json:"secrets"`
	LastSyncedAt map[string]string `json:"last_synced_at,omitempty"`
}

// healthHandler reports liveness plus per-provider trigger counts (§6) and
// the supplemental secret count / last-synced detail (SPEC_FULL.md §2.1).
// It never touches the Store's connectivity beyond the counting queries
// already required to answer the question.
func healthHandler(s *store.Store, routers Routers, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		triggers := map[string]int{}

		if n, err := s.CountGitHubTriggers(ctx); err == nil {
			triggers["github"] = n
		} else {
			logger.Warn("health: count github triggers failed", "error", err)
		}
		if n, err := s.CountJiraTriggers(ctx); err == nil {
			triggers["jira"] = n
		} else {
			logger.Warn("health: count jira triggers failed", "error", err)
		}
		if n, err := s.CountSlackTriggers(ctx); err == nil {
			triggers["slack"] = n
		} else {
			logger.Warn("health: count slack triggers failed", "error", err)
		}

		secrets, err := s.CountWebhookSecrets(ctx)
		if err != nil {
			logger.Warn("health: count webhook secrets failed", "error", err)
		}

		lastSynced := map[string]string{}
		if t := routers.GitHub.LastSyncedAt(); !t.IsZero() {
			lastSynced["github"] = t.Format(time.RFC3339)
		}
		if t := routers.Jira.LastSyncedAt(); !t.IsZero() {
			lastSynced["jira"] = t.Format(time.RFC3339)
		}
		if t := routers.Slack.LastSyncedAt(); !t.IsZero() {
			lastSynced["slack"] = t.Format(time.RFC3339)
		}

		writeJSON(w, http.StatusOK, healthResponse{
			Status:       "healthy",
			Timestamp:    time.Now().UTC().Format(time.RFC3339),
			Triggers:     triggers,
			Secrets:      secrets,
			LastSyncedAt: lastSynced,
		})
	}
}

type readyResponse struct {
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Checks    map[string]interface{} `json:"checks"`
}

// readyHandler additionally checks the Store is reachable, unlike
// healthHandler (SPEC_FULL.md §2.4 "liveness vs readiness split").
func readyHandler(s *store.Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		checks := map[string]interface{}{}
		status := "ready"

		if err := s.Ping(ctx); err != nil {
			checks["store"] = map[string]string{"status": "unhealthy", "error": err.Error()}
			status = "not_ready"
		} else {
			checks["store"] = map[string]string{"status": "healthy"}
		}

		httpStatus := http.StatusOK
		if status != "ready" {
			httpStatus = http.StatusServiceUnavailable
		}
		writeJSON(w, httpStatus, readyResponse{
			Status:    status,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Checks:    checks,
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
