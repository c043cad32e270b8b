package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
)

// Impersonation presents the slice of the Jira REST API the engine calls
// during webhook activation/deactivation (§4.F). Jira carries no HMAC
// secret; registering a webhook instead kicks off an immediate Router
// refresh so the newly-activated trigger appears without waiting for the
// next periodic tick.
type Impersonation struct {
	router *Router
	logger *slog.Logger
	nextID atomic.Int64
}

// NewImpersonation constructs the Jira impersonation handlers.
func NewImpersonation(r *Router, logger *slog.Logger) *Impersonation {
	if logger == nil {
		logger = slog.Default()
	}
	return &Impersonation{router: r, logger: logger}
}

// Mount registers every impersonated route on r.
func (im *Impersonation) Mount(r chi.Router) {
	r.Get("/rest/webhooks/1.0/webhook", im.listWebhooks)
	r.Post("/rest/webhooks/1.0/webhook", im.createWebhook)
	r.Delete("/rest/webhooks/1.0/webhook/{id}", im.deleteWebhook)
	r.Get("/rest/api/2/myself", im.myself)
}

func (im *Impersonation) listWebhooks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, []interface{}{})
}

func (im *Impersonation) createWebhook(w http.ResponseWriter, r *http.Request) {
	// The request body is not read: Jira carries no secret to capture, and
	// §8 requires the refresh to fire even for a minimal body.
	go func() {
		if err := im.router.Refresh(context.Background()); err != nil {
			im.logger.Warn("jira impersonation refresh failed", "error", err)
		}
	}()

	id := im.nextID.Add(1)
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"self": fmt.Sprintf("/rest/webhooks/1.0/webhook/%d", id),
	})
}

func (im *Impersonation) deleteWebhook(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (im *Impersonation) myself(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":         "unihook-bot",
		"displayName":  "unihook",
		"accountId":    "unihook-bot",
		"emailAddress": "unihook-bot@invalid",
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
