package github

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/cedricziel/unihook/internal/store"
)

// Impersonation presents the slice of the GitHub REST API the engine calls
// during webhook activation/deactivation (§4.F), capturing the HMAC secret
// the engine generates.
type Impersonation struct {
	store  *store.Store
	logger *slog.Logger
}

// NewImpersonation constructs the GitHub impersonation handlers.
func NewImpersonation(s *store.Store, logger *slog.Logger) *Impersonation {
	if logger == nil {
		logger = slog.Default()
	}
	return &Impersonation{store: s, logger: logger}
}

// Mount registers every impersonated route on r.
func (im *Impersonation) Mount(r chi.Router) {
	r.Get("/repos/{owner}/{repo}/hooks", im.listHooks)
	r.Post("/repos/{owner}/{repo}/hooks", im.createHook)
	r.Delete("/repos/{owner}/{repo}/hooks/{hook_id}", im.deleteHook)
	r.Get("/user", im.user)
}

func (im *Impersonation) listHooks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, []interface{}{})
}

type createHookRequest struct {
	Config struct {
		URL    string `json:"url"`
		Secret string `json:"secret"`
	} `json:"config"`
	Events []string `json:"events"`
}

func (im *Impersonation) createHook(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	repo := chi.URLParam(r, "repo")

	var req createHookRequest
	if body, err := io.ReadAll(r.Body); err == nil && len(body) > 0 {
		_ = json.Unmarshal(body, &req) // tolerant: a malformed/empty body still gets a synthetic webhook_id below
	}

	webhookID, ok := extractWebhookID(req.Config.URL)
	if !ok {
		webhookID = fmt.Sprintf("unknown-%s-%s", owner, repo)
	}

	id, err := im.store.UpsertWebhookSecret(r.Context(), webhookID, "github", req.Config.Secret)
	if err != nil {
		im.logger.Warn("github impersonation upsert failed", "webhook_id", webhookID, "error", err)
		id = 0 // sentinel: the engine's registration still appears to succeed (§7 degrade rather than fail)
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"id": id,
		"url": req.Config.URL,
		"config": map[string]string{
			"url": req.Config.URL,
		},
		"events": req.Events,
		"active": true,
	})
}

func (im *Impersonation) deleteHook(w http.ResponseWriter, r *http.Request) {
	hookID := chi.URLParam(r, "hook_id")
	if id, err := strconv.ParseInt(hookID, 10, 64); err == nil {
		if _, err := im.store.DeleteWebhookSecretByNumericID(r.Context(), id); err != nil {
			im.logger.Warn("github impersonation delete failed", "hook_id", hookID, "error", err)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (im *Impersonation) user(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"login": "unihook-bot",
		"id":    1,
	})
}

// extractWebhookID pulls the second-to-last path segment out of an engine
// webhook URL (".../<endpoint>/<webhook_id>/webhook", optionally with a
// trailing slash or query string) per §4.F.
func extractWebhookID(rawURL string) (string, bool) {
	if rawURL == "" {
		return "", false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	segs := nonEmptySegments(u.Path)
	if len(segs) < 2 {
		return "", false
	}
	return segs[len(segs)-2], true
}

func nonEmptySegments(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
