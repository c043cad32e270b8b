package jira

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/cedricziel/unihook/internal/inbound"
)

var headerPrefixes = []string{"x-atlassian-"}

type jiraDiscriminator struct {
	WebhookEvent string `json:"webhookEvent"`
}

// Handler is the inbound Jira webhook endpoint (§4.E). Jira carries no
// inbound signature to verify.
type Handler struct {
	router *Router
	logger *slog.Logger
}

// NewHandler constructs the Jira inbound handler.
func NewHandler(r *Router, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{router: r, logger: logger}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	body, err := io.ReadAll(req.Body)
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	var disc jiraDiscriminator
	if len(body) > 0 {
		if err := json.Unmarshal(body, &disc); err != nil {
			http.Error(w, "malformed body", http.StatusBadRequest)
			return
		}
	}
	if disc.WebhookEvent == "" {
		http.Error(w, "missing webhookEvent", http.StatusBadRequest)
		return
	}

	headers := inbound.FilterHeaders(req.Header, headerPrefixes...)
	rawQuery := req.URL.RawQuery

	go h.router.Dispatch(context.Background(), disc.WebhookEvent, rawQuery, body, headers)

	w.WriteHeader(http.StatusOK)
}
