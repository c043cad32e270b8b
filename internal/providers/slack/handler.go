package slack

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/cedricziel/unihook/internal/inbound"
)

var headerPrefixes = []string{"x-slack-"}

type slackDiscriminator struct {
	Type      string `json:"type"`
	Challenge string `json:"challenge"`
	Event     struct {
		Type    string `json:"type"`
		Channel string `json:"channel"`
		Subtype string `json:"subtype"`
	} `json:"event"`
}

// Handler is the inbound Slack events endpoint (§4.E). Slack requires a
// response within 3 seconds, so dispatch always runs asynchronously except
// for the synchronous url_verification challenge reply.
type Handler struct {
	router *Router
	logger *slog.Logger
}

// NewHandler constructs the Slack inbound handler.
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

	var disc slackDiscriminator
	if len(body) > 0 {
		if err := json.Unmarshal(body, &disc); err != nil {
			http.Error(w, "malformed body", http.StatusBadRequest)
			return
		}
	}

	if disc.Type == "url_verification" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"challenge": disc.Challenge})
		return
	}

	rawType := disc.Event.Type
	if rawType == "" {
		rawType = disc.Type
	}
	if rawType == "" {
		http.Error(w, "missing event type", http.StatusBadRequest)
		return
	}
	eventType := toN8NEventType(rawType, disc.Event.Subtype)

	headers := inbound.FilterHeaders(req.Header, headerPrefixes...)
	channel := disc.Event.Channel

	go h.router.Dispatch(context.Background(), eventType, channel, body, headers)

	w.WriteHeader(http.StatusOK)
}
