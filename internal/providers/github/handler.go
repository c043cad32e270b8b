package github

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/cedricziel/unihook/internal/inbound"
)

// headerPrefixes is the GitHub slice of the allow-listed header prefixes
// (§9 "Header filtering").
var headerPrefixes = []string{"x-github-"}

// repositoryDiscriminator pulls just enough of a GitHub payload to learn
// (owner, repository) for the Store query (§9 Open Question: sourced from
// the inbound JSON body, not headers — see DESIGN.md).
type repositoryDiscriminator struct {
	Repository struct {
		Name  string `json:"name"`
		Owner struct {
			Login string `json:"login"`
		} `json:"owner"`
	} `json:"repository"`
}

// Handler is the inbound GitHub webhook endpoint (§4.E).
type Handler struct {
	router       *Router
	sharedSecret string
	logger       *slog.Logger
}

// NewHandler constructs the GitHub inbound handler. sharedSecret may be
// empty, in which case inbound signature verification is skipped (there is
// nothing configured to check against).
func NewHandler(r *Router, sharedSecret string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{router: r, sharedSecret: sharedSecret, logger: logger}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	body, err := io.ReadAll(req.Body)
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	if h.sharedSecret != "" {
		sig := req.Header.Get("X-Hub-Signature-256")
		if !VerifySignature(h.sharedSecret, sig, body) {
			http.Error(w, "signature mismatch", http.StatusUnauthorized)
			return
		}
	}

	event := req.Header.Get("X-GitHub-Event")
	if event == "" {
		http.Error(w, "missing X-GitHub-Event", http.StatusBadRequest)
		return
	}
	if event == "ping" {
		w.WriteHeader(http.StatusOK)
		return
	}

	var disc repositoryDiscriminator
	if len(body) > 0 {
		if err := json.Unmarshal(body, &disc); err != nil {
			http.Error(w, "malformed body", http.StatusBadRequest)
			return
		}
	}

	headers := inbound.FilterHeaders(req.Header, headerPrefixes...)
	owner := disc.Repository.Owner.Login
	repository := disc.Repository.Name

	go h.router.Dispatch(context.Background(), owner, repository, event, body, headers)

	w.WriteHeader(http.StatusOK)
}
