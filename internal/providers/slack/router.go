// Package slack is the Slack provider: trigger parsing (parser.go), the
// Router (this file), and the inbound handler (handler.go).
package slack

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/cedricziel/unihook/internal/engineclient"
	"github.com/cedricziel/unihook/internal/router"
	"github.com/cedricziel/unihook/internal/store"
	"github.com/cedricziel/unihook/internal/trigger"
)

// Router owns the Slack refresh loop and dispatch path. Slack triggers
// carry no HMAC secret either, so — like Jira — there is no fallback
// upsert and no retry protocol.
type Router struct {
	store  *store.Store
	engine *engineclient.Client
	cfg    router.Config
	logger *slog.Logger

	mu         sync.RWMutex
	lastSynced time.Time
}

// New constructs a Slack Router.
func New(s *store.Store, engine *engineclient.Client, cfg router.Config, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{store: s, engine: engine, cfg: cfg, logger: logger}
}

// LastSyncedAt reports when the refresh loop last completed successfully.
func (r *Router) LastSyncedAt() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastSynced
}

// Start runs the refresh loop until ctx is canceled.
func (r *Router) Start(ctx context.Context) {
	if err := r.refresh(ctx); err != nil {
		r.logger.Error("slack refresh failed", "error", err)
	}

	ticker := time.NewTicker(r.cfg.RefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.refresh(ctx); err != nil {
				r.logger.Error("slack refresh failed", "error", err)
			}
		}
	}
}

func (r *Router) refresh(ctx context.Context) error {
	workflows, err := r.engine.FetchWorkflows(ctx)
	if err != nil {
		return err
	}

	configs := ExtractAll(workflows)
	rows := make([]store.SlackTriggerSync, 0, len(configs))
	for _, c := range configs {
		rows = append(rows, store.SlackTriggerSync{
			WebhookID:           c.WebhookID,
			WorkflowID:          c.WorkflowID,
			WorkflowName:        c.WorkflowName,
			Active:              c.Active,
			EventType:           c.EventType,
			Channels:            c.Channels,
			WatchWholeWorkspace: c.WatchWholeWorkspace,
		})
	}
	if err := r.store.SyncSlackTriggers(ctx, rows); err != nil {
		r.logger.Warn("slack trigger sync failed", "error", err)
		return nil
	}

	r.mu.Lock()
	r.lastSynced = time.Now().UTC()
	r.mu.Unlock()
	return nil
}

// Dispatch implements §4.D.2 for Slack: query, filter by type+scope, fan
// out to test (always) and production (iff active). channel is "" when
// the inbound event carries none.
func (r *Router) Dispatch(ctx context.Context, eventType, channel string, body []byte, headers http.Header) {
	rows, err := r.store.QuerySlackTriggers(ctx)
	if err != nil {
		r.logger.Warn("slack dispatch query failed", "error", err)
		return
	}

	var jobs []router.Job
	for _, row := range rows {
		if !trigger.MatchesSlack(row.EventType, row.WatchWholeWorkspace, row.Channels, eventType, channel) {
			continue
		}
		jobs = append(jobs, router.Job{
			WebhookID: row.WebhookID,
			Kind:      router.Test,
			URL:       router.BuildURL(r.cfg.EngineBaseURL, r.cfg.TestPath, row.WebhookID),
			Headers:   headers,
			HadSecret: true,
		})
		if row.Active {
			jobs = append(jobs, router.Job{
				WebhookID: row.WebhookID,
				Kind:      router.Production,
				URL:       router.BuildURL(r.cfg.EngineBaseURL, r.cfg.ProductionPath, row.WebhookID),
				Headers:   headers,
				HadSecret: true,
			})
		}
	}
	if len(jobs) == 0 {
		return
	}

	router.FanOut(ctx, r.engine, body, jobs)
}
