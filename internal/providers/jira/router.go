// Package jira is the Jira provider: trigger parsing (parser.go), the
// Router (this file), and the inbound handler (handler.go).
package jira

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

// Router owns the Jira refresh loop and dispatch path. Jira triggers carry
// no HMAC secret, so there is no fallback-upsert step and no retry
// protocol — both are GitHub-specific (§4.D.1 step 2, §4.D.2 retry).
type Router struct {
	store  *store.Store
	engine *engineclient.Client
	cfg    router.Config
	logger *slog.Logger

	mu         sync.RWMutex
	lastSynced time.Time
}

// New constructs a Jira Router.
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
	if err := r.Refresh(ctx); err != nil {
		r.logger.Error("jira refresh failed", "error", err)
	}

	ticker := time.NewTicker(r.cfg.RefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Refresh(ctx); err != nil {
				r.logger.Error("jira refresh failed", "error", err)
			}
		}
	}
}

// Refresh implements §4.D.1 for Jira (no secret step). Exported so the
// Jira impersonation POST handler can trigger an immediate out-of-band
// refresh (§4.F "Jira impersonation").
func (r *Router) Refresh(ctx context.Context) error {
	workflows, err := r.engine.FetchWorkflows(ctx)
	if err != nil {
		return err
	}

	configs := ExtractAll(workflows)
	rows := make([]store.JiraTriggerSync, 0, len(configs))
	for _, c := range configs {
		rows = append(rows, store.JiraTriggerSync{
			WebhookID:    c.WebhookID,
			WorkflowID:   c.WorkflowID,
			WorkflowName: c.WorkflowName,
			Active:       c.Active,
			Events:       c.Events,
		})
	}
	if err := r.store.SyncJiraTriggers(ctx, rows); err != nil {
		r.logger.Warn("jira trigger sync failed", "error", err)
		return nil
	}

	r.mu.Lock()
	r.lastSynced = time.Now().UTC()
	r.mu.Unlock()
	return nil
}

// Dispatch implements §4.D.2 for Jira: query, filter by event, fan out to
// test (always) and production (iff active), appending the inbound query
// string to each URL.
func (r *Router) Dispatch(ctx context.Context, event, rawQuery string, body []byte, headers http.Header) {
	rows, err := r.store.QueryJiraTriggers(ctx)
	if err != nil {
		r.logger.Warn("jira dispatch query failed", "error", err)
		return
	}

	var jobs []router.Job
	for _, row := range rows {
		if !trigger.MatchesEvent(row.Events, event) {
			continue
		}
		jobs = append(jobs, router.Job{
			WebhookID: row.WebhookID,
			Kind:      router.Test,
			URL:       router.AppendQuery(router.BuildURL(r.cfg.EngineBaseURL, r.cfg.TestPath, row.WebhookID), rawQuery),
			Headers:   headers,
			HadSecret: true,
		})
		if row.Active {
			jobs = append(jobs, router.Job{
				WebhookID: row.WebhookID,
				Kind:      router.Production,
				URL:       router.AppendQuery(router.BuildURL(r.cfg.EngineBaseURL, r.cfg.ProductionPath, row.WebhookID), rawQuery),
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
