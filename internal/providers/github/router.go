// Package github is the GitHub provider: trigger parsing (parser.go),
// HMAC signing/verification (sign.go), the Router (refresh loop + dispatch
// + stale-credential retry, this file), and the inbound handler
// (handler.go).
package github

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

const provider = "github"

// Router owns the GitHub refresh loop and dispatch path (§4.D), grounded on
// the teacher's triggers.Engine.watch (ticker + sync-on-start) generalized
// from a cron scheduler into a periodic fetch-and-replace loop.
type Router struct {
	store  *store.Store
	engine *engineclient.Client
	cfg    router.Config
	logger *slog.Logger

	mu         sync.RWMutex
	lastSynced time.Time
}

// New constructs a GitHub Router.
func New(s *store.Store, engine *engineclient.Client, cfg router.Config, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{store: s, engine: engine, cfg: cfg, logger: logger}
}

// LastSyncedAt reports when the refresh loop last completed successfully,
// for the supplemental /health detail (SPEC_FULL.md §2.1).
func (r *Router) LastSyncedAt() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastSynced
}

// Start runs the refresh loop until ctx is canceled (§9 "Background loops":
// exactly one long-lived refresh task per Router, started via the
// runtime's native timer facility).
func (r *Router) Start(ctx context.Context) {
	if err := r.refresh(ctx); err != nil {
		r.logger.Error("github refresh failed", "error", err)
	}

	ticker := time.NewTicker(r.cfg.RefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.refresh(ctx); err != nil {
				r.logger.Error("github refresh failed", "error", err)
			}
		}
	}
}

// refresh implements §4.D.1: fetch, fallback-upsert embedded secrets, sync
// the trigger table. A fetch error aborts the tick and keeps the existing
// table; fallback/sync errors are logged and the loop continues.
func (r *Router) refresh(ctx context.Context) error {
	workflows, err := r.engine.FetchWorkflows(ctx)
	if err != nil {
		return err
	}

	configs := ExtractAll(workflows)

	for _, c := range configs {
		if c.WebhookSecret == "" {
			continue
		}
		if err := r.store.UpsertWebhookSecretFallback(ctx, c.WebhookID, provider, c.WebhookSecret); err != nil {
			r.logger.Warn("github fallback secret upsert failed", "webhook_id", c.WebhookID, "error", err)
		}
	}

	rows := make([]store.GitHubTriggerSync, 0, len(configs))
	for _, c := range configs {
		rows = append(rows, store.GitHubTriggerSync{
			WebhookID:    c.WebhookID,
			WorkflowID:   c.WorkflowID,
			WorkflowName: c.WorkflowName,
			Active:       c.Active,
			Owner:        c.Owner,
			Repository:   c.Repository,
			Events:       c.Events,
		})
	}
	if err := r.store.SyncGitHubTriggers(ctx, rows); err != nil {
		r.logger.Warn("github trigger sync failed", "error", err)
		return nil
	}

	r.mu.Lock()
	r.lastSynced = time.Now().UTC()
	r.mu.Unlock()
	return nil
}

// Dispatch implements §4.D.2 for GitHub: query, filter, fan out to test
// (always) and production (iff active) URLs with a freshly computed
// X-Hub-Signature-256, then run the stale-credential retry protocol if any
// delivery returned 401 or lacked a secret.
func (r *Router) Dispatch(ctx context.Context, owner, repository, event string, body []byte, headers http.Header) {
	rows, err := r.store.QueryGitHubTriggers(ctx, &owner, &repository)
	if err != nil {
		r.logger.Warn("github dispatch query failed", "error", err)
		return
	}

	matches := make([]store.GitHubTriggerRow, 0, len(rows))
	for _, row := range rows {
		if trigger.MatchesEvent(row.Events, event) {
			matches = append(matches, row)
		}
	}
	if len(matches) == 0 {
		return
	}

	jobs := r.buildJobs(matches, body, headers)
	results := router.FanOut(ctx, r.engine, body, jobs)

	// Track failures per (webhook_id, Kind), not per webhook_id: a trigger's
	// production and test deliveries are independent failure domains, and
	// retrying a URL that already succeeded would double-deliver to it.
	failed := map[failedKey]bool{}
	for _, res := range results {
		if !res.Job.HadSecret || (res.Err == nil && res.Status == http.StatusUnauthorized) {
			failed[failedKey{res.Job.WebhookID, res.Job.Kind}] = true
		}
	}
	if len(failed) == 0 {
		return
	}

	if err := r.refresh(ctx); err != nil {
		r.logger.Warn("github retry refresh failed", "error", err)
	}

	freshRows, err := r.store.QueryGitHubTriggers(ctx, &owner, &repository)
	if err != nil {
		r.logger.Warn("github retry requery failed", "error", err)
		return
	}

	var retryJobs []router.Job
	for _, row := range freshRows {
		if !trigger.MatchesEvent(row.Events, event) {
			continue
		}
		if failed[failedKey{row.WebhookID, router.Test}] {
			retryJobs = append(retryJobs, r.buildJob(row, router.Test, body, headers))
		}
		if row.Active && failed[failedKey{row.WebhookID, router.Production}] {
			retryJobs = append(retryJobs, r.buildJob(row, router.Production, body, headers))
		}
	}
	if len(retryJobs) == 0 {
		return
	}

	router.FanOut(ctx, r.engine, body, retryJobs)
}

// failedKey identifies one delivery target within the stale-credential
// retry protocol: a webhook's test and production URLs fail and retry
// independently (§4.D.2 retry protocol; original_source/src/router/github.rs
// tracks this as a set of URLs, which a (webhook_id, Kind) pair models
// equivalently without re-deriving URLs from the fan-out results).
type failedKey struct {
	webhookID string
	kind      router.TargetKind
}

// buildJobs constructs the fan-out jobs for one wave: always a test-URL
// job, plus a production-URL job iff the trigger is active, each signed
// with the row's captured secret if any (§4.D.2 steps 4-6).
func (r *Router) buildJobs(matches []store.GitHubTriggerRow, body []byte, headers http.Header) []router.Job {
	var jobs []router.Job
	for _, row := range matches {
		jobs = append(jobs, r.buildJob(row, router.Test, body, headers))
		if row.Active {
			jobs = append(jobs, r.buildJob(row, router.Production, body, headers))
		}
	}
	return jobs
}

// buildJob constructs a single fan-out job for one trigger row and target
// kind, signed with the row's captured secret if any.
func (r *Router) buildJob(row store.GitHubTriggerRow, kind router.TargetKind, body []byte, headers http.Header) router.Job {
	path := r.cfg.TestPath
	if kind == router.Production {
		path = r.cfg.ProductionPath
	}
	return router.Job{
		WebhookID: row.WebhookID,
		Kind:      kind,
		URL:       router.BuildURL(r.cfg.EngineBaseURL, path, row.WebhookID),
		Headers:   signHeaders(headers, row.Secret, body),
		HadSecret: row.Secret != nil,
	}
}
