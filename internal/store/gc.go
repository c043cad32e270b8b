package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/cedricziel/unihook/internal/unihookerr"
)

// DefaultOrphanRetention is the minimum age, counted from the row's
// created_at, before a webhook_secret row with no matching trigger row in
// any provider table is removed (SPEC_FULL.md §2.2 "Stale secret GC").
const DefaultOrphanRetention = 7 * 24 * time.Hour

// GC periodically removes orphaned webhook_secret rows using cron/v3, the
// scheduler library the teacher reserves for schedule-typed triggers
// (internal/triggers.Engine); this spec has no schedule-typed trigger, so
// the dependency is repointed at the one periodic maintenance concern the
// data model invites instead of being dropped.
type GC struct {
	store     *Store
	retention time.Duration
	logger    *slog.Logger
	cron      *cron.Cron
}

// NewGC constructs a GC job. retention <= 0 uses DefaultOrphanRetention.
func NewGC(s *Store, retention time.Duration, logger *slog.Logger) *GC {
	if retention <= 0 {
		retention = DefaultOrphanRetention
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GC{store: s, retention: retention, logger: logger, cron: cron.New()}
}

// Start schedules the GC to run once a day until ctx is canceled.
func (g *GC) Start(ctx context.Context) error {
	_, err := g.cron.AddFunc("@daily", func() {
		n, err := g.store.DeleteOrphanSecrets(ctx, g.retention)
		if err != nil {
			g.logger.Error("secret gc failed", "error", err)
			return
		}
		if n > 0 {
			g.logger.Info("secret gc removed orphaned rows", "count", n)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule secret gc: %w", err)
	}
	g.cron.Start()
	go func() {
		<-ctx.Done()
		g.cron.Stop()
	}()
	return nil
}

// DeleteOrphanSecrets removes webhook_secret rows older than retention that
// have no matching row in any provider trigger table. It does not touch
// rows still referenced by a trigger, regardless of age (§3 "A webhook_secret
// row may exist for a webhook_id that has no matching trigger row").
func (s *Store) DeleteOrphanSecrets(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention).Format(time.RFC3339)

	var affected int64
	err := s.withWriteTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			DELETE FROM webhook_secret
			WHERE created_at < ?
			  AND webhook_id NOT IN (SELECT webhook_id FROM github_trigger)
			  AND webhook_id NOT IN (SELECT webhook_id FROM jira_trigger)
			  AND webhook_id NOT IN (SELECT webhook_id FROM slack_trigger)
		`, cutoff)
		if err != nil {
			return fmt.Errorf("%w: delete orphan secrets: %v", unihookerr.ErrStore, err)
		}
		affected, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("%w: rows affected: %v", unihookerr.ErrStore, err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}
