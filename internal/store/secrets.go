package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cedricziel/unihook/internal/unihookerr"
)

// UpsertWebhookSecret is the authoritative write path (§4.F): if a row for
// webhookID exists its secret and provider are updated, keeping the stable
// numeric id; otherwise a row is inserted. Always overwrites.
//
// This uses a raw `INSERT ... ON CONFLICT` statement rather than goqu's
// insert builder: goqu has no portable way to express SQLite's
// `ON CONFLICT(column) DO UPDATE` upsert clause across dialects, and
// "insert-or-update, then read back the id" reads more clearly as
// hand-written SQL than through a query builder.
func (s *Store) UpsertWebhookSecret(ctx context.Context, webhookID, provider, secret string) (int64, error) {
	var id int64
	err := s.withWriteTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO webhook_secret (webhook_id, provider, secret)
			VALUES (?, ?, ?)
			ON CONFLICT(webhook_id) DO UPDATE SET secret = excluded.secret, provider = excluded.provider
		`, webhookID, provider, secret); err != nil {
			return fmt.Errorf("%w: upsert webhook_secret: %v", unihookerr.ErrStore, err)
		}
		return tx.QueryRowContext(ctx, `SELECT id FROM webhook_secret WHERE webhook_id = ?`, webhookID).Scan(&id)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// UpsertWebhookSecretFallback is the sync write path (§4.D.1 step 2):
// insert only if no row exists for webhookID. Never overwrites a secret
// the authoritative path already captured.
func (s *Store) UpsertWebhookSecretFallback(ctx context.Context, webhookID, provider, secret string) error {
	return s.withWriteTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO webhook_secret (webhook_id, provider, secret)
			VALUES (?, ?, ?)
			ON CONFLICT(webhook_id) DO NOTHING
		`, webhookID, provider, secret)
		if err != nil {
			return fmt.Errorf("%w: fallback upsert webhook_secret: %v", unihookerr.ErrStore, err)
		}
		return nil
	})
}

// DeleteWebhookSecretByNumericID removes the row with the given numeric id,
// reporting whether a row was actually removed.
func (s *Store) DeleteWebhookSecretByNumericID(ctx context.Context, id int64) (bool, error) {
	var removed bool
	err := s.withWriteTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM webhook_secret WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("%w: delete webhook_secret: %v", unihookerr.ErrStore, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("%w: rows affected: %v", unihookerr.ErrStore, err)
		}
		removed = n > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}

// secretByWebhookID looks up the captured secret for a webhook id. The
// per-provider queries do not call it; QueryGitHubTriggers joins the secret
// in SQL. Returns ("", nil) if no row exists.
func (s *Store) secretByWebhookID(ctx context.Context, webhookID string) (string, error) {
	var secret string
	err := s.db.QueryRowContext(ctx, `SELECT secret FROM webhook_secret WHERE webhook_id = ?`, webhookID).Scan(&secret)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: query webhook_secret: %v", unihookerr.ErrStore, err)
	}
	return secret, nil
}

// CountWebhookSecrets reports the total number of captured secrets, used
// by the supplemental /health detail (SPEC_FULL.md §2.1).
func (s *Store) CountWebhookSecrets(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM webhook_secret`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: count webhook_secret: %v", unihookerr.ErrStore, err)
	}
	return n, nil
}
