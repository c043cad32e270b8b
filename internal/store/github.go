package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"

	"github.com/cedricziel/unihook/internal/unihookerr"
)

// GitHubTriggerSync is one row as discovered by the refresh loop, ready to
// replace the github_trigger table wholesale (§4.D.1 step 3).
type GitHubTriggerSync struct {
	WebhookID    string
	WorkflowID   string
	WorkflowName string
	Active       bool
	Owner        string
	Repository   string
	Events       []string
}

// GitHubTriggerRow is a stored trigger joined with its (possibly absent)
// captured secret, as returned by QueryGitHubTriggers.
type GitHubTriggerRow struct {
	WebhookID    string
	WorkflowID   string
	WorkflowName string
	Active       bool
	Owner        string
	Repository   string
	Events       []string
	Secret       *string
}

var githubTriggerTable = goqu.T("github_trigger")

// SyncGitHubTriggers atomically replaces the entire github_trigger table
// (§3 "the periodic sync replaces the entire trigger table atomically").
func (s *Store) SyncGitHubTriggers(ctx context.Context, rows []GitHubTriggerSync) error {
	return s.withWriteTx(ctx, func(tx *sql.Tx) error {
		delSQL, _, err := goqu.Delete(githubTriggerTable).ToSQL()
		if err != nil {
			return fmt.Errorf("build delete github_trigger: %w", err)
		}
		if _, err := tx.ExecContext(ctx, delSQL); err != nil {
			return fmt.Errorf("%w: delete github_trigger: %v", unihookerr.ErrStore, err)
		}

		for _, r := range rows {
			eventsJSON, err := json.Marshal(r.Events)
			if err != nil {
				return fmt.Errorf("marshal events for %s: %w", r.WebhookID, err)
			}
			insSQL, _, err := goqu.Insert(githubTriggerTable).Rows(goqu.Record{
				"webhook_id":      r.WebhookID,
				"workflow_id":     r.WorkflowID,
				"workflow_name":   r.WorkflowName,
				"workflow_active": boolToInt(r.Active),
				"owner":           r.Owner,
				"repository":      r.Repository,
				"events":          string(eventsJSON),
			}).ToSQL()
			if err != nil {
				return fmt.Errorf("build insert github_trigger: %w", err)
			}
			if _, err := tx.ExecContext(ctx, insSQL); err != nil {
				return fmt.Errorf("%w: insert github_trigger %s: %v", unihookerr.ErrStore, r.WebhookID, err)
			}
		}
		return nil
	})
}

// QueryGitHubTriggers returns rows matching (case-insensitive) owner and
// repository when both are supplied, or org-level rows (empty owner and
// repository) when either is nil, LEFT JOINed against webhook_secret (§4.A).
func (s *Store) QueryGitHubTriggers(ctx context.Context, owner, repository *string) ([]GitHubTriggerRow, error) {
	query := `
		SELECT t.webhook_id, t.workflow_id, t.workflow_name, t.workflow_active,
		       t.owner, t.repository, t.events, s.secret
		FROM github_trigger t
		LEFT JOIN webhook_secret s ON s.webhook_id = t.webhook_id AND s.provider = 'github'`

	var args []interface{}
	if owner != nil && repository != nil {
		query += ` WHERE LOWER(t.owner) = LOWER(?) AND LOWER(t.repository) = LOWER(?)`
		args = append(args, *owner, *repository)
	} else {
		query += ` WHERE t.owner = '' AND t.repository = ''`
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query github_trigger: %v", unihookerr.ErrStore, err)
	}
	defer rows.Close()

	var out []GitHubTriggerRow
	for rows.Next() {
		var r GitHubTriggerRow
		var active int
		var eventsJSON string
		var secret sql.NullString
		if err := rows.Scan(&r.WebhookID, &r.WorkflowID, &r.WorkflowName, &active,
			&r.Owner, &r.Repository, &eventsJSON, &secret); err != nil {
			return nil, fmt.Errorf("%w: scan github_trigger: %v", unihookerr.ErrStore, err)
		}
		r.Active = active != 0
		if err := json.Unmarshal([]byte(eventsJSON), &r.Events); err != nil {
			return nil, fmt.Errorf("unmarshal events for %s: %w", r.WebhookID, err)
		}
		if secret.Valid {
			v := secret.String
			r.Secret = &v
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CountGitHubTriggers reports the total number of stored GitHub triggers,
// for the /health endpoint (§6).
func (s *Store) CountGitHubTriggers(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM github_trigger`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: count github_trigger: %v", unihookerr.ErrStore, err)
	}
	return n, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// normalizeKey trims and lower-cases a string. Nothing in the module calls
// it; QueryGitHubTriggers does its case-insensitive matching with SQL
// LOWER().
func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
