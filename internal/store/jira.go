package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/cedricziel/unihook/internal/unihookerr"
)

// JiraTriggerSync is one row as discovered by the refresh loop.
type JiraTriggerSync struct {
	WebhookID    string
	WorkflowID   string
	WorkflowName string
	Active       bool
	Events       []string
}

// JiraTriggerRow is a stored trigger, with no secret join since Jira
// triggers carry no HMAC secret (§4.F "Jira impersonation").
type JiraTriggerRow struct {
	WebhookID    string
	WorkflowID   string
	WorkflowName string
	Active       bool
	Events       []string
}

var jiraTriggerTable = goqu.T("jira_trigger")

// SyncJiraTriggers atomically replaces the entire jira_trigger table.
func (s *Store) SyncJiraTriggers(ctx context.Context, rows []JiraTriggerSync) error {
	return s.withWriteTx(ctx, func(tx *sql.Tx) error {
		delSQL, _, err := goqu.Delete(jiraTriggerTable).ToSQL()
		if err != nil {
			return fmt.Errorf("build delete jira_trigger: %w", err)
		}
		if _, err := tx.ExecContext(ctx, delSQL); err != nil {
			return fmt.Errorf("%w: delete jira_trigger: %v", unihookerr.ErrStore, err)
		}

		for _, r := range rows {
			eventsJSON, err := json.Marshal(r.Events)
			if err != nil {
				return fmt.Errorf("marshal events for %s: %w", r.WebhookID, err)
			}
			insSQL, _, err := goqu.Insert(jiraTriggerTable).Rows(goqu.Record{
				"webhook_id":      r.WebhookID,
				"workflow_id":     r.WorkflowID,
				"workflow_name":   r.WorkflowName,
				"workflow_active": boolToInt(r.Active),
				"events":          string(eventsJSON),
			}).ToSQL()
			if err != nil {
				return fmt.Errorf("build insert jira_trigger: %w", err)
			}
			if _, err := tx.ExecContext(ctx, insSQL); err != nil {
				return fmt.Errorf("%w: insert jira_trigger %s: %v", unihookerr.ErrStore, r.WebhookID, err)
			}
		}
		return nil
	})
}

// QueryJiraTriggers returns every stored Jira trigger.
func (s *Store) QueryJiraTriggers(ctx context.Context) ([]JiraTriggerRow, error) {
	selSQL, _, err := goqu.From(jiraTriggerTable).
		Select("webhook_id", "workflow_id", "workflow_name", "workflow_active", "events").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select jira_trigger: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, selSQL)
	if err != nil {
		return nil, fmt.Errorf("%w: query jira_trigger: %v", unihookerr.ErrStore, err)
	}
	defer rows.Close()

	var out []JiraTriggerRow
	for rows.Next() {
		var r JiraTriggerRow
		var active int
		var eventsJSON string
		if err := rows.Scan(&r.WebhookID, &r.WorkflowID, &r.WorkflowName, &active, &eventsJSON); err != nil {
			return nil, fmt.Errorf("%w: scan jira_trigger: %v", unihookerr.ErrStore, err)
		}
		r.Active = active != 0
		if err := json.Unmarshal([]byte(eventsJSON), &r.Events); err != nil {
			return nil, fmt.Errorf("unmarshal events for %s: %w", r.WebhookID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CountJiraTriggers reports the total number of stored Jira triggers.
func (s *Store) CountJiraTriggers(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM jira_trigger`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: count jira_trigger: %v", unihookerr.ErrStore, err)
	}
	return n, nil
}
