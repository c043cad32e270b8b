package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/cedricziel/unihook/internal/unihookerr"
)

// SlackTriggerSync is one row as discovered by the refresh loop.
type SlackTriggerSync struct {
	WebhookID           string
	WorkflowID          string
	WorkflowName        string
	Active              bool
	EventType           string
	Channels            []string
	WatchWholeWorkspace bool
}

// SlackTriggerRow is a stored trigger, with no secret join (Slack triggers
// carry no HMAC secret in this system).
type SlackTriggerRow struct {
	WebhookID           string
	WorkflowID          string
	WorkflowName        string
	Active              bool
	EventType           string
	Channels            []string
	WatchWholeWorkspace bool
}

var slackTriggerTable = goqu.T("slack_trigger")

// SyncSlackTriggers atomically replaces the entire slack_trigger table.
func (s *Store) SyncSlackTriggers(ctx context.Context, rows []SlackTriggerSync) error {
	return s.withWriteTx(ctx, func(tx *sql.Tx) error {
		delSQL, _, err := goqu.Delete(slackTriggerTable).ToSQL()
		if err != nil {
			return fmt.Errorf("build delete slack_trigger: %w", err)
		}
		if _, err := tx.ExecContext(ctx, delSQL); err != nil {
			return fmt.Errorf("%w: delete slack_trigger: %v", unihookerr.ErrStore, err)
		}

		for _, r := range rows {
			channelsJSON, err := json.Marshal(r.Channels)
			if err != nil {
				return fmt.Errorf("marshal channels for %s: %w", r.WebhookID, err)
			}
			insSQL, _, err := goqu.Insert(slackTriggerTable).Rows(goqu.Record{
				"webhook_id":            r.WebhookID,
				"workflow_id":           r.WorkflowID,
				"workflow_name":         r.WorkflowName,
				"workflow_active":       boolToInt(r.Active),
				"event_type":            r.EventType,
				"channels":              string(channelsJSON),
				"watch_whole_workspace": boolToInt(r.WatchWholeWorkspace),
			}).ToSQL()
			if err != nil {
				return fmt.Errorf("build insert slack_trigger: %w", err)
			}
			if _, err := tx.ExecContext(ctx, insSQL); err != nil {
				return fmt.Errorf("%w: insert slack_trigger %s: %v", unihookerr.ErrStore, r.WebhookID, err)
			}
		}
		return nil
	})
}

// QuerySlackTriggers returns every stored Slack trigger.
func (s *Store) QuerySlackTriggers(ctx context.Context) ([]SlackTriggerRow, error) {
	selSQL, _, err := goqu.From(slackTriggerTable).
		Select("webhook_id", "workflow_id", "workflow_name", "workflow_active", "event_type", "channels", "watch_whole_workspace").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select slack_trigger: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, selSQL)
	if err != nil {
		return nil, fmt.Errorf("%w: query slack_trigger: %v", unihookerr.ErrStore, err)
	}
	defer rows.Close()

	var out []SlackTriggerRow
	for rows.Next() {
		var r SlackTriggerRow
		var active, watch int
		var channelsJSON string
		if err := rows.Scan(&r.WebhookID, &r.WorkflowID, &r.WorkflowName, &active, &r.EventType, &channelsJSON, &watch); err != nil {
			return nil, fmt.Errorf("%w: scan slack_trigger: %v", unihookerr.ErrStore, err)
		}
		r.Active = active != 0
		r.WatchWholeWorkspace = watch != 0
		if err := json.Unmarshal([]byte(channelsJSON), &r.Channels); err != nil {
			return nil, fmt.Errorf("unmarshal channels for %s: %w", r.WebhookID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CountSlackTriggers reports the total number of stored Slack triggers.
func (s *Store) CountSlackTriggers(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM slack_trigger`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: count slack_trigger: %v", unihookerr.ErrStore, err)
	}
	return n, nil
}
