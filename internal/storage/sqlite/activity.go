package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/oa2006040/Kashta-Planner-sub000/internal/models"
)

const activityColumns = `id, event_id, event_title, debtor_id, debtor_name, creditor_id, creditor_name,
	amount, action, actor_id, created_at`

// AppendActivityLog inserts an activity log entry. Entries are never updated.
func (s *SQLiteStore) AppendActivityLog(ctx context.Context, entry *models.ActivityLogEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if entry.ID == "" {
		entry.ID = ulid.Make().String()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO activity_log ("+activityColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		entry.ID, entry.EventID, entry.EventTitle, entry.DebtorID, entry.DebtorName,
		entry.CreditorID, entry.CreditorName, entry.Amount.StringFixed(2), string(entry.Action),
		nullString(entry.ActorID), toMillis(entry.CreatedAt),
	)
	if err != nil {
		return classify("append activity log", fmt.Errorf("failed to insert activity log entry: %w", err))
	}
	return nil
}

// ListActivityLog returns entries newest first, optionally filtered by event.
func (s *SQLiteStore) ListActivityLog(ctx context.Context, eventID string, limit int) ([]*models.ActivityLogEntry, error) {
	query := "SELECT " + activityColumns + " FROM activity_log"
	var args []any
	if eventID != "" {
		query += " WHERE event_id = ?"
		args = append(args, eventID)
	}
	// ULIDs sort by creation time.
	query += " ORDER BY id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity log: %w", err)
	}
	defer rows.Close()

	var entries []*models.ActivityLogEntry
	for rows.Next() {
		entry := &models.ActivityLogEntry{}
		var action string
		var actorID sql.NullString
		var createdAt int64
		if err := rows.Scan(&entry.ID, &entry.EventID, &entry.EventTitle, &entry.DebtorID, &entry.DebtorName,
			&entry.CreditorID, &entry.CreditorName, &entry.Amount, &action, &actorID, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity log entry: %w", err)
		}
		entry.Action = models.ActivityAction(action)
		entry.ActorID = actorID.String
		entry.CreatedAt = fromMillis(createdAt)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate activity log: %w", err)
	}
	return entries, nil
}
