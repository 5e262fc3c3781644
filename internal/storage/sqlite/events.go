package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/oa2006040/Kashta-Planner-sub000/internal/models"
	"github.com/oa2006040/Kashta-Planner-sub000/internal/storage"
)

const eventColumns = "id, title, location, starts_at, created_at, updated_at"

// CreateEvent persists a new event to the database.
func (s *SQLiteStore) CreateEvent(ctx context.Context, event *models.Event) error {
	// Generate ID if not set
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	if event.UpdatedAt.IsZero() {
		event.UpdatedAt = event.CreatedAt
	}
	if event.Title == "" {
		event.Title = event.DefaultTitle(event.CreatedAt)
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO events ("+eventColumns+") VALUES (?, ?, ?, ?, ?, ?)",
		event.ID, event.Title, event.Location, nullMillis(event.StartsAt),
		toMillis(event.CreatedAt), toMillis(event.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("event %s: %w", event.ID, storage.ErrConflict)
		}
		return fmt.Errorf("failed to insert event: %w", err)
	}

	return nil
}

// GetEvent retrieves an event by ID.
func (s *SQLiteStore) GetEvent(ctx context.Context, eventID string) (*models.Event, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+eventColumns+" FROM events WHERE id = ?", eventID)
	event, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, storage.NotFoundf("event %s", eventID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return event, nil
}

// ListEvents returns all events, newest first.
func (s *SQLiteStore) ListEvents(ctx context.Context) ([]*models.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+eventColumns+" FROM events ORDER BY created_at DESC, id")
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return collectEvents(rows)
}

// ListEventsForParticipant returns the events a participant has joined, oldest first.
func (s *SQLiteStore) ListEventsForParticipant(ctx context.Context, participantID string) ([]*models.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT e.id, e.title, e.location, e.starts_at, e.created_at, e.updated_at
		 FROM events e
		 JOIN event_participants ep ON ep.event_id = e.id
		 WHERE ep.participant_id = ?
		 ORDER BY e.created_at, e.id`,
		participantID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list events for participant: %w", err)
	}
	return collectEvents(rows)
}

// DeleteEvent removes an event. Memberships, contributions and settlement
// records are removed by ON DELETE CASCADE.
func (s *SQLiteStore) DeleteEvent(ctx context.Context, eventID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM events WHERE id = ?", eventID)
	if err != nil {
		return classify("delete event", fmt.Errorf("failed to delete event: %w", err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.NotFoundf("event %s", eventID)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*models.Event, error) {
	event := &models.Event{}
	var startsAt sql.NullInt64
	var createdAt, updatedAt int64
	if err := row.Scan(&event.ID, &event.Title, &event.Location, &startsAt, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	event.StartsAt = timePtr(startsAt)
	event.CreatedAt = fromMillis(createdAt)
	event.UpdatedAt = fromMillis(updatedAt)
	return event, nil
}

func collectEvents(rows *sql.Rows) ([]*models.Event, error) {
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}
	return events, nil
}
