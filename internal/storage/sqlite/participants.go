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

// CreateParticipant inserts a new participant into the database.
func (s *SQLiteStore) CreateParticipant(ctx context.Context, participant *models.Participant) error {
	if participant.ID == "" {
		participant.ID = uuid.New().String()
	}
	if participant.CreatedAt.IsZero() {
		participant.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO participants (id, name, created_at) VALUES (?, ?, ?)",
		participant.ID, participant.Name, toMillis(participant.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("participant %s: %w", participant.ID, storage.ErrConflict)
		}
		return fmt.Errorf("failed to create participant: %w", err)
	}

	return nil
}

// GetParticipant retrieves a participant by ID.
func (s *SQLiteStore) GetParticipant(ctx context.Context, participantID string) (*models.Participant, error) {
	participant, err := scanParticipant(s.db.QueryRowContext(ctx,
		"SELECT id, name, created_at FROM participants WHERE id = ?",
		participantID,
	))
	if err == sql.ErrNoRows {
		return nil, storage.NotFoundf("participant %s", participantID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}
	return participant, nil
}

// ListParticipants returns all participants ordered by name.
func (s *SQLiteStore) ListParticipants(ctx context.Context) ([]*models.Participant, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, created_at FROM participants ORDER BY name, id")
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	return collectParticipants(rows)
}

// GetParticipantsByIDs retrieves multiple participants by their IDs.
// Returns a map of participant ID to Participant object.
// Participants that don't exist are omitted from the result.
func (s *SQLiteStore) GetParticipantsByIDs(ctx context.Context, ids []string) (map[string]*models.Participant, error) {
	if len(ids) == 0 {
		return make(map[string]*models.Participant), nil
	}

	// Build the IN clause with placeholders
	query := `
		SELECT id, name, created_at
		FROM participants
		WHERE id IN (?` + repeatPlaceholder(len(ids)-1) + `)`

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants by IDs: %w", err)
	}
	list, err := collectParticipants(rows)
	if err != nil {
		return nil, err
	}

	participants := make(map[string]*models.Participant, len(list))
	for _, p := range list {
		participants[p.ID] = p
	}
	return participants, nil
}

// AddEventParticipant adds a participant to an event.
func (s *SQLiteStore) AddEventParticipant(ctx context.Context, eventID, participantID string, joinedAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO event_participants (event_id, participant_id, joined_at) VALUES (?, ?, ?)",
		eventID, participantID, toMillis(joinedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("participant %s already in event %s: %w", participantID, eventID, storage.ErrConflict)
		}
		return classify("add event participant", fmt.Errorf("failed to add event participant: %w", err))
	}
	return nil
}

// RemoveEventParticipant deletes the participant's contributions in the event,
// then the membership.
func (s *SQLiteStore) RemoveEventParticipant(ctx context.Context, eventID, participantID string) error {
	return s.withTx(ctx, "remove event participant", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM contributions WHERE event_id = ? AND participant_id = ?",
			eventID, participantID,
		); err != nil {
			return classify("remove event participant", fmt.Errorf("failed to delete contributions: %w", err))
		}

		res, err := tx.ExecContext(ctx,
			"DELETE FROM event_participants WHERE event_id = ? AND participant_id = ?",
			eventID, participantID,
		)
		if err != nil {
			return classify("remove event participant", fmt.Errorf("failed to delete membership: %w", err))
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return storage.NotFoundf("participant %s in event %s", participantID, eventID)
		}
		return nil
	})
}

// GetEventParticipants returns the members of an event in join order.
func (s *SQLiteStore) GetEventParticipants(ctx context.Context, eventID string) ([]*models.Participant, error) {
	return getEventParticipants(ctx, s.db, eventID)
}

func getEventParticipants(ctx context.Context, q queryer, eventID string) ([]*models.Participant, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT p.id, p.name, p.created_at
		 FROM participants p
		 JOIN event_participants ep ON ep.participant_id = p.id
		 WHERE ep.event_id = ?
		 ORDER BY ep.joined_at, p.id`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get event participants: %w", err)
	}
	return collectParticipants(rows)
}

func scanParticipant(row rowScanner) (*models.Participant, error) {
	participant := &models.Participant{}
	var createdAt int64
	if err := row.Scan(&participant.ID, &participant.Name, &createdAt); err != nil {
		return nil, err
	}
	participant.CreatedAt = fromMillis(createdAt)
	return participant, nil
}

func collectParticipants(rows *sql.Rows) ([]*models.Participant, error) {
	defer rows.Close()

	var participants []*models.Participant
	for rows.Next() {
		participant, err := scanParticipant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, participant)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participants: %w", err)
	}
	return participants, nil
}
