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

const contributionColumns = "id, event_id, item_id, participant_id, quantity, cost, created_at, updated_at"

// CreateContribution persists a new contribution.
func (s *SQLiteStore) CreateContribution(ctx context.Context, c *models.Contribution) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO contributions ("+contributionColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		c.ID, c.EventID, c.ItemID, nullString(c.ParticipantID), c.Quantity, c.Cost.String(),
		toMillis(c.CreatedAt), toMillis(c.UpdatedAt),
	)
	if err != nil {
		return classify("create contribution", fmt.Errorf("failed to insert contribution: %w", err))
	}
	return nil
}

// GetContribution retrieves a contribution by ID.
func (s *SQLiteStore) GetContribution(ctx context.Context, contributionID string) (*models.Contribution, error) {
	c, err := scanContribution(s.db.QueryRowContext(ctx,
		"SELECT "+contributionColumns+" FROM contributions WHERE id = ?", contributionID))
	if err == sql.ErrNoRows {
		return nil, storage.NotFoundf("contribution %s", contributionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contribution: %w", err)
	}
	return c, nil
}

// UpdateContribution overwrites payer, quantity and cost.
func (s *SQLiteStore) UpdateContribution(ctx context.Context, c *models.Contribution) error {
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE contributions SET participant_id = ?, quantity = ?, cost = ?, updated_at = ? WHERE id = ?",
		nullString(c.ParticipantID), c.Quantity, c.Cost.String(), toMillis(c.UpdatedAt), c.ID,
	)
	if err != nil {
		return classify("update contribution", fmt.Errorf("failed to update contribution: %w", err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.NotFoundf("contribution %s", c.ID)
	}
	return nil
}

// DeleteContribution removes a contribution by ID.
func (s *SQLiteStore) DeleteContribution(ctx context.Context, contributionID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM contributions WHERE id = ?", contributionID)
	if err != nil {
		return classify("delete contribution", fmt.Errorf("failed to delete contribution: %w", err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.NotFoundf("contribution %s", contributionID)
	}
	return nil
}

// GetContributions returns all contributions of an event, oldest first.
func (s *SQLiteStore) GetContributions(ctx context.Context, eventID string) ([]*models.Contribution, error) {
	return getContributions(ctx, s.db, eventID)
}

func getContributions(ctx context.Context, q queryer, eventID string) ([]*models.Contribution, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT "+contributionColumns+" FROM contributions WHERE event_id = ? ORDER BY created_at, id",
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get contributions: %w", err)
	}
	defer rows.Close()

	var contributions []*models.Contribution
	for rows.Next() {
		c, err := scanContribution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contribution: %w", err)
		}
		contributions = append(contributions, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate contributions: %w", err)
	}
	return contributions, nil
}

func scanContribution(row rowScanner) (*models.Contribution, error) {
	c := &models.Contribution{}
	var participantID sql.NullString
	var createdAt, updatedAt int64
	if err := row.Scan(&c.ID, &c.EventID, &c.ItemID, &participantID, &c.Quantity, &c.Cost,
		&createdAt, &updatedAt); err != nil {
		return nil, err
	}
	c.ParticipantID = participantID.String
	c.CreatedAt = fromMillis(createdAt)
	c.UpdatedAt = fromMillis(updatedAt)
	return c, nil
}
