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

// CreateItem persists a new catalog item.
func (s *SQLiteStore) CreateItem(ctx context.Context, item *models.Item) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO items (id, name, category, created_at) VALUES (?, ?, ?, ?)",
		item.ID, item.Name, item.Category, toMillis(item.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("item %s: %w", item.ID, storage.ErrConflict)
		}
		return fmt.Errorf("failed to insert item: %w", err)
	}
	return nil
}

// GetItem retrieves an item by ID.
func (s *SQLiteStore) GetItem(ctx context.Context, itemID string) (*models.Item, error) {
	item, err := scanItem(s.db.QueryRowContext(ctx,
		"SELECT id, name, category, created_at FROM items WHERE id = ?", itemID))
	if err == sql.ErrNoRows {
		return nil, storage.NotFoundf("item %s", itemID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return item, nil
}

// ListItems returns the catalog ordered by category and name.
func (s *SQLiteStore) ListItems(ctx context.Context) ([]*models.Item, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, category, created_at FROM items ORDER BY category, name, id")
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var items []*models.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}
	return items, nil
}

func scanItem(row rowScanner) (*models.Item, error) {
	item := &models.Item{}
	var createdAt int64
	if err := row.Scan(&item.ID, &item.Name, &item.Category, &createdAt); err != nil {
		return nil, err
	}
	item.CreatedAt = fromMillis(createdAt)
	return item, nil
}
