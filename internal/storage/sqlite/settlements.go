package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/oa2006040/Kashta-Planner-sub000/internal/models"
	"github.com/oa2006040/Kashta-Planner-sub000/internal/storage"
)

const settlementColumns = "id, event_id, debtor_id, creditor_id, amount, is_settled, settled_at, created_at, updated_at"

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// GetSettlementRecords returns the persisted transfers of an event.
func (s *SQLiteStore) GetSettlementRecords(ctx context.Context, eventID string) ([]*models.SettlementRecord, error) {
	return getSettlementRecords(ctx, s.db, eventID)
}

// WithEventSettlementTx runs fn inside an immediate transaction, which holds
// the write lock from BEGIN. Unknown events fail with ErrNotFound.
func (s *SQLiteStore) WithEventSettlementTx(ctx context.Context, eventID string, fn func(tx storage.SettlementTx) error) error {
	const op = "settlement transaction"
	return s.withTx(ctx, op, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, "SELECT 1 FROM events WHERE id = ?", eventID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return storage.NotFoundf("event %s", eventID)
		}
		if err != nil {
			return classify(op, fmt.Errorf("failed to check event: %w", err))
		}

		return fn(&settlementTx{q: tx})
	})
}

// settlementTx implements storage.SettlementTx on top of a *sql.Tx.
type settlementTx struct {
	q queryer
}

func (t *settlementTx) GetEventParticipants(ctx context.Context, eventID string) ([]*models.Participant, error) {
	return getEventParticipants(ctx, t.q, eventID)
}

func (t *settlementTx) GetContributions(ctx context.Context, eventID string) ([]*models.Contribution, error) {
	return getContributions(ctx, t.q, eventID)
}

func (t *settlementTx) GetSettlementRecords(ctx context.Context, eventID string) ([]*models.SettlementRecord, error) {
	return getSettlementRecords(ctx, t.q, eventID)
}

func (t *settlementTx) GetSettlementRecord(ctx context.Context, eventID, debtorID, creditorID string) (*models.SettlementRecord, error) {
	rec, err := scanSettlement(t.q.QueryRowContext(ctx,
		"SELECT "+settlementColumns+` FROM settlement_records
		 WHERE event_id = ? AND debtor_id = ? AND creditor_id = ?`,
		eventID, debtorID, creditorID,
	))
	if err == sql.ErrNoRows {
		return nil, storage.NotFoundf("settlement %s -> %s in event %s", debtorID, creditorID, eventID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settlement record: %w", err)
	}
	return rec, nil
}

func (t *settlementTx) UpsertSettlementAmount(ctx context.Context, rec *models.SettlementRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = now
	}

	_, err := t.q.ExecContext(ctx,
		`INSERT INTO settlement_records (`+settlementColumns+`)
		 VALUES (?, ?, ?, ?, ?, 0, NULL, ?, ?)
		 ON CONFLICT (event_id, debtor_id, creditor_id)
		 DO UPDATE SET amount = excluded.amount, updated_at = excluded.updated_at`,
		rec.ID, rec.EventID, rec.DebtorID, rec.CreditorID, rec.Amount.StringFixed(2),
		toMillis(rec.CreatedAt), toMillis(rec.UpdatedAt),
	)
	if err != nil {
		return classify("upsert settlement", fmt.Errorf("failed to upsert settlement record: %w", err))
	}
	return nil
}

func (t *settlementTx) UpdateSettlementStatus(ctx context.Context, rec *models.SettlementRecord) error {
	res, err := t.q.ExecContext(ctx,
		"UPDATE settlement_records SET is_settled = ?, settled_at = ?, updated_at = ? WHERE id = ?",
		rec.IsSettled, nullMillis(rec.SettledAt), toMillis(rec.UpdatedAt), rec.ID,
	)
	if err != nil {
		return classify("update settlement status", fmt.Errorf("failed to update settlement status: %w", err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.NotFoundf("settlement %s", rec.ID)
	}
	return nil
}

func (t *settlementTx) DeleteSettlementRecord(ctx context.Context, recordID string) error {
	if _, err := t.q.ExecContext(ctx, "DELETE FROM settlement_records WHERE id = ?", recordID); err != nil {
		return classify("delete settlement", fmt.Errorf("failed to delete settlement record: %w", err))
	}
	return nil
}

func getSettlementRecords(ctx context.Context, q queryer, eventID string) ([]*models.SettlementRecord, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT "+settlementColumns+" FROM settlement_records WHERE event_id = ? ORDER BY created_at, id",
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlement records: %w", err)
	}
	defer rows.Close()

	var records []*models.SettlementRecord
	for rows.Next() {
		rec, err := scanSettlement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan settlement record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlement records: %w", err)
	}
	return records, nil
}

func scanSettlement(row rowScanner) (*models.SettlementRecord, error) {
	rec := &models.SettlementRecord{}
	var settledAt sql.NullInt64
	var createdAt, updatedAt int64
	if err := row.Scan(&rec.ID, &rec.EventID, &rec.DebtorID, &rec.CreditorID, &rec.Amount,
		&rec.IsSettled, &settledAt, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	rec.SettledAt = timePtr(settledAt)
	rec.CreatedAt = fromMillis(createdAt)
	rec.UpdatedAt = fromMillis(updatedAt)
	return rec, nil
}
