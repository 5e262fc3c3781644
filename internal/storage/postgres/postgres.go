// Package postgres provides a PostgreSQL-backed implementation of the
// storage.Store interface using gorm.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/oa2006040/Kashta-Planner-sub000/internal/models"
	"github.com/oa2006040/Kashta-Planner-sub000/internal/storage"
)

// Ensure PGStore implements storage.Store
var _ storage.Store = (*PGStore)(nil)

// PGStore implements storage.Store using PostgreSQL.
type PGStore struct {
	db *gorm.DB
}

// PoolSettings configures the underlying database/sql pool.
type PoolSettings struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// Open connects to PostgreSQL and configures the connection pool.
// Zero pool settings fall back to defaults (20 open, 5 idle, 5m lifetime, 10m idle time).
func Open(dsn string, pool PoolSettings) (*gorm.DB, error) {
	db, err := gorm.Open(pgdriver.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if pool.MaxOpenConns == 0 {
		pool.MaxOpenConns = 20
	}
	if pool.MaxIdleConns == 0 {
		pool.MaxIdleConns = 5
	}
	if pool.ConnMaxLifetime == 0 {
		pool.ConnMaxLifetime = 5 * time.Minute
	}
	if pool.ConnMaxIdleTime == 0 {
		pool.ConnMaxIdleTime = 10 * time.Minute
	}
	if pool.MaxIdleConns > pool.MaxOpenConns {
		pool.MaxIdleConns = pool.MaxOpenConns
	}

	sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(pool.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(pool.ConnMaxIdleTime)

	return db, nil
}

// New creates a PGStore on an open connection and migrates the schema.
func New(db *gorm.DB) (*PGStore, error) {
	if err := db.AutoMigrate(allTables()...); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return &PGStore{db: db}, nil
}

// Close closes the underlying connection pool.
func (s *PGStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// classify maps PostgreSQL errors onto storage errors.
// 40001 serialization_failure, 40P01 deadlock_detected and 55P03 lock_not_available
// are retryable; 23505 unique_violation is a conflict.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "55P03":
			return &storage.RetryableError{Op: op, Err: err}
		case "23505":
			return fmt.Errorf("%s: %w: %v", op, storage.ErrConflict, err)
		}
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

// Events

func (s *PGStore) CreateEvent(ctx context.Context, event *models.Event) error {
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

	row := eventRow{
		ID:        event.ID,
		Title:     event.Title,
		Location:  event.Location,
		StartsAt:  event.StartsAt,
		CreatedAt: event.CreatedAt,
		UpdatedAt: event.UpdatedAt,
	}
	return classify("create event", s.db.WithContext(ctx).Create(&row).Error)
}

func (s *PGStore) GetEvent(ctx context.Context, eventID string) (*models.Event, error) {
	var row eventRow
	err := s.db.WithContext(ctx).Where("id = ?", eventID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.NotFoundf("event %s", eventID)
	}
	if err != nil {
		return nil, classify("get event", err)
	}
	return row.toModel(), nil
}

func (s *PGStore) ListEvents(ctx context.Context) ([]*models.Event, error) {
	var rows []eventRow
	if err := s.db.WithContext(ctx).Order("created_at DESC, id").Find(&rows).Error; err != nil {
		return nil, classify("list events", err)
	}
	return eventModels(rows), nil
}

func (s *PGStore) ListEventsForParticipant(ctx context.Context, participantID string) ([]*models.Event, error) {
	var rows []eventRow
	err := s.db.WithContext(ctx).
		Joins("JOIN event_participants ep ON ep.event_id = events.id").
		Where("ep.participant_id = ?", participantID).
		Order("events.created_at, events.id").
		Find(&rows).Error
	if err != nil {
		return nil, classify("list events for participant", err)
	}
	return eventModels(rows), nil
}

// DeleteEvent removes the event and its dependent rows in one transaction.
// The activity log is kept.
func (s *PGStore) DeleteEvent(ctx context.Context, eventID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range []any{&settlementRow{}, &contributionRow{}, &eventParticipantRow{}} {
			if err := tx.Where("event_id = ?", eventID).Delete(table).Error; err != nil {
				return classify("delete event", err)
			}
		}
		res := tx.Where("id = ?", eventID).Delete(&eventRow{})
		if res.Error != nil {
			return classify("delete event", res.Error)
		}
		if res.RowsAffected == 0 {
			return storage.NotFoundf("event %s", eventID)
		}
		return nil
	})
}

func eventModels(rows []eventRow) []*models.Event {
	events := make([]*models.Event, 0, len(rows))
	for i := range rows {
		events = append(events, rows[i].toModel())
	}
	return events
}

// Participants

func (s *PGStore) CreateParticipant(ctx context.Context, participant *models.Participant) error {
	if participant.ID == "" {
		participant.ID = uuid.New().String()
	}
	if participant.CreatedAt.IsZero() {
		participant.CreatedAt = time.Now().UTC()
	}
	row := participantRow{ID: participant.ID, Name: participant.Name, CreatedAt: participant.CreatedAt}
	return classify("create participant", s.db.WithContext(ctx).Create(&row).Error)
}

func (s *PGStore) GetParticipant(ctx context.Context, participantID string) (*models.Participant, error) {
	var row participantRow
	err := s.db.WithContext(ctx).Where("id = ?", participantID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.NotFoundf("participant %s", participantID)
	}
	if err != nil {
		return nil, classify("get participant", err)
	}
	return row.toModel(), nil
}

func (s *PGStore) ListParticipants(ctx context.Context) ([]*models.Participant, error) {
	var rows []participantRow
	if err := s.db.WithContext(ctx).Order("name, id").Find(&rows).Error; err != nil {
		return nil, classify("list participants", err)
	}
	return participantModels(rows), nil
}

func (s *PGStore) GetParticipantsByIDs(ctx context.Context, ids []string) (map[string]*models.Participant, error) {
	result := make(map[string]*models.Participant, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var rows []participantRow
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, classify("get participants by IDs", err)
	}
	for i := range rows {
		result[rows[i].ID] = rows[i].toModel()
	}
	return result, nil
}

func (s *PGStore) AddEventParticipant(ctx context.Context, eventID, participantID string, joinedAt time.Time) error {
	row := eventParticipantRow{EventID: eventID, ParticipantID: participantID, JoinedAt: joinedAt}
	return classify("add event participant", s.db.WithContext(ctx).Create(&row).Error)
}

func (s *PGStore) RemoveEventParticipant(ctx context.Context, eventID, participantID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ? AND participant_id = ?", eventID, participantID).
			Delete(&contributionRow{}).Error; err != nil {
			return classify("remove event participant", err)
		}
		res := tx.Where("event_id = ? AND participant_id = ?", eventID, participantID).
			Delete(&eventParticipantRow{})
		if res.Error != nil {
			return classify("remove event participant", res.Error)
		}
		if res.RowsAffected == 0 {
			return storage.NotFoundf("participant %s in event %s", participantID, eventID)
		}
		return nil
	})
}

func (s *PGStore) GetEventParticipants(ctx context.Context, eventID string) ([]*models.Participant, error) {
	return getEventParticipants(ctx, s.db, eventID)
}

func getEventParticipants(ctx context.Context, db *gorm.DB, eventID string) ([]*models.Participant, error) {
	var rows []participantRow
	err := db.WithContext(ctx).
		Joins("JOIN event_participants ep ON ep.participant_id = participants.id").
		Where("ep.event_id = ?", eventID).
		Order("ep.joined_at, participants.id").
		Find(&rows).Error
	if err != nil {
		return nil, classify("get event participants", err)
	}
	return participantModels(rows), nil
}

func participantModels(rows []participantRow) []*models.Participant {
	participants := make([]*models.Participant, 0, len(rows))
	for i := range rows {
		participants = append(participants, rows[i].toModel())
	}
	return participants
}

// Items

func (s *PGStore) CreateItem(ctx context.Context, item *models.Item) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	row := itemRow{ID: item.ID, Name: item.Name, Category: item.Category, CreatedAt: item.CreatedAt}
	return classify("create item", s.db.WithContext(ctx).Create(&row).Error)
}

func (s *PGStore) GetItem(ctx context.Context, itemID string) (*models.Item, error) {
	var row itemRow
	err := s.db.WithContext(ctx).Where("id = ?", itemID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.NotFoundf("item %s", itemID)
	}
	if err != nil {
		return nil, classify("get item", err)
	}
	return row.toModel(), nil
}

func (s *PGStore) ListItems(ctx context.Context) ([]*models.Item, error) {
	var rows []itemRow
	if err := s.db.WithContext(ctx).Order("category, name, id").Find(&rows).Error; err != nil {
		return nil, classify("list items", err)
	}
	items := make([]*models.Item, 0, len(rows))
	for i := range rows {
		items = append(items, rows[i].toModel())
	}
	return items, nil
}

// Contributions

func (s *PGStore) CreateContribution(ctx context.Context, c *models.Contribution) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
	row := contributionRow{
		ID:            c.ID,
		EventID:       c.EventID,
		ItemID:        c.ItemID,
		ParticipantID: stringPtr(c.ParticipantID),
		Quantity:      c.Quantity,
		Cost:          c.Cost,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
	return classify("create contribution", s.db.WithContext(ctx).Create(&row).Error)
}

func (s *PGStore) GetContribution(ctx context.Context, contributionID string) (*models.Contribution, error) {
	var row contributionRow
	err := s.db.WithContext(ctx).Where("id = ?", contributionID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.NotFoundf("contribution %s", contributionID)
	}
	if err != nil {
		return nil, classify("get contribution", err)
	}
	return row.toModel(), nil
}

func (s *PGStore) UpdateContribution(ctx context.Context, c *models.Contribution) error {
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = time.Now().UTC()
	}
	res := s.db.WithContext(ctx).Model(&contributionRow{}).Where("id = ?", c.ID).Updates(map[string]any{
		"participant_id": stringPtr(c.ParticipantID),
		"quantity":       c.Quantity,
		"cost":           c.Cost,
		"updated_at":     c.UpdatedAt,
	})
	if res.Error != nil {
		return classify("update contribution", res.Error)
	}
	if res.RowsAffected == 0 {
		return storage.NotFoundf("contribution %s", c.ID)
	}
	return nil
}

func (s *PGStore) DeleteContribution(ctx context.Context, contributionID string) error {
	res := s.db.WithContext(ctx).Where("id = ?", contributionID).Delete(&contributionRow{})
	if res.Error != nil {
		return classify("delete contribution", res.Error)
	}
	if res.RowsAffected == 0 {
		return storage.NotFoundf("contribution %s", contributionID)
	}
	return nil
}

func (s *PGStore) GetContributions(ctx context.Context, eventID string) ([]*models.Contribution, error) {
	return getContributions(ctx, s.db, eventID)
}

func getContributions(ctx context.Context, db *gorm.DB, eventID string) ([]*models.Contribution, error) {
	var rows []contributionRow
	if err := db.WithContext(ctx).Where("event_id = ?", eventID).Order("created_at, id").Find(&rows).Error; err != nil {
		return nil, classify("get contributions", err)
	}
	contributions := make([]*models.Contribution, 0, len(rows))
	for i := range rows {
		contributions = append(contributions, rows[i].toModel())
	}
	return contributions, nil
}

// Activity log

func (s *PGStore) AppendActivityLog(ctx context.Context, entry *models.ActivityLogEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if entry.ID == "" {
		entry.ID = ulid.Make().String()
	}
	row := activityRow{
		ID:           entry.ID,
		EventID:      entry.EventID,
		EventTitle:   entry.EventTitle,
		DebtorID:     entry.DebtorID,
		DebtorName:   entry.DebtorName,
		CreditorID:   entry.CreditorID,
		CreditorName: entry.CreditorName,
		Amount:       entry.Amount,
		Action:       string(entry.Action),
		ActorID:      stringPtr(entry.ActorID),
		CreatedAt:    entry.CreatedAt,
	}
	return classify("append activity log", s.db.WithContext(ctx).Create(&row).Error)
}

func (s *PGStore) ListActivityLog(ctx context.Context, eventID string, limit int) ([]*models.ActivityLogEntry, error) {
	q := s.db.WithContext(ctx).Order("id DESC")
	if eventID != "" {
		q = q.Where("event_id = ?", eventID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []activityRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, classify("list activity log", err)
	}
	entries := make([]*models.ActivityLogEntry, 0, len(rows))
	for i := range rows {
		entries = append(entries, rows[i].toModel())
	}
	return entries, nil
}

// Settlement records

func (s *PGStore) GetSettlementRecords(ctx context.Context, eventID string) ([]*models.SettlementRecord, error) {
	return getSettlementRecords(ctx, s.db, eventID)
}

// WithEventSettlementTx locks the event row with SELECT ... FOR UPDATE before
// running fn, so writers of one event's settlement records are serialized.
func (s *PGStore) WithEventSettlementTx(ctx context.Context, eventID string, fn func(tx storage.SettlementTx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var event eventRow
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", eventID).
			First(&event).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return storage.NotFoundf("event %s", eventID)
		}
		if err != nil {
			return classify("lock event", err)
		}

		return fn(&settlementTx{db: tx})
	})
}

// settlementTx implements storage.SettlementTx on a gorm transaction.
type settlementTx struct {
	db *gorm.DB
}

func (t *settlementTx) GetEventParticipants(ctx context.Context, eventID string) ([]*models.Participant, error) {
	return getEventParticipants(ctx, t.db, eventID)
}

func (t *settlementTx) GetContributions(ctx context.Context, eventID string) ([]*models.Contribution, error) {
	return getContributions(ctx, t.db, eventID)
}

func (t *settlementTx) GetSettlementRecords(ctx context.Context, eventID string) ([]*models.SettlementRecord, error) {
	return getSettlementRecords(ctx, t.db, eventID)
}

func (t *settlementTx) GetSettlementRecord(ctx context.Context, eventID, debtorID, creditorID string) (*models.SettlementRecord, error) {
	var row settlementRow
	err := t.db.WithContext(ctx).
		Where("event_id = ? AND debtor_id = ? AND creditor_id = ?", eventID, debtorID, creditorID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.NotFoundf("settlement %s -> %s in event %s", debtorID, creditorID, eventID)
	}
	if err != nil {
		return nil, classify("get settlement record", err)
	}
	return row.toModel(), nil
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
	row := settlementRow{
		ID:         rec.ID,
		EventID:    rec.EventID,
		DebtorID:   rec.DebtorID,
		CreditorID: rec.CreditorID,
		Amount:     rec.Amount,
		CreatedAt:  rec.CreatedAt,
		UpdatedAt:  rec.UpdatedAt,
	}
	err := t.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}, {Name: "debtor_id"}, {Name: "creditor_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"amount", "updated_at"}),
	}).Create(&row).Error
	return classify("upsert settlement record", err)
}

func (t *settlementTx) UpdateSettlementStatus(ctx context.Context, rec *models.SettlementRecord) error {
	res := t.db.WithContext(ctx).Model(&settlementRow{}).Where("id = ?", rec.ID).Updates(map[string]any{
		"is_settled": rec.IsSettled,
		"settled_at": rec.SettledAt,
		"updated_at": rec.UpdatedAt,
	})
	if res.Error != nil {
		return classify("update settlement status", res.Error)
	}
	if res.RowsAffected == 0 {
		return storage.NotFoundf("settlement %s", rec.ID)
	}
	return nil
}

func (t *settlementTx) DeleteSettlementRecord(ctx context.Context, recordID string) error {
	return classify("delete settlement record",
		t.db.WithContext(ctx).Where("id = ?", recordID).Delete(&settlementRow{}).Error)
}

func getSettlementRecords(ctx context.Context, db *gorm.DB, eventID string) ([]*models.SettlementRecord, error) {
	var rows []settlementRow
	if err := db.WithContext(ctx).Where("event_id = ?", eventID).Order("created_at, id").Find(&rows).Error; err != nil {
		return nil, classify("list settlement records", err)
	}
	records := make([]*models.SettlementRecord, 0, len(rows))
	for i := range rows {
		records = append(records, rows[i].toModel())
	}
	return records, nil
}
