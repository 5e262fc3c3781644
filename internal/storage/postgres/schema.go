package postgres

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/oa2006040/Kashta-Planner-sub000/internal/models"
)

// eventRow represents the events table
type eventRow struct {
	ID        string     `gorm:"column:id;primaryKey;type:text"`
	Title     string     `gorm:"column:title;not null;type:text"`
	Location  string     `gorm:"column:location;not null;default:'';type:text"`
	StartsAt  *time.Time `gorm:"column:starts_at;type:timestamptz"`
	CreatedAt time.Time  `gorm:"column:created_at;not null;type:timestamptz"`
	UpdatedAt time.Time  `gorm:"column:updated_at;not null;type:timestamptz"`
}

func (eventRow) TableName() string { return "events" }

// participantRow represents the participants table
type participantRow struct {
	ID        string    `gorm:"column:id;primaryKey;type:text"`
	Name      string    `gorm:"column:name;not null;type:text"`
	CreatedAt time.Time `gorm:"column:created_at;not null;type:timestamptz"`
}

func (participantRow) TableName() string { return "participants" }

// eventParticipantRow represents the event_participants table (membership)
type eventParticipantRow struct {
	EventID       string    `gorm:"column:event_id;primaryKey;type:text"`
	ParticipantID string    `gorm:"column:participant_id;primaryKey;type:text;index"`
	JoinedAt      time.Time `gorm:"column:joined_at;not null;type:timestamptz"`
}

func (eventParticipantRow) TableName() string { return "event_participants" }

// itemRow represents the items table
type itemRow struct {
	ID        string    `gorm:"column:id;primaryKey;type:text"`
	Name      string    `gorm:"column:name;not null;type:text"`
	Category  string    `gorm:"column:category;not null;default:'';type:text"`
	CreatedAt time.Time `gorm:"column:created_at;not null;type:timestamptz"`
}

func (itemRow) TableName() string { return "items" }

// contributionRow represents the contributions table
type contributionRow struct {
	ID            string          `gorm:"column:id;primaryKey;type:text"`
	EventID       string          `gorm:"column:event_id;not null;type:text;index"`
	ItemID        string          `gorm:"column:item_id;not null;type:text"`
	ParticipantID *string         `gorm:"column:participant_id;type:text;index"`
	Quantity      int             `gorm:"column:quantity;not null;default:1;check:quantity >= 1"`
	Cost          decimal.Decimal `gorm:"column:cost;not null;type:numeric(14,2)"`
	CreatedAt     time.Time       `gorm:"column:created_at;not null;type:timestamptz"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;not null;type:timestamptz"`
}

func (contributionRow) TableName() string { return "contributions" }

// settlementRow represents the settlement_records table. One row per
// (event, debtor, creditor) triple.
type settlementRow struct {
	ID         string          `gorm:"column:id;primaryKey;type:text"`
	EventID    string          `gorm:"column:event_id;not null;type:text;uniqueIndex:idx_settlement_triple,priority:1"`
	DebtorID   string          `gorm:"column:debtor_id;not null;type:text;uniqueIndex:idx_settlement_triple,priority:2"`
	CreditorID string          `gorm:"column:creditor_id;not null;type:text;uniqueIndex:idx_settlement_triple,priority:3"`
	Amount     decimal.Decimal `gorm:"column:amount;not null;type:numeric(14,2)"`
	IsSettled  bool            `gorm:"column:is_settled;not null;default:false"`
	SettledAt  *time.Time      `gorm:"column:settled_at;type:timestamptz"`
	CreatedAt  time.Time       `gorm:"column:created_at;not null;type:timestamptz"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;not null;type:timestamptz"`
}

func (settlementRow) TableName() string { return "settlement_records" }

// activityRow represents the activity_log table. It has no foreign keys.
type activityRow struct {
	ID           string          `gorm:"column:id;primaryKey;type:text"`
	EventID      string          `gorm:"column:event_id;not null;type:text;index"`
	EventTitle   string          `gorm:"column:event_title;not null;type:text"`
	DebtorID     string          `gorm:"column:debtor_id;not null;type:text"`
	DebtorName   string          `gorm:"column:debtor_name;not null;type:text"`
	CreditorID   string          `gorm:"column:creditor_id;not null;type:text"`
	CreditorName string          `gorm:"column:creditor_name;not null;type:text"`
	Amount       decimal.Decimal `gorm:"column:amount;not null;type:numeric(14,2)"`
	Action       string          `gorm:"column:action;not null;type:text"`
	ActorID      *string         `gorm:"column:actor_id;type:text"`
	CreatedAt    time.Time       `gorm:"column:created_at;not null;type:timestamptz"`
}

func (activityRow) TableName() string { return "activity_log" }

func allTables() []any {
	return []any{
		&eventRow{},
		&participantRow{},
		&eventParticipantRow{},
		&itemRow{},
		&contributionRow{},
		&settlementRow{},
		&activityRow{},
	}
}

func (r *eventRow) toModel() *models.Event {
	return &models.Event{
		ID:        r.ID,
		Title:     r.Title,
		Location:  r.Location,
		StartsAt:  utcPtr(r.StartsAt),
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

func (r *participantRow) toModel() *models.Participant {
	return &models.Participant{ID: r.ID, Name: r.Name, CreatedAt: r.CreatedAt.UTC()}
}

func (r *itemRow) toModel() *models.Item {
	return &models.Item{ID: r.ID, Name: r.Name, Category: r.Category, CreatedAt: r.CreatedAt.UTC()}
}

func (r *contributionRow) toModel() *models.Contribution {
	c := &models.Contribution{
		ID:        r.ID,
		EventID:   r.EventID,
		ItemID:    r.ItemID,
		Quantity:  r.Quantity,
		Cost:      r.Cost,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
	if r.ParticipantID != nil {
		c.ParticipantID = *r.ParticipantID
	}
	return c
}

func (r *settlementRow) toModel() *models.SettlementRecord {
	return &models.SettlementRecord{
		ID:         r.ID,
		EventID:    r.EventID,
		DebtorID:   r.DebtorID,
		CreditorID: r.CreditorID,
		Amount:     r.Amount,
		IsSettled:  r.IsSettled,
		SettledAt:  utcPtr(r.SettledAt),
		CreatedAt:  r.CreatedAt.UTC(),
		UpdatedAt:  r.UpdatedAt.UTC(),
	}
}

func (r *activityRow) toModel() *models.ActivityLogEntry {
	e := &models.ActivityLogEntry{
		ID:           r.ID,
		EventID:      r.EventID,
		EventTitle:   r.EventTitle,
		DebtorID:     r.DebtorID,
		DebtorName:   r.DebtorName,
		CreditorID:   r.CreditorID,
		CreditorName: r.CreditorName,
		Amount:       r.Amount,
		Action:       models.ActivityAction(r.Action),
		CreatedAt:    r.CreatedAt.UTC(),
	}
	if r.ActorID != nil {
		e.ActorID = *r.ActorID
	}
	return e
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func stringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
