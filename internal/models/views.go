package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role classifies a participant by the sign of their balance.
type Role string

const (
	RoleCreditor Role = "creditor"
	RoleDebtor   Role = "debtor"
	RoleSettled  Role = "settled"
)

// ParticipantBalance is one participant's position within one event.
type ParticipantBalance struct {
	ParticipantID   string
	ParticipantName string

	// TotalPaid is the sum of the participant's assigned contribution amounts.
	TotalPaid decimal.Decimal

	// FairShare is the equal split of the event's assigned costs.
	FairShare decimal.Decimal

	// Balance is TotalPaid - FairShare. Positive means others owe this participant.
	Balance decimal.Decimal

	Role Role
}

// SettlementTransaction is a reconciled transfer joined with participant names.
type SettlementTransaction struct {
	// ID is the settlement record ID. Empty in read-only views for transfers
	// that have not been persisted yet.
	ID string

	EventID      string
	DebtorID     string
	DebtorName   string
	CreditorID   string
	CreditorName string
	Amount       decimal.Decimal
	IsSettled    bool
	SettledAt    *time.Time
}

// EventSettlement is the settlement view of one event. It is recomputed on
// every read; only the transfer layer is persisted.
type EventSettlement struct {
	EventID          string
	EventTitle       string
	TotalSpent       decimal.Decimal
	AssignedCosts    decimal.Decimal
	UnassignedCosts  decimal.Decimal
	ParticipantCount int
	FairShare        decimal.Decimal
	Balances         []ParticipantBalance
	Transactions     []SettlementTransaction
}

// BalanceFor returns the balance of the given participant, if present.
func (s *EventSettlement) BalanceFor(participantID string) (ParticipantBalance, bool) {
	for _, b := range s.Balances {
		if b.ParticipantID == participantID {
			return b, true
		}
	}
	return ParticipantBalance{}, false
}

// ParticipantDebtSummary holds a participant's totals across all their events.
// It is the cheap variant used by list views.
type ParticipantDebtSummary struct {
	ParticipantID   string
	ParticipantName string
	TotalPaid       decimal.Decimal

	// TotalOwed is what this participant owes others (sum of debtor balances).
	TotalOwed decimal.Decimal

	// TotalOwedToYou is what others owe this participant (sum of creditor balances).
	TotalOwedToYou decimal.Decimal

	// NetPosition is TotalOwedToYou - TotalOwed.
	NetPosition decimal.Decimal

	Role       Role
	EventCount int
}

// CounterpartyEventAmount is one event's contribution to a counterparty debt.
type CounterpartyEventAmount struct {
	EventID    string
	EventTitle string

	// Amount is signed: positive means the participant owes the counterparty.
	Amount    decimal.Decimal
	IsSettled bool
}

// CounterpartyDebt is the net position between a participant and one counterparty.
type CounterpartyDebt struct {
	CounterpartyID   string
	CounterpartyName string

	// NetAmount is signed: positive means the participant owes the counterparty,
	// negative means the counterparty owes the participant.
	NetAmount decimal.Decimal

	// OutstandingAmount is NetAmount restricted to transfers not yet marked paid.
	OutstandingAmount decimal.Decimal

	Events []CounterpartyEventAmount
}

// EventBreakdown is a participant's balance within one event.
type EventBreakdown struct {
	EventID    string
	EventTitle string
	TotalPaid  decimal.Decimal
	FairShare  decimal.Decimal
	Balance    decimal.Decimal
	Role       Role
}

// ParticipantDebtPortfolio is the full cross-event view for one participant.
type ParticipantDebtPortfolio struct {
	ParticipantDebtSummary
	CounterpartyDebts []CounterpartyDebt
	EventBreakdown    []EventBreakdown
}

// SettlementActivity is the message published when a transfer is toggled.
type SettlementActivity struct {
	EventID      string          `json:"event_id"`
	EventTitle   string          `json:"event_title"`
	DebtorID     string          `json:"debtor_id"`
	DebtorName   string          `json:"debtor_name"`
	CreditorID   string          `json:"creditor_id"`
	CreditorName string          `json:"creditor_name"`
	Amount       decimal.Decimal `json:"amount"`
	Action       ActivityAction  `json:"action"`
	OccurredAt   time.Time       `json:"occurred_at"`
}
