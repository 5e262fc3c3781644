package dto

import (
	"time"

	"github.com/oa2006040/Kashta-Planner-sub000/internal/models"
)

// BalanceResponse is one participant's position within an event
type BalanceResponse struct {
	ParticipantID   string      `json:"participantId"`
	ParticipantName string      `json:"participantName"`
	TotalPaid       string      `json:"totalPaid"`
	FairShare       string      `json:"fairShare"`
	Balance         string      `json:"balance"`
	Role            models.Role `json:"role"`
}

// TransactionResponse is one debtor to creditor transfer
type TransactionResponse struct {
	ID           string     `json:"id,omitempty"`
	EventID      string     `json:"eventId"`
	DebtorID     string     `json:"debtorId"`
	DebtorName   string     `json:"debtorName"`
	CreditorID   string     `json:"creditorId"`
	CreditorName string     `json:"creditorName"`
	Amount       string     `json:"amount"`
	IsSettled    bool       `json:"isSettled"`
	SettledAt    *time.Time `json:"settledAt"`
}

// EventSettlementResponse is the settlement view of an event
type EventSettlementResponse struct {
	EventID          string                `json:"eventId"`
	EventTitle       string                `json:"eventTitle"`
	TotalSpent       string                `json:"totalSpent"`
	AssignedCosts    string                `json:"assignedCosts"`
	UnassignedCosts  string                `json:"unassignedCosts"`
	ParticipantCount int                   `json:"participantCount"`
	FairShare        string                `json:"fairShare"`
	Balances         []BalanceResponse     `json:"balances"`
	Transactions     []TransactionResponse `json:"transactions"`
}

// MapEventSettlementToDTO maps a models.EventSettlement to EventSettlementResponse
func MapEventSettlementToDTO(s *models.EventSettlement) *EventSettlementResponse {
	dto := &EventSettlementResponse{
		EventID:          s.EventID,
		EventTitle:       s.EventTitle,
		TotalSpent:       Money(s.TotalSpent),
		AssignedCosts:    Money(s.AssignedCosts),
		UnassignedCosts:  Money(s.UnassignedCosts),
		ParticipantCount: s.ParticipantCount,
		FairShare:        Money(s.FairShare),
		Balances:         make([]BalanceResponse, 0, len(s.Balances)),
		Transactions:     make([]TransactionResponse, 0, len(s.Transactions)),
	}
	for _, b := range s.Balances {
		dto.Balances = append(dto.Balances, BalanceResponse{
			ParticipantID:   b.ParticipantID,
			ParticipantName: b.ParticipantName,
			TotalPaid:       Money(b.TotalPaid),
			FairShare:       Money(b.FairShare),
			Balance:         Money(b.Balance),
			Role:            b.Role,
		})
	}
	for _, t := range s.Transactions {
		dto.Transactions = append(dto.Transactions, TransactionResponse{
			ID:           t.ID,
			EventID:      t.EventID,
			DebtorID:     t.DebtorID,
			DebtorName:   t.DebtorName,
			CreditorID:   t.CreditorID,
			CreditorName: t.CreditorName,
			Amount:       Money(t.Amount),
			IsSettled:    t.IsSettled,
			SettledAt:    t.SettledAt,
		})
	}
	return dto
}

// SettlementRecordResponse is the persisted state of a transfer after a toggle
type SettlementRecordResponse struct {
	ID         string     `json:"id"`
	EventID    string     `json:"eventId"`
	DebtorID   string     `json:"debtorId"`
	CreditorID string     `json:"creditorId"`
	Amount     string     `json:"amount"`
	IsSettled  bool       `json:"isSettled"`
	SettledAt  *time.Time `json:"settledAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// MapSettlementRecordToDTO maps a models.SettlementRecord to SettlementRecordResponse
func MapSettlementRecordToDTO(r *models.SettlementRecord) *SettlementRecordResponse {
	return &SettlementRecordResponse{
		ID:         r.ID,
		EventID:    r.EventID,
		DebtorID:   r.DebtorID,
		CreditorID: r.CreditorID,
		Amount:     Money(r.Amount),
		IsSettled:  r.IsSettled,
		SettledAt:  r.SettledAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

// DebtSummaryResponse is a participant's totals across all their events
type DebtSummaryResponse struct {
	ParticipantID   string      `json:"participantId"`
	ParticipantName string      `json:"participantName"`
	TotalPaid       string      `json:"totalPaid"`
	TotalOwed       string      `json:"totalOwed"`
	TotalOwedToYou  string      `json:"totalOwedToYou"`
	NetPosition     string      `json:"netPosition"`
	Role            models.Role `json:"role"`
	EventCount      int         `json:"eventCount"`
}

// MapDebtSummaryToDTO maps a models.ParticipantDebtSummary. A nil summary maps to nil.
func MapDebtSummaryToDTO(s *models.ParticipantDebtSummary) *DebtSummaryResponse {
	if s == nil {
		return nil
	}
	return &DebtSummaryResponse{
		ParticipantID:   s.ParticipantID,
		ParticipantName: s.ParticipantName,
		TotalPaid:       Money(s.TotalPaid),
		TotalOwed:       Money(s.TotalOwed),
		TotalOwedToYou:  Money(s.TotalOwedToYou),
		NetPosition:     Money(s.NetPosition),
		Role:            s.Role,
		EventCount:      s.EventCount,
	}
}

// MapDebtSummariesToDTO maps a list of summaries
func MapDebtSummariesToDTO(summaries []*models.ParticipantDebtSummary) []*DebtSummaryResponse {
	out := make([]*DebtSummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, MapDebtSummaryToDTO(s))
	}
	return out
}

// CounterpartyEventResponse is one event's share of a counterparty debt
type CounterpartyEventResponse struct {
	EventID    string `json:"eventId"`
	EventTitle string `json:"eventTitle"`
	Amount     string `json:"amount"` // positive: the participant owes
	IsSettled  bool   `json:"isSettled"`
}

// CounterpartyDebtResponse is the net position against one counterparty
type CounterpartyDebtResponse struct {
	CounterpartyID    string                      `json:"counterpartyId"`
	CounterpartyName  string                      `json:"counterpartyName"`
	NetAmount         string                      `json:"netAmount"`
	OutstandingAmount string                      `json:"outstandingAmount"`
	Events            []CounterpartyEventResponse `json:"events"`
}

// EventBreakdownResponse is the participant's balance within one event
type EventBreakdownResponse struct {
	EventID    string      `json:"eventId"`
	EventTitle string      `json:"eventTitle"`
	TotalPaid  string      `json:"totalPaid"`
	FairShare  string      `json:"fairShare"`
	Balance    string      `json:"balance"`
	Role       models.Role `json:"role"`
}

// DebtPortfolioResponse is the full cross-event view for one participant
type DebtPortfolioResponse struct {
	DebtSummaryResponse
	CounterpartyDebts []CounterpartyDebtResponse `json:"counterpartyDebts"`
	EventBreakdown    []EventBreakdownResponse   `json:"eventBreakdown"`
}

// MapDebtPortfolioToDTO maps a models.ParticipantDebtPortfolio to DebtPortfolioResponse
func MapDebtPortfolioToDTO(p *models.ParticipantDebtPortfolio) *DebtPortfolioResponse {
	dto := &DebtPortfolioResponse{
		DebtSummaryResponse: *MapDebtSummaryToDTO(&p.ParticipantDebtSummary),
		CounterpartyDebts:   make([]CounterpartyDebtResponse, 0, len(p.CounterpartyDebts)),
		EventBreakdown:      make([]EventBreakdownResponse, 0, len(p.EventBreakdown)),
	}
	for _, debt := range p.CounterpartyDebts {
		events := make([]CounterpartyEventResponse, 0, len(debt.Events))
		for _, e := range debt.Events {
			events = append(events, CounterpartyEventResponse{
				EventID:    e.EventID,
				EventTitle: e.EventTitle,
				Amount:     Money(e.Amount),
				IsSettled:  e.IsSettled,
			})
		}
		dto.CounterpartyDebts = append(dto.CounterpartyDebts, CounterpartyDebtResponse{
			CounterpartyID:    debt.CounterpartyID,
			CounterpartyName:  debt.CounterpartyName,
			NetAmount:         Money(debt.NetAmount),
			OutstandingAmount: Money(debt.OutstandingAmount),
			Events:            events,
		})
	}
	for _, row := range p.EventBreakdown {
		dto.EventBreakdown = append(dto.EventBreakdown, EventBreakdownResponse{
			EventID:    row.EventID,
			EventTitle: row.EventTitle,
			TotalPaid:  Money(row.TotalPaid),
			FairShare:  Money(row.FairShare),
			Balance:    Money(row.Balance),
			Role:       row.Role,
		})
	}
	return dto
}
