package calculator

import (
	"github.com/shopspring/decimal"

	"github.com/oa2006040/Kashta-Planner-sub000/internal/models"
)

var (
	// Epsilon is the tolerance used to classify a balance as settled.
	Epsilon = decimal.RequireFromString("0.005")

	// TransferThreshold is the smallest transfer worth emitting.
	TransferThreshold = decimal.RequireFromString("0.01")
)

// Contribution represents a contribution with the minimal information needed
// for balance calculations.
type Contribution struct {
	ParticipantID string // Empty when unassigned
	Quantity      int
	Cost          decimal.Decimal
}

// Amount returns quantity × cost.
func (c Contribution) Amount() decimal.Decimal {
	return c.Cost.Mul(decimal.NewFromInt(int64(c.Quantity)))
}

// Costs holds the cost totals of one event.
type Costs struct {
	Assigned   decimal.Decimal
	Unassigned decimal.Decimal
	Total      decimal.Decimal
}

// MemberBalance represents the balance information for one event participant.
type MemberBalance struct {
	ParticipantID string
	TotalPaid     decimal.Decimal
	FairShare     decimal.Decimal
	Balance       decimal.Decimal // Positive = owed money, Negative = owes money
	Role          models.Role
}

// EventBalances is the output of CalculateBalances.
type EventBalances struct {
	Costs            Costs
	ParticipantCount int
	FairShare        decimal.Decimal
	Balances         []MemberBalance
}

// SumCosts splits the contribution amounts into assigned and unassigned costs.
// Contributions whose payer is not in members are counted as unassigned: nobody
// in the event can be credited for them.
func SumCosts(contributions []Contribution, members map[string]bool) Costs {
	costs := Costs{
		Assigned:   decimal.Zero,
		Unassigned: decimal.Zero,
	}
	for _, c := range contributions {
		if c.ParticipantID != "" && members[c.ParticipantID] {
			costs.Assigned = costs.Assigned.Add(c.Amount())
		} else {
			costs.Unassigned = costs.Unassigned.Add(c.Amount())
		}
	}
	costs.Total = costs.Assigned.Add(costs.Unassigned)
	return costs
}

// PaidTotals returns the sum of assigned contribution amounts per participant.
func PaidTotals(contributions []Contribution) map[string]decimal.Decimal {
	paid := make(map[string]decimal.Decimal)
	for _, c := range contributions {
		if c.ParticipantID == "" {
			continue
		}
		paid[c.ParticipantID] = paid[c.ParticipantID].Add(c.Amount())
	}
	return paid
}

// FairShare divides the assigned costs equally. Zero participants yield zero.
func FairShare(assigned decimal.Decimal, participantCount int) decimal.Decimal {
	if participantCount <= 0 {
		return decimal.Zero
	}
	return assigned.Div(decimal.NewFromInt(int64(participantCount)))
}

// Classify returns the role for a balance, treating |balance| < Epsilon as settled.
func Classify(balance decimal.Decimal) models.Role {
	switch {
	case balance.GreaterThanOrEqual(Epsilon):
		return models.RoleCreditor
	case balance.LessThanOrEqual(Epsilon.Neg()):
		return models.RoleDebtor
	default:
		return models.RoleSettled
	}
}

// CalculateBalances computes the cost totals, fair share and per-participant
// balances of one event.
//
// Algorithm:
//   - assigned = Σ quantity × cost over contributions paid by a participant of the event
//   - fair_share = assigned / distinct participant count (0 when there are none)
//   - balance = total_paid - fair_share, classified with Epsilon
//
// Balances are returned in the order participants are given, duplicates removed.
func CalculateBalances(participantIDs []string, contributions []Contribution) EventBalances {
	members := make(map[string]bool, len(participantIDs))
	ordered := make([]string, 0, len(participantIDs))
	for _, id := range participantIDs {
		if id == "" || members[id] {
			continue
		}
		members[id] = true
		ordered = append(ordered, id)
	}

	costs := SumCosts(contributions, members)
	result := EventBalances{
		Costs:            costs,
		ParticipantCount: len(ordered),
		FairShare:        FairShare(costs.Assigned, len(ordered)),
	}
	if len(ordered) == 0 {
		return result
	}

	paid := PaidTotals(contributions)
	result.Balances = make([]MemberBalance, len(ordered))
	for i, id := range ordered {
		balance := paid[id].Sub(result.FairShare)
		result.Balances[i] = MemberBalance{
			ParticipantID: id,
			TotalPaid:     paid[id],
			FairShare:     result.FairShare,
			Balance:       balance,
			Role:          Classify(balance),
		}
	}

	return result
}
