package calculator

import (
	"github.com/shopspring/decimal"
)

// Transfer represents a payment from a debtor to a creditor.
type Transfer struct {
	DebtorID   string // Person who owes
	CreditorID string // Person who is owed
	Amount     decimal.Decimal
}

// party is one side of the matching with its remaining magnitude.
type party struct {
	id        string
	remaining decimal.Decimal
}

// MinimizeTransfers produces the transfers that zero out every balance using
// greedy largest-to-largest matching.
//
// Algorithm:
//   - creditors have balance >= Epsilon, debtors balance <= -Epsilon, as in Classify
//   - repeatedly pick the largest remaining debtor and creditor (ties broken by
//     ascending participant ID) and transfer min(debtor, creditor), rounded to cents
//   - a side is dropped once its remainder falls below TransferThreshold
//
// Every step exhausts at least one side, so n non-settled participants produce
// at most n-1 transfers and a debtor/creditor pair appears at most once.
func MinimizeTransfers(balances []MemberBalance) []Transfer {
	var creditors, debtors []*party
	for _, b := range balances {
		switch {
		case b.Balance.GreaterThanOrEqual(Epsilon):
			creditors = append(creditors, &party{id: b.ParticipantID, remaining: b.Balance})
		case b.Balance.LessThanOrEqual(Epsilon.Neg()):
			debtors = append(debtors, &party{id: b.ParticipantID, remaining: b.Balance.Neg()})
		}
	}

	var transfers []Transfer
	for len(creditors) > 0 && len(debtors) > 0 {
		di := largest(debtors)
		ci := largest(creditors)
		debtor, creditor := debtors[di], creditors[ci]

		amount := decimal.Min(debtor.remaining, creditor.remaining)
		if rounded := amount.Round(2); rounded.GreaterThanOrEqual(TransferThreshold) {
			transfers = append(transfers, Transfer{
				DebtorID:   debtor.id,
				CreditorID: creditor.id,
				Amount:     rounded,
			})
		}

		debtor.remaining = debtor.remaining.Sub(amount)
		creditor.remaining = creditor.remaining.Sub(amount)

		if debtor.remaining.LessThan(TransferThreshold) {
			debtors = remove(debtors, di)
		}
		if creditor.remaining.LessThan(TransferThreshold) {
			creditors = remove(creditors, ci)
		}
	}

	return transfers
}

// largest returns the index of the party with the largest remainder,
// ties broken by ascending ID.
func largest(parties []*party) int {
	best := 0
	for i := 1; i < len(parties); i++ {
		cmp := parties[i].remaining.Cmp(parties[best].remaining)
		if cmp > 0 || (cmp == 0 && parties[i].id < parties[best].id) {
			best = i
		}
	}
	return best
}

func remove(parties []*party, i int) []*party {
	return append(parties[:i], parties[i+1:]...)
}
