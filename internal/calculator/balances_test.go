package calculator

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/oa2006040/Kashta-Planner-sub000/internal/models"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCalculateBalances(t *testing.T) {
	tests := []struct {
		name          string
		participants  []string
		contributions []Contribution
		validateFunc  func(t *testing.T, got EventBalances)
	}{
		{
			name:         "one payer, three participants",
			participants: []string{"A", "B", "C"},
			contributions: []Contribution{
				{ParticipantID: "A", Quantity: 1, Cost: d("30")},
				{ParticipantID: "B", Quantity: 1, Cost: d("0")},
			},
			validateFunc: func(t *testing.T, got EventBalances) {
				if got.ParticipantCount != 3 {
					t.Errorf("ParticipantCount = %d, want 3", got.ParticipantCount)
				}
				if !got.Costs.Assigned.Equal(d("30")) {
					t.Errorf("Assigned = %s, want 30", got.Costs.Assigned)
				}
				if !got.FairShare.Equal(d("10")) {
					t.Errorf("FairShare = %s, want 10", got.FairShare)
				}
				want := map[string]struct {
					balance string
					role    models.Role
				}{
					"A": {"20", models.RoleCreditor},
					"B": {"-10", models.RoleDebtor},
					"C": {"-10", models.RoleDebtor},
				}
				for _, b := range got.Balances {
					w := want[b.ParticipantID]
					if !b.Balance.Equal(d(w.balance)) {
						t.Errorf("%s balance = %s, want %s", b.ParticipantID, b.Balance, w.balance)
					}
					if b.Role != w.role {
						t.Errorf("%s role = %s, want %s", b.ParticipantID, b.Role, w.role)
					}
				}
			},
		},
		{
			name:         "quantity multiplies unit cost",
			participants: []string{"A", "B"},
			contributions: []Contribution{
				{ParticipantID: "A", Quantity: 4, Cost: d("2.50")},
			},
			validateFunc: func(t *testing.T, got EventBalances) {
				if !got.Costs.Total.Equal(d("10")) {
					t.Errorf("Total = %s, want 10", got.Costs.Total)
				}
				if !got.Balances[0].TotalPaid.Equal(d("10")) {
					t.Errorf("A paid = %s, want 10", got.Balances[0].TotalPaid)
				}
				if !got.Balances[1].Balance.Equal(d("-5")) {
					t.Errorf("B balance = %s, want -5", got.Balances[1].Balance)
				}
			},
		},
		{
			name:         "unassigned costs are excluded from the fair share",
			participants: []string{"A", "B"},
			contributions: []Contribution{
				{ParticipantID: "A", Quantity: 1, Cost: d("20")},
				{Quantity: 2, Cost: d("15")},
			},
			validateFunc: func(t *testing.T, got EventBalances) {
				if !got.Costs.Unassigned.Equal(d("30")) {
					t.Errorf("Unassigned = %s, want 30", got.Costs.Unassigned)
				}
				if !got.Costs.Total.Equal(d("50")) {
					t.Errorf("Total = %s, want 50", got.Costs.Total)
				}
				if !got.FairShare.Equal(d("10")) {
					t.Errorf("FairShare = %s, want 10", got.FairShare)
				}
			},
		},
		{
			name:         "payer outside the event counts as unassigned",
			participants: []string{"A", "B"},
			contributions: []Contribution{
				{ParticipantID: "A", Quantity: 1, Cost: d("10")},
				{ParticipantID: "Z", Quantity: 1, Cost: d("40")},
			},
			validateFunc: func(t *testing.T, got EventBalances) {
				if !got.Costs.Assigned.Equal(d("10")) {
					t.Errorf("Assigned = %s, want 10", got.Costs.Assigned)
				}
				if !got.Costs.Unassigned.Equal(d("40")) {
					t.Errorf("Unassigned = %s, want 40", got.Costs.Unassigned)
				}
				if len(got.Balances) != 2 {
					t.Errorf("len(Balances) = %d, want 2", len(got.Balances))
				}
			},
		},
		{
			name:         "zero participants - no balances, zero fair share",
			participants: nil,
			contributions: []Contribution{
				{ParticipantID: "A", Quantity: 1, Cost: d("10")},
			},
			validateFunc: func(t *testing.T, got EventBalances) {
				if got.ParticipantCount != 0 {
					t.Errorf("ParticipantCount = %d, want 0", got.ParticipantCount)
				}
				if !got.FairShare.IsZero() {
					t.Errorf("FairShare = %s, want 0", got.FairShare)
				}
				if len(got.Balances) != 0 {
					t.Errorf("len(Balances) = %d, want 0", len(got.Balances))
				}
			},
		},
		{
			name:          "zero assigned cost - everyone settled",
			participants:  []string{"A", "B", "A"},
			contributions: []Contribution{{Quantity: 1, Cost: d("0")}},
			validateFunc: func(t *testing.T, got EventBalances) {
				if got.ParticipantCount != 2 {
					t.Errorf("ParticipantCount = %d, want 2 (duplicates removed)", got.ParticipantCount)
				}
				for _, b := range got.Balances {
					if b.Role != models.RoleSettled {
						t.Errorf("%s role = %s, want settled", b.ParticipantID, b.Role)
					}
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateBalances(tt.participants, tt.contributions)
			tt.validateFunc(t, got)
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		balance string
		want    models.Role
	}{
		{"0", models.RoleSettled},
		{"0.004", models.RoleSettled},
		{"-0.0049", models.RoleSettled},
		{"0.005", models.RoleCreditor},
		{"-0.01", models.RoleDebtor},
		{"12.30", models.RoleCreditor},
	}
	for _, tt := range tests {
		if got := Classify(d(tt.balance)); got != tt.want {
			t.Errorf("Classify(%s) = %s, want %s", tt.balance, got, tt.want)
		}
	}
}

func TestCalculateBalances_Conservation(t *testing.T) {
	participants := []string{"A", "B", "C", "D", "E", "F", "G"}
	for _, tc := range randomEvents(200) {
		got := CalculateBalances(participants, tc)
		sum := decimal.Zero
		for _, b := range got.Balances {
			sum = sum.Add(b.Balance)
		}
		if sum.Abs().GreaterThan(d("0.01")) {
			t.Fatalf("sum of balances = %s, want ~0 (contributions %+v)", sum, tc)
		}
	}
}
