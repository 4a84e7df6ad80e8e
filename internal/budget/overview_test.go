package budget

import (
	"reflect"
	"testing"
	"time"

	"budget/internal/core"
)

func sampleSnapshot() Snapshot {
	return Snapshot{
		Profile: core.Profile{WeeklyLimitEnabled: false},
		Income: []core.IncomeEntry{
			{Amount: cents(300000), Date: core.NewDate(2024, 6, 1), Frequency: core.Recurring},
		},
		Categories: []core.Category{
			{ID: "rent", Name: "Rent", BudgetLimit: cents(200000)},
			{ID: "food", Name: "Food", BudgetLimit: cents(50000)},
		},
		Expenses: []core.Expense{
			{CategoryID: "rent", Amount: cents(200000), Date: core.NewDate(2024, 6, 1), Kind: core.StandardExpense},
			{Amount: cents(50000), Date: core.NewDate(2024, 6, 3), Kind: core.DebtPaymentExpense, DebtID: "d1"},
			{CategoryID: "food", Amount: cents(9900), Date: core.NewDate(2024, 5, 28), Kind: core.StandardExpense},
		},
		Debts: []core.Debt{{ID: "d1", TotalBalance: cents(100000), AmountPaid: cents(50000)}},
	}
}

func TestDerive(t *testing.T) {
	o := Derive(sampleSnapshot(), day(2024, 6, 10))

	if o.MonthlyIncome.Cents != 300000 || o.MonthlyExpenses.Cents != 250000 {
		t.Fatalf("unexpected monthly totals %+v", o)
	}
	if o.Summary.Status != StatusBalanced || o.Summary.PercentAssigned != 100 {
		t.Fatalf("unexpected summary %+v", o.Summary)
	}
	if o.WeeklyLimit.IsEnabled {
		t.Fatal("weekly limit flag comes from the profile")
	}
	if o.Categories[1].Spent.Cents != 0 {
		t.Fatal("last month's spend must not count")
	}
	if len(o.ExpenseGroups) != 2 || o.ExpenseGroups[0].CategoryID != "rent" {
		t.Fatalf("unexpected groups %+v", o.ExpenseGroups)
	}
	if o.Debts.TotalRemaining.Cents != 50000 || o.Debts.ActiveCount != 1 {
		t.Fatalf("unexpected debts %+v", o.Debts)
	}
}

func TestDeriveIsRepeatable(t *testing.T) {
	for _, now := range []time.Time{day(2024, 6, 1), day(2024, 6, 10), day(2024, 6, 16), day(2024, 6, 30)} {
		t.Run(now.Format("2006-01-02"), func(t *testing.T) {
			s := sampleSnapshot()

			first := Derive(s, now)
			second := Derive(s, now)
			if !reflect.DeepEqual(first, second) {
				t.Fatalf("derive differs between calls:\n%+v\n%+v", first, second)
			}
			if !reflect.DeepEqual(s, sampleSnapshot()) {
				t.Fatal("derive modified its input")
			}
		})
	}
}
