package budget

import (
	"time"

	"github.com/shopspring/decimal"

	"budget/internal/core"
)

type BudgetStatus string

const (
	StatusOver     BudgetStatus = "over"
	StatusBalanced BudgetStatus = "balanced"
	StatusUnder    BudgetStatus = "under"
	StatusEmpty    BudgetStatus = "empty"
)

// Summary is the zero-based budget state: every unit of income should be
// assigned to a category or a debt payment.
type Summary struct {
	TotalIncome     core.Money   `json:"total_income"`
	TotalBudgeted   core.Money   `json:"total_budgeted"`
	DebtPayments    core.Money   `json:"debt_payments"`
	TotalAssigned   core.Money   `json:"total_assigned"`
	Remaining       core.Money   `json:"remaining"`
	Status          BudgetStatus `json:"status"`
	PercentAssigned int          `json:"percent_assigned"`
	IsBalanced      bool         `json:"is_balanced"`
	IsOverBudget    bool         `json:"is_over_budget"`
}

// MonthlyDebtPaymentTotal sums this month's uncategorized debt-payment mirrors.
func MonthlyDebtPaymentTotal(expenses []core.Expense, now time.Time) core.Money {
	window := CurrentMonthWindow(now)
	var sum core.Money
	for _, e := range expenses {
		if window.Contains(e.Date) && e.IsDebtPayment() && e.IsUncategorized() {
			sum = sum.Add(e.Amount)
		}
	}
	return sum
}

// Summarize combines income, category budgets and debt payments.
// PercentAssigned is unbounded so over-assignment shows above 100.
func Summarize(totalIncome, totalBudgeted, debtPayments core.Money) Summary {
	assigned := totalBudgeted.Add(debtPayments)
	remaining := totalIncome.Sub(assigned)

	var status BudgetStatus
	switch {
	case remaining.Cents < 0:
		status = StatusOver
	case remaining.Cents == 0 && totalIncome.Cents > 0:
		status = StatusBalanced
	case remaining.Cents > 0:
		status = StatusUnder
	default:
		status = StatusEmpty
	}

	pct := 0
	if totalIncome.Cents != 0 {
		pct = int(assigned.Decimal().Div(totalIncome.Decimal()).Mul(decimal.NewFromInt(100)).Round(0).IntPart())
	}

	return Summary{
		TotalIncome:     totalIncome,
		TotalBudgeted:   totalBudgeted,
		DebtPayments:    debtPayments,
		TotalAssigned:   assigned,
		Remaining:       remaining,
		Status:          status,
		PercentAssigned: pct,
		IsBalanced:      status == StatusBalanced,
		IsOverBudget:    status == StatusOver,
	}
}
