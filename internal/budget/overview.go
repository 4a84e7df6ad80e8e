package budget

import (
	"time"

	"budget/internal/core"
)

// Snapshot holds every record of one owner as loaded from storage.
type Snapshot struct {
	Profile    core.Profile       `json:"profile"`
	Income     []core.IncomeEntry `json:"income"`
	Categories []core.Category    `json:"categories"`
	Expenses   []core.Expense     `json:"expenses"`
	Debts      []core.Debt        `json:"debts"`
}

// Overview is the dashboard view for the current month.
type Overview struct {
	Window          MonthWindow     `json:"window"`
	MonthlyIncome   core.Money      `json:"monthly_income"`
	MonthlyExpenses core.Money      `json:"monthly_expenses"`
	Categories      []CategorySpend `json:"categories"`
	ExpenseGroups   []CategoryGroup `json:"expense_groups"`
	WeeklyLimit     WeeklyLimit     `json:"weekly_limit"`
	Summary         Summary         `json:"summary"`
	Debts           DebtTotals      `json:"debts"`
}

// Derive computes the overview from s using a single reading of the clock.
func Derive(s Snapshot, now time.Time) Overview {
	window := CurrentMonthWindow(now)
	monthExpenses := FilterByMonth(s.Expenses, window)
	income := TotalForWindow(s.Income, window)

	weekly := CalculateWeekly(income, s.Expenses, now)
	weekly.IsEnabled = s.Profile.WeeklyLimitEnabled

	return Overview{
		Window:          window,
		MonthlyIncome:   income,
		MonthlyExpenses: Total(monthExpenses),
		Categories:      CategoriesWithSpent(s.Categories, s.Expenses, now),
		ExpenseGroups:   GroupExpensesByCategory(monthExpenses, s.Categories),
		WeeklyLimit:     weekly,
		Summary:         Summarize(income, TotalBudgeted(s.Categories), MonthlyDebtPaymentTotal(s.Expenses, now)),
		Debts:           SummarizeDebts(s.Debts),
	}
}
