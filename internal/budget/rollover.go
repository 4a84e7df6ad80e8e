package budget

import (
	"time"

	"budget/internal/core"
)

// LastVisitKey is the state key holding the last visited month.
const LastVisitKey = "budget_last_visit"

// RolloverCheck is the outcome of comparing the last visit with now.
// SaveCurrent tells the caller to persist Current (first-ever visit).
type RolloverCheck struct {
	IsNewMonth  bool        `json:"is_new_month"`
	LastMonth   *int        `json:"last_month"`
	LastYear    *int        `json:"last_year"`
	Current     MonthWindow `json:"current"`
	SaveCurrent bool        `json:"-"`
}

// DetectRollover decides whether a new month started since the stored visit.
// With nothing stored it asks the caller to save now's month and reports no
// rollover.
func DetectRollover(stored MonthWindow, found bool, now time.Time) RolloverCheck {
	current := CurrentMonthWindow(now)
	if !found {
		return RolloverCheck{Current: current, SaveCurrent: true}
	}
	month, year := stored.Month, stored.Year
	return RolloverCheck{
		IsNewMonth: stored != current,
		LastMonth:  &month,
		LastYear:   &year,
		Current:    current,
	}
}

// RecurringIncomeTemplates returns the income entries marked recurring.
func RecurringIncomeTemplates(income []core.IncomeEntry) []core.IncomeEntry {
	var out []core.IncomeEntry
	for _, i := range income {
		if i.Frequency == core.Recurring {
			out = append(out, i)
		}
	}
	return out
}

// RecurringExpenseTemplates returns the expenses marked recurring.
func RecurringExpenseTemplates(expenses []core.Expense) []core.Expense {
	var out []core.Expense
	for _, e := range expenses {
		if e.IsRecurring {
			out = append(out, e)
		}
	}
	return out
}

// NewMonthlyIncomeInstance copies a template without identity or timestamps,
// dated on.
func NewMonthlyIncomeInstance(template core.IncomeEntry, on core.Date) core.IncomeEntry {
	template.ID = ""
	template.CreatedAt = time.Time{}
	template.UpdatedAt = time.Time{}
	template.Date = on
	return template
}

// NewMonthlyExpenseInstance copies a template without identity or timestamps,
// dated on. Joined category fields are dropped as well.
func NewMonthlyExpenseInstance(template core.Expense, on core.Date) core.Expense {
	template.ID = ""
	template.CreatedAt = time.Time{}
	template.UpdatedAt = time.Time{}
	template.CategoryName = ""
	template.CategoryColor = ""
	template.Date = on
	return template
}
