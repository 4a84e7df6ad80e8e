package budget

import (
	"sort"
	"time"

	"budget/internal/core"
)

const (
	UncategorizedID    = "uncategorized"
	UncategorizedName  = "Uncategorized"
	UncategorizedColor = "#94a3b8"
)

// Entry is a dated amount: income entries and expenses both qualify.
type Entry interface {
	EntryDate() core.Date
	EntryAmount() core.Money
}

// CategoryGroup collects the expenses of one category.
type CategoryGroup struct {
	CategoryID    string         `json:"category_id"`
	CategoryName  string         `json:"category_name"`
	CategoryColor string         `json:"category_color"`
	Expenses      []core.Expense `json:"expenses"`
	Total         core.Money     `json:"total"`
}

// CategorySpend is a category with its current-month consumption.
type CategorySpend struct {
	core.Category
	Spent        core.Money `json:"spent"`
	Remaining    core.Money `json:"remaining"`
	IsOverBudget bool       `json:"is_over_budget"`
}

// Total sums the amounts of records.
func Total[E Entry](records []E) core.Money {
	var sum core.Money
	for _, r := range records {
		sum = sum.Add(r.EntryAmount())
	}
	return sum
}

// FilterByMonth keeps the records dated inside w, preserving order.
func FilterByMonth[E Entry](records []E, w MonthWindow) []E {
	out := make([]E, 0, len(records))
	for _, r := range records {
		if w.Contains(r.EntryDate()) {
			out = append(out, r)
		}
	}
	return out
}

// TotalForWindow sums the records dated inside w.
func TotalForWindow[E Entry](records []E, w MonthWindow) core.Money {
	var sum core.Money
	for _, r := range records {
		if w.Contains(r.EntryDate()) {
			sum = sum.Add(r.EntryAmount())
		}
	}
	return sum
}

// CategorySpent sums the expenses assigned to categoryID.
func CategorySpent(expenses []core.Expense, categoryID string) core.Money {
	var sum core.Money
	for _, e := range expenses {
		if e.CategoryID == categoryID {
			sum = sum.Add(e.Amount)
		}
	}
	return sum
}

// TotalBudgeted sums the monthly limits of all categories.
func TotalBudgeted(categories []core.Category) core.Money {
	var sum core.Money
	for _, c := range categories {
		sum = sum.Add(c.BudgetLimit)
	}
	return sum
}

// GroupExpensesByCategory groups expenses by category, largest total first.
// Expenses with no category, or whose category no longer exists, land in a
// single Uncategorized group. Equal totals keep first-seen order.
func GroupExpensesByCategory(expenses []core.Expense, categories []core.Category) []CategoryGroup {
	byID := make(map[string]core.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}

	var groups []*CategoryGroup
	index := map[string]*CategoryGroup{}
	for _, e := range expenses {
		key := UncategorizedID
		cat, ok := byID[e.CategoryID]
		if !e.IsUncategorized() && ok {
			key = cat.ID
		}

		g, seen := index[key]
		if !seen {
			g = &CategoryGroup{CategoryID: key, CategoryName: UncategorizedName, CategoryColor: UncategorizedColor}
			if key != UncategorizedID {
				g.CategoryName = cat.Name
				g.CategoryColor = cat.Color
			}
			index[key] = g
			groups = append(groups, g)
		}
		g.Expenses = append(g.Expenses, e)
		g.Total = g.Total.Add(e.Amount)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Total.Cents > groups[j].Total.Cents
	})

	out := make([]CategoryGroup, len(groups))
	for i, g := range groups {
		out[i] = *g
	}
	return out
}

// CategoriesWithSpent pairs every category with its current-month spend.
func CategoriesWithSpent(categories []core.Category, expenses []core.Expense, now time.Time) []CategorySpend {
	month := FilterByMonth(expenses, CurrentMonthWindow(now))
	out := make([]CategorySpend, len(categories))
	for i, c := range categories {
		spent := CategorySpent(month, c.ID)
		out[i] = CategorySpend{
			Category:     c,
			Spent:        spent,
			Remaining:    c.BudgetLimit.Sub(spent),
			IsOverBudget: spent.Cents > c.BudgetLimit.Cents,
		}
	}
	return out
}
