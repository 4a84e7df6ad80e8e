package budget

import (
	"testing"

	"budget/internal/core"
)

func cents(c int64) core.Money { return core.Money{Cents: c} }

func TestGroupExpensesByCategory(t *testing.T) {
	categories := []core.Category{
		{ID: "food", Name: "Food", Color: "#ff0000"},
		{ID: "rent", Name: "Rent", Color: "#00ff00"},
	}
	expenses := []core.Expense{
		{Name: "lunch", CategoryID: "food", Amount: cents(1200)},
		{Name: "coffee", CategoryID: "food", Amount: cents(300)},
		{Name: "rent", CategoryID: "rent", Amount: cents(90000)},
		{Name: "misc", Amount: cents(500)},
		{Name: "orphan", CategoryID: "deleted", Amount: cents(1000)},
	}

	groups := GroupExpensesByCategory(expenses, categories)
	if len(groups) != 3 {
		t.Fatalf("want 3 groups, got %d", len(groups))
	}
	if groups[0].CategoryID != "rent" || groups[0].Total.Cents != 90000 {
		t.Fatalf("largest group first, got %+v", groups[0])
	}
	if groups[1].CategoryID != "food" || groups[1].Total.Cents != 1500 || len(groups[1].Expenses) != 2 {
		t.Fatalf("unexpected food group %+v", groups[1])
	}
	unc := groups[2]
	if unc.CategoryID != UncategorizedID || unc.CategoryName != UncategorizedName || unc.CategoryColor != UncategorizedColor {
		t.Fatalf("unexpected uncategorized group %+v", unc)
	}
	if unc.Total.Cents != 1500 || len(unc.Expenses) != 2 {
		t.Fatalf("orphaned and missing categories should merge, got %+v", unc)
	}
}

func TestGroupExpensesByCategoryStableTies(t *testing.T) {
	categories := []core.Category{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}}
	expenses := []core.Expense{
		{CategoryID: "b", Amount: cents(100)},
		{CategoryID: "a", Amount: cents(100)},
	}
	groups := GroupExpensesByCategory(expenses, categories)
	if groups[0].CategoryID != "b" || groups[1].CategoryID != "a" {
		t.Fatalf("ties should keep first-seen order, got %s,%s", groups[0].CategoryID, groups[1].CategoryID)
	}
}

func TestTotalForWindow(t *testing.T) {
	income := []core.IncomeEntry{
		{Amount: cents(100000), Date: core.NewDate(2024, 6, 1)},
		{Amount: cents(50000), Date: core.NewDate(2024, 6, 30)},
		{Amount: cents(70000), Date: core.NewDate(2024, 5, 31)},
	}
	got := TotalForWindow(income, MonthWindow{Month: 5, Year: 2024})
	if got.Cents != 150000 {
		t.Fatalf("got %d", got.Cents)
	}
	if Total(income).Cents != 220000 {
		t.Fatalf("unexpected total %d", Total(income).Cents)
	}
}

func TestCategoriesWithSpent(t *testing.T) {
	now := day(2024, 6, 15)
	categories := []core.Category{
		{ID: "food", BudgetLimit: cents(10000)},
		{ID: "fun", BudgetLimit: cents(5000)},
	}
	expenses := []core.Expense{
		{CategoryID: "food", Amount: cents(10001), Date: core.NewDate(2024, 6, 2)},
		{CategoryID: "fun", Amount: cents(5000), Date: core.NewDate(2024, 6, 3)},
		{CategoryID: "fun", Amount: cents(9999), Date: core.NewDate(2024, 5, 3)},
	}
	got := CategoriesWithSpent(categories, expenses, now)
	if !got[0].IsOverBudget || got[0].Remaining.Cents != -1 {
		t.Fatalf("food should be over budget, got %+v", got[0])
	}
	if got[1].IsOverBudget || got[1].Spent.Cents != 5000 || got[1].Remaining.Cents != 0 {
		t.Fatalf("fun should be exactly on budget, got %+v", got[1])
	}
	if TotalBudgeted(categories).Cents != 15000 {
		t.Fatal("unexpected total budgeted")
	}
}
