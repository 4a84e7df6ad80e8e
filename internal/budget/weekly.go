package budget

import (
	"time"

	"github.com/shopspring/decimal"

	"budget/internal/core"
)

type WeeklyStatus string

const (
	WeeklySafe     WeeklyStatus = "safe"
	WeeklyWarning  WeeklyStatus = "warning"
	WeeklyExceeded WeeklyStatus = "exceeded"
)

var (
	seven         = decimal.NewFromInt(7)
	oneHundred    = decimal.NewFromInt(100)
	warningAtPct  = decimal.NewFromInt(75)
	exceededAtPct = oneHundred
)

// WeeklyLimit is the weekly spending advisory for the current week.
// Amounts are rounded to cents; status and percentage use exact ratios.
type WeeklyLimit struct {
	IsEnabled         bool         `json:"is_enabled"`
	WeeklyLimit       core.Money   `json:"weekly_limit"`
	ProRatedLimit     core.Money   `json:"pro_rated_limit"`
	SpentThisWeek     core.Money   `json:"spent_this_week"`
	RemainingThisWeek core.Money   `json:"remaining_this_week"`
	PercentageUsed    int          `json:"percentage_used"`
	Status            WeeklyStatus `json:"status"`
	DaysRemaining     int          `json:"days_remaining"`
	IsExceeded        bool         `json:"is_exceeded"`
	IsWarning         bool         `json:"is_warning"`
}

// CalculateWeeklyLimit spreads what is left of the month's income over the
// weeks remaining. It never goes negative.
func CalculateWeeklyLimit(income, expenses core.Money, now time.Time) decimal.Decimal {
	remaining := income.Sub(expenses)
	if remaining.Cents <= 0 {
		return decimal.Zero
	}
	return remaining.Decimal().Div(decimal.NewFromInt(int64(WeeksRemainingInCurrentMonth(now))))
}

// ProRatedWeeklyLimit scales a weekly limit by the days left in this week.
func ProRatedWeeklyLimit(weeklyLimit decimal.Decimal, now time.Time) decimal.Decimal {
	days := decimal.NewFromInt(int64(DaysRemainingInCurrentWeek(now)))
	return weeklyLimit.Div(seven).Mul(days)
}

// SpentThisWeek sums current-month expenses dated on or after this week's
// Monday, skipping debt-payment mirrors and expenses excluded by the user.
func SpentThisWeek(expenses []core.Expense, now time.Time) core.Money {
	window := CurrentMonthWindow(now)
	weekStart := core.DateOf(StartOfCurrentWeek(now))
	var sum core.Money
	for _, e := range expenses {
		if !window.Contains(e.Date) || !e.Date.OnOrAfter(weekStart) {
			continue
		}
		if e.IsDebtPayment() || e.ExcludeFromWeeklyLimit {
			continue
		}
		sum = sum.Add(e.Amount)
	}
	return sum
}

func usedRatio(spent core.Money, limit decimal.Decimal) decimal.Decimal {
	return spent.Decimal().Div(limit).Mul(oneHundred)
}

// PercentageUsed is the rounded share of limit consumed, capped at 100.
// A non-positive limit counts as fully used.
func PercentageUsed(spent core.Money, limit decimal.Decimal) int {
	if !limit.IsPositive() {
		return 100
	}
	pct := usedRatio(spent, limit).Round(0)
	if pct.GreaterThan(oneHundred) {
		return 100
	}
	return int(pct.IntPart())
}

// WeeklySpendingStatus classifies spend against the pro-rated limit.
func WeeklySpendingStatus(spent core.Money, limit decimal.Decimal) WeeklyStatus {
	if !limit.IsPositive() {
		return WeeklyExceeded
	}
	ratio := usedRatio(spent, limit)
	switch {
	case ratio.GreaterThanOrEqual(exceededAtPct):
		return WeeklyExceeded
	case ratio.GreaterThanOrEqual(warningAtPct):
		return WeeklyWarning
	default:
		return WeeklySafe
	}
}

// CalculateWeekly derives the full weekly advisory. The pool is sized from
// gross month spend while consumption only counts discretionary expenses.
// IsEnabled is left false; the caller copies it from the profile.
func CalculateWeekly(monthlyIncome core.Money, expenses []core.Expense, now time.Time) WeeklyLimit {
	grossSpend := TotalForWindow(expenses, CurrentMonthWindow(now))
	weekly := CalculateWeeklyLimit(monthlyIncome, grossSpend, now)
	proRated := ProRatedWeeklyLimit(weekly, now)
	spent := SpentThisWeek(expenses, now)

	remaining := proRated.Sub(spent.Decimal())
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	status := WeeklySpendingStatus(spent, proRated)
	return WeeklyLimit{
		WeeklyLimit:       core.MoneyFromDecimal(weekly),
		ProRatedLimit:     core.MoneyFromDecimal(proRated),
		SpentThisWeek:     spent,
		RemainingThisWeek: core.MoneyFromDecimal(remaining),
		PercentageUsed:    PercentageUsed(spent, proRated),
		Status:            status,
		DaysRemaining:     DaysRemainingInCurrentWeek(now),
		IsExceeded:        status == WeeklyExceeded,
		IsWarning:         status == WeeklyWarning,
	}
}
