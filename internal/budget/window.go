// Package budget derives budgeting state from raw records.
//
// Every function here is pure: callers capture "now" once per derivation pass
// and thread it through, so a single render never mixes two clock readings.
package budget

import (
	"fmt"
	"time"

	"budget/internal/core"
)

var monthNames = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// MonthWindow identifies a calendar month. Month is zero-based (0 = January).
type MonthWindow struct {
	Month int `json:"month" toml:"month"`
	Year  int `json:"year" toml:"year"`
}

// CurrentMonthWindow returns the month containing now.
func CurrentMonthWindow(now time.Time) MonthWindow {
	return MonthWindow{Month: int(now.Month()) - 1, Year: now.Year()}
}

// Contains reports whether d falls inside the window.
func (w MonthWindow) Contains(d core.Date) bool {
	return d.Year() == w.Year && d.Month()-1 == w.Month
}

func (w MonthWindow) String() string {
	return fmt.Sprintf("%s %d", MonthName(w.Month), w.Year)
}

// MonthName returns the English name of a zero-based month index.
func MonthName(month int) string {
	if month < 0 || month > 11 {
		return ""
	}
	return monthNames[month]
}

// IsInCurrentMonth reports whether d is in the month containing now.
func IsInCurrentMonth(d core.Date, now time.Time) bool {
	return CurrentMonthWindow(now).Contains(d)
}

// StartOfCurrentWeek returns Monday 00:00:00 of the week containing now,
// in now's location. Weeks are Monday-based regardless of locale.
func StartOfCurrentWeek(now time.Time) time.Time {
	back := int(now.Weekday()) - 1
	if now.Weekday() == time.Sunday {
		back = 6
	}
	y, m, d := now.Date()
	return time.Date(y, m, d-back, 0, 0, 0, 0, now.Location())
}

// DaysRemainingInCurrentWeek counts today through Sunday: 7 on Monday, 1 on Sunday.
func DaysRemainingInCurrentWeek(now time.Time) int {
	mondayBased := int(now.Weekday())
	if mondayBased == 0 {
		mondayBased = 7
	}
	return 7 - mondayBased + 1
}

// WeeksRemainingInCurrentMonth is ceil(days left including today / 7), at least 1.
func WeeksRemainingInCurrentMonth(now time.Time) int {
	y, m, d := now.Date()
	lastDay := time.Date(y, m+1, 0, 0, 0, 0, 0, now.Location()).Day()
	daysRemaining := lastDay - d + 1
	weeks := (daysRemaining + 6) / 7
	if weeks < 1 {
		return 1
	}
	return weeks
}
