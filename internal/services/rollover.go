package services

import (
	"context"
	"fmt"
	"time"

	"budget/internal/budget"
	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/ports"
)

// RolloverDetector tracks the last month each owner visited.
type RolloverDetector struct {
	visits ports.VisitStore
	clock  func() time.Time
	logger *log.Logger
}

func NewRolloverDetector(visits ports.VisitStore, clock func() time.Time, logger *log.Logger) *RolloverDetector {
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &RolloverDetector{visits: visits, clock: clock, logger: logger.WithComponent(log.ComponentRollover)}
}

// Check compares the stored visit with the current month. A first visit is
// recorded and reported as not new.
func (d *RolloverDetector) Check(ctx context.Context, ownerID string) (budget.RolloverCheck, error) {
	if err := requireOwner(ownerID); err != nil {
		return budget.RolloverCheck{}, err
	}
	stored, found, err := d.visits.LastVisit(ctx, ownerID)
	if err != nil {
		return budget.RolloverCheck{}, fmt.Errorf("read last visit: %w", err)
	}
	check := budget.DetectRollover(stored, found, d.clock())
	if check.SaveCurrent {
		if err := d.visits.SaveVisit(ctx, ownerID, check.Current); err != nil {
			return budget.RolloverCheck{}, fmt.Errorf("save first visit: %w", err)
		}
	}
	if check.IsNewMonth {
		d.logger.InfoContext(ctx, "New month detected",
			log.FieldOwnerID, ownerID, log.FieldMonth, check.Current.Month, log.FieldYear, check.Current.Year)
	}
	return check, nil
}

// Acknowledge records the current month as visited.
func (d *RolloverDetector) Acknowledge(ctx context.Context, ownerID string) (budget.MonthWindow, error) {
	if err := requireOwner(ownerID); err != nil {
		return budget.MonthWindow{}, err
	}
	current := budget.CurrentMonthWindow(d.clock())
	if err := d.visits.SaveVisit(ctx, ownerID, current); err != nil {
		return budget.MonthWindow{}, fmt.Errorf("save visit: %w", err)
	}
	return current, nil
}

// RecurringTemplates lists what a user may want to re-enter for a new month.
type RecurringTemplates struct {
	Income   []core.IncomeEntry `json:"income"`
	Expenses []core.Expense     `json:"expenses"`
}

func (s *BudgetService) RecurringTemplates(ctx context.Context, ownerID string) (RecurringTemplates, error) {
	snap, err := s.Snapshot(ctx, ownerID)
	if err != nil {
		return RecurringTemplates{}, err
	}
	return RecurringTemplates{
		Income:   budget.RecurringIncomeTemplates(snap.Income),
		Expenses: budget.RecurringExpenseTemplates(snap.Expenses),
	}, nil
}
