package services

import (
	"context"
	"fmt"
	"io"

	"budget/internal/budget"
	"budget/internal/log"
)

// SheetWriter replaces the contents of an export target with a value grid.
type SheetWriter interface {
	ReplaceValues(ctx context.Context, values [][]interface{}) error
}

// ExportRows returns the current month's transactions as export rows.
func (s *BudgetService) ExportRows(ctx context.Context, ownerID string) ([]budget.ExportRow, budget.MonthWindow, error) {
	snap, err := s.Snapshot(ctx, ownerID)
	if err != nil {
		return nil, budget.MonthWindow{}, err
	}
	now := s.clock()
	return budget.MonthlyExport(snap.Income, snap.Expenses, snap.Categories, now), budget.CurrentMonthWindow(now), nil
}

// ExportCSV writes the current month as CSV to w and returns the suggested
// file name.
func (s *BudgetService) ExportCSV(ctx context.Context, ownerID string, w io.Writer) (string, error) {
	rows, window, err := s.ExportRows(ctx, ownerID)
	if err != nil {
		return "", err
	}
	if err := budget.WriteCSV(w, rows); err != nil {
		return "", fmt.Errorf("export csv: %w", err)
	}
	s.logger.InfoContext(ctx, "Exported transactions",
		log.FieldOperation, log.OpExport, log.FieldOwnerID, ownerID, log.FieldCount, len(rows))
	return budget.ExportFilename(window), nil
}

// ExportToSheet pushes the current month to a spreadsheet tab.
func (s *BudgetService) ExportToSheet(ctx context.Context, ownerID string, sheet SheetWriter) (int, error) {
	rows, _, err := s.ExportRows(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	if err := sheet.ReplaceValues(ctx, budget.Values(rows)); err != nil {
		s.logger.LogError(ctx, "Failed to export to sheet", err, log.OpExport, log.ErrorTypeNetwork, log.NewFields().WithOwner(ownerID))
		return 0, fmt.Errorf("export to sheet: %w", err)
	}
	return len(rows), nil
}
