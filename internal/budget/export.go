package budget

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"time"

	"budget/internal/core"
)

// ExportDateLayout renders dates in CSV rows.
const ExportDateLayout = "Jan 2, 2006"

var exportHeader = []string{"Date", "Type", "Name", "Amount", "Category", "Frequency"}

// ExportRow is one CSV line. Amount is signed: expenses are negative.
type ExportRow struct {
	Date      core.Date
	Type      string
	Name      string
	Amount    core.Money
	Category  string
	Frequency string
}

// Record renders the row as CSV fields.
func (r ExportRow) Record() []string {
	return []string{
		r.Date.Format(ExportDateLayout),
		r.Type,
		r.Name,
		r.Amount.String(),
		r.Category,
		r.Frequency,
	}
}

// PrepareTransactions turns income and expenses into export rows sorted by
// date, newest first. Rows on the same day keep income-then-expense order.
func PrepareTransactions(income []core.IncomeEntry, expenses []core.Expense, categories []core.Category) []ExportRow {
	names := make(map[string]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	rows := make([]ExportRow, 0, len(income)+len(expenses))
	for _, i := range income {
		rows = append(rows, ExportRow{
			Date:      i.Date,
			Type:      "Income",
			Name:      i.Name,
			Amount:    i.Amount,
			Category:  "-",
			Frequency: string(i.Frequency),
		})
	}
	for _, e := range expenses {
		category, ok := names[e.CategoryID]
		if e.IsUncategorized() || !ok {
			category = UncategorizedName
		}
		frequency := "One-time"
		if e.IsRecurring {
			frequency = "Recurring"
		}
		rows = append(rows, ExportRow{
			Date:      e.Date,
			Type:      "Expense",
			Name:      e.Name,
			Amount:    e.Amount.Neg(),
			Category:  category,
			Frequency: frequency,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Date.After(rows[j].Date.Time)
	})
	return rows
}

// MonthlyExport prepares the rows for the month containing now.
func MonthlyExport(income []core.IncomeEntry, expenses []core.Expense, categories []core.Category, now time.Time) []ExportRow {
	w := CurrentMonthWindow(now)
	return PrepareTransactions(FilterByMonth(income, w), FilterByMonth(expenses, w), categories)
}

// WriteCSV writes the header and rows to w.
func WriteCSV(w io.Writer, rows []ExportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write(r.Record()); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Values renders header plus rows as a grid, the shape spreadsheet APIs take.
func Values(rows []ExportRow) [][]interface{} {
	out := make([][]interface{}, 0, len(rows)+1)
	header := make([]interface{}, len(exportHeader))
	for i, h := range exportHeader {
		header[i] = h
	}
	out = append(out, header)
	for _, r := range rows {
		rec := r.Record()
		line := make([]interface{}, len(rec))
		for i, v := range rec {
			line[i] = v
		}
		out = append(out, line)
	}
	return out
}

// ExportFilename returns "budget-<Month>-<year>.csv" for w.
func ExportFilename(w MonthWindow) string {
	return fmt.Sprintf("budget-%s-%d.csv", MonthName(w.Month), w.Year)
}
