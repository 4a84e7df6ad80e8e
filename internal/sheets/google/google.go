// Package google pushes budget export rows to a Google Sheets tab.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"budget/internal/log"
)

// Options configures the exporter. Inline JSON credentials win over the file.
type Options struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountJSON string
	ServiceAccountFile string
}

// Exporter replaces the contents of one year-prefixed tab ("2024 Budget").
type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string
	logger        *log.Logger
}

// New creates an exporter authenticated with a service account.
func New(ctx context.Context, opts Options, logger *log.Logger) (*Exporter, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	creds, err := credentials(opts)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return newExporter(svc, opts, time.Now(), logger), nil
}

func newExporter(svc *gsheet.Service, opts Options, now time.Time, logger *log.Logger) *Exporter {
	base := strings.TrimSpace(opts.SheetName)
	if base == "" {
		base = "Budget"
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Exporter{
		svc:           svc,
		spreadsheetID: opts.SpreadsheetID,
		sheet:         yearPrefixedName(base, now.Year()),
		logger:        logger.WithComponent(log.ComponentSheets),
	}
}

func credentials(opts Options) ([]byte, error) {
	switch {
	case strings.TrimSpace(opts.ServiceAccountJSON) != "":
		return []byte(opts.ServiceAccountJSON), nil
	case strings.TrimSpace(opts.ServiceAccountFile) != "":
		data, err := os.ReadFile(opts.ServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}
}

// SheetName is the tab the exporter writes to.
func (e *Exporter) SheetName() string { return e.sheet }

// ReplaceValues clears the tab and writes values starting at A1.
func (e *Exporter) ReplaceValues(ctx context.Context, values [][]interface{}) error {
	if e.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if _, err := e.svc.Spreadsheets.Values.Clear(e.spreadsheetID, e.sheet, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", e.sheet, err)
	}

	vr := &gsheet.ValueRange{Values: values}
	if _, err := e.svc.Spreadsheets.Values.Update(e.spreadsheetID, e.sheet+"!A1", vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do(); err != nil {
		return fmt.Errorf("write %s: %w", e.sheet, err)
	}

	e.logger.InfoContext(ctx, "Replaced sheet values", "sheet", e.sheet, log.FieldCount, len(values))
	return nil
}

// yearPrefixedName prefixes base with year unless it already starts with one.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
