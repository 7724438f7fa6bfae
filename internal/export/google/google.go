// Package google exports monthly summaries to a Google Sheets workbook,
// one sheet per year.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"soldi/internal/core"
	"soldi/internal/log"
)

type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	// Base sheet name without year (e.g. "Reports"); the year is prefixed
	// per sheet, "2026 Reports".
	reportBase string
	logger     *log.Logger
}

// NewFromEnv creates an Exporter from environment variables.
// Required: GOOGLE_SPREADSHEET_ID plus service account credentials in
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS.
// Optional: GOOGLE_REPORT_SHEET_NAME (default "Reports").
func NewFromEnv(ctx context.Context, logger *log.Logger) (*Exporter, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	reportBase := strings.TrimSpace(os.Getenv("GOOGLE_REPORT_SHEET_NAME"))
	if reportBase == "" {
		reportBase = "Reports"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Exporter{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		reportBase:    reportBase,
		logger:        logger.WithComponent(log.ComponentExport),
	}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	inline := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	file := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentials []byte
	switch {
	case inline != "":
		credentials = []byte(inline)
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentials = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	return gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentials),
		goption.WithScopes(gsheet.SpreadsheetsScope))
}

// ExportMonthly appends one block of rows for the given user's summary:
// a totals row followed by one row per expense category.
func (e *Exporter) ExportMonthly(ctx context.Context, userName string, s core.PeriodSummary) error {
	if e.svc == nil {
		return errors.New("sheets service not initialized")
	}

	sheet := e.reportSheetName(s.Window.Start.Year())
	next, err := e.nextRow(ctx, sheet)
	if err != nil {
		return err
	}

	rows := summaryRows(userName, s)
	rng := fmt.Sprintf("%s!A%d:F%d", sheet, next, next+len(rows)-1)
	vr := &gsheet.ValueRange{Values: rows}
	_, err = e.svc.Spreadsheets.Values.Update(e.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write %s: %w", rng, err)
	}

	e.logger.InfoContext(ctx, "monthly summary exported",
		"sheet", sheet,
		"rows", len(rows),
		"month", monthKey(s))
	return nil
}

// nextRow finds the first empty row by measuring column A.
func (e *Exporter) nextRow(ctx context.Context, sheet string) (int, error) {
	rng := fmt.Sprintf("%s!A:A", sheet)
	resp, err := e.svc.Spreadsheets.Values.Get(e.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", rng, err)
	}
	return len(resp.Values) + 1, nil
}

func (e *Exporter) reportSheetName(year int) string {
	return yearPrefixedName(e.reportBase, year)
}

// summaryRows flattens a summary into sheet rows. Amounts are written in
// major units so the sheet can format them as currency.
func summaryRows(userName string, s core.PeriodSummary) [][]any {
	month := monthKey(s)
	rows := [][]any{
		{month, userName, "total", s.Expenses.Units(), s.Income.Units(), s.Net.Units()},
	}
	for _, c := range s.ByCategory {
		rows = append(rows, []any{month, userName, c.Name, c.Amount.Units(), "", c.TxCount})
	}
	return rows
}

func monthKey(s core.PeriodSummary) string {
	return fmt.Sprintf("%d-%02d", s.Window.Start.Year(), s.Window.Start.Month())
}

// yearPrefixedName returns "<year> <base>" unless base already starts with
// a 4-digit year.
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
