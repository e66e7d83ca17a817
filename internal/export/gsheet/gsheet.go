// Package gsheet exports spending summaries to a Google Sheets spreadsheet,
// so the numbers can be shared outside the app.
package gsheet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"marketlens/internal/core"

	goption "google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"
)

type Exporter struct {
	svc           *sheets.Service
	spreadsheetID string
	sheetName     string
}

// New creates an exporter authenticated with a service account credentials
// file. The target sheet must already exist in the spreadsheet.
func New(ctx context.Context, credentialsFile, spreadsheetID, sheetName string) (*Exporter, error) {
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if sheetName == "" {
		return nil, errors.New("missing sheet name")
	}

	svc, err := sheets.NewService(ctx,
		goption.WithCredentialsFile(credentialsFile),
		goption.WithScopes(sheets.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Exporter{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

// ExportSummary replaces the sheet's contents with the monthly and category
// spending tables derived from the receipt snapshot.
func (e *Exporter) ExportSummary(ctx context.Context, receipts []core.Receipt) error {
	clearRange := e.sheetName + "!A:D"
	if _, err := e.svc.Spreadsheets.Values.Clear(e.spreadsheetID, clearRange, &sheets.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear sheet %s: %w", e.sheetName, err)
	}

	rows := SummaryRows(receipts)
	vr := &sheets.ValueRange{Values: rows}
	writeRange := e.sheetName + "!A1"
	if _, err := e.svc.Spreadsheets.Values.Update(e.spreadsheetID, writeRange, vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("write summary to %s: %w", e.sheetName, err)
	}

	slog.InfoContext(ctx, "Exported spending summary",
		"spreadsheet_id", e.spreadsheetID,
		"sheet", e.sheetName,
		"rows", len(rows),
		"receipts", len(receipts))

	return nil
}

// SummaryRows builds the spreadsheet rows: a monthly table followed by a
// category table, amounts in decimal reais.
func SummaryRows(receipts []core.Receipt) [][]any {
	rows := [][]any{{"Mes", "Total (R$)"}}
	for _, b := range core.AggregateByMonth(receipts) {
		rows = append(rows, []any{b.Label, b.Total.Reais()})
	}

	rows = append(rows, []any{}, []any{"Categoria", "Total (R$)"})
	for _, b := range core.AggregateByCategory(receipts) {
		rows = append(rows, []any{b.Name, b.Value.Reais()})
	}

	rows = append(rows, []any{}, []any{"Total geral", core.TotalSpending(receipts).Reais()})
	return rows
}
