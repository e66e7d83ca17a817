// Command sheets-export pushes the current spending summary to a Google
// Sheets spreadsheet. Meant to run on a schedule (cron) next to the server.
package main

import (
	"context"
	"os"
	"time"

	"marketlens/internal/cli"
	"marketlens/internal/export/gsheet"
	applog "marketlens/internal/log"
	"marketlens/internal/storage"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentExport)
	cfg := cli.LoadAndValidateConfig(logger)

	if !cfg.ExportConfigured() {
		logger.Error("Google Sheets export not configured",
			"hint", "set GOOGLE_SPREADSHEET_ID, GOOGLE_SHEET_NAME and GOOGLE_CREDENTIALS_FILE")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	receipts, err := repo.ListReceipts(ctx)
	if err != nil {
		logger.Error("Failed to load receipts", "error", err)
		os.Exit(1)
	}

	exporter, err := gsheet.New(ctx, cfg.GoogleCredentialsFile, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets exporter", "error", err)
		os.Exit(1)
	}

	if err := exporter.ExportSummary(ctx, receipts); err != nil {
		logger.Error("Export failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Export complete", "receipts", len(receipts), "sheet", cfg.GoogleSheetName)
}
