package main

import (
	"context"
	"errors"
	"os"
	"time"

	"timetracker/internal/cli"
	"timetracker/internal/config"
	applog "timetracker/internal/log"
	"timetracker/internal/sheets"
	gsheet "timetracker/internal/sheets/google"
	memmirror "timetracker/internal/sheets/memory"
	"timetracker/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg := config.Load()
	logger := cli.SetupLogger(cfg, applog.ComponentWorker, os.Stdout)
	logger.Info("Starting timetracker-worker", applog.FieldOperation, applog.OpStartup)
	cli.MustValidate(logger, cfg.ValidateWorker)

	result := cli.MustOpenBackend(context.Background(), logger, cfg)
	defer cli.CloseBackend(logger, result)
	if result.AMQP == nil {
		logger.Error("AMQP broker unavailable, cannot consume entry changes")
		cli.CloseBackend(logger, result)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	var mirror sheets.EntryMirror
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.New(ctx, gsheet.Options{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		}, logger)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
			cli.CloseBackend(logger, result)
			os.Exit(1)
		}
		mirror = client
		logger.Info("Google Sheets mirror initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)
	} else {
		mirror = memmirror.New()
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided, mirroring in memory")
	}

	syncWorker := worker.NewSyncWorker(result.Store, mirror, logger)
	go syncWorker.RunPeriodicResync(ctx, cfg.SyncInterval)

	err := result.AMQP.ConsumeEntryChanged(ctx, syncWorker.HandleEntryChanged)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", applog.FieldError, err)
		cli.CloseBackend(logger, result)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}
