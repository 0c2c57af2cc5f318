package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"timetracker/internal/cli"
	"timetracker/internal/config"
	apphttp "timetracker/internal/http"
	applog "timetracker/internal/log"
)

func main() {
	cli.LoadEnvFile()

	cfg := config.Load()
	logger := cli.SetupLogger(cfg, applog.ComponentApp, os.Stdout)
	cli.MustValidate(logger, cfg.Validate)

	result := cli.MustOpenBackend(context.Background(), logger, cfg)
	defer cli.CloseBackend(logger, result)

	srv := apphttp.NewServer(apphttp.Options{
		Addr:                ":" + cfg.Port,
		Store:               result.Store,
		Publisher:           result.Publisher(),
		Logger:              logger,
		DashboardWindowDays: cfg.DashboardWindowDays,
		CacheTTL:            cfg.CacheTTL,
		CacheSize:           cfg.CacheSize,
		RateLimitPerMinute:  cfg.RateLimitPerMinute,
	})
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
	})

	logger.Info("Starting timetracker server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"events", result.AMQP != nil,
		applog.FieldOperation, applog.OpStartup)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		cli.CloseBackend(logger, result)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
