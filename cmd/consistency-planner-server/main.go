package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iwvelando/consistency-planner/internal/config"
	"github.com/iwvelando/consistency-planner/internal/fxrate"
	"github.com/iwvelando/consistency-planner/internal/logging"
	"github.com/iwvelando/consistency-planner/internal/roadmap"
	"github.com/iwvelando/consistency-planner/internal/server"
	"github.com/iwvelando/consistency-planner/internal/store"
	"github.com/iwvelando/consistency-planner/pkg/constants"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	_ = godotenv.Load()

	configLocation := flag.String("config", constants.DefaultServerConfigFile, "path to server configuration file")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	cfg, err := server.LoadConfig(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load server configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := server.Options{
		MaxUploadSize: cfg.UploadSizeBytes(),
		Version:       version,
	}

	if cfg.ConfigFile != "" {
		planner, err := config.LoadConfiguration(cfg.ConfigFile)
		if err != nil {
			logger.Fatal("failed to load planner configuration",
				zap.String("op", "main"),
				zap.String("path", cfg.ConfigFile),
				zap.Error(err),
			)
		}
		for _, warning := range planner.ValidateConfiguration() {
			logger.Warn("Configuration warning: "+warning,
				zap.String("op", "main"),
			)
		}

		opts.Goals = roadmap.Goals{
			TargetPayout: planner.Common.TargetPayout,
			PlannedDays:  planner.Common.PlannedDays,
		}

		snapshots, err := store.New(ctx, logger, planner.Store.Options())
		if err != nil {
			logger.Warn("snapshot store unavailable, saving is disabled",
				zap.String("op", "main"),
				zap.String("backend", planner.Store.Backend),
				zap.Error(err),
			)
		} else {
			defer func() {
				_ = snapshots.Close()
			}()
			opts.Store = snapshots
		}

		if planner.Currency.Enabled {
			opts.Rates = fxrate.NewProvider(logger, planner.Currency.RateOptions())
			opts.Locale = planner.Currency.Locale
		}
	}

	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           server.NewHandler(logger, opts),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			zap.String("op", "main"),
			zap.String("address", cfg.Address),
			zap.String("version", version),
			zap.Int64("maxUploadSize", cfg.UploadSizeBytes()),
			zap.Bool("store", opts.Store != nil),
			zap.Bool("currency", opts.Rates != nil),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			logger.Error("server failed",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		return
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
	logger.Info("server stopped", zap.String("op", "main"))
}
