package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"github.com/dmarchuk/otprelay/internal/config"
	"github.com/dmarchuk/otprelay/internal/database"
	"github.com/dmarchuk/otprelay/internal/dedup"
	"github.com/dmarchuk/otprelay/internal/formatter"
	"github.com/dmarchuk/otprelay/internal/monitor"
	"github.com/dmarchuk/otprelay/internal/parser"
	"github.com/dmarchuk/otprelay/internal/portal"
	"github.com/dmarchuk/otprelay/internal/server"
	"github.com/dmarchuk/otprelay/internal/telegram"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup logger
	logger := setupLogger(cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting otp relay")

	// Connect to database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run migrations
	ctx := context.Background()
	if err := db.Migrate(ctx); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	logger.Info("database migrations completed")

	// Create components
	portalClient, err := portal.NewClient(portal.ClientConfig{
		BaseURL:  cfg.PortalBaseURL,
		Email:    cfg.PortalEmail,
		Password: cfg.PortalPassword,
		Timeout:  cfg.HTTPTimeout,
	}, logger)
	if err != nil {
		logger.Error("failed to create portal client", "error", err)
		os.Exit(1)
	}

	extractor := portal.NewExtractor(parser.NewCodeDetector())
	cache := dedup.New(cfg.CacheFile, cfg.CacheWindow, logger)
	tgFormatter := formatter.NewTelegramFormatter()

	sender, err := telegram.NewSender(cfg.TelegramToken, cfg.TelegramChatID, logger)
	if err != nil {
		logger.Error("failed to create telegram sender", "error", err)
		os.Exit(1)
	}

	// Create pipeline
	pipeline := monitor.New(monitor.Deps{
		Fetcher:   portalClient,
		Extractor: extractor,
		Cache:     cache,
		Formatter: tgFormatter,
		Sink:      sender,
		Store:     db,
		Config: monitor.Config{
			PollInterval:  cfg.PollInterval,
			ErrorInterval: cfg.ErrorInterval,
		},
		Logger: logger,
	})

	// Create control server
	handlers := server.NewHandlers(pipeline, cache, db, sender, logger)
	srv := server.New(cfg.ListenAddr, handlers, logger)

	go func() {
		if err := srv.Run(); err != nil {
			logger.Error("control server failed", "error", err)
			os.Exit(1)
		}
	}()

	if cfg.AutoStart {
		if msg, err := pipeline.Start(); err != nil {
			logger.Error("auto-start failed", "error", err)
		} else {
			logger.Info("auto-start", "result", msg)
		}
	}

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	logger.Info("received shutdown signal", "signal", sig)
	logger.Info("shutting down...")

	pipeline.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}

	logger.Info("otp relay stopped")
}

func setupLogger(level, format string) *slog.Logger {
	var handler slog.Handler
	logLevel := parseLevel(level)

	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: logLevel,
		})
	} else {
		// Pretty colored output for console
		handler = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      logLevel,
			TimeFormat: time.DateTime,
			NoColor:    false,
		})
	}

	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
