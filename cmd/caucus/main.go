package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caucus-labs/caucus/internal/anthropic"
	"github.com/caucus-labs/caucus/internal/api"
	"github.com/caucus-labs/caucus/internal/config"
	"github.com/caucus-labs/caucus/internal/events"
	"github.com/caucus-labs/caucus/internal/export"
	"github.com/caucus-labs/caucus/internal/persona"
	"github.com/caucus-labs/caucus/internal/processor"
	"github.com/caucus-labs/caucus/internal/store"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("caucus starting", "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	if cfg.DatabaseURL == "" {
		slog.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	db, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database connected")

	// Anthropic client
	if cfg.AnthropicAPIKey == "" {
		slog.Error("ANTHROPIC_API_KEY is required")
		os.Exit(1)
	}
	llm := anthropic.NewClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
	slog.Info("anthropic client ready", "model", cfg.AnthropicModel)

	// Persona library
	library, err := persona.LoadLibrary(cfg.PersonaDir)
	if err != nil {
		slog.Error("failed to load persona library", "dir", cfg.PersonaDir, "error", err)
		os.Exit(1)
	}
	slog.Info("persona library loaded", "dir", cfg.PersonaDir, "profiles", library.Len())

	// NATS
	eventsClient, err := events.NewClient(cfg.NatsURL, cfg.NatsToken, slog.Default())
	if err != nil {
		slog.Error("failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventsClient.Close()
	slog.Info("NATS connected", "url", cfg.NatsURL)

	// Processor — the main pipeline
	exporter := export.New(cfg.ExportDir)
	proc := processor.New(llm, library, db, eventsClient, exporter, cfg.Concurrency, slog.Default())

	// Subscribe to session requests
	if err := eventsClient.Subscribe(events.SubjectSessionRequested, proc.HandleSessionRequested); err != nil {
		slog.Error("failed to subscribe to session requests", "error", err)
		os.Exit(1)
	}

	// HTTP API
	srv := api.NewServer(cfg.Port, proc, proc)
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	// Announce availability
	if err := eventsClient.Publish("caucus.service.registered", map[string]any{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"port":      cfg.Port,
	}); err != nil {
		slog.Warn("failed to publish registration", "error", err)
	}

	slog.Info("caucus ready", "port", cfg.Port)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")
	cancel()
	slog.Info("caucus stopped")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
