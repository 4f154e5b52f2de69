// Package main is the entry point for the Belatedly API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/pkordes/belatedly/internal/app"
	"github.com/pkordes/belatedly/internal/config"
	"github.com/pkordes/belatedly/internal/handler"
	"github.com/pkordes/belatedly/internal/logging"
	"github.com/pkordes/belatedly/internal/middleware"
	"github.com/pkordes/belatedly/internal/schedule"
	"github.com/pkordes/belatedly/spec"
)

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		// Use plain stderr before the logger is configured.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	logger, logFile := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	defer logFile.Close()
	slog.SetDefault(logger)

	// --- Application ------------------------------------------------------
	a, err := app.New(context.Background(), cfg, logger)
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	// Sign in and load the records so the first page load has them.
	if err := a.Bootstrap(context.Background()); err != nil {
		slog.Warn("bootstrap failed", "error", err)
	}

	var refresher *schedule.Scheduler
	if cfg.RefreshCron != "" {
		refresher, err = schedule.New(cfg.RefreshCron, a.RefreshIfLoggedIn, schedule.Options{
			Location: a.Config.Location(),
			Logger:   logger,
		})
		if err != nil {
			slog.Error("invalid refresh schedule", "error", err)
			os.Exit(1)
		}
		refresher.Start()
	}

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Logger → Recoverer
	// → CORS → body limit.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))

	deps := handler.Deps{
		Records:        a.Records,
		Imports:        a.Imports,
		Session:        a.Session,
		Export:         a.Export,
		Changes:        a.ChangeFeed(),
		OpenAPI:        spec.OpenAPI,
		MaxUploadBytes: cfg.MaxBodyBytes,
		Logger:         logger,
	}
	if a.JournalService != nil {
		deps.Journal = a.JournalService
	}
	r.Mount("/", handler.NewServer(deps).Routes())

	// --- HTTP Server ------------------------------------------------------
	// WriteTimeout stays at zero: /ws connections are long-lived.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", srv.Addr, "provider", cfg.Provider, "calendar", cfg.CalendarName)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if refresher != nil {
		refresher.Stop(ctx)
	}
	// Hijacked WebSocket connections are not tracked by Shutdown.
	a.Hub.Close()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
