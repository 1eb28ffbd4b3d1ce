// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/glowbook/waitlist/internal/clientip"
	"github.com/glowbook/waitlist/internal/config"
	"github.com/glowbook/waitlist/internal/database"
	"github.com/glowbook/waitlist/internal/handlers"
	"github.com/glowbook/waitlist/internal/i18n"
	"github.com/glowbook/waitlist/internal/metrics"
	"github.com/glowbook/waitlist/internal/pagemeta"
	"github.com/glowbook/waitlist/internal/ratelimit"
	"github.com/glowbook/waitlist/internal/repository"
	"github.com/glowbook/waitlist/internal/services/email"
	"github.com/glowbook/waitlist/internal/services/subscription"
	"github.com/glowbook/waitlist/internal/services/survey"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"
)

// Run starts the server with the given CLI command.
func Run(ctx context.Context, cmd *cli.Command) error {
	cfg := config.NewFromCLI(cmd)
	setupLogger(cfg.Log.Level, cfg.Log.Format)

	slog.Info("starting server",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"base_url", cfg.Server.BaseURL,
	)

	// Database
	db, err := database.Open(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("failed to close database", "error", closeErr)
		}
	}()

	// i18n
	if initErr := i18n.Init(); initErr != nil {
		return fmt.Errorf("failed to init i18n: %w", initErr)
	}

	// Repository and services
	repo := repository.New(db)

	sender, err := email.NewService(&cfg.SMTP, cfg.Server.BaseURL, cfg.Server.SiteName, cfg.Contact.To)
	if err != nil {
		return fmt.Errorf("failed to create email service: %w", err)
	}

	subscriptions := subscription.NewService(repo, sender)
	surveys := survey.NewService(repo, sender)
	limiter := ratelimit.New(repo)
	resolver := clientip.NewResolver(cfg.Server.TrustedProxies)

	// Metrics
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// Page metadata
	pages, err := pagemeta.Load(cfg.Server.BaseURL, cfg.Server.SiteName)
	if err != nil {
		return fmt.Errorf("failed to load page metadata: %w", err)
	}

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	guard := newFloodGuard(resolver, cfg.RateLimit.FloodRPS, cfg.RateLimit.FloodBurst)
	setupMiddleware(e, cfg, guard)

	// Routes
	h := handlers.New(subscriptions, surveys, sender, limiter, resolver, collector, pages, cfg.RateLimit)
	setupRoutes(e, h, registry)

	// Background maintenance
	janitorCtx, janitorCancel := context.WithCancel(ctx)
	defer janitorCancel()
	guard.startJanitor(janitorCtx, 5*time.Minute)
	startRateLimitJanitor(janitorCtx, repo)

	// Start server
	return startWithGracefulShutdown(e, cfg)
}

func setupRoutes(e *echo.Echo, h *handlers.Handlers, gatherer prometheus.Gatherer) {
	api := e.Group("/api")
	api.POST("/subscribe", h.Subscribe)
	api.GET("/confirm", h.Confirm)
	api.POST("/contact", h.Contact)
	api.POST("/survey", h.Survey)
	api.GET("/unsubscribe", h.Unsubscribe)
	api.GET("/pages/:name", h.PageMeta)

	e.GET("/health", h.Health)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler(gatherer)))
}

// startRateLimitJanitor deletes counters whose window is long over. The
// limiter never reads stale rows, so this is purely to keep the table small.
func startRateLimitJanitor(ctx context.Context, repo *repository.Repository) {
	ticker := time.NewTicker(time.Hour)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := repo.DeleteStaleRateLimits(ctx, time.Now())
				if err != nil {
					slog.Warn("rate limit cleanup failed", "error", err)
					continue
				}
				if n > 0 {
					slog.Debug("rate limit cleanup", "deleted", n)
				}
			}
		}
	}()
}

func startWithGracefulShutdown(e *echo.Echo, cfg *config.Config) error {
	errChan := make(chan error, 1)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		slog.Info("Server running", "url", cfg.Server.BaseURL)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	// Wait for interrupt signal or error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		slog.Info("shutting down server")
	case err := <-errChan:
		slog.Error("server error", "error", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}

	slog.Info("server stopped")
	return nil
}
