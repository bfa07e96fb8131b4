// wolfbot - werewolf table server for group chats
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

	"github.com/ashureev/wolfbot/internal/api"
	"github.com/ashureev/wolfbot/internal/catalog"
	"github.com/ashureev/wolfbot/internal/config"
	"github.com/ashureev/wolfbot/internal/domain"
	"github.com/ashureev/wolfbot/internal/game"
	"github.com/ashureev/wolfbot/internal/i18n"
	"github.com/ashureev/wolfbot/internal/identity"
	"github.com/ashureev/wolfbot/internal/messaging"
	"github.com/ashureev/wolfbot/internal/middleware"
	"github.com/ashureev/wolfbot/internal/notify"
	"github.com/ashureev/wolfbot/internal/service"
	"github.com/ashureev/wolfbot/internal/store"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

// defaultPresets are installed on first start; later edits are kept.
var defaultPresets = []*domain.Preset{
	{Name: "classic", Board: "pwbynls", Aliases: []string{"c7"}},
	{Name: "standard12", Board: "ppppwwwwynlc", Aliases: []string{"s12"}},
	{Name: "mini", Board: "pwbw"},
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "locale", cfg.DefaultLocale)

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	added, err := repo.SeedPresets(context.Background(), defaultPresets)
	if err != nil {
		slog.Error("Failed to seed presets", "error", err)
		os.Exit(1)
	}
	slog.Info("Presets ready", "added", added)

	for _, id := range cfg.AdminUserIDs {
		if err := repo.SetOperator(context.Background(), &domain.Operator{UserID: id, Level: domain.LevelAdmin}); err != nil {
			slog.Error("Failed to bootstrap admin", "user_id", id, "error", err)
			os.Exit(1)
		}
	}
	if len(cfg.AdminUserIDs) > 0 {
		slog.Info("Admins ready", "count", len(cfg.AdminUserIDs))
	}

	// Initialize services.
	registry := game.NewRegistry(catalog.Default(), logger)
	hub := messaging.NewHub(messaging.NewMailbox(cfg.Session.MailboxSize), logger)
	notifier := notify.New(hub, notify.Config{
		Concurrency: cfg.Notify.Concurrency,
		Timeout:     cfg.Notify.Timeout,
	}, logger)
	svc := service.New(registry, notifier, repo, logger)

	// Initialize handlers.
	baseHandler := api.NewHandler(svc, cfg.DefaultLocale, logger)
	groupHandler := api.NewGroupHandler(baseHandler)
	presetHandler := api.NewPresetHandler(baseHandler)
	operatorHandler := api.NewOperatorHandler(baseHandler)
	healthHandler := api.NewHealthHandler(repo, registry)
	wsHandler := messaging.NewHandler(hub, cfg.AllowedOrigins, logger)
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.Limit, cfg.RateLimit.Window)
	locale, _ := i18n.ParseTag(cfg.DefaultLocale)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/ping"))
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Public routes.
	healthHandler.RegisterHealth(r)

	// Everything else acts on behalf of a chat user.
	r.Group(func(r chi.Router) {
		r.Use(identity.Middleware(cfg.AnonymousUserID))
		r.Use(middleware.RateLimit(rateLimiter, locale))

		groupHandler.RegisterRoutes(r)
		presetHandler.RegisterRoutes(r)
		operatorHandler.RegisterRoutes(r)
	})
	r.With(identity.Middleware(cfg.AnonymousUserID)).Get("/ws/messages", wsHandler.ServeHTTP)

	// Create server.
	// WebSocket connections are long-lived, so there is no WriteTimeout.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	// Start background workers.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	service.StartSweeper(ctx, registry, hub.Mailbox(), service.SweeperConfig{
		Interval:   cfg.Session.SweepInterval,
		SessionTTL: cfg.Session.IdleTTL,
		MailboxTTL: cfg.Session.MailboxTTL,
	}, logger)
	rateLimiter.StartEviction(ctx)

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
