package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	timetravel "github.com/set-night/timetravel"
	"github.com/set-night/timetravel/internal/booking"
	"github.com/set-night/timetravel/internal/chat"
	"github.com/set-night/timetravel/internal/config"
	"github.com/set-night/timetravel/internal/handler"
	"github.com/set-night/timetravel/internal/middleware"
	"github.com/set-night/timetravel/internal/repository"
	"github.com/set-night/timetravel/internal/server"
	"github.com/set-night/timetravel/internal/service"
	"github.com/set-night/timetravel/internal/telegram"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	// Setup context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	persona, err := cfg.Persona()
	if err != nil {
		slog.Error("failed to load persona prompt", "error", err)
		os.Exit(1)
	}
	mistral := service.NewMistralService(cfg, persona)
	if !mistral.Configured() {
		slog.Warn("MISTRAL_API_KEY not set, /api/chat will answer with an error")
	}

	// Booking ledger and webhook are both optional
	var store service.BookingStore
	if cfg.DatabaseURL != "" {
		migrationsFS, err := fs.Sub(timetravel.MigrationsFS, "migrations")
		if err != nil {
			slog.Error("failed to load embedded migrations", "error", err)
			os.Exit(1)
		}
		pool, err := repository.Open(ctx, cfg.DatabaseURL, migrationsFS)
		if err != nil {
			slog.Error("failed to open booking ledger", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		store = repository.NewBookingRepository(pool)
	} else {
		slog.Warn("DATABASE_URL not set, bookings are not recorded")
	}

	var submitter service.Submitter
	if cfg.BookingWebhookURL != "" {
		submitter = booking.NewWebhook(cfg.BookingWebhookURL, config.WebhookTimeout)
	} else {
		slog.Warn("BOOKING_WEBHOOK_URL not set, bookings are not forwarded")
	}
	bookings := service.NewBookingService(store, submitter)

	srv := server.New(server.Deps{
		Chat:               mistral,
		Bookings:           bookings,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: config.ReadHeaderTimeout,
	}

	go func() {
		slog.Info("starting http server", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", "error", err)
			stop()
		}
	}()

	if cfg.BotToken != "" {
		go func() {
			if err := runBot(ctx, cfg, srv.Gateway(), bookings); err != nil {
				slog.Error("telegram bot failed", "error", err)
			}
		}()
	}

	<-ctx.Done()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown", "error", err)
	}
	slog.Info("server stopped gracefully")
}

// runBot serves the Telegram front end until ctx is done.
func runBot(ctx context.Context, cfg *config.Config, gateway chat.Gateway, bookings handler.Bookings) error {
	tgLogger := telegram.NewTelegramLogger(nil, cfg)

	opts := []bot.Option{
		bot.WithMiddlewares(
			middleware.Recover(tgLogger),
			middleware.Logging(),
			middleware.RateLimit(middleware.NewRateLimiter(cfg.RateLimitPerMinute)),
		),
		bot.WithDefaultHandler(func(ctx context.Context, b *bot.Bot, update *models.Update) {
			slog.Debug("unhandled update", "update_id", update.ID)
		}),
	}

	b, err := bot.New(cfg.BotToken, opts...)
	if err != nil {
		return err
	}
	tgLogger.Bind(b)

	if cfg.DropPendingUpdates {
		if _, err := b.DeleteWebhook(ctx, &bot.DeleteWebhookParams{DropPendingUpdates: true}); err != nil {
			slog.Warn("failed to drop pending updates", "error", err)
		}
	}

	// Get bot info
	me, err := b.GetMe(ctx)
	if err != nil {
		return err
	}

	h := handler.New(handler.Deps{
		Bot:      b,
		Gateway:  gateway,
		Bookings: bookings,
		TgLogger: tgLogger,
	})
	defer h.Close()

	// Register all handlers
	h.Register(b)

	slog.Info("starting bot", "username", me.Username, "id", me.ID)
	b.Start(ctx)

	slog.Info("bot stopped gracefully")
	return nil
}
