package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/set-night/timetravel/internal/chat"
	"github.com/set-night/timetravel/internal/config"
	"github.com/set-night/timetravel/internal/terminal"
)

func main() {
	// Logs go to stderr to keep the conversation readable
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	renderer, err := terminal.NewRenderer(os.Stdout, terminal.Width(), "")
	if err != nil {
		slog.Error("failed to create renderer", "error", err)
		os.Exit(1)
	}

	gateway := chat.NewHTTPGateway(cfg.ChatEndpoint, config.GatewayTimeout)
	store := chat.NewStore(chat.NewMemoryStorage(0), "")
	session := chat.NewSession(gateway, store, chat.Options{})
	defer session.Close()

	// Unblock the pending read on interrupt
	go func() {
		<-ctx.Done()
		os.Stdin.Close()
	}()

	if err := terminal.NewClient(session, renderer, os.Stdin).Run(ctx); err != nil {
		slog.Error("terminal client stopped", "error", err)
		os.Exit(1)
	}
}
