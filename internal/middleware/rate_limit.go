package middleware

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/timetravel/internal/config"
)

// RateLimit returns middleware that enforces per-minute rate limits.
func RateLimit(l *RateLimiter) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			// Only rate limit messages (not callbacks or other updates)
			src := describe(update)
			if src.kind != "message" || l.Allow(strconv.FormatInt(src.chatID, 10)) {
				next(ctx, b, update)
				return
			}

			slog.Debug("rate limited", "chat_id", src.chatID, "limit", l.Limit())
			if _, err := b.SendMessage(ctx, &bot.SendMessageParams{
				ChatID: src.chatID,
				Text:   "⏳ " + config.RateLimitedError,
			}); err != nil {
				slog.Debug("send rate limit notice", "error", err)
			}
		}
	}
}
