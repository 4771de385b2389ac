package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Logging returns middleware that logs update processing time.
func Logging() bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			start := time.Now()

			next(ctx, b, update)

			src := describe(update)
			slog.Debug("update processed",
				"type", src.kind,
				"chat_id", src.chatID,
				"user_id", src.userID,
				"duration", time.Since(start),
			)
		}
	}
}

type source struct {
	kind   string
	chatID int64
	userID int64
}

// describe extracts where an update came from.
func describe(update *models.Update) source {
	switch {
	case update.Message != nil:
		src := source{kind: "message", chatID: update.Message.Chat.ID}
		if update.Message.From != nil {
			src.userID = update.Message.From.ID
		}
		return src
	case update.CallbackQuery != nil:
		src := source{kind: "callback_query", userID: update.CallbackQuery.From.ID}
		if update.CallbackQuery.Message.Message != nil {
			src.chatID = update.CallbackQuery.Message.Message.Chat.ID
		}
		return src
	default:
		return source{kind: "unknown"}
	}
}
