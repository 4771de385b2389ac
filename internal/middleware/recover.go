package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/timetravel/internal/telegram"
)

// Recover returns middleware that recovers from panics and reports them to
// the operations chat.
func Recover(tgLogger *telegram.TelegramLogger) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			defer func() {
				if r := recover(); r != nil {
					src := describe(update)
					slog.Error("panic recovered in handler",
						"panic", r,
						"type", src.kind,
						"chat_id", src.chatID,
						"stack", string(debug.Stack()),
					)
					tgLogger.LogError(fmt.Errorf("panic: %v", r), fmt.Sprintf("%s in chat %d", src.kind, src.chatID))
				}
			}()
			next(ctx, b, update)
		}
	}
}
