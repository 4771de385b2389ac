package handler

import (
	"context"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/timetravel/internal/chat"
	"github.com/set-night/timetravel/internal/domain"
	tg "github.com/set-night/timetravel/internal/telegram"
)

const (
	busyText    = "⏳ Chronos consulte encore les archives temporelles, un instant…"
	resetText   = "🔄 Nouvelle conversation. Le Continuum est à vous."
	expiredText = "Cette suggestion a expiré."
	errorPrefix = "⚠️ "
)

func (h *Handler) handleStart(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	h.render(ctx, chatID, h.conversation(chatID).session.State())
}

func (h *Handler) handleReset(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	c := h.conversation(chatID)
	c.closeBooking()
	c.session.Reset()

	h.send(ctx, chatID, resetText, nil)
	h.render(ctx, chatID, c.session.State())
}

// HandleText routes free text to the reservation dialog when one is open,
// otherwise to the concierge.
func (h *Handler) HandleText(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	text := update.Message.Text
	if strings.HasPrefix(text, "/") {
		return
	}

	chatID := update.Message.Chat.ID
	c := h.conversation(chatID)
	if c.booking.IsOpen() {
		h.answerDialog(ctx, chatID, c, text)
		return
	}

	h.converse(ctx, chatID, c, func(ctx context.Context) bool {
		c.session.SetInput(text)
		return c.session.SubmitInput(ctx)
	})
}

func (h *Handler) handleSuggestion(ctx context.Context, _ *bot.Bot, update *models.Update) {
	chatID, ok := h.callbackChat(ctx, update)
	if !ok {
		return
	}
	c := h.conversation(chatID)

	i, ok := tg.SuggestionIndex(update.CallbackQuery.Data)
	replies := c.session.State().QuickReplies
	if !ok || i >= len(replies) {
		h.answerCallback(ctx, update, expiredText)
		return
	}
	h.answerCallback(ctx, update, "")

	text := replies[i]
	h.send(ctx, chatID, "🗨 "+text, nil)
	h.converse(ctx, chatID, c, func(ctx context.Context) bool {
		return c.session.Send(ctx, text)
	})
}

func (h *Handler) handleRetry(ctx context.Context, _ *bot.Bot, update *models.Update) {
	chatID, ok := h.callbackChat(ctx, update)
	if !ok {
		return
	}
	h.answerCallback(ctx, update, "")
	c := h.conversation(chatID)
	h.converse(ctx, chatID, c, c.session.Retry)
}

func (h *Handler) handleDismiss(ctx context.Context, _ *bot.Bot, update *models.Update) {
	chatID, ok := h.callbackChat(ctx, update)
	if !ok {
		return
	}
	h.answerCallback(ctx, update, "")
	h.conversation(chatID).session.DismissError()
}

// converse runs one completion with the typing indicator shown and renders
// the outcome. A dropped send is reported as busy.
func (h *Handler) converse(ctx context.Context, chatID int64, c *conversation, send func(context.Context) bool) {
	stopTyping := tg.StartTyping(ctx, h.bot, chatID)
	sent := send(ctx)
	stopTyping()

	st := c.session.State()
	if !sent {
		if st.Loading {
			h.send(ctx, chatID, busyText, nil)
		}
		return
	}
	h.render(ctx, chatID, st)
}

// render shows the current error with a retry button, or the latest
// assistant message with the quick replies as buttons.
func (h *Handler) render(ctx context.Context, chatID int64, st chat.State) {
	if st.Error != "" {
		h.send(ctx, chatID, errorPrefix+st.Error, tg.RetryKeyboard())
		return
	}

	for i := len(st.Messages) - 1; i >= 0; i-- {
		m := st.Messages[i]
		if m.Role != domain.RoleAssistant {
			continue
		}
		var markup models.ReplyMarkup
		if kb := tg.SuggestionKeyboard(st.QuickReplies, true); kb != nil {
			markup = kb
		}
		h.send(ctx, chatID, m.Content, markup)
		return
	}
}

func (h *Handler) send(ctx context.Context, chatID int64, text string, markup models.ReplyMarkup) {
	if err := tg.SendLongMessage(ctx, h.bot, chatID, text, markup); err != nil {
		slog.Error("send message", "chat_id", chatID, "error", err)
	}
}

func (h *Handler) callbackChat(ctx context.Context, update *models.Update) (int64, bool) {
	if update.CallbackQuery == nil {
		return 0, false
	}
	msg := update.CallbackQuery.Message.Message
	if msg == nil {
		h.answerCallback(ctx, update, expiredText)
		return 0, false
	}
	return msg.Chat.ID, true
}

func (h *Handler) answerCallback(ctx context.Context, update *models.Update, text string) {
	if _, err := h.bot.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: update.CallbackQuery.ID,
		Text:            text,
	}); err != nil {
		slog.Debug("answer callback", "error", err)
	}
}
