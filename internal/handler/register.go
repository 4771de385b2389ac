package handler

import (
	"github.com/go-telegram/bot"
	"github.com/set-night/timetravel/internal/telegram"
)

// Register wires all commands and callbacks.
func (h *Handler) Register(r Registrar) {
	// Commands
	r.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypePrefix, h.handleStart)
	r.RegisterHandler(bot.HandlerTypeMessageText, "/reset", bot.MatchTypePrefix, h.handleReset)
	r.RegisterHandler(bot.HandlerTypeMessageText, "/book", bot.MatchTypePrefix, h.handleBook)
	r.RegisterHandler(bot.HandlerTypeMessageText, "/cancel", bot.MatchTypePrefix, h.handleCancel)

	// Conversation callbacks
	r.RegisterHandler(bot.HandlerTypeCallbackQueryData, telegram.CallbackSuggestion, bot.MatchTypePrefix, h.handleSuggestion)
	r.RegisterHandler(bot.HandlerTypeCallbackQueryData, telegram.CallbackRetry, bot.MatchTypeExact, h.handleRetry)
	r.RegisterHandler(bot.HandlerTypeCallbackQueryData, telegram.CallbackDismiss, bot.MatchTypeExact, h.handleDismiss)

	// Booking callbacks
	r.RegisterHandler(bot.HandlerTypeCallbackQueryData, telegram.CallbackDestination, bot.MatchTypePrefix, h.handleDestination)
	r.RegisterHandler(bot.HandlerTypeCallbackQueryData, telegram.CallbackBook, bot.MatchTypePrefix, h.handleBookCallback)

	// Free text goes to the concierge or the open reservation dialog
	r.RegisterHandler(bot.HandlerTypeMessageText, "", bot.MatchTypePrefix, h.HandleText)
}
