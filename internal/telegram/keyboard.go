package telegram

import (
	"strconv"
	"strings"

	"github.com/go-telegram/bot/models"
	"github.com/set-night/timetravel/internal/domain"
)

// Callback data prefixes. Telegram caps callback data at 64 bytes, so
// suggestions are referenced by index into the current quick replies.
const (
	CallbackSuggestion  = "sg:"
	CallbackRetry       = "retry"
	CallbackDismiss     = "dismiss"
	CallbackDestination = "dest:"
	CallbackBook        = "book:"
	CallbackConfirm     = "book:confirm"
	CallbackCancel      = "book:cancel"
)

// InlineButton creates a single inline keyboard button.
func InlineButton(text, callbackData string) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{
		Text:         text,
		CallbackData: callbackData,
	}
}

// InlineKeyboard creates an inline keyboard from rows of buttons.
func InlineKeyboard(rows ...[]models.InlineKeyboardButton) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: rows,
	}
}

// ButtonRow creates a row of inline buttons.
func ButtonRow(buttons ...models.InlineKeyboardButton) []models.InlineKeyboardButton {
	return buttons
}

// SuggestionKeyboard renders quick replies one per row, followed by a
// booking shortcut. It returns nil when there is nothing to show.
func SuggestionKeyboard(replies []string, withBooking bool) *models.InlineKeyboardMarkup {
	var rows [][]models.InlineKeyboardButton
	for i, r := range replies {
		rows = append(rows, ButtonRow(InlineButton(r, CallbackSuggestion+strconv.Itoa(i))))
	}
	if withBooking {
		rows = append(rows, ButtonRow(InlineButton("🕰 Réserver", CallbackBook+"open")))
	}
	if len(rows) == 0 {
		return nil
	}
	return InlineKeyboard(rows...)
}

// RetryKeyboard accompanies a failed completion.
func RetryKeyboard() *models.InlineKeyboardMarkup {
	return InlineKeyboard(ButtonRow(
		InlineButton("🔄 Réessayer", CallbackRetry),
		InlineButton("✖️ Ignorer", CallbackDismiss),
	))
}

// DestinationKeyboard lists the catalog for the booking dialog.
func DestinationKeyboard(destinations []domain.Destination) *models.InlineKeyboardMarkup {
	rows := make([][]models.InlineKeyboardButton, 0, len(destinations))
	for _, d := range destinations {
		rows = append(rows, ButtonRow(InlineButton(d.Label, CallbackDestination+string(d.Key))))
	}
	return InlineKeyboard(rows...)
}

func ConfirmKeyboard() *models.InlineKeyboardMarkup {
	return InlineKeyboard(ButtonRow(
		InlineButton("✅ Confirmer", CallbackConfirm),
		InlineButton("❌ Annuler", CallbackCancel),
	))
}

// SuggestionIndex extracts the quick reply index from callback data.
func SuggestionIndex(data string) (int, bool) {
	rest, ok := strings.CutPrefix(data, CallbackSuggestion)
	if !ok {
		return 0, false
	}
	i, err := strconv.Atoi(rest)
	if err != nil || i < 0 {
		return 0, false
	}
	return i, true
}
