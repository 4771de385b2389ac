package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/timetravel/internal/booking"
	"github.com/set-night/timetravel/internal/config"
	"github.com/set-night/timetravel/internal/domain"
	"github.com/set-night/timetravel/internal/service"
	tg "github.com/set-night/timetravel/internal/telegram"
)

const (
	bookingUnavailableText = "Reservations are temporarily unavailable."
	bookingCancelledText   = "Reservation cancelled. Chronos is at your service."
	noBookingText          = "No reservation in progress."
)

// handleBook opens the reservation dialog, optionally for a destination:
// /book paris
func (h *Handler) handleBook(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	var key domain.DestinationKey
	if parts := strings.Fields(update.Message.Text); len(parts) > 1 {
		key = domain.DestinationKey(strings.ToLower(parts[1]))
	}
	h.openBooking(ctx, chatID, key)
}

func (h *Handler) handleCancel(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	c := h.conversation(chatID)
	if !c.booking.IsOpen() {
		h.send(ctx, chatID, noBookingText, nil)
		return
	}
	c.closeBooking()
	h.send(ctx, chatID, bookingCancelledText, nil)
}

// handleDestination answers the destination step from the catalog keyboard.
func (h *Handler) handleDestination(ctx context.Context, _ *bot.Bot, update *models.Update) {
	chatID, ok := h.callbackChat(ctx, update)
	if !ok {
		return
	}
	h.answerCallback(ctx, update, "")

	key := strings.TrimPrefix(update.CallbackQuery.Data, tg.CallbackDestination)
	c := h.conversation(chatID)
	if !c.booking.IsOpen() {
		h.openBooking(ctx, chatID, domain.DestinationKey(key))
		return
	}
	h.answerDialog(ctx, chatID, c, key)
}

func (h *Handler) handleBookCallback(ctx context.Context, _ *bot.Bot, update *models.Update) {
	chatID, ok := h.callbackChat(ctx, update)
	if !ok {
		return
	}
	h.answerCallback(ctx, update, "")

	c := h.conversation(chatID)
	switch update.CallbackQuery.Data {
	case tg.CallbackConfirm:
		h.confirmBooking(ctx, chatID, c)
	case tg.CallbackCancel:
		c.closeBooking()
		h.send(ctx, chatID, bookingCancelledText, nil)
	default:
		h.openBooking(ctx, chatID, "")
	}
}

func (h *Handler) openBooking(ctx context.Context, chatID int64, key domain.DestinationKey) {
	if h.bookings == nil {
		h.send(ctx, chatID, bookingUnavailableText, nil)
		return
	}

	c := h.conversation(chatID)
	c.booking.Open(key)
	d := booking.NewDialog(c.booking.Preselected(), h.now)

	c.mu.Lock()
	c.dialog = d
	c.pending = nil
	c.mu.Unlock()

	h.prompt(ctx, chatID, d, "")
}

func (h *Handler) answerDialog(ctx context.Context, chatID int64, c *conversation, input string) {
	c.mu.Lock()
	d := c.dialog
	if d == nil {
		c.mu.Unlock()
		return
	}
	err := d.Answer(input)
	c.mu.Unlock()

	prefix := ""
	var fe *booking.FieldError
	if errors.As(err, &fe) {
		prefix = errorPrefix + fe.Message + "\n"
	}
	h.prompt(ctx, chatID, d, prefix)
}

// prompt asks for the current step. The confirmation step shows the quote.
func (h *Handler) prompt(ctx context.Context, chatID int64, d *booking.Dialog, prefix string) {
	switch d.Step() {
	case booking.StepDestination:
		h.send(ctx, chatID, prefix+d.Prompt(), tg.DestinationKeyboard(booking.Destinations()))
	case booking.StepConfirm:
		h.send(ctx, chatID, prefix+summary(d.Form(), d.Quote())+"\n\n"+d.Prompt(), tg.ConfirmKeyboard())
	default:
		h.send(ctx, chatID, prefix+d.Prompt(), nil)
	}
}

func (h *Handler) confirmBooking(ctx context.Context, chatID int64, c *conversation) {
	c.mu.Lock()
	form := c.pending
	if form == nil && c.dialog != nil {
		f, err := c.dialog.Confirm()
		if err == nil {
			form = &f
		}
	}
	c.pending = form
	c.mu.Unlock()

	if form == nil {
		h.send(ctx, chatID, noBookingText, nil)
		return
	}

	b, err := h.bookings.Submit(ctx, *form)
	if err != nil {
		var verr *service.ValidationError
		switch {
		case errors.As(err, &verr):
			c.closeBooking()
			h.send(ctx, chatID, errorPrefix+fieldErrors(verr.Fields), nil)
		default:
			slog.Error("submit booking", "chat_id", chatID, "error", err)
			h.tgLogger.LogError(err, "booking submission")
			h.send(ctx, chatID, errorPrefix+config.SubmissionErrorText, tg.ConfirmKeyboard())
		}
		return
	}

	c.closeBooking()
	label := destinationLabel(b.Destination)
	h.tgLogger.LogBooking(b, label)
	h.send(ctx, chatID, fmt.Sprintf("✅ Reservation received for %s.\nTotal: %s €\nReference: %s\nOne of our travel architects will contact you at %s.",
		label, b.TotalPrice.StringFixed(0), b.Reference, b.CustomerEmail), nil)
}

func summary(f booking.Form, q booking.Quote) string {
	notes := f.Notes
	if notes == "" {
		notes = "-"
	}
	return fmt.Sprintf("Name: %s\nEmail: %s\nDestination: %s\nDates: %s → %s (%d days)\nTravelers: %d\nRequests: %s\nTotal: %s €",
		f.FullName, f.Email, destinationLabel(f.Destination), f.StartDate, f.EndDate, q.Days, f.Travelers, notes, q.Total.StringFixed(0))
}

func fieldErrors(fields map[string]string) string {
	lines := make([]string, 0, len(fields))
	for _, k := range slices.Sorted(maps.Keys(fields)) {
		lines = append(lines, k+": "+fields[k])
	}
	return strings.Join(lines, "\n")
}

func destinationLabel(key domain.DestinationKey) string {
	if d, err := booking.Lookup(key); err == nil {
		return d.Label
	}
	return string(key)
}
