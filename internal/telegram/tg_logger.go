package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/set-night/timetravel/internal/config"
	"github.com/set-night/timetravel/internal/domain"
)

// TelegramLogger mirrors noteworthy events into an operations chat. It is a
// no-op when no chat is configured.
type TelegramLogger struct {
	sender Sender
	cfg    *config.Config
}

func NewTelegramLogger(s Sender, cfg *config.Config) *TelegramLogger {
	return &TelegramLogger{sender: s, cfg: cfg}
}

// Bind sets the sender once the bot exists.
func (l *TelegramLogger) Bind(s Sender) {
	l.sender = s
}

type LogType string

const (
	LogTypeError   LogType = "error"
	LogTypeBooking LogType = "booking"
)

func (l *TelegramLogger) Log(logType LogType, message string) {
	if l == nil || l.sender == nil || l.cfg.LogTelegramChatID == 0 {
		return
	}

	if len([]rune(message)) > config.MaxTelegramMessageLen {
		message = string([]rune(message)[:config.MaxTelegramMessageLen-20]) + "\n\n... (truncated)"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := l.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:          l.cfg.LogTelegramChatID,
		Text:            message,
		ParseMode:       "Markdown",
		MessageThreadID: l.topicID(logType),
	})
	if err != nil {
		slog.Error("failed to send telegram log", "type", logType, "error", err)
	}
}

func (l *TelegramLogger) LogError(err error, context string) {
	msg := fmt.Sprintf("❌ *Error*\n\n*Context:* %s\n*Error:* `%s`\n*Time:* %s",
		context, err.Error(), time.Now().Format("2006-01-02 15:04:05"))
	l.Log(LogTypeError, msg)
}

// LogBooking announces a reservation request. The label is the destination
// as shown to the customer.
func (l *TelegramLogger) LogBooking(b *domain.Booking, label string) {
	status := "transmis"
	if !b.Submitted {
		status = "en attente de transmission"
	}
	msg := fmt.Sprintf("🕰 *Nouvelle réservation*\n\n*Référence:* `%s`\n*Client:* %s (%s)\n*Destination:* %s\n*Dates:* %s → %s (%d jours)\n*Chrononautes:* %d\n*Total:* %s €\n*Statut:* %s",
		b.Reference, b.CustomerName, b.CustomerEmail, label,
		b.StartDate.Format("2006-01-02"), b.EndDate.Format("2006-01-02"), b.DurationDays,
		b.NumTravelers, b.TotalPrice.StringFixed(0), status)
	l.Log(LogTypeBooking, msg)
}

// topicID selects the forum topic for a log type; zero posts to the main thread.
func (l *TelegramLogger) topicID(logType LogType) int {
	switch logType {
	case LogTypeError:
		return l.cfg.LogTopicError
	case LogTypeBooking:
		return l.cfg.LogTopicBooking
	default:
		return 0
	}
}
