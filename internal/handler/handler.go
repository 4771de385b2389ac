package handler

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	"github.com/set-night/timetravel/internal/booking"
	"github.com/set-night/timetravel/internal/chat"
	"github.com/set-night/timetravel/internal/domain"
	"github.com/set-night/timetravel/internal/telegram"
)

// Bot is the subset of *bot.Bot the handlers talk to.
type Bot interface {
	telegram.Sender
	telegram.ActionSender
	AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error)
}

// Registrar is the subset of *bot.Bot used to register handlers.
type Registrar interface {
	RegisterHandler(handlerType bot.HandlerType, pattern string, matchType bot.MatchType, f bot.HandlerFunc, m ...bot.Middleware) string
}

// Bookings submits completed reservation forms.
type Bookings interface {
	Submit(ctx context.Context, f booking.Form) (*domain.Booking, error)
}

// Handler binds one concierge session and one reservation dialog to every
// Telegram chat.
type Handler struct {
	bot      Bot
	gateway  chat.Gateway
	storage  chat.Storage
	bookings Bookings
	tgLogger *telegram.TelegramLogger
	opts     chat.Options
	now      func() time.Time

	mu    sync.Mutex
	chats map[int64]*conversation
}

// Deps contains all dependencies required to construct a Handler.
type Deps struct {
	Bot      Bot
	Gateway  chat.Gateway
	Storage  chat.Storage
	Bookings Bookings
	TgLogger *telegram.TelegramLogger
	Session  chat.Options
	Now      func() time.Time
}

// New creates a new Handler from the provided dependencies.
func New(deps Deps) *Handler {
	storage := deps.Storage
	if storage == nil {
		storage = chat.NewMemoryStorage(0)
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Handler{
		bot:      deps.Bot,
		gateway:  deps.Gateway,
		storage:  storage,
		bookings: deps.Bookings,
		tgLogger: deps.TgLogger,
		opts:     deps.Session,
		now:      now,
		chats:    make(map[int64]*conversation),
	}
}

type conversation struct {
	session *chat.Session
	booking *booking.Context

	mu     sync.Mutex
	dialog *booking.Dialog
	// pending holds a confirmed form whose submission failed
	pending *booking.Form
}

func (c *conversation) closeBooking() {
	c.mu.Lock()
	c.dialog = nil
	c.pending = nil
	c.mu.Unlock()
	c.booking.Close()
}

// conversation returns the state of chatID, creating it on first contact.
// The chat is always in view, so the session is marked open right away.
func (h *Handler) conversation(chatID int64) *conversation {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c, ok := h.chats[chatID]; ok {
		return c
	}
	store := chat.NewStore(h.storage, strconv.FormatInt(chatID, 10))
	c := &conversation{
		session: chat.NewSession(h.gateway, store, h.opts),
		booking: booking.NewContext(),
	}
	c.session.MarkOpened()
	h.chats[chatID] = c
	return c
}

// Close stops the timers of every session.
func (h *Handler) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.chats {
		c.session.Close()
	}
}
