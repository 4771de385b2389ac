package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/set-night/timetravel/internal/config"
	"github.com/set-night/timetravel/internal/domain"
)

const (
	taskDeliveryPrefix = "delivery:"
	taskTooltipShow    = "tooltip:show"
	taskTooltipHide    = "tooltip:hide"
)

var errGatewayPanic = errors.New("gateway panicked")

// State is a read-only snapshot of a Session.
type State struct {
	Messages       []domain.Message
	Loading        bool
	Error          string
	Unread         bool
	Open           bool
	TooltipVisible bool
	Input          string
	QuickReplies   []string
}

// LastUserMessage returns the most recent user message, if any.
func (st State) LastUserMessage() (domain.Message, bool) {
	for i := len(st.Messages) - 1; i >= 0; i-- {
		if st.Messages[i].Role == domain.RoleUser {
			return st.Messages[i], true
		}
	}
	return domain.Message{}, false
}

type Options struct {
	DeliveryDelay  time.Duration
	TooltipDelay   time.Duration
	TooltipVisible time.Duration
	// FallbackError is shown when a failure carries no message of its own.
	FallbackError string
	Now           func() time.Time
}

func (o Options) withDefaults() Options {
	if o.DeliveryDelay <= 0 {
		o.DeliveryDelay = config.DeliveryDelay
	}
	if o.TooltipDelay <= 0 {
		o.TooltipDelay = config.TooltipDelay
	}
	if o.TooltipVisible <= 0 {
		o.TooltipVisible = config.TooltipVisible
	}
	if o.FallbackError == "" {
		o.FallbackError = config.FallbackChatError
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Session owns one concierge conversation: the message list, the single
// in-flight completion, delivery status, unread state and the widget timers.
// All methods are safe for concurrent use.
type Session struct {
	gateway Gateway
	store   *Store
	sched   *Scheduler
	opts    Options

	mu       sync.Mutex
	messages []domain.Message
	loading  bool
	errText  string
	unread   bool
	open     bool
	tooltip  bool
	input    string
	fresh    bool
	// epoch changes on Reset so completions started before it are discarded
	epoch uint64

	subMu     sync.Mutex
	subs      map[int]func(State)
	nextSubID int
}

// NewSession seeds the welcome message, or rehydrates the stored snapshot when
// it holds more than the seed. The widget starts closed.
func NewSession(gateway Gateway, store *Store, opts Options) *Session {
	s := &Session{
		gateway: gateway,
		store:   store,
		sched:   NewScheduler(),
		opts:    opts.withDefaults(),
		fresh:   true,
		subs:    make(map[int]func(State)),
	}

	if stored, ok := store.Load(); ok && len(stored) > 1 {
		s.messages = stored
		s.fresh = false
	} else {
		s.messages = []domain.Message{s.welcome()}
	}

	s.scheduleTooltip()
	return s
}

func (s *Session) welcome() domain.Message {
	return domain.Message{
		ID:          newMessageID("welcome"),
		Role:        domain.RoleAssistant,
		Content:     config.WelcomeText,
		Timestamp:   s.opts.Now().UTC(),
		Suggestions: append([]string(nil), config.WelcomeSuggestions...),
	}
}

func newMessageID(prefix string) string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return prefix + "-" + id.String()
}

// Send appends a user message and waits for the completion. It reports false
// when the text is blank or another completion is outstanding; nothing is
// mutated in that case. Failures are recorded in State.Error, never returned.
func (s *Session) Send(ctx context.Context, text string) bool {
	return s.send(ctx, text, false)
}

// SubmitInput sends the current input buffer.
func (s *Session) SubmitInput(ctx context.Context) bool {
	s.mu.Lock()
	text := s.input
	s.mu.Unlock()
	return s.Send(ctx, text)
}

// Retry removes the most recent user message and sends its content again.
// It is a no-op when there is no user message or a completion is outstanding.
func (s *Session) Retry(ctx context.Context) bool {
	return s.send(ctx, "", true)
}

// send with retry set ignores text and resends the most recent user message.
func (s *Session) send(ctx context.Context, text string, retry bool) bool {
	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return false
	}

	if retry {
		idx := s.lastUserIndexLocked()
		if idx < 0 {
			s.mu.Unlock()
			return false
		}
		text = s.messages[idx].Content
		s.sched.Cancel(taskDeliveryPrefix + s.messages[idx].ID)
		s.messages = append(s.messages[:idx:idx], s.messages[idx+1:]...)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		s.mu.Unlock()
		return false
	}

	msg := domain.Message{
		ID:        newMessageID("user"),
		Role:      domain.RoleUser,
		Content:   text,
		Timestamp: s.opts.Now().UTC(),
		Status:    domain.StatusSent,
	}
	s.messages = append(s.messages, msg)
	s.loading = true
	s.errText = ""
	s.fresh = false
	s.input = ""
	epoch := s.epoch
	turns := domain.Turns(s.messages)
	s.store.Save(s.messages)
	state := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(state)
	s.sched.After(taskDeliveryPrefix+msg.ID, s.opts.DeliveryDelay, func() {
		s.markDelivered(msg.ID)
	})

	s.complete(ctx, epoch, turns)
	return true
}

func (s *Session) complete(ctx context.Context, epoch uint64, turns []domain.Turn) {
	var reply string
	err := errGatewayPanic
	defer func() {
		s.mutate(func() bool {
			return s.settleLocked(epoch, reply, err)
		})
	}()
	reply, err = s.gateway.Complete(ctx, turns)
}

// settleLocked clears loading and records the outcome of a completion. It
// reports whether the message list changed.
func (s *Session) settleLocked(epoch uint64, reply string, err error) bool {
	s.loading = false

	if epoch != s.epoch {
		slog.Debug("discard completion for reset conversation", "error", err)
		return false
	}

	if err != nil {
		s.errText = s.describe(err)
		slog.Warn("completion failed", "kind", FailureKind(err), "error", err)
		return false
	}

	text, suggestions := ParseSuggestions(reply)
	s.messages = append(s.messages, domain.Message{
		ID:          newMessageID("bot"),
		Role:        domain.RoleAssistant,
		Content:     text,
		Timestamp:   s.opts.Now().UTC(),
		Suggestions: suggestions,
	})
	if !s.open {
		s.unread = true
	}
	return true
}

func (s *Session) describe(err error) string {
	var ue *UpstreamError
	if errors.As(err, &ue) && ue.Message != "" {
		return ue.Message
	}
	return s.opts.FallbackError
}

func (s *Session) markDelivered(id string) {
	s.mutate(func() bool {
		for i := range s.messages {
			m := &s.messages[i]
			if m.ID == id && m.Role == domain.RoleUser && m.Status == domain.StatusSent {
				m.Status = domain.StatusDelivered
				return true
			}
		}
		return false
	})
}

// Reset replaces the conversation with a fresh welcome message and clears the
// stored snapshot. A completion still outstanding is discarded when it lands.
func (s *Session) Reset() {
	s.sched.CancelPrefix(taskDeliveryPrefix)

	s.mu.Lock()
	s.epoch++
	s.messages = []domain.Message{s.welcome()}
	s.errText = ""
	s.unread = false
	s.input = ""
	s.fresh = true
	s.store.Clear()
	state := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(state)
}

// DismissError hides the current error without retrying.
func (s *Session) DismissError() {
	s.mutate(func() bool {
		s.errText = ""
		return false
	})
}

// SetInput replaces the input buffer, truncated to the input limit.
func (s *Session) SetInput(text string) {
	if runes := []rune(text); len(runes) > config.MaxInputRunes {
		text = string(runes[:config.MaxInputRunes])
	}
	s.mutate(func() bool {
		s.input = text
		return false
	})
}

// MarkOpened records that the widget is visible and clears unread.
func (s *Session) MarkOpened() {
	s.sched.Cancel(taskTooltipShow)
	s.sched.Cancel(taskTooltipHide)
	s.mutate(func() bool {
		s.open = true
		s.unread = false
		s.tooltip = false
		return false
	})
}

// MarkClosed records that the widget is hidden and starts the tooltip teaser.
func (s *Session) MarkClosed() {
	s.mutate(func() bool {
		s.open = false
		return false
	})
	s.scheduleTooltip()
}

func (s *Session) scheduleTooltip() {
	s.sched.After(taskTooltipShow, s.opts.TooltipDelay, func() {
		shown := false
		s.mutate(func() bool {
			if !s.open {
				s.tooltip = true
				shown = true
			}
			return false
		})
		if !shown {
			return
		}
		s.sched.After(taskTooltipHide, s.opts.TooltipVisible, func() {
			s.mutate(func() bool {
				s.tooltip = false
				return false
			})
		})
	})
}

// Subscribe registers fn to receive a snapshot after every change. The
// returned function removes the subscription.
func (s *Session) Subscribe(fn func(State)) func() {
	s.subMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Close cancels every pending timer and drops all subscribers.
func (s *Session) Close() {
	s.sched.Stop()
	s.subMu.Lock()
	s.subs = make(map[int]func(State))
	s.subMu.Unlock()
}

// mutate applies fn under the lock, persists when fn reports a change to the
// message list, and notifies subscribers.
func (s *Session) mutate(fn func() bool) {
	s.mu.Lock()
	if fn() {
		s.store.Save(s.messages)
	}
	state := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(state)
}

func (s *Session) notify(state State) {
	s.subMu.Lock()
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(state)
	}
}

func (s *Session) lastUserIndexLocked() int {
	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].Role == domain.RoleUser {
			return i
		}
	}
	return -1
}

func (s *Session) snapshotLocked() State {
	st := State{
		Messages:       append([]domain.Message(nil), s.messages...),
		Loading:        s.loading,
		Error:          s.errText,
		Unread:         s.unread,
		Open:           s.open,
		TooltipVisible: s.tooltip,
		Input:          s.input,
	}
	if s.fresh {
		st.QuickReplies = append([]string(nil), config.StarterReplies...)
	} else {
		for i := len(s.messages) - 1; i >= 0; i-- {
			if s.messages[i].Role == domain.RoleAssistant {
				st.QuickReplies = append([]string(nil), s.messages[i].Suggestions...)
				break
			}
		}
	}
	return st
}
