package chat

import (
	"encoding/json"
	"log/slog"

	"github.com/set-night/timetravel/internal/config"
	"github.com/set-night/timetravel/internal/domain"
)

// Store persists the message list of one conversation. It is best-effort:
// nothing it does ever fails the conversation.
type Store struct {
	storage Storage
	key     string
}

// NewStore namespaces the snapshot under the storage key, suffixed by scope
// when several conversations share one Storage.
func NewStore(storage Storage, scope string) *Store {
	key := config.StorageKey
	if scope != "" {
		key += ":" + scope
	}
	return &Store{storage: storage, key: key}
}

func (s *Store) Key() string {
	return s.key
}

// Load returns the stored snapshot. Absent, malformed or empty data reports
// no prior session.
func (s *Store) Load() ([]domain.Message, bool) {
	if s == nil || s.storage == nil {
		return nil, false
	}
	raw, ok := s.storage.GetItem(s.key)
	if !ok || raw == "" {
		return nil, false
	}

	var messages []domain.Message
	if err := json.Unmarshal([]byte(raw), &messages); err != nil {
		slog.Debug("discard stored chat history", "key", s.key, "error", err)
		return nil, false
	}
	if len(messages) == 0 {
		return nil, false
	}
	for _, m := range messages {
		if !m.Role.Valid() || m.ID == "" {
			slog.Debug("discard stored chat history", "key", s.key, "reason", "invalid message")
			return nil, false
		}
	}
	return messages, true
}

func (s *Store) Save(messages []domain.Message) {
	if s == nil || s.storage == nil {
		return
	}
	data, err := json.Marshal(messages)
	if err != nil {
		slog.Debug("encode chat history", "key", s.key, "error", err)
		return
	}
	if err := s.storage.SetItem(s.key, string(data)); err != nil {
		slog.Debug("save chat history", "key", s.key, "error", err)
	}
}

func (s *Store) Clear() {
	if s == nil || s.storage == nil {
		return
	}
	s.storage.RemoveItem(s.key)
}
