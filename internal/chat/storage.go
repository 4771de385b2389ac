package chat

import (
	"sync"

	"github.com/set-night/timetravel/internal/domain"
)

// Storage is a string key/value store scoped to one browsing session.
type Storage interface {
	GetItem(key string) (string, bool)
	SetItem(key, value string) error
	RemoveItem(key string)
}

// MemoryStorage keeps items for the life of the process. A positive quota
// caps the total number of bytes held across all keys.
type MemoryStorage struct {
	mu    sync.RWMutex
	items map[string]string
	quota int
}

func NewMemoryStorage(quota int) *MemoryStorage {
	return &MemoryStorage{items: make(map[string]string), quota: quota}
}

func (m *MemoryStorage) GetItem(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.items[key]
	return v, ok
}

func (m *MemoryStorage) SetItem(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.quota > 0 {
		used := 0
		for k, v := range m.items {
			if k != key {
				used += len(k) + len(v)
			}
		}
		if used+len(key)+len(value) > m.quota {
			return domain.ErrQuotaExceeded
		}
	}
	m.items[key] = value
	return nil
}

func (m *MemoryStorage) RemoveItem(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
}
