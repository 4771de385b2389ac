package booking

import (
	"sync"

	"github.com/set-night/timetravel/internal/domain"
)

// Context tracks whether the reservation form is open and which destination
// it was opened for. One Context is owned per front-end user.
type Context struct {
	mu          sync.RWMutex
	open        bool
	preselected domain.DestinationKey
}

func NewContext() *Context {
	return &Context{}
}

// Open shows the form, preselecting key when it names a destination.
func (c *Context) Open(key domain.DestinationKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := Lookup(key); err != nil {
		key = ""
	}
	c.open = true
	c.preselected = key
}

func (c *Context) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = false
}

func (c *Context) IsOpen() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.open
}

func (c *Context) Preselected() domain.DestinationKey {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.preselected
}
