package chat

import (
	"strings"
	"sync"
	"time"
)

type scheduledTask struct {
	timer *time.Timer
}

// Scheduler owns named, cancelable one-shot tasks. Scheduling a name that is
// already pending replaces it. After Stop nothing scheduled runs.
type Scheduler struct {
	mu      sync.Mutex
	tasks   map[string]*scheduledTask
	stopped bool
}

func NewScheduler() *Scheduler {
	return &Scheduler{tasks: make(map[string]*scheduledTask)}
}

func (s *Scheduler) After(name string, d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	if prev, ok := s.tasks[name]; ok {
		prev.timer.Stop()
	}

	task := &scheduledTask{}
	task.timer = time.AfterFunc(d, func() {
		s.mu.Lock()
		current, ok := s.tasks[name]
		if !ok || current != task {
			// cancelled or replaced after the timer fired
			s.mu.Unlock()
			return
		}
		delete(s.tasks, name)
		s.mu.Unlock()
		fn()
	})
	s.tasks[name] = task
}

func (s *Scheduler) Cancel(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if task, ok := s.tasks[name]; ok {
		task.timer.Stop()
		delete(s.tasks, name)
	}
}

func (s *Scheduler) CancelPrefix(prefix string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, task := range s.tasks {
		if strings.HasPrefix(name, prefix) {
			task.timer.Stop()
			delete(s.tasks, name)
		}
	}
}

func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, task := range s.tasks {
		task.timer.Stop()
		delete(s.tasks, name)
	}
	s.stopped = true
}
