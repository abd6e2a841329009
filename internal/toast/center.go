package toast

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Level grades a toast's urgency.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// IsValid reports whether the level is one of the known grades.
func (l Level) IsValid() bool {
	switch l {
	case LevelInfo, LevelSuccess, LevelWarning, LevelError:
		return true
	}
	return false
}

// Toast is one transient notification. Each entry carries its creation time
// and a fixed visible duration; it disappears when the duration elapses or
// on explicit dismissal, whichever comes first.
type Toast struct {
	ID        string    `json:"id"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type sweepObserver interface {
	ObserveSweep(sweep string, removed int, elapsed time.Duration)
}

// Center holds per-session toast queues and expires them in the background.
type Center struct {
	mu         sync.Mutex
	entries    map[string][]Toast
	visibleFor time.Duration
	sweeps     sweepObserver
	now        func() time.Time
}

// Option configures optional center behavior.
type Option func(*Center)

// WithSweepObserver records sweep passes on the given observer.
func WithSweepObserver(observer sweepObserver) Option {
	return func(c *Center) {
		c.sweeps = observer
	}
}

// NewCenter builds the toast center with the given visible duration.
func NewCenter(visibleFor time.Duration, opts ...Option) (*Center, error) {
	if visibleFor <= 0 {
		return nil, fmt.Errorf("visible duration must be positive")
	}
	c := &Center{
		entries:    make(map[string][]Toast),
		visibleFor: visibleFor,
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// Push appends a toast to the session's queue and returns it.
func (c *Center) Push(sessionID string, level Level, message string) (Toast, error) {
	if strings.TrimSpace(sessionID) == "" {
		return Toast{}, fmt.Errorf("session id required")
	}
	if !level.IsValid() {
		return Toast{}, fmt.Errorf("unknown toast level %q", level)
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return Toast{}, fmt.Errorf("message required")
	}

	now := c.now()
	entry := Toast{
		ID:        uuid.NewString(),
		Level:     level,
		Message:   message,
		CreatedAt: now,
		ExpiresAt: now.Add(c.visibleFor),
	}

	c.mu.Lock()
	c.entries[sessionID] = append(c.entries[sessionID], entry)
	c.mu.Unlock()

	return entry, nil
}

// List returns the session's unexpired toasts in creation order.
func (c *Center) List(sessionID string) []Toast {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	queue := c.entries[sessionID]
	visible := make([]Toast, 0, len(queue))
	for _, entry := range queue {
		if entry.ExpiresAt.After(now) {
			visible = append(visible, entry)
		}
	}
	return visible
}

// Dismiss removes the toast before its timer fires. Unknown ids are no-ops.
func (c *Center) Dismiss(sessionID, id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	queue := c.entries[sessionID]
	for i, entry := range queue {
		if entry.ID == id {
			c.entries[sessionID] = append(queue[:i], queue[i+1:]...)
			if len(c.entries[sessionID]) == 0 {
				delete(c.entries, sessionID)
			}
			return true
		}
	}
	return false
}

// Sweep drops expired toasts across all sessions and returns how many were
// removed.
func (c *Center) Sweep() int {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for sessionID, queue := range c.entries {
		kept := queue[:0]
		for _, entry := range queue {
			if entry.ExpiresAt.After(now) {
				kept = append(kept, entry)
			} else {
				removed++
			}
		}
		if len(kept) == 0 {
			delete(c.entries, sessionID)
		} else {
			c.entries[sessionID] = kept
		}
	}
	return removed
}

// Run sweeps expired toasts on a ticker until the context is cancelled.
func (c *Center) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			started := c.now()
			removed := c.Sweep()
			if c.sweeps != nil {
				c.sweeps.ObserveSweep("toast_expiry", removed, c.now().Sub(started))
			}
		}
	}
}
