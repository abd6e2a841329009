package cart

import (
	"context"
	"sync"
	"time"

	"github.com/oskaz/oskaz-api/pkg/logger"
	"github.com/oskaz/oskaz-api/pkg/snapshot"
)

type sweepObserver interface {
	ObserveSweep(sweep string, removed int, elapsed time.Duration)
}

// Manager hands out exactly one Store per cart session, restoring the
// snapshot lazily on first touch. Idle stores are evicted after a TTL; their
// state survives in the snapshot backend and is restored on the next touch.
type Manager struct {
	mu      sync.Mutex
	entries map[string]*managedStore

	snapshots snapshot.Store
	logg      *logger.Logger
	notify    Notifier
	sweeps    sweepObserver
	idleTTL   time.Duration
	now       func() time.Time
}

type managedStore struct {
	store     *Store
	lastTouch time.Time
}

// ManagerOption configures optional manager behavior.
type ManagerOption func(*Manager)

// WithSweepObserver records eviction passes on the given observer.
func WithSweepObserver(observer sweepObserver) ManagerOption {
	return func(m *Manager) {
		m.sweeps = observer
	}
}

// NewManager wires the per-session store registry.
func NewManager(snapshots snapshot.Store, logg *logger.Logger, notify Notifier, idleTTL time.Duration, opts ...ManagerOption) *Manager {
	m := &Manager{
		entries:   make(map[string]*managedStore),
		snapshots: snapshots,
		logg:      logg,
		notify:    notify,
		idleTTL:   idleTTL,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns the store for the session, materializing it on first touch.
func (m *Manager) Get(ctx context.Context, sessionID string) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entry, ok := m.entries[sessionID]; ok {
		entry.lastTouch = m.now()
		return entry.store
	}

	store := NewStore(ctx, sessionID, m.snapshots, m.logg, m.notify)
	m.entries[sessionID] = &managedStore{store: store, lastTouch: m.now()}
	return store
}

// EvictIdle drops in-memory stores that have not been touched within the TTL
// and returns how many were evicted.
func (m *Manager) EvictIdle() int {
	if m.idleTTL <= 0 {
		return 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	started := m.now()
	cutoff := started.Add(-m.idleTTL)
	evicted := 0
	for sessionID, entry := range m.entries {
		if entry.lastTouch.Before(cutoff) {
			delete(m.entries, sessionID)
			evicted++
		}
	}
	if m.sweeps != nil {
		m.sweeps.ObserveSweep("cart_idle", evicted, m.now().Sub(started))
	}
	return evicted
}

// Run sweeps idle stores on a ticker until the context is cancelled.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.EvictIdle(); n > 0 && m.logg != nil {
				m.logg.Debug(m.logg.WithField(ctx, "evicted", n), "cart stores evicted")
			}
		}
	}
}
