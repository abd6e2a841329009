package cart

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/oskaz/oskaz-api/pkg/logger"
	"github.com/oskaz/oskaz-api/pkg/snapshot"
)

// Notifier receives UX-relevant events the store itself swallows. Cart
// mutations never fail, so silent clamps are surfaced here instead.
type Notifier interface {
	QuantityClamped(ctx context.Context, sessionID, itemID string, requested, applied int)
}

// Store is the single source of truth for one cart session. Every mutation
// holds the lock, keeps items unique by id in insertion order, and writes a
/// fresh snapshot before returning. No operation returns an error: invalid
// input is clamped or ignored, and snapshot failures are logged without
// interrupting the mutation.
type Store struct {
	mu        sync.Mutex
	sessionID string
	items     []Item
	isOpen    bool

	snapshots snapshot.Store
	logg      *logger.Logger
	notify    Notifier
}

// persistedState is the durable shape. Totals are derived and deliberately
// excluded; they are recomputed on load.
type persistedState struct {
	Items  []Item `json:"items"`
	IsOpen bool   `json:"isOpen"`
}

// NewStore builds an empty cart store for the session and restores any
// persisted snapshot. Missing or corrupt snapshots yield an empty cart.
func NewStore(ctx context.Context, sessionID string, snapshots snapshot.Store, logg *logger.Logger, notify Notifier) *Store {
	s := &Store{
		sessionID: sessionID,
		snapshots: snapshots,
		logg:      logg,
		notify:    notify,
	}
	s.restore(ctx)
	return s
}

func (s *Store) slot() string {
	return "cart:" + s.sessionID
}

func (s *Store) restore(ctx context.Context) {
	if s.snapshots == nil {
		return
	}
	payload, err := s.snapshots.Load(ctx, s.slot())
	if err != nil {
		if err != snapshot.ErrNotFound && s.logg != nil {
			s.logg.Warn(s.logg.WithSessionID(ctx, s.sessionID), "cart snapshot unreadable, starting empty")
		}
		return
	}

	var state persistedState
	if err := json.Unmarshal(payload, &state); err != nil {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithSessionID(ctx, s.sessionID), "cart snapshot corrupt, starting empty")
		}
		return
	}

	// Re-sanitize on load: drop zero-quantity lines and duplicate ids that a
	// tampered snapshot could smuggle in.
	seen := map[string]struct{}{}
	for _, item := range state.Items {
		if item.Quantity <= 0 {
			continue
		}
		if _, dup := seen[item.ID]; dup {
			continue
		}
		seen[item.ID] = struct{}{}
		s.items = append(s.items, item)
	}
	s.isOpen = state.IsOpen
}

// AddItem merges the descriptor into the cart. An existing line with the same
// id has its quantity increased by the requested amount; otherwise the item
// is appended. The resulting quantity is clamped to [MinOrderQty, Stock] and
// a negative unit price is floored at zero so a hostile descriptor can never
// drive the cart total below zero.
func (s *Store) AddItem(ctx context.Context, item Item, quantity int) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item.ID == "" {
		return s.stateLocked()
	}
	if item.Price.IsNegative() {
		item.Price = decimal.Zero
	}

	if idx := s.indexLocked(item.ID); idx >= 0 {
		existing := &s.items[idx]
		requested := existing.Quantity + quantity
		applied := clampQuantity(requested, existing.MinOrderQty, existing.Stock)
		if applied != requested {
			s.reportClamp(ctx, existing.ID, requested, applied)
		}
		existing.Quantity = applied
	} else {
		applied := clampQuantity(quantity, item.MinOrderQty, item.Stock)
		if applied != quantity {
			s.reportClamp(ctx, item.ID, quantity, applied)
		}
		item.Quantity = applied
		s.items = append(s.items, item)
	}

	s.persistLocked(ctx)
	return s.stateLocked()
}

// RemoveItem deletes the matching line; absent ids are a no-op.
func (s *Store) RemoveItem(ctx context.Context, id string) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return s.stateLocked()
	}
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	s.persistLocked(ctx)
	return s.stateLocked()
}

// UpdateQuantity sets the line to the clamped quantity; a non-positive
// quantity removes the line. Absent ids are a no-op.
func (s *Store) UpdateQuantity(ctx context.Context, id string, quantity int) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return s.stateLocked()
	}

	if quantity <= 0 {
		s.items = append(s.items[:idx], s.items[idx+1:]...)
		s.persistLocked(ctx)
		return s.stateLocked()
	}

	line := &s.items[idx]
	applied := clampQuantity(quantity, line.MinOrderQty, line.Stock)
	if applied != quantity {
		s.reportClamp(ctx, line.ID, quantity, applied)
	}
	line.Quantity = applied
	s.persistLocked(ctx)
	return s.stateLocked()
}

// Clear empties the cart. The visibility flag is untouched.
func (s *Store) Clear(ctx context.Context) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	s.persistLocked(ctx)
	return s.stateLocked()
}

// Toggle flips the visibility flag without touching items.
func (s *Store) Toggle(ctx context.Context) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.isOpen = !s.isOpen
	s.persistLocked(ctx)
	return s.stateLocked()
}

// SetOpen sets the visibility flag without touching items.
func (s *Store) SetOpen(ctx context.Context, open bool) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.isOpen = open
	s.persistLocked(ctx)
	return s.stateLocked()
}

// State returns an immutable view with freshly recomputed totals.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Store) indexLocked(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) stateLocked() State {
	items := make([]Item, len(s.items))
	copy(items, s.items)

	totalItems := 0
	totalPrice := decimal.Zero
	for _, item := range items {
		totalItems += item.Quantity
		totalPrice = totalPrice.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	return State{
		Items:      items,
		TotalItems: totalItems,
		TotalPrice: totalPrice,
		IsOpen:     s.isOpen,
	}
}

func (s *Store) persistLocked(ctx context.Context) {
	if s.snapshots == nil {
		return
	}

	items := s.items
	if items == nil {
		items = []Item{}
	}
	payload, err := json.Marshal(persistedState{Items: items, IsOpen: s.isOpen})
	if err != nil {
		if s.logg != nil {
			s.logg.Error(s.logg.WithSessionID(ctx, s.sessionID), "encode cart snapshot", err)
		}
		return
	}

	if err := s.snapshots.Save(ctx, s.slot(), payload); err != nil && s.logg != nil {
		s.logg.Error(s.logg.WithSessionID(ctx, s.sessionID), "persist cart snapshot", err)
	}
}

func (s *Store) reportClamp(ctx context.Context, itemID string, requested, applied int) {
	if s.logg != nil {
		fields := map[string]any{
			"item_id":   itemID,
			"requested": requested,
			"applied":   applied,
		}
		s.logg.Info(s.logg.WithFields(s.logg.WithSessionID(ctx, s.sessionID), fields), "cart quantity clamped")
	}
	if s.notify != nil {
		s.notify.QuantityClamped(ctx, s.sessionID, itemID, requested, applied)
	}
}
