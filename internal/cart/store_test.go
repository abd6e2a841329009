package cart

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/oskaz/oskaz-api/pkg/snapshot"
)

type memorySnapshots struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemorySnapshots() *memorySnapshots {
	return &memorySnapshots{data: make(map[string][]byte)}
}

func (m *memorySnapshots) Load(_ context.Context, slot string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	payload, ok := m.data[slot]
	if !ok {
		return nil, snapshot.ErrNotFound
	}
	return payload, nil
}

func (m *memorySnapshots) Save(_ context.Context, slot string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[slot] = payload
	return nil
}

func (m *memorySnapshots) Delete(_ context.Context, slot string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, slot)
	return nil
}

type recordedClamp struct {
	itemID    string
	requested int
	applied   int
}

type recordingNotifier struct {
	clamps []recordedClamp
}

func (r *recordingNotifier) QuantityClamped(_ context.Context, _, itemID string, requested, applied int) {
	r.clamps = append(r.clamps, recordedClamp{itemID: itemID, requested: requested, applied: applied})
}

func widget() Item {
	return Item{
		ID:          "widget",
		Name:        "Widget",
		ItemCode:    "WID-001",
		Price:       decimal.NewFromFloat(9.99),
		Currency:    "EUR",
		Stock:       5,
		MinOrderQty: 2,
		ItemGroup:   "Hardware",
	}
}

func gadget() Item {
	return Item{
		ID:          "gadget",
		Name:        "Gadget",
		ItemCode:    "GAD-001",
		Price:       decimal.NewFromFloat(2.50),
		Currency:    "EUR",
		Stock:       100,
		MinOrderQty: 1,
	}
}

func assertTotalsConsistent(t *testing.T, state State) {
	t.Helper()

	wantItems := 0
	wantPrice := decimal.Zero
	for _, item := range state.Items {
		wantItems += item.Quantity
		wantPrice = wantPrice.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	if state.TotalItems != wantItems {
		t.Fatalf("totalItems=%d, recomputed=%d", state.TotalItems, wantItems)
	}
	if !state.TotalPrice.Equal(wantPrice) {
		t.Fatalf("totalPrice=%s, recomputed=%s", state.TotalPrice, wantPrice)
	}
}

func TestAddItemClampsToStock(t *testing.T) {
	t.Parallel()

	notify := &recordingNotifier{}
	store := NewStore(context.Background(), "sid", newMemorySnapshots(), nil, notify)

	state := store.AddItem(context.Background(), widget(), 10)

	if len(state.Items) != 1 {
		t.Fatalf("expected one line, got %d", len(state.Items))
	}
	if got := state.Items[0].Quantity; got != 5 {
		t.Fatalf("expected quantity clamped to stock 5, got %d", got)
	}
	if len(notify.clamps) != 1 || notify.clamps[0].requested != 10 || notify.clamps[0].applied != 5 {
		t.Fatalf("expected clamp to be surfaced, got %+v", notify.clamps)
	}
	assertTotalsConsistent(t, state)
}

func TestAddItemClampsUpToMinOrderQty(t *testing.T) {
	t.Parallel()

	store := NewStore(context.Background(), "sid", newMemorySnapshots(), nil, nil)

	state := store.AddItem(context.Background(), widget(), 0)
	if got := state.Items[0].Quantity; got != 2 {
		t.Fatalf("expected at least minOrderQty 2, got %d", got)
	}

	state = store.Clear(context.Background())
	state = store.AddItem(context.Background(), widget(), -3)
	if got := state.Items[0].Quantity; got != 2 {
		t.Fatalf("negative quantity should clamp up to 2, got %d", got)
	}
	assertTotalsConsistent(t, state)
}

func TestAddItemMergesSameID(t *testing.T) {
	t.Parallel()

	store := NewStore(context.Background(), "sid", newMemorySnapshots(), nil, nil)

	store.AddItem(context.Background(), widget(), 2)
	state := store.AddItem(context.Background(), widget(), 2)

	if len(state.Items) != 1 {
		t.Fatalf("expected merged line, got %d lines", len(state.Items))
	}
	if got := state.Items[0].Quantity; got != 4 {
		t.Fatalf("expected merged quantity 4, got %d", got)
	}
	assertTotalsConsistent(t, state)
}

func TestAddItemPreservesInsertionOrder(t *testing.T) {
	t.Parallel()

	store := NewStore(context.Background(), "sid", newMemorySnapshots(), nil, nil)

	store.AddItem(context.Background(), widget(), 2)
	store.AddItem(context.Background(), gadget(), 1)
	state := store.AddItem(context.Background(), widget(), 1)

	if state.Items[0].ID != "widget" || state.Items[1].ID != "gadget" {
		t.Fatalf("insertion order not preserved: %+v", state.Items)
	}
}

func TestUpdateQuantityZeroRemovesLine(t *testing.T) {
	t.Parallel()

	store := NewStore(context.Background(), "sid", newMemorySnapshots(), nil, nil)

	store.AddItem(context.Background(), widget(), 3)
	store.AddItem(context.Background(), gadget(), 2)
	state := store.UpdateQuantity(context.Background(), "widget", 0)

	if len(state.Items) != 1 || state.Items[0].ID != "gadget" {
		t.Fatalf("expected widget removed, got %+v", state.Items)
	}
	if state.TotalItems != 2 {
		t.Fatalf("zero-quantity line must not count, totalItems=%d", state.TotalItems)
	}
	assertTotalsConsistent(t, state)
}

func TestUpdateQuantityClampsWithinBounds(t *testing.T) {
	t.Parallel()

	store := NewStore(context.Background(), "sid", newMemorySnapshots(), nil, nil)
	store.AddItem(context.Background(), widget(), 3)

	state := store.UpdateQuantity(context.Background(), "widget", 99)
	if got := state.Items[0].Quantity; got != 5 {
		t.Fatalf("expected clamp to stock 5, got %d", got)
	}

	state = store.UpdateQuantity(context.Background(), "widget", 1)
	if got := state.Items[0].Quantity; got != 2 {
		t.Fatalf("expected clamp up to minOrderQty 2, got %d", got)
	}
	assertTotalsConsistent(t, state)
}

func TestRemoveItemUnknownIDIsNoOp(t *testing.T) {
	t.Parallel()

	store := NewStore(context.Background(), "sid", newMemorySnapshots(), nil, nil)
	store.AddItem(context.Background(), widget(), 2)
	before := store.State()

	after := store.RemoveItem(context.Background(), "missing")

	if len(after.Items) != len(before.Items) {
		t.Fatalf("remove of unknown id must not change items")
	}
	if after.TotalItems != before.TotalItems || !after.TotalPrice.Equal(before.TotalPrice) {
		t.Fatalf("remove of unknown id must not change totals")
	}
}

func TestUpdateQuantityUnknownIDIsNoOp(t *testing.T) {
	t.Parallel()

	store := NewStore(context.Background(), "sid", newMemorySnapshots(), nil, nil)
	store.AddItem(context.Background(), widget(), 2)

	state := store.UpdateQuantity(context.Background(), "missing", 7)
	if len(state.Items) != 1 || state.Items[0].Quantity != 2 {
		t.Fatalf("update of unknown id must not change state: %+v", state.Items)
	}
}

func TestClearEmptiesItemsButKeepsVisibility(t *testing.T) {
	t.Parallel()

	store := NewStore(context.Background(), "sid", newMemorySnapshots(), nil, nil)
	store.AddItem(context.Background(), widget(), 2)
	store.SetOpen(context.Background(), true)

	state := store.Clear(context.Background())

	if len(state.Items) != 0 || state.TotalItems != 0 || !state.TotalPrice.IsZero() {
		t.Fatalf("clear did not reset items/totals: %+v", state)
	}
	if !state.IsOpen {
		t.Fatalf("clear must not touch the visibility flag")
	}
}

func TestToggleTwiceRestoresVisibility(t *testing.T) {
	t.Parallel()

	store := NewStore(context.Background(), "sid", newMemorySnapshots(), nil, nil)
	store.AddItem(context.Background(), widget(), 2)
	before := store.State()

	store.Toggle(context.Background())
	after := store.Toggle(context.Background())

	if after.IsOpen != before.IsOpen {
		t.Fatalf("double toggle must restore the flag")
	}
	if len(after.Items) != len(before.Items) {
		t.Fatalf("toggle must never touch items")
	}
}

func TestTotalsConsistentAcrossRandomishSequence(t *testing.T) {
	t.Parallel()

	store := NewStore(context.Background(), "sid", newMemorySnapshots(), nil, nil)
	ctx := context.Background()

	steps := []func() State{
		func() State { return store.AddItem(ctx, widget(), 3) },
		func() State { return store.AddItem(ctx, gadget(), 7) },
		func() State { return store.UpdateQuantity(ctx, "gadget", 50) },
		func() State { return store.AddItem(ctx, widget(), 9) },
		func() State { return store.RemoveItem(ctx, "widget") },
		func() State { return store.UpdateQuantity(ctx, "gadget", -1) },
		func() State { return store.AddItem(ctx, gadget(), 1) },
	}

	for i, step := range steps {
		state := step()
		assertTotalsConsistent(t, state)
		for _, item := range state.Items {
			if item.Quantity < 1 {
				t.Fatalf("step %d left a zero-quantity line: %+v", i, item)
			}
		}
	}
}

func TestSnapshotRoundTripRestoresItems(t *testing.T) {
	t.Parallel()

	snapshots := newMemorySnapshots()
	ctx := context.Background()

	store := NewStore(ctx, "sid", snapshots, nil, nil)
	store.AddItem(ctx, widget(), 3)
	store.AddItem(ctx, gadget(), 2)
	store.SetOpen(ctx, true)

	restored := NewStore(ctx, "sid", snapshots, nil, nil)
	state := restored.State()

	if len(state.Items) != 2 {
		t.Fatalf("expected restored items, got %+v", state.Items)
	}
	if !state.IsOpen {
		t.Fatalf("visibility flag should survive the round trip")
	}
	assertTotalsConsistent(t, state)
	if state.TotalItems != 5 {
		t.Fatalf("expected totals recomputed on load, totalItems=%d", state.TotalItems)
	}
}

func TestCorruptSnapshotFallsBackToEmpty(t *testing.T) {
	t.Parallel()

	snapshots := newMemorySnapshots()
	ctx := context.Background()

	store := NewStore(ctx, "sid", snapshots, nil, nil)
	store.AddItem(ctx, widget(), 3)

	snapshots.data["cart:sid"] = []byte("{not json")

	restored := NewStore(ctx, "sid", snapshots, nil, nil)
	state := restored.State()

	if len(state.Items) != 0 || state.TotalItems != 0 || !state.TotalPrice.IsZero() {
		t.Fatalf("corrupt snapshot must yield an empty cart, got %+v", state)
	}
}

func TestClearSurvivesReload(t *testing.T) {
	t.Parallel()

	snapshots := newMemorySnapshots()
	ctx := context.Background()

	store := NewStore(ctx, "sid", snapshots, nil, nil)
	store.AddItem(ctx, widget(), 3)
	store.Clear(ctx)

	restored := NewStore(ctx, "sid", snapshots, nil, nil)
	state := restored.State()

	if len(state.Items) != 0 || state.TotalItems != 0 || !state.TotalPrice.IsZero() {
		t.Fatalf("cleared cart must reload empty, got %+v", state)
	}
}

func TestAddItemFloorsNegativePriceAtZero(t *testing.T) {
	t.Parallel()

	store := NewStore(context.Background(), "sid", newMemorySnapshots(), nil, nil)

	bogus := gadget()
	bogus.Price = decimal.NewFromFloat(-5)

	state := store.AddItem(context.Background(), bogus, 3)

	if got := state.Items[0].Price; !got.IsZero() {
		t.Fatalf("expected negative price floored to zero, got %s", got)
	}
	if state.TotalPrice.IsNegative() {
		t.Fatalf("cart total must never go negative, got %s", state.TotalPrice)
	}
	assertTotalsConsistent(t, state)
}
