package toast

import (
	"context"
	"testing"
	"time"
)

func newTestCenter(t *testing.T) (*Center, *time.Time) {
	t.Helper()
	center, err := NewCenter(5 * time.Second)
	if err != nil {
		t.Fatalf("NewCenter: %v", err)
	}
	current := time.Now()
	center.now = func() time.Time { return current }
	return center, &current
}

func TestPushAndListInCreationOrder(t *testing.T) {
	t.Parallel()

	center, _ := newTestCenter(t)

	first, err := center.Push("sid", LevelInfo, "saved")
	if err != nil {
		t.Fatalf("Push: %v", err)
	}
	second, _ := center.Push("sid", LevelSuccess, "order placed")

	visible := center.List("sid")
	if len(visible) != 2 || visible[0].ID != first.ID || visible[1].ID != second.ID {
		t.Fatalf("unexpected queue %+v", visible)
	}
	if visible[0].ExpiresAt.Sub(visible[0].CreatedAt) != 5*time.Second {
		t.Fatalf("visible duration not applied: %+v", visible[0])
	}
}

func TestPushValidatesInput(t *testing.T) {
	t.Parallel()

	center, _ := newTestCenter(t)

	if _, err := center.Push("", LevelInfo, "x"); err == nil {
		t.Fatalf("expected missing session to fail")
	}
	if _, err := center.Push("sid", "loud", "x"); err == nil {
		t.Fatalf("expected unknown level to fail")
	}
	if _, err := center.Push("sid", LevelInfo, "   "); err == nil {
		t.Fatalf("expected blank message to fail")
	}
}

func TestListHidesExpiredEntries(t *testing.T) {
	t.Parallel()

	center, current := newTestCenter(t)
	center.Push("sid", LevelInfo, "fleeting")

	*current = current.Add(6 * time.Second)

	if visible := center.List("sid"); len(visible) != 0 {
		t.Fatalf("expired toast still listed: %+v", visible)
	}
}

func TestDismissCancelsEarly(t *testing.T) {
	t.Parallel()

	center, _ := newTestCenter(t)
	entry, _ := center.Push("sid", LevelWarning, "heads up")

	if !center.Dismiss("sid", entry.ID) {
		t.Fatalf("expected dismissal to succeed")
	}
	if center.Dismiss("sid", entry.ID) {
		t.Fatalf("second dismissal must be a no-op")
	}
	if visible := center.List("sid"); len(visible) != 0 {
		t.Fatalf("dismissed toast still listed: %+v", visible)
	}
}

func TestSweepRemovesAcrossSessions(t *testing.T) {
	t.Parallel()

	center, current := newTestCenter(t)
	center.Push("a", LevelInfo, "one")
	center.Push("b", LevelInfo, "two")
	*current = current.Add(time.Second)
	center.Push("b", LevelInfo, "three")

	*current = current.Add(4*time.Second + 500*time.Millisecond)

	if removed := center.Sweep(); removed != 2 {
		t.Fatalf("expected 2 expired, got %d", removed)
	}
	if visible := center.List("b"); len(visible) != 1 || visible[0].Message != "three" {
		t.Fatalf("unexpected survivors %+v", visible)
	}
}

func TestClampNotifierPushesWarning(t *testing.T) {
	t.Parallel()

	center, _ := newTestCenter(t)
	notifier, err := NewClampNotifier(center)
	if err != nil {
		t.Fatalf("NewClampNotifier: %v", err)
	}

	notifier.QuantityClamped(context.Background(), "sid", "widget", 10, 5)
	notifier.QuantityClamped(context.Background(), "sid", "widget", 3, 3)

	visible := center.List("sid")
	if len(visible) != 1 || visible[0].Level != LevelWarning {
		t.Fatalf("expected one warning toast, got %+v", visible)
	}
}
