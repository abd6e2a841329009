package toast

import (
	"context"
	"fmt"
)

// ClampNotifier surfaces silent cart quantity adjustments as warnings so the
// shopper learns why the applied quantity differs from the requested one.
type ClampNotifier struct {
	center *Center
}

// NewClampNotifier wires cart clamp events into the toast center.
func NewClampNotifier(center *Center) (*ClampNotifier, error) {
	if center == nil {
		return nil, fmt.Errorf("toast center required")
	}
	return &ClampNotifier{center: center}, nil
}

// QuantityClamped pushes a warning toast for the session.
func (n *ClampNotifier) QuantityClamped(_ context.Context, sessionID, _ string, requested, applied int) {
	if requested == applied {
		return
	}
	message := fmt.Sprintf("Quantity adjusted from %d to %d due to availability limits", requested, applied)
	_, _ = n.center.Push(sessionID, LevelWarning, message)
}
