package models

import "time"

// CartSnapshot is the durable server-side copy of a cart session. Payload is
// the serialized cart state (items + visibility flag); totals are derived and
// never stored.
type CartSnapshot struct {
	SessionID string    `gorm:"primaryKey;size:64" json:"session_id"`
	Payload   []byte    `gorm:"type:bytes;not null" json:"payload"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (CartSnapshot) TableName() string {
	return "cart_snapshots"
}

// WebhookEvent records every accepted identity-provider event for auditing.
type WebhookEvent struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	EventID    string    `gorm:"uniqueIndex;size:64;not null" json:"event_id"`
	EventType  string    `gorm:"size:64;not null" json:"event_type"`
	Email      string    `gorm:"size:255" json:"email"`
	ReceivedAt time.Time `gorm:"not null" json:"received_at"`
}

func (WebhookEvent) TableName() string {
	return "webhook_events"
}
