package clerkwebhook

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oskaz/oskaz-api/pkg/db/models"
)

// Repository persists the webhook delivery audit trail.
type Repository interface {
	Record(ctx context.Context, event *models.WebhookEvent) error
	FindByEventID(ctx context.Context, eventID string) (*models.WebhookEvent, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) (Repository, error) {
	if db == nil {
		return nil, fmt.Errorf("db handle required")
	}
	return &repository{db: db}, nil
}

// Record inserts the event, ignoring redeliveries of the same event id.
func (r *repository) Record(ctx context.Context, event *models.WebhookEvent) error {
	if event == nil || event.EventID == "" {
		return fmt.Errorf("event id required")
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}},
			DoNothing: true,
		}).
		Create(event).Error
}

func (r *repository) FindByEventID(ctx context.Context, eventID string) (*models.WebhookEvent, error) {
	var event models.WebhookEvent
	err := r.db.WithContext(ctx).Where("event_id = ?", eventID).First(&event).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}
