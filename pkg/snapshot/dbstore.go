package snapshot

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oskaz/oskaz-api/pkg/db"
	"github.com/oskaz/oskaz-api/pkg/db/models"
)

// DBStore persists each slot as a row in cart_snapshots; the upsert is a
// single statement, which keeps the replacement atomic.
type DBStore struct {
	conn *gorm.DB
}

func NewDBStore(client *db.Client) (*DBStore, error) {
	if client == nil {
		return nil, errors.New("db client is required")
	}
	return &DBStore{conn: client.DB()}, nil
}

func (s *DBStore) Load(ctx context.Context, slot string) ([]byte, error) {
	if err := validSlot(slot); err != nil {
		return nil, err
	}
	var row models.CartSnapshot
	err := s.conn.WithContext(ctx).First(&row, "session_id = ?", slot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return row.Payload, nil
}

func (s *DBStore) Save(ctx context.Context, slot string, payload []byte) error {
	if err := validSlot(slot); err != nil {
		return err
	}
	row := models.CartSnapshot{
		SessionID: slot,
		Payload:   payload,
		UpdatedAt: now().UTC(),
	}
	return s.conn.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
		}).
		Create(&row).Error
}

func (s *DBStore) Delete(ctx context.Context, slot string) error {
	if err := validSlot(slot); err != nil {
		return err
	}
	return s.conn.WithContext(ctx).
		Delete(&models.CartSnapshot{}, "session_id = ?", slot).Error
}
