package snapshot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oskaz/oskaz-api/pkg/config"
	"github.com/oskaz/oskaz-api/pkg/db"
	"github.com/oskaz/oskaz-api/pkg/redis"
)

// ErrNotFound signals that no snapshot exists for the slot. Callers treat it
// as "start from empty state", never as a failure.
var ErrNotFound = errors.New("snapshot not found")

// Store is a durable key/value slot for serialized session state. Saves must
// be atomic replacements so a crash mid-write can never leave a torn payload
// behind.
type Store interface {
	Load(ctx context.Context, slot string) ([]byte, error)
	Save(ctx context.Context, slot string, payload []byte) error
	Delete(ctx context.Context, slot string) error
}

const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendDB    = "db"
)

// New selects the snapshot backend from configuration.
func New(cfg config.CartConfig, redisClient *redis.Client, dbClient *db.Client) (Store, error) {
	backend := strings.ToLower(strings.TrimSpace(cfg.SnapshotBackend))
	switch backend {
	case BackendFile:
		return NewFileStore(cfg.SnapshotDir)
	case BackendRedis, "":
		return NewRedisStore(redisClient, cfg.SessionTTL)
	case BackendDB:
		return NewDBStore(dbClient)
	default:
		return nil, fmt.Errorf("unknown snapshot backend %q", backend)
	}
}

func validSlot(slot string) error {
	if strings.TrimSpace(slot) == "" {
		return errors.New("snapshot slot is required")
	}
	return nil
}

// clock is swapped in db store tests.
var now = time.Now
