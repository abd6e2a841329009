package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oskaz/oskaz-api/pkg/redis"
)

// RedisStore keeps each slot under a namespaced key with the session TTL, so
// abandoned carts age out on their own.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

func (s *RedisStore) Load(ctx context.Context, slot string) ([]byte, error) {
	if err := validSlot(slot); err != nil {
		return nil, err
	}
	value, err := s.client.Get(ctx, s.client.SnapshotKey(slot))
	if err != nil {
		if redis.IsMissing(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return []byte(value), nil
}

func (s *RedisStore) Save(ctx context.Context, slot string, payload []byte) error {
	if err := validSlot(slot); err != nil {
		return err
	}
	return s.client.Set(ctx, s.client.SnapshotKey(slot), string(payload), s.ttl)
}

func (s *RedisStore) Delete(ctx context.Context, slot string) error {
	if err := validSlot(slot); err != nil {
		return err
	}
	return s.client.Del(ctx, s.client.SnapshotKey(slot))
}
