package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// defaultSnapshotKey is where the governor snapshot lives in Redis.
const defaultSnapshotKey = "riskgov:snapshot"

// RedisStore persists the governor snapshot as a JSON blob in Redis.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore creates a Redis-backed snapshot store.
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = defaultSnapshotKey
	}
	return &RedisStore{client: client, key: key}
}

// Save overwrites the stored snapshot.
func (rs *RedisStore) Save(ctx context.Context, snap *Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := rs.client.Set(ctx, rs.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write snapshot to redis: %w", err)
	}

	log.Debug().Str("key", rs.key).Int("bytes", len(data)).Msg("governor snapshot saved")
	return nil
}

// Load fetches the stored snapshot; found=false when none exists yet.
func (rs *RedisStore) Load(ctx context.Context) (*Snapshot, bool, error) {
	data, err := rs.client.Get(ctx, rs.key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read snapshot from redis: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	return &snap, true, nil
}
