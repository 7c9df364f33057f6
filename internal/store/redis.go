package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"adquest/internal/catalog"
	"adquest/internal/types"
)

const redisSnapshotKey = "adquest:snapshot"

// RedisStore keeps the snapshot under a single key. The value is the whole
// serialized state; SET replaces it atomically.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(ctx context.Context, rawURL string) (*RedisStore, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opt.DialTimeout = 5 * time.Second
	opt.ReadTimeout = 3 * time.Second
	opt.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return &RedisStore{client: client}, nil
}

func (r *RedisStore) Load(ctx context.Context) (*types.AppState, error) {
	raw, err := r.client.Get(ctx, redisSnapshotKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return catalog.NewState(), nil
		}
		return nil, err
	}
	return decodeState(raw, "redis:"+redisSnapshotKey), nil
}

func (r *RedisStore) Save(ctx context.Context, state *types.AppState) error {
	raw, err := encodeState(state)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, redisSnapshotKey, raw, 0).Err()
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
