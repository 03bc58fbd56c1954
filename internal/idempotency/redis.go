package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const inProgressMarker = "in_progress"

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    ttl,
	}
}

type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func (r *RedisStore) Begin(ctx context.Context, key string) (*Record, bool, error) {
	k := storeKey(key)

	ok, err := r.client.SetNX(ctx, k, inProgressMarker, r.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("redis setnx failed: %w", err)
	}
	if ok {
		return nil, true, nil
	}

	data, err := r.client.Get(ctx, k).Bytes()
	if errors.Is(err, redis.Nil) {
		// expired between SETNX and GET, treat as in flight
		return nil, false, ErrInProgress
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}
	if string(data) == inProgressMarker {
		return nil, false, ErrInProgress
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, false, fmt.Errorf("unmarshal idempotency record failed: %w", err)
	}
	return &rec, false, nil
}

func (r *RedisStore) Complete(ctx context.Context, key string, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal idempotency record failed: %w", err)
	}

	if err := r.client.Set(ctx, storeKey(key), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisStore) Release(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, storeKey(key)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func storeKey(key string) string {
	return fmt.Sprintf("idem:order:%s", key)
}
