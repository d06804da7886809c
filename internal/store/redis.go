package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps snapshots as JSON values under a key prefix.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, addr, password string, db int, prefix string) (*RedisStore, error) {
	if addr == "" {
		return nil, errors.New("redis store requires an address")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}

	return &RedisStore{client: client, prefix: prefix}, nil
}

// Load reads the snapshot stored under name.
func (r *RedisStore) Load(ctx context.Context, name string) (Snapshot, error) {
	key, err := r.key(name)
	if err != nil {
		return Snapshot{}, err
	}

	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Snapshot{}, ErrNotFound
		}
		return Snapshot{}, fmt.Errorf("get %s: %w", key, err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal([]byte(val), &snapshot); err != nil {
		return Snapshot{}, fmt.Errorf("decode %s: %w", key, err)
	}
	return snapshot, nil
}

// Save stores the snapshot without expiration.
func (r *RedisStore) Save(ctx context.Context, snapshot Snapshot) error {
	snapshot, err := stamp(snapshot)
	if err != nil {
		return err
	}
	key, err := r.key(snapshot.Name)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return r.client.Set(ctx, key, payload, 0).Err()
}

// Delete removes the snapshot. Deleting a missing snapshot returns ErrNotFound.
func (r *RedisStore) Delete(ctx context.Context, name string) error {
	key, err := r.key(name)
	if err != nil {
		return err
	}
	n, err := r.client.Del(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Close closes the Redis connection.
func (r *RedisStore) Close() error {
	return r.client.Close()
}

func (r *RedisStore) key(name string) (string, error) {
	normalized, err := normalizeName(name)
	if err != nil {
		return "", err
	}
	return r.prefix + normalized, nil
}
