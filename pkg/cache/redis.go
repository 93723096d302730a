package cache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/benmeehan/device-locations/internal/models"
	"github.com/redis/go-redis/v9"
)

// RedisCache stores each device entry as a Redis hash keyed by device id.
type RedisCache struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisCache wraps an existing Redis client.
func NewRedisCache(client redis.UniversalClient, keyPrefix string) *RedisCache {
	return &RedisCache{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Connect dials Redis and verifies the connection with PING.
func Connect(ctx context.Context, address, password string, db int, keyPrefix string) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", address, err)
	}
	return NewRedisCache(client, keyPrefix), nil
}

// Write replaces the hash in a single MULTI/EXEC so readers never observe a
// mix of old and new fields.
func (r *RedisCache) Write(ctx context.Context, deviceID int64, entry models.CacheEntry) error {
	key := r.key(deviceID)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(entry) > 0 {
			pipe.HSet(ctx, key, fieldPairs(entry))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write cache entry %s: %w", key, err)
	}
	return nil
}

// ReadAll returns the whole hash. An empty hash is a miss.
func (r *RedisCache) ReadAll(ctx context.Context, deviceID int64) (models.CacheEntry, bool, error) {
	key := r.key(deviceID)
	fields, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache entry %s: %w", key, err)
	}
	if len(fields) == 0 {
		return nil, false, nil
	}
	return models.CacheEntry(fields), true, nil
}

// ReadField returns a single hash field.
func (r *RedisCache) ReadField(ctx context.Context, deviceID int64, field string) (string, bool, error) {
	key := r.key(deviceID)
	value, err := r.client.HGet(ctx, key, field).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read field %s of cache entry %s: %w", field, key, err)
	}
	return value, true, nil
}

// Close releases the underlying connection pool.
func (r *RedisCache) Close() error {
	return r.client.Close()
}

func (r *RedisCache) key(deviceID int64) string {
	return r.keyPrefix + strconv.FormatInt(deviceID, 10)
}

// fieldPairs flattens the entry into field/value pairs in a stable order.
func fieldPairs(entry models.CacheEntry) []string {
	names := make([]string, 0, len(entry))
	for name := range entry {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]string, 0, len(entry)*2)
	for _, name := range names {
		pairs = append(pairs, name, entry[name])
	}
	return pairs
}
