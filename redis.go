package statex

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RedisStore is a Redis-backed store, the external collaborator to use when
// cached responses should be shared beyond one process (several app
// instances behind one account, or survival across restarts).
type RedisStore[T any] struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
}

var _ Store[any] = &RedisStore[any]{}

// RedisStoreConfig holds configuration for RedisStore
type RedisStoreConfig struct {
	// Client is the Redis client (supports both single and cluster)
	Client redis.UniversalClient

	// KeyPrefix is the prefix for all keys (optional)
	KeyPrefix string

	// TTL is the time-to-live for entries. Zero means no expiration.
	TTL time.Duration
}

// NewRedisStore creates a new Redis-backed store with configuration
func NewRedisStore[T any](config *RedisStoreConfig) *RedisStore[T] {
	if config.Client == nil {
		panic("Client is required")
	}

	return &RedisStore[T]{
		client:    config.Client,
		keyPrefix: config.KeyPrefix,
		ttl:       config.TTL,
	}
}

func (r *RedisStore[T]) prefixedKey(key string) string {
	return r.keyPrefix + key
}

// Set stores a JSON-encoded value
func (r *RedisStore[T]) Set(ctx context.Context, key string, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal value for key: %s", key)
	}

	if err := r.client.Set(ctx, r.prefixedKey(key), data, r.ttl).Err(); err != nil {
		return errors.Wrapf(err, "failed to set entry for key: %s", key)
	}

	return nil
}

// Get retrieves a value from the store
func (r *RedisStore[T]) Get(ctx context.Context, key string) (T, error) {
	var zero T

	data, err := r.client.Get(ctx, r.prefixedKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return zero, errors.Wrapf(&ErrEntryNotFound{}, "entry not found in redis store for key: %s", key)
		}
		return zero, errors.Wrapf(err, "failed to get entry for key: %s", key)
	}

	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return zero, errors.Wrapf(err, "failed to unmarshal value for key: %s", key)
	}

	return value, nil
}

// Del removes a value from the store
func (r *RedisStore[T]) Del(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefixedKey(key)).Err(); err != nil {
		return errors.Wrapf(err, "failed to delete entry for key: %s", key)
	}
	return nil
}
