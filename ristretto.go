package statex

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/pkg/errors"
)

// RistrettoStore is a size-bounded in-memory store. Use it instead of
// SyncMapStore when screens accumulate enough cached responses that
// unbounded retention matters; eviction then happens at the store layer
// without the core carrying an eviction policy of its own.
type RistrettoStore[T any] struct {
	cache *ristretto.Cache[string, T]
	ttl   time.Duration
}

var _ Store[any] = &RistrettoStore[any]{}

// RistrettoStoreConfig holds configuration for RistrettoStore
type RistrettoStoreConfig[T any] struct {
	// Config is the ristretto configuration
	*ristretto.Config[string, T]

	// TTL is the time-to-live for entries. Zero means no expiration; the
	// core's staleness threshold is evaluated independently of store TTL.
	TTL time.Duration
}

// DefaultRistrettoStoreConfig returns a default configuration
func DefaultRistrettoStoreConfig[T any]() *RistrettoStoreConfig[T] {
	return &RistrettoStoreConfig[T]{
		Config: &ristretto.Config[string, T]{
			NumCounters: 1e6,
			MaxCost:     1 << 26, // 64MB, sized for on-device use
			BufferItems: 64,
		},
		TTL: 0,
	}
}

// NewRistrettoStore creates a new ristretto-backed store
func NewRistrettoStore[T any](config *RistrettoStoreConfig[T]) (*RistrettoStore[T], error) {
	cache, err := ristretto.NewCache(config.Config)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create ristretto store")
	}

	return &RistrettoStore[T]{
		cache: cache,
		ttl:   config.TTL,
	}, nil
}

// Set stores a value with cost of 1.
// SetWithTTL may reject an entry under the admission policy; that is not an
// error — the entry is simply absent and the next read falls through to a
// network fetch.
func (r *RistrettoStore[T]) Set(_ context.Context, key string, value T) error {
	success := r.cache.SetWithTTL(key, value, 1, r.ttl)
	if success {
		// Wait ensures buffered writes are applied before returning, so a
		// Put followed by a Get observes the entry.
		r.cache.Wait()
	}
	return nil
}

// Get retrieves a value from the store
func (r *RistrettoStore[T]) Get(_ context.Context, key string) (T, error) {
	var zero T
	value, found := r.cache.Get(key)
	if !found {
		return zero, errors.Wrapf(&ErrEntryNotFound{}, "entry not found in ristretto store for key: %s", key)
	}
	return value, nil
}

// Del removes a value from the store. Wait flushes the deletion through the
// write buffer so a concurrent Get cannot resurrect the entry.
func (r *RistrettoStore[T]) Del(_ context.Context, key string) error {
	r.cache.Del(key)
	r.cache.Wait()
	return nil
}

// Close closes the store and stops all background goroutines
func (r *RistrettoStore[T]) Close() error {
	r.cache.Close()
	return nil
}
