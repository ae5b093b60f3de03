package statex

import (
	"context"

	"github.com/allegro/bigcache/v3"
	"github.com/pkg/errors"
)

// BigCacheStore is a byte-oriented bounded store. It only holds []byte;
// wrap it with JSONTransform to store typed entries.
type BigCacheStore struct {
	cache *bigcache.BigCache
}

var _ Store[[]byte] = &BigCacheStore{}

// BigCacheStoreConfig holds configuration for BigCacheStore
type BigCacheStoreConfig struct {
	bigcache.Config
}

// NewBigCacheStore creates a new BigCache-backed store
func NewBigCacheStore(ctx context.Context, config BigCacheStoreConfig) (*BigCacheStore, error) {
	cache, err := bigcache.New(ctx, config.Config)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create bigcache store")
	}

	return &BigCacheStore{
		cache: cache,
	}, nil
}

// Set stores a value in the store
func (b *BigCacheStore) Set(_ context.Context, key string, value []byte) error {
	if err := b.cache.Set(key, value); err != nil {
		return errors.Wrapf(err, "failed to set value in bigcache store for key: %s", key)
	}
	return nil
}

// Get retrieves a value from the store
func (b *BigCacheStore) Get(_ context.Context, key string) ([]byte, error) {
	data, err := b.cache.Get(key)
	if err != nil {
		if errors.Is(err, bigcache.ErrEntryNotFound) {
			return nil, errors.Wrapf(&ErrEntryNotFound{}, "entry not found in bigcache store for key: %s", key)
		}
		return nil, errors.Wrapf(err, "failed to get value from bigcache store for key: %s", key)
	}
	return data, nil
}

// Del removes a value from the store
func (b *BigCacheStore) Del(_ context.Context, key string) error {
	if err := b.cache.Delete(key); err != nil {
		if errors.Is(err, bigcache.ErrEntryNotFound) {
			return nil
		}
		return errors.Wrapf(err, "failed to delete value from bigcache store for key: %s", key)
	}
	return nil
}

// Close closes the store and releases resources
func (b *BigCacheStore) Close() error {
	if err := b.cache.Close(); err != nil {
		return errors.Wrap(err, "failed to close bigcache store")
	}
	return nil
}
