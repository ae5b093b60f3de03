package statex

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// OperationCache is a keyed store of previously fetched results with
// last-write timestamps. It answers "is this still fresh?" for the
// container's load path. Writes replace the prior entry wholesale, so a
// reader never observes a partial overwrite.
//
// The backing Store decides retention: the default SyncMapStore keeps
// entries until Invalidate, while RistrettoStore/BigCacheStore bound memory
// and may evict. Durability across restarts is a backend concern
// (GORMStore, RedisStore), not cache policy.
type OperationCache[T any] struct {
	store Store[Entry[T]]
}

// NewOperationCache creates a cache over the given store. A nil store
// defaults to an in-memory SyncMapStore.
func NewOperationCache[T any](store Store[Entry[T]]) *OperationCache[T] {
	if store == nil {
		store = NewSyncMapStore[Entry[T]]()
	}
	return &OperationCache[T]{store: store}
}

// Get returns the stored entry for key. The second return is false when no
// entry is present; backend failures other than absence are returned as
// errors.
func (c *OperationCache[T]) Get(ctx context.Context, key string) (Entry[T], bool, error) {
	entry, err := c.store.Get(ctx, key)
	if err != nil {
		if IsErrEntryNotFound(err) {
			return Entry[T]{}, false, nil
		}
		return Entry[T]{}, false, errors.Wrapf(err, "get from cache store failed for key: %s", key)
	}
	return entry, true, nil
}

// Put overwrites the entry for key atomically, stamping WrittenAt with the
// current time.
func (c *OperationCache[T]) Put(ctx context.Context, key string, value T) error {
	entry := Entry[T]{
		Data:      value,
		WrittenAt: NowFunc(),
	}
	if err := c.store.Set(ctx, key, entry); err != nil {
		return errors.Wrapf(err, "put to cache store failed for key: %s", key)
	}
	return nil
}

// IsStale reports whether the entry for key is absent or older than
// threshold. An absent key is stale. Backend read failures are treated as
// stale so callers fall through to a fetch instead of erroring.
func (c *OperationCache[T]) IsStale(ctx context.Context, key string, threshold time.Duration) bool {
	entry, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return true
	}
	return entry.Stale(threshold)
}

// Invalidate removes the entry for key. Used after a confirmed mutation
// changes server-side truth, and by explicit cache-clear intents.
func (c *OperationCache[T]) Invalidate(ctx context.Context, key string) error {
	if err := c.store.Del(ctx, key); err != nil {
		return errors.Wrapf(err, "invalidate cache store failed for key: %s", key)
	}
	return nil
}
