package statex

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// SyncMapStore is the default in-process store: unbounded, retained until
// invalidated, gone on process restart. It matches the core's contract of
// a purely in-memory response cache.
type SyncMapStore[T any] struct {
	sync.Map
}

var _ Store[any] = &SyncMapStore[any]{}

func NewSyncMapStore[T any]() *SyncMapStore[T] {
	return &SyncMapStore[T]{}
}

func (s *SyncMapStore[T]) Set(_ context.Context, key string, value T) error {
	s.Store(key, value)
	return nil
}

func (s *SyncMapStore[T]) Get(_ context.Context, key string) (T, error) {
	var zero T
	v, ok := s.Load(key)
	if !ok {
		return zero, errors.Wrapf(&ErrEntryNotFound{}, "entry not found in syncmap store for key: %s", key)
	}
	return v.(T), nil
}

func (s *SyncMapStore[T]) Del(_ context.Context, key string) error {
	s.Delete(key)
	return nil
}
