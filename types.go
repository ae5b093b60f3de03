package statex

import (
	"context"
)

// RemoteCall is the abstract network operation supplied by a screen.
// The core has no opinion on transport or endpoint shape; callers wrap
// whatever HTTP/RPC client the application uses. Timeouts and retries
// are the caller's concern, attached via the context or a wrapper.
type RemoteCall[T any] func(ctx context.Context) (T, error)

// Store defines the interface for a generic key-value store backing an
// OperationCache. Absence is signaled with ErrEntryNotFound.
type Store[T any] interface {
	Get(ctx context.Context, key string) (T, error)
	Set(ctx context.Context, key string, value T) error
	Del(ctx context.Context, key string) error
}

// StoreFunc adapts plain get/set/del functions into a Store.
type StoreFunc[T any] struct {
	GetFunc func(ctx context.Context, key string) (T, error)
	SetFunc func(ctx context.Context, key string, value T) error
	DelFunc func(ctx context.Context, key string) error
}

func (f StoreFunc[T]) Get(ctx context.Context, key string) (T, error) {
	return f.GetFunc(ctx, key)
}

func (f StoreFunc[T]) Set(ctx context.Context, key string, value T) error {
	return f.SetFunc(ctx, key, value)
}

func (f StoreFunc[T]) Del(ctx context.Context, key string) error {
	return f.DelFunc(ctx, key)
}
