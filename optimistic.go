package statex

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Phase tags an optimistic entry as tentative (local, unconfirmed) or
// confirmed (server truth).
type Phase int8

const (
	PhaseTentative Phase = iota
	PhaseConfirmed
)

// OptimisticEntry is a mutation applied locally before the server confirms
// it. It lives in the coordinator from submission until the matching
// confirmed value arrives (commit) or the call fails (rollback).
type OptimisticEntry[T any] struct {
	ID          string
	Value       T
	Phase       Phase
	SubmittedAt time.Time
}

// ReconcileFunc receives the tentative value immediately and, on success,
// the confirmed value later. Implementations replace the tentative entry by
// id when tentative is false.
type ReconcileFunc[T any] func(entry OptimisticEntry[T])

// Coordinator applies tentative local mutations with zero latency, issues
// the remote operation, and reconciles the outcome. It never retries on its
// own; retry is an explicit caller-initiated action.
type Coordinator[T any] struct {
	logger *slog.Logger

	mu      sync.Mutex
	pending map[string]OptimisticEntry[T]
}

// CoordinatorOption is a functional option for configuring a Coordinator
type CoordinatorOption[T any] func(*Coordinator[T])

// WithCoordinatorLogger sets the logger. If not set, slog.Default() is used.
func WithCoordinatorLogger[T any](logger *slog.Logger) CoordinatorOption[T] {
	return func(c *Coordinator[T]) {
		c.logger = logger
	}
}

func NewCoordinator[T any](opts ...CoordinatorOption[T]) *Coordinator[T] {
	c := &Coordinator[T]{
		logger:  slog.Default(),
		pending: make(map[string]OptimisticEntry[T]),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Apply performs one optimistic mutation:
//
//  1. reconcile is invoked synchronously with the tentative entry so the UI
//     reflects the mutation before any network round trip;
//  2. call runs; on success reconcile is invoked once more with the
//     confirmed entry, signaling the caller to replace the tentative value
//     by id;
//  3. on failure the tentative entry is dropped from the pending set and
//     the wrapped error is returned — the caller removes its tentative UI
//     entry (rollback) and decides whether to retry.
//
// If the entry was invalidated while the call was in flight (screen
// switched context), the late confirmation is discarded silently and logged;
// no reconcile occurs and no error is returned.
func (c *Coordinator[T]) Apply(ctx context.Context, id string, tentative T, call RemoteCall[T], reconcile ReconcileFunc[T]) error {
	entry := OptimisticEntry[T]{
		ID:          id,
		Value:       tentative,
		Phase:       PhaseTentative,
		SubmittedAt: NowFunc(),
	}

	c.mu.Lock()
	c.pending[id] = entry
	c.mu.Unlock()

	reconcile(entry)

	confirmed, err := call(ctx)
	if err != nil {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return errors.Wrapf(err, "remote call failed for optimistic entry: %s", id)
	}

	c.mu.Lock()
	_, tracked := c.pending[id]
	delete(c.pending, id)
	c.mu.Unlock()

	if !tracked {
		c.logger.WarnContext(ctx, "discarding confirmation for untracked optimistic entry", "id", id)
		return nil
	}

	reconcile(OptimisticEntry[T]{
		ID:          id,
		Value:       confirmed,
		Phase:       PhaseConfirmed,
		SubmittedAt: entry.SubmittedAt,
	})
	return nil
}

// Invalidate drops the pending entry for id, if any. A confirmation that
// later arrives for it is discarded.
func (c *Coordinator[T]) Invalidate(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, id)
}

// Pending returns the tracked entry for id.
func (c *Coordinator[T]) Pending(id string) (OptimisticEntry[T], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.pending[id]
	return entry, ok
}

// PendingIDs returns the ids of all in-flight optimistic entries.
func (c *Coordinator[T]) PendingIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.pending))
	for id := range c.pending {
		ids = append(ids, id)
	}
	return ids
}
