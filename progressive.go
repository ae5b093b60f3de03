package statex

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"
)

// Tier is one named group of data within a screen's load sequence,
// declared in priority order (primary, secondary, ...).
type Tier[T any] struct {
	Name string
	Load RemoteCall[T]
}

// PartialResult is the settlement of a single tier: a value or an error,
// never both.
type PartialResult[T any] struct {
	Tier  string
	Value T
	Err   error
}

// RunTiers executes tiers independently and streams each settlement the
// instant it resolves, so a consumer can merge partial data into the
// visible state instead of waiting for the slowest tier.
//
// Tiers are initiated in declaration order but complete in whatever order
// their calls finish; consumers must not assume completion order. A tier's
// failure or latency never delays another tier. The returned channel is
// closed once every tier has settled or ctx is done, whichever comes
// first; results arriving after cancellation are discarded.
func RunTiers[T any](ctx context.Context, tiers []Tier[T], logger *slog.Logger) <-chan PartialResult[T] {
	if logger == nil {
		logger = slog.Default()
	}

	out := make(chan PartialResult[T])
	done := make(chan struct{})

	settled := make(chan PartialResult[T])
	for _, tier := range tiers {
		started := make(chan struct{})
		go func(tier Tier[T]) {
			close(started)
			result := PartialResult[T]{Tier: tier.Name}
			result.Value, result.Err = runTier(ctx, tier)
			select {
			case settled <- result:
			case <-done:
				logger.DebugContext(ctx, "discarding tier result after cancellation",
					"tier", tier.Name, "error", result.Err)
			}
		}(tier)
		// Dispatch tiers in declaration order without letting one tier's
		// latency delay the next from starting.
		<-started
	}

	go func() {
		defer close(out)
		defer close(done)
		for range tiers {
			select {
			case result := <-settled:
				select {
				case out <- result:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

func runTier[T any](ctx context.Context, tier Tier[T]) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			value = zero
			err = errors.Errorf("panic during tier load: %v", r)
		}
	}()
	value, err = tier.Load(ctx)
	if err != nil {
		err = errors.Wrapf(err, "tier load failed: %s", tier.Name)
	}
	return value, err
}
