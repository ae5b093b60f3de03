package statex

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"
)

var (
	// DefaultStaleThreshold is how long a cached response stays trustworthy
	// for silent reuse.
	DefaultStaleThreshold = time.Minute

	// DefaultDebounceWindow bounds advisory signal dispatch (typing
	// indicators) per signal key.
	DefaultDebounceWindow = time.Second
)

// ScreenState is the snapshot a screen renders reactively. Loading and
// Refreshing are mutually exclusive; Err is non-nil only when the latest
// attempt failed and no cached fallback exists.
type ScreenState[T any] struct {
	Loading     bool
	Refreshing  bool
	Data        T
	HasData     bool
	Err         error
	LastUpdated time.Time
	FromCache   bool
}

// IsStale reports whether the snapshot's data is older than threshold.
// A snapshot that never loaded is stale.
func (s ScreenState[T]) IsStale(threshold time.Duration) bool {
	if s.LastUpdated.IsZero() {
		return true
	}
	return NowFunc().Sub(s.LastUpdated) > threshold
}

// SubscribeFunc opens a realtime subscription owned by the screen and
// returns its teardown. The container calls stop on Disconnect and OnPause.
type SubscribeFunc func(ctx context.Context) (stop func(), err error)

// Container holds one screen's state, receives intents, and drives the
// cache, tracker, debounce gate, and progressive loader. Screens read its
// snapshot stream and never touch cache or tracker internals directly.
//
// Cache and tracker instances are injected, so several containers sharing a
// screen key (re-entering the same conversation) observe the same cached
// value and the same in-flight suppression.
type Container[T any] struct {
	key   string
	fetch RemoteCall[T]

	cache   *OperationCache[T]
	tracker *Tracker
	gate    *DebounceGate

	staleAfter     time.Duration
	debounceWindow time.Duration
	logger         *slog.Logger

	sfg *singleflight.Group

	mu       sync.Mutex
	state    ScreenState[T]
	watchers map[chan ScreenState[T]]struct{}

	subMu sync.Mutex
	stop  func()
}

// ContainerOption is a functional option for configuring a Container
type ContainerOption[T any] func(*Container[T])

// WithCache injects a shared OperationCache. If not set, the container owns
// a private in-memory cache.
func WithCache[T any](cache *OperationCache[T]) ContainerOption[T] {
	return func(c *Container[T]) {
		c.cache = cache
	}
}

// WithTracker injects a shared Tracker.
func WithTracker[T any](tracker *Tracker) ContainerOption[T] {
	return func(c *Container[T]) {
		c.tracker = tracker
	}
}

// WithFetchGroup injects a shared singleflight group. Within one container
// the tracker already admits a single load per key, so coalescing only
// comes into play across containers: two screens on the same key with
// separate trackers converge on one upstream call when they share a fetch
// group. Containers built without this option each own a private group.
func WithFetchGroup[T any](group *singleflight.Group) ContainerOption[T] {
	return func(c *Container[T]) {
		c.sfg = group
	}
}

// WithDebounceGate injects a shared DebounceGate.
func WithDebounceGate[T any](gate *DebounceGate) ContainerOption[T] {
	return func(c *Container[T]) {
		c.gate = gate
	}
}

// WithStaleThreshold sets how long cached data is served without a refetch.
func WithStaleThreshold[T any](threshold time.Duration) ContainerOption[T] {
	return func(c *Container[T]) {
		c.staleAfter = threshold
	}
}

// WithDebounceWindow sets the rolling window for debounced signals.
func WithDebounceWindow[T any](window time.Duration) ContainerOption[T] {
	return func(c *Container[T]) {
		c.debounceWindow = window
	}
}

// WithContainerLogger sets the logger. If not set, slog.Default() is used.
func WithContainerLogger[T any](logger *slog.Logger) ContainerOption[T] {
	return func(c *Container[T]) {
		c.logger = logger
	}
}

// NewContainer creates a container for one screen key with its fetch
// operation.
func NewContainer[T any](key string, fetch RemoteCall[T], opts ...ContainerOption[T]) *Container[T] {
	if key == "" {
		panic("screen key is required")
	}
	if fetch == nil {
		panic("fetch is required")
	}

	c := &Container[T]{
		key:            key,
		fetch:          fetch,
		staleAfter:     DefaultStaleThreshold,
		debounceWindow: DefaultDebounceWindow,
		logger:         slog.Default(),
		watchers:       make(map[chan ScreenState[T]]struct{}),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.staleAfter <= 0 {
		panic("stale threshold must be positive")
	}
	if c.debounceWindow <= 0 {
		panic("debounce window must be positive")
	}
	if c.cache == nil {
		c.cache = NewOperationCache[T](nil)
	}
	if c.tracker == nil {
		c.tracker = NewTracker()
	}
	if c.gate == nil {
		c.gate = NewDebounceGate()
	}
	if c.sfg == nil {
		c.sfg = &singleflight.Group{}
	}

	return c
}

// Key returns the screen key the container operates under.
func (c *Container[T]) Key() string {
	return c.key
}

// State returns the current snapshot.
func (c *Container[T]) State() ScreenState[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Watch subscribes to snapshots. The channel holds the latest snapshot
// only: a slow reader sees the newest state, never a backlog, and never
// blocks the core. The current snapshot is delivered immediately.
func (c *Container[T]) Watch() <-chan ScreenState[T] {
	ch := make(chan ScreenState[T], 1)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.watchers[ch] = struct{}{}
	ch <- c.state
	return ch
}

// Unwatch removes a subscription created by Watch and closes its channel.
func (c *Container[T]) Unwatch(sub <-chan ScreenState[T]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for ch := range c.watchers {
		if ch == sub {
			delete(c.watchers, ch)
			close(ch)
			return
		}
	}
}

// Load handles the "load" intent. If an operation for this key is already
// in flight it returns ErrDuplicateOperation and does nothing. With fresh
// cached data and force false it transitions straight to loaded from cache.
// Otherwise it fetches, writes the cache, and settles to loaded or error.
func (c *Container[T]) Load(ctx context.Context, force bool) error {
	return c.load(ctx, force, false)
}

// Refresh handles the "refresh" intent. A non-silent refresh overlays the
// Refreshing flag while previously rendered data stays visible. A silent
// refresh updates data without touching any loading chrome; only
// LastUpdated moves.
func (c *Container[T]) Refresh(ctx context.Context, silent, force bool) error {
	return c.load(ctx, force, silent)
}

// Retry re-enters loading after an error.
func (c *Container[T]) Retry(ctx context.Context) error {
	return c.load(ctx, true, false)
}

// LoadCached serves whatever the cache holds without touching the network,
// however old it is; the snapshot's age shows through LastUpdated. Used to
// paint the last known data when a fetch is disallowed (offline start).
// Returns ErrStaleData when nothing is cached.
func (c *Container[T]) LoadCached(ctx context.Context) error {
	entry, ok, err := c.cache.Get(ctx, c.key)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Wrapf(&ErrStaleData{Key: c.key}, "cache-only load failed for key: %s", c.key)
	}
	c.commit(entry.Data, entry.WrittenAt, true)
	return nil
}

func (c *Container[T]) load(ctx context.Context, force, silent bool) error {
	if !c.tracker.Begin(c.key) {
		return errors.Wrapf(&ErrDuplicateOperation{Key: c.key}, "load skipped for key: %s", c.key)
	}
	defer c.tracker.End(c.key)

	if !force {
		entry, ok, err := c.cache.Get(ctx, c.key)
		if err != nil {
			c.logger.WarnContext(ctx, "cache read failed, falling through to fetch", "key", c.key, "error", err)
		}
		if ok && !entry.Stale(c.staleAfter) {
			c.commit(entry.Data, entry.WrittenAt, true)
			return nil
		}
	}

	if !silent {
		c.markBusy()
	}

	value, err := c.fetchShared(ctx)
	if err != nil {
		c.fail(ctx, err)
		return err
	}

	if err := c.cache.Put(ctx, c.key, value); err != nil {
		c.logger.WarnContext(ctx, "failed to cache fetched value", "key", c.key, "error", err)
	}

	c.commit(value, NowFunc(), false)
	return nil
}

// LoadTiers handles a progressive load: tiers run independently and each
// successful settlement is merged into the visible data immediately, so the
// screen renders primary-tier content while slower tiers are still in
// flight. Tier failures are logged and do not disturb data already merged.
// The final state is loaded if any tier succeeded; if every tier failed and
// no prior data exists, it is an error state carrying the first failure.
func (c *Container[T]) LoadTiers(ctx context.Context, tiers []Tier[any], merge func(data T, result PartialResult[any]) T) error {
	if !c.tracker.Begin(c.key) {
		return errors.Wrapf(&ErrDuplicateOperation{Key: c.key}, "tiered load skipped for key: %s", c.key)
	}
	defer c.tracker.End(c.key)

	c.markBusy()

	data := c.currentData()
	var firstErr error
	succeeded := 0

	for result := range RunTiers(ctx, tiers, c.logger) {
		if result.Err != nil {
			c.logger.WarnContext(ctx, "tier settled with error", "key", c.key, "tier", result.Tier, "error", result.Err)
			if firstErr == nil {
				firstErr = result.Err
			}
			continue
		}
		succeeded++
		data = merge(data, result)
		c.emitPartial(data)
	}

	if err := ctx.Err(); err != nil {
		// Screen was torn down mid-flight; unsettled tiers are abandoned
		// and produce no data. Busy flags still settle so the container is
		// reusable after a resume.
		c.clearBusy()
		return errors.Wrapf(err, "tiered load abandoned for key: %s", c.key)
	}

	if succeeded == 0 && firstErr != nil {
		c.fail(ctx, firstErr)
		return firstErr
	}

	if err := c.cache.Put(ctx, c.key, data); err != nil {
		c.logger.WarnContext(ctx, "failed to cache tiered result", "key", c.key, "error", err)
	}

	c.commit(data, NowFunc(), false)
	return nil
}

// Signal gates a high-frequency advisory signal (typing indicator) behind
// the debounce window. It returns true when the caller should dispatch the
// signal and false when it must be dropped.
func (c *Container[T]) Signal(signalKey string) bool {
	return c.gate.Allow(c.key+"/"+signalKey, c.debounceWindow)
}

// Update applies a local mutation to the current data and emits the new
// snapshot. Selection intents and optimistic reconciles flow through here.
func (c *Container[T]) Update(apply func(data T) T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Data = apply(c.state.Data)
	c.state.HasData = true
	c.emitLocked()
}

// Invalidate removes this screen's cache entry, forcing the next load to
// hit the network. Used after a confirmed mutation changes server truth.
func (c *Container[T]) Invalidate(ctx context.Context) error {
	return c.cache.Invalidate(ctx, c.key)
}

// IsOngoing reports whether a load for this screen key is in flight.
func (c *Container[T]) IsOngoing() bool {
	return c.tracker.IsOngoing(c.key)
}

// OnResume is the screen-resume lifecycle hook. When the cached data has
// gone stale a silent refresh is enqueued; the visible snapshot is
// undisturbed until LastUpdated bumps.
func (c *Container[T]) OnResume(ctx context.Context) {
	if !c.cache.IsStale(ctx, c.key, c.staleAfter) {
		return
	}
	go func() {
		if err := c.Refresh(ctx, true, true); err != nil && !IsErrDuplicateOperation(err) {
			c.logger.WarnContext(ctx, "silent refresh failed", "key", c.key, "error", err)
		}
	}()
}

// OnPause is the screen-pause lifecycle hook: long-lived subscriptions
// owned by the screen are torn down.
func (c *Container[T]) OnPause() {
	c.Disconnect()
}

// Connect opens the screen's realtime subscription. A second Connect while
// one is live is a no-op.
func (c *Container[T]) Connect(ctx context.Context, subscribe SubscribeFunc) error {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	if c.stop != nil {
		return nil
	}

	stop, err := subscribe(ctx)
	if err != nil {
		return errors.Wrapf(err, "subscribe failed for key: %s", c.key)
	}
	c.stop = stop
	return nil
}

// Disconnect tears down the realtime subscription, if any.
func (c *Container[T]) Disconnect() {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	if c.stop != nil {
		c.stop()
		c.stop = nil
	}
}

// fetchShared issues the network fetch through the singleflight group.
// With a group shared via WithFetchGroup, concurrent demand for the same
// key from containers with separate trackers converges on one upstream
// call; within a single container the tracker already serializes loads.
func (c *Container[T]) fetchShared(ctx context.Context) (T, error) {
	var zero T

	resChan := c.sfg.DoChan(c.key, func() (result any, resultErr error) {
		defer func() {
			if r := recover(); r != nil {
				c.logger.ErrorContext(ctx, "panic during fetch",
					"key", c.key,
					"panic", r,
					"stack", string(debug.Stack()))
				var zero T
				result = zero
				resultErr = errors.Errorf("panic during fetch: %v", r)
			}
		}()
		return c.fetch(ctx)
	})

	select {
	case <-ctx.Done():
		return zero, errors.Wrapf(ctx.Err(), "context cancelled during fetch for key: %s", c.key)
	case res := <-resChan:
		if res.Err != nil {
			return zero, errors.Wrapf(res.Err, "fetch failed for key: %s", c.key)
		}
		return res.Val.(T), nil
	}
}

func (c *Container[T]) currentData() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Data
}

func (c *Container[T]) markBusy() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.HasData {
		c.state.Refreshing = true
	} else {
		c.state.Loading = true
	}
	c.state.Err = nil
	c.emitLocked()
}

// clearBusy settles the loading chrome without touching data, error, or
// timestamps.
func (c *Container[T]) clearBusy() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Loading = false
	c.state.Refreshing = false
	c.emitLocked()
}

func (c *Container[T]) commit(data T, at time.Time, fromCache bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Loading = false
	c.state.Refreshing = false
	c.state.Data = data
	c.state.HasData = true
	c.state.Err = nil
	c.state.LastUpdated = at
	c.state.FromCache = fromCache
	c.emitLocked()
}

// fail settles a fetch failure. With a cached fallback on screen the data
// stays visible and the snapshot carries no error; the caller still gets
// the error back to surface transient feedback.
func (c *Container[T]) fail(ctx context.Context, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Loading = false
	c.state.Refreshing = false
	if c.state.HasData {
		c.logger.WarnContext(ctx, "fetch failed, keeping cached data visible", "key", c.key, "error", err)
	} else {
		c.state.Err = err
	}
	c.emitLocked()
}

func (c *Container[T]) emitPartial(data T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Data = data
	c.state.HasData = true
	c.emitLocked()
}

// emitLocked publishes the current snapshot to every watcher, replacing any
// undelivered prior snapshot. Callers must hold c.mu.
func (c *Container[T]) emitLocked() {
	for ch := range c.watchers {
		select {
		case <-ch:
		default:
		}
		ch <- c.state
	}
}
