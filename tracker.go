package statex

import (
	"sync"
	"time"
)

// Tracker registers in-flight asynchronous operations by key and guarantees
// at most one concurrent execution per key. Unlike singleflight it never
// blocks a second caller waiting on the first's result: Begin returns false
// immediately so the intent can be dropped as a deliberate no-op.
//
// A Tracker instance is typically shared by every container in the process
// so screens re-entering the same key observe the same suppression.
type Tracker struct {
	mu       sync.Mutex
	inflight map[string]time.Time
}

func NewTracker() *Tracker {
	return &Tracker{
		inflight: make(map[string]time.Time),
	}
}

// Begin registers an operation handle for key. It returns false and does
// nothing if a handle is already registered; the caller must skip
// re-issuing the call. Between any two Ends for a key, Begin returns true
// at most once.
func (t *Tracker) Begin(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.inflight[key]; ok {
		return false
	}
	t.inflight[key] = NowFunc()
	return true
}

// End removes the handle for key regardless of the operation's outcome.
// Call it from a deferred cleanup path so handles never leak.
func (t *Tracker) End(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.inflight, key)
}

// IsOngoing is a read-only probe, used by the UI to render spinners.
func (t *Tracker) IsOngoing(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.inflight[key]
	return ok
}

// StartedAt returns when the in-flight operation for key began.
func (t *Tracker) StartedAt(key string) (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	started, ok := t.inflight[key]
	return started, ok
}
