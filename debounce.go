package statex

import (
	"sync"
	"time"
)

// DebounceGate suppresses repeated low-value signals within a rolling time
// window. It is a best-effort rate limiter for advisory traffic such as
// typing indicators; dropped signals are acceptable by design of the
// consuming endpoint, so no queueing or replay happens here.
type DebounceGate struct {
	mu   sync.Mutex
	last map[string]time.Time
}

func NewDebounceGate() *DebounceGate {
	return &DebounceGate{
		last: make(map[string]time.Time),
	}
}

// Allow returns true and records the current time if no prior accepted
// signal for key occurred within the last window. Otherwise it returns
// false and the caller must drop the signal.
func (g *DebounceGate) Allow(key string, window time.Duration) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := NowFunc()
	if last, ok := g.last[key]; ok && now.Sub(last) < window {
		return false
	}
	g.last[key] = now
	return true
}

// Reset forgets the last accepted time for key, so the next Allow passes.
func (g *DebounceGate) Reset(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.last, key)
}
