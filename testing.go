package statex

import (
	"sync"
	"time"
)

// MockClock is a controllable time source for exercising time-dependent
// behavior deterministically: entry staleness thresholds, debounce windows,
// and LastUpdated bumps from silent refreshes. Advance the clock instead of
// sleeping through real thresholds.
type MockClock struct {
	mu      sync.RWMutex
	current time.Time
}

// NewMockClock creates a mock clock frozen at start.
func NewMockClock(start time.Time) *MockClock {
	return &MockClock{
		current: start,
	}
}

// Now returns the current mocked time. Safe to call from the goroutines a
// container or coordinator spawns.
func (m *MockClock) Now() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Advance moves the clock forward by d. Cache entries written before the
// call age accordingly on the next staleness check.
func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = m.current.Add(d)
}

// Set jumps the clock to a specific time.
func (m *MockClock) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = t
}

// Install points the package-level NowFunc at this clock, so every
// timestamp the core takes (Entry.WrittenAt, tracker handles, debounce
// accept times) comes from it. The returned func restores the original
// time source; defer it in tests:
//
//	clock := NewMockClock(time.Now())
//	defer clock.Install()()
func (m *MockClock) Install() func() {
	originalNowFunc := NowFunc
	NowFunc = m.Now
	return func() {
		NowFunc = originalNowFunc
	}
}
