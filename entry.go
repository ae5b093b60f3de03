package statex

import "time"

// NowFunc is the time source for the whole package. Tests replace it via
// MockClock.Install.
var NowFunc = time.Now

// Entry is a wrapper for a cached value with its last-write timestamp.
type Entry[T any] struct {
	Data      T         `json:"data"`
	WrittenAt time.Time `json:"writtenAt"`
}

// Age returns how long ago the entry was written.
func (e Entry[T]) Age() time.Duration {
	return NowFunc().Sub(e.WrittenAt)
}

// Stale reports whether the entry's age exceeds threshold.
func (e Entry[T]) Stale(threshold time.Duration) bool {
	return e.Age() > threshold
}
