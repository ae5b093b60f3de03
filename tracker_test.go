package statex

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrackerBeginEnd(t *testing.T) {
	tracker := NewTracker()

	t.Run("begin registers a handle", func(t *testing.T) {
		assert.True(t, tracker.Begin("dash"))
		assert.True(t, tracker.IsOngoing("dash"))

		_, ok := tracker.StartedAt("dash")
		assert.True(t, ok)
	})

	t.Run("second begin is refused", func(t *testing.T) {
		assert.False(t, tracker.Begin("dash"))
		assert.True(t, tracker.IsOngoing("dash"))
	})

	t.Run("independent keys do not interfere", func(t *testing.T) {
		assert.True(t, tracker.Begin("chat"))
		tracker.End("chat")
	})

	t.Run("end releases the handle", func(t *testing.T) {
		tracker.End("dash")
		assert.False(t, tracker.IsOngoing("dash"))
		assert.True(t, tracker.Begin("dash"))
		tracker.End("dash")
	})

	t.Run("end without begin is a no-op", func(t *testing.T) {
		tracker.End("never-started")
		assert.False(t, tracker.IsOngoing("never-started"))
	})
}

func TestTrackerAtMostOneInFlight(t *testing.T) {
	tracker := NewTracker()

	var started sync.WaitGroup
	var admitted atomic.Int32

	for i := 0; i < 50; i++ {
		started.Add(1)
		go func() {
			defer started.Done()
			if tracker.Begin("dash") {
				admitted.Add(1)
			}
		}()
	}
	started.Wait()

	assert.Equal(t, int32(1), admitted.Load(), "exactly one begin may win before end")
	assert.True(t, tracker.IsOngoing("dash"))

	tracker.End("dash")
	assert.False(t, tracker.IsOngoing("dash"))
	assert.True(t, tracker.Begin("dash"), "begin succeeds again after end")
}
