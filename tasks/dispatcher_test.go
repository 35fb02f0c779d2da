package tasks

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherRunsJobs(t *testing.T) {
	d := NewDispatcher(2, 16)
	var ran atomic.Int64

	for i := 0; i < 10; i++ {
		ok := d.Enqueue("count", func() error {
			ran.Add(1)
			return nil
		})
		require.True(t, ok)
	}
	d.Stop()

	assert.Equal(t, int64(10), ran.Load())
}

func TestDispatcherSurvivesErrorsAndPanics(t *testing.T) {
	d := NewDispatcher(1, 16)
	var ran atomic.Int64

	d.Enqueue("fails", func() error { return errors.New("boom") })
	d.Enqueue("panics", func() error { panic("boom") })
	d.Enqueue("after", func() error {
		ran.Add(1)
		return nil
	})
	d.Stop()

	assert.Equal(t, int64(1), ran.Load(), "workers keep going after failures")
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	d := NewDispatcher(1, 1)
	block := make(chan struct{})

	require.True(t, d.Enqueue("blocker", func() error {
		<-block
		return nil
	}))

	// With the worker parked, the queue fills after at most one more job.
	dropped := false
	for i := 0; i < 10; i++ {
		if !d.Enqueue("overflow", func() error { return nil }) {
			dropped = true
			break
		}
	}
	assert.True(t, dropped, "a full queue drops instead of blocking")

	close(block)
	d.Stop()
}

func TestDispatcherRejectsAfterStop(t *testing.T) {
	d := NewDispatcher(1, 4)
	d.Stop()
	assert.False(t, d.Enqueue("late", func() error { return nil }))
}
