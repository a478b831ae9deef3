package reachability

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher(t *testing.T) {
	t.Run("PollPublishesProbeResult", func(t *testing.T) {
		b := NewBroadcaster(true)
		var online atomic.Bool

		w := NewWatcher(b, WatcherConfig{
			Probe: online.Load,
		})

		assert.False(t, w.Poll())
		assert.False(t, b.IsReachable())

		online.Store(true)
		assert.True(t, w.Poll())
		assert.True(t, b.IsReachable())
	})

	t.Run("BackgroundLoopDeliversTransitions", func(t *testing.T) {
		b := NewBroadcaster(true)
		var online atomic.Bool
		online.Store(true)

		transitions := make(chan bool, 4)
		defer b.OnChange(func(r bool) { transitions <- r })()

		w := NewWatcher(b, WatcherConfig{
			PollInterval: 5 * time.Millisecond,
			Probe:        online.Load,
		})
		w.Start(context.Background())
		defer w.Stop()

		online.Store(false)
		select {
		case r := <-transitions:
			assert.False(t, r)
		case <-time.After(time.Second):
			t.Fatal("offline transition not delivered")
		}

		online.Store(true)
		select {
		case r := <-transitions:
			assert.True(t, r)
		case <-time.After(time.Second):
			t.Fatal("online transition not delivered")
		}
	})

	t.Run("StopIsIdempotent", func(t *testing.T) {
		w := NewWatcher(NewBroadcaster(true), WatcherConfig{
			PollInterval: time.Millisecond,
			Probe:        func() bool { return true },
		})
		w.Start(context.Background())
		w.Stop()
		w.Stop()
	})

	t.Run("Defaults", func(t *testing.T) {
		w := NewWatcher(NewBroadcaster(true), WatcherConfig{})
		require.NotNil(t, w.config.Probe)
		assert.Equal(t, DefaultPollInterval, w.config.PollInterval)
	})
}

func TestDefaultIsProcessWide(t *testing.T) {
	assert.Same(t, Default(), Default())
}
