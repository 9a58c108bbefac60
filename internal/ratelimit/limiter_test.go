package ratelimit

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mselser95/polymarket-paper/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestCheckLimit_AllowsUpToMaxCalls(t *testing.T) {
	clock := newFakeClock()
	l := New(WithClock(clock.Now))

	for i := 0; i < 3; i++ {
		require.NoError(t, l.CheckLimit("polymarket", 3, time.Second), "call %d", i)
		clock.Advance(10 * time.Millisecond)
	}

	err := l.CheckLimit("polymarket", 3, time.Second)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrRateLimitExceeded))

	var rlErr *types.RateLimitError
	require.ErrorAs(t, err, &rlErr)
	assert.Equal(t, "polymarket", rlErr.Resource)
}

func TestCheckLimit_RecoversAfterWindow(t *testing.T) {
	clock := newFakeClock()
	l := New(WithClock(clock.Now))

	for i := 0; i < 2; i++ {
		require.NoError(t, l.CheckLimit("polymarket", 2, time.Second))
	}
	require.Error(t, l.CheckLimit("polymarket", 2, time.Second))

	clock.Advance(time.Second + time.Millisecond)

	assert.NoError(t, l.CheckLimit("polymarket", 2, time.Second))
}

func TestCheckLimit_WindowSlides(t *testing.T) {
	clock := newFakeClock()
	l := New(WithClock(clock.Now))

	// t=0 and t=600ms fill a 2-call, 1s window.
	require.NoError(t, l.CheckLimit("r", 2, time.Second))
	clock.Advance(600 * time.Millisecond)
	require.NoError(t, l.CheckLimit("r", 2, time.Second))

	// t=1000ms: the first call has aged out exactly, the second has not.
	clock.Advance(400 * time.Millisecond)
	require.NoError(t, l.CheckLimit("r", 2, time.Second))

	// t=1100ms: window holds calls from 600ms and 1000ms.
	clock.Advance(100 * time.Millisecond)
	assert.Error(t, l.CheckLimit("r", 2, time.Second))
	assert.Equal(t, 2, l.Count("r", time.Second))
}

func TestCheckLimit_RejectedCallsAreNotRecorded(t *testing.T) {
	clock := newFakeClock()
	l := New(WithClock(clock.Now))

	require.NoError(t, l.CheckLimit("r", 1, time.Second))
	for i := 0; i < 5; i++ {
		assert.Error(t, l.CheckLimit("r", 1, time.Second))
	}

	assert.Equal(t, 1, l.Count("r", time.Second))
}

func TestCheckLimit_PerResourceIsolation(t *testing.T) {
	clock := newFakeClock()
	l := New(WithClock(clock.Now))

	require.NoError(t, l.CheckLimit("openai", 1, time.Minute))
	require.Error(t, l.CheckLimit("openai", 1, time.Minute))

	assert.NoError(t, l.CheckLimit("polymarket", 1, time.Minute))
}

func TestCheckLimit_RealClock(t *testing.T) {
	l := New()

	for i := 0; i < 5; i++ {
		require.NoError(t, l.CheckLimit("r", 5, 50*time.Millisecond))
	}
	require.Error(t, l.CheckLimit("r", 5, 50*time.Millisecond))

	time.Sleep(60 * time.Millisecond)

	assert.NoError(t, l.CheckLimit("r", 5, 50*time.Millisecond))
}

func TestCheckLimit_ConcurrentNeverExceedsMax(t *testing.T) {
	l := New()

	const (
		maxCalls   = 50
		goroutines = 200
	)

	var allowed atomic.Int64
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			if l.CheckLimit("polymarket", maxCalls, time.Hour) == nil {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(maxCalls), allowed.Load())
	assert.Equal(t, maxCalls, l.Count("polymarket", time.Hour))
}
