package subscription

import (
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mselser95/polymarket-paper/internal/simulator"
	"github.com/mselser95/polymarket-paper/pkg/types"
)

const testInterval = 20 * time.Millisecond

func newTestSimulated(t *testing.T) *Simulated {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	d := NewSimulated(simulator.New(rand.New(rand.NewSource(42))), testInterval, logger)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestSimulated_DeliversPeriodically(t *testing.T) {
	d := newTestSimulated(t)

	updates := make(chan types.MarketUpdate, 16)
	sub, err := d.Subscribe("3", func(u types.MarketUpdate) { updates <- u })
	require.NoError(t, err)
	defer sub.Cancel()

	for i := 0; i < 3; i++ {
		select {
		case u := <-updates:
			assert.Equal(t, "3", u.MarketID)
			assert.GreaterOrEqual(t, u.Odds, 1.0)
			assert.LessOrEqual(t, u.Odds, 99.0)
			assert.GreaterOrEqual(t, u.Change24h, -5.0)
			assert.LessOrEqual(t, u.Change24h, 5.0)
		case <-time.After(time.Second):
			t.Fatal("no update delivered")
		}
	}
}

func TestSimulated_NoDeliveryAfterCancel(t *testing.T) {
	d := newTestSimulated(t)

	var count atomic.Int32
	sub, err := d.Subscribe("1", func(types.MarketUpdate) { count.Add(1) })
	require.NoError(t, err)

	time.Sleep(3 * testInterval)
	sub.Cancel()
	after := count.Load()

	time.Sleep(3 * testInterval)
	assert.Equal(t, after, count.Load())
	assert.Equal(t, 0, d.Len())
}

func TestSimulated_CancelIsIdempotentAndIsolated(t *testing.T) {
	d := newTestSimulated(t)

	var first, second atomic.Int32
	subA, err := d.Subscribe("1", func(types.MarketUpdate) { first.Add(1) })
	require.NoError(t, err)
	subB, err := d.Subscribe("1", func(types.MarketUpdate) { second.Add(1) })
	require.NoError(t, err)
	defer subB.Cancel()

	assert.NotEqual(t, subA.ID, subB.ID)

	subA.Cancel()
	subA.Cancel()

	select {
	case <-subA.Done():
	default:
		t.Fatal("expected Done to be closed")
	}

	before := second.Load()
	time.Sleep(3 * testInterval)
	assert.Greater(t, second.Load(), before)
	assert.Equal(t, 1, d.Len())
}

func TestSimulated_CancelFromListener(t *testing.T) {
	d := newTestSimulated(t)

	var (
		mu    sync.Mutex
		count int
		sub   *Subscription
	)
	ready := make(chan struct{})

	var err error
	sub, err = d.Subscribe("2", func(types.MarketUpdate) {
		<-ready
		mu.Lock()
		count++
		mu.Unlock()
		sub.Cancel()
	})
	require.NoError(t, err)
	close(ready)

	time.Sleep(5 * testInterval)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, count)
}

func TestSimulated_PanickingListenerKeepsRunning(t *testing.T) {
	d := newTestSimulated(t)

	var calls atomic.Int32
	sub, err := d.Subscribe("4", func(types.MarketUpdate) {
		calls.Add(1)
		panic("listener bug")
	})
	require.NoError(t, err)
	defer sub.Cancel()

	require.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, testInterval)
}

func TestSimulated_CloseStopsEverything(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	d := NewSimulated(simulator.New(nil), testInterval, logger)

	var count atomic.Int32
	for _, id := range []string{"1", "2", "3"} {
		_, err := d.Subscribe(id, func(types.MarketUpdate) { count.Add(1) })
		require.NoError(t, err)
	}

	require.NoError(t, d.Close())
	after := count.Load()
	time.Sleep(3 * testInterval)
	assert.Equal(t, after, count.Load())

	_, err := d.Subscribe("1", func(types.MarketUpdate) {})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestSimulated_NilListener(t *testing.T) {
	d := newTestSimulated(t)
	_, err := d.Subscribe("1", nil)
	assert.Error(t, err)
}
