package subscription

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mselser95/polymarket-paper/internal/simulator"
)

const modeSimulated = "simulated"

// DefaultInterval is the simulated update period.
const DefaultInterval = 5 * time.Second

// Simulated emits one random update per interval to each subscription,
// each on its own ticker.
type Simulated struct {
	sim      *simulator.Simulator
	interval time.Duration
	logger   *zap.Logger

	mu     sync.Mutex
	subs   map[uuid.UUID]*Subscription
	closed bool
	wg     sync.WaitGroup
}

// NewSimulated creates a timer-driven dispatcher. A non-positive interval
// uses DefaultInterval.
func NewSimulated(sim *simulator.Simulator, interval time.Duration, logger *zap.Logger) *Simulated {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Simulated{
		sim:      sim,
		interval: interval,
		logger:   logger,
		subs:     make(map[uuid.UUID]*Subscription),
	}
}

func (d *Simulated) Subscribe(marketID string, onUpdate UpdateFunc) (*Subscription, error) {
	if onUpdate == nil {
		return nil, fmt.Errorf("onUpdate cannot be nil")
	}

	sub := newSubscription(marketID)
	sub.onCancel = func() { d.remove(sub.ID) }

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil, ErrClosed
	}
	d.subs[sub.ID] = sub
	d.wg.Add(1)
	d.mu.Unlock()

	ActiveSubscriptions.WithLabelValues(modeSimulated).Inc()

	go d.run(sub, onUpdate)

	d.logger.Debug("subscription-created",
		zap.String("subscription-id", sub.ID.String()),
		zap.String("market-id", marketID),
		zap.Duration("interval", d.interval))

	return sub, nil
}

func (d *Simulated) run(sub *Subscription, onUpdate UpdateFunc) {
	defer d.wg.Done()

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-sub.Done():
			return
		case <-ticker.C:
			deliver(sub, onUpdate, d.sim.NextUpdate(sub.MarketID), modeSimulated, d.logger)
		}
	}
}

func (d *Simulated) remove(id uuid.UUID) {
	d.mu.Lock()
	_, ok := d.subs[id]
	delete(d.subs, id)
	d.mu.Unlock()

	if ok {
		ActiveSubscriptions.WithLabelValues(modeSimulated).Dec()
	}
}

// Len returns the number of active subscriptions.
func (d *Simulated) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.subs)
}

// Close cancels every subscription and waits for their goroutines. It
// must not be called from inside a listener.
func (d *Simulated) Close() error {
	d.mu.Lock()
	d.closed = true
	subs := make([]*Subscription, 0, len(d.subs))
	for _, sub := range d.subs {
		subs = append(subs, sub)
	}
	d.mu.Unlock()

	for _, sub := range subs {
		sub.Cancel()
	}
	d.wg.Wait()

	return nil
}
