package subscription

import (
	"context"
	"fmt"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mselser95/polymarket-paper/pkg/types"
)

const modeLive = "live"

// DefaultQueueSize bounds each subscription's pending updates.
const DefaultQueueSize = 64

// Stream is the live market stream the dispatcher multiplexes.
type Stream interface {
	Send(ctx context.Context, req types.StreamRequest) error
	Messages() <-chan types.StreamMessage
	Close() error
}

// StreamOpener dials a new stream. It is called when the first
// subscription arrives and again after the stream was torn down.
type StreamOpener func(ctx context.Context) (Stream, error)

type liveSub struct {
	sub      *Subscription
	onUpdate UpdateFunc
	queue    chan types.MarketUpdate
}

// Live shares one stream across all subscriptions. Each market is
// subscribed on the stream once, however many listeners it has, and
// unsubscribed when its last listener cancels. The stream is closed when
// no subscriptions remain.
type Live struct {
	open      StreamOpener
	queueSize int
	logger    *zap.Logger
	now       func() time.Time

	mu       sync.Mutex
	stream   Stream
	byMarket map[string]map[uuid.UUID]*liveSub
	total    int
	closed   bool
	wg       sync.WaitGroup
}

// LiveConfig holds live dispatcher configuration.
type LiveConfig struct {
	Open      StreamOpener
	QueueSize int
	Logger    *zap.Logger
}

// NewLive creates a stream-driven dispatcher.
func NewLive(cfg *LiveConfig) *Live {
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Live{
		open:      cfg.Open,
		queueSize: queueSize,
		logger:    cfg.Logger,
		now:       time.Now,
		byMarket:  make(map[string]map[uuid.UUID]*liveSub),
	}
}

func (d *Live) Subscribe(marketID string, onUpdate UpdateFunc) (*Subscription, error) {
	if onUpdate == nil {
		return nil, fmt.Errorf("onUpdate cannot be nil")
	}

	ctx := context.Background()

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrClosed
	}

	if d.stream == nil {
		stream, err := d.open(ctx)
		if err != nil {
			return nil, fmt.Errorf("open stream: %w", err)
		}
		d.stream = stream
		d.wg.Add(1)
		go d.route(stream)
		StreamsOpenedTotal.Inc()
		d.logger.Info("stream-opened")
	}

	listeners, ok := d.byMarket[marketID]
	if !ok {
		err := d.stream.Send(ctx, types.StreamRequest{Type: types.StreamSubscribe, MarketID: marketID})
		if err != nil {
			if d.total == 0 {
				d.closeStreamLocked()
			}
			return nil, fmt.Errorf("subscribe market %s: %w", marketID, err)
		}
		listeners = make(map[uuid.UUID]*liveSub)
		d.byMarket[marketID] = listeners
	}

	sub := newSubscription(marketID)
	sub.onCancel = func() { d.remove(sub) }

	ls := &liveSub{
		sub:      sub,
		onUpdate: onUpdate,
		queue:    make(chan types.MarketUpdate, d.queueSize),
	}
	listeners[sub.ID] = ls
	d.total++

	d.wg.Add(1)
	go d.deliverLoop(ls)

	ActiveSubscriptions.WithLabelValues(modeLive).Inc()

	d.logger.Debug("subscription-created",
		zap.String("subscription-id", sub.ID.String()),
		zap.String("market-id", marketID),
		zap.Int("market-listeners", len(listeners)),
		zap.Int("total", d.total))

	return sub, nil
}

// remove drops a cancelled subscription, unsubscribing its market when it
// was the last listener and closing the stream when none remain.
func (d *Live) remove(sub *Subscription) {
	d.mu.Lock()
	defer d.mu.Unlock()

	listeners, ok := d.byMarket[sub.MarketID]
	if !ok {
		return
	}
	if _, ok := listeners[sub.ID]; !ok {
		return
	}

	delete(listeners, sub.ID)
	d.total--
	ActiveSubscriptions.WithLabelValues(modeLive).Dec()

	if len(listeners) == 0 {
		delete(d.byMarket, sub.MarketID)
		if d.stream != nil {
			err := d.stream.Send(context.Background(), types.StreamRequest{Type: types.StreamUnsubscribe, MarketID: sub.MarketID})
			if err != nil {
				d.logger.Warn("unsubscribe-failed",
					zap.String("market-id", sub.MarketID),
					zap.Error(err))
			}
		}
	}

	if d.total == 0 {
		d.closeStreamLocked()
	}
}

func (d *Live) closeStreamLocked() {
	if d.stream == nil {
		return
	}
	err := d.stream.Close()
	if err != nil {
		d.logger.Warn("stream-close-failed", zap.Error(err))
	}
	d.stream = nil
	StreamsClosedTotal.Inc()
	d.logger.Info("stream-closed")
}

// route decodes inbound messages and fans them out to the queues of the
// market's listeners. It exits when the stream's message channel closes.
// Messages still buffered on a stream that was torn down are discarded so
// they never reach subscribers of a later stream.
func (d *Live) route(stream Stream) {
	defer d.wg.Done()

	for msg := range stream.Messages() {
		update, err := d.decode(msg)
		if err != nil {
			MalformedMessagesTotal.Inc()
			d.logger.Warn("malformed-stream-message",
				zap.String("market-id", msg.MarketID),
				zap.Error(err))
			continue
		}

		d.mu.Lock()
		if d.stream != stream {
			d.mu.Unlock()
			StaleMessagesTotal.Inc()
			continue
		}
		targets := make([]*liveSub, 0, len(d.byMarket[update.MarketID]))
		for _, ls := range d.byMarket[update.MarketID] {
			targets = append(targets, ls)
		}
		d.mu.Unlock()

		for _, ls := range targets {
			select {
			case ls.queue <- update:
			default:
				UpdatesDroppedTotal.WithLabelValues(modeLive).Inc()
				d.logger.Warn("subscription-queue-full",
					zap.String("subscription-id", ls.sub.ID.String()),
					zap.String("market-id", update.MarketID))
			}
		}
	}
}

func (d *Live) deliverLoop(ls *liveSub) {
	defer d.wg.Done()

	for {
		select {
		case <-ls.sub.Done():
			return
		case update := <-ls.queue:
			deliver(ls.sub, ls.onUpdate, update, modeLive, d.logger)
		}
	}
}

// streamUpdate is the inbound update shape. Odds is required.
type streamUpdate struct {
	MarketID  string     `json:"marketId"`
	Odds      *float64   `json:"odds"`
	Change24h float64    `json:"change24h"`
	Timestamp *time.Time `json:"timestamp"`
}

func (d *Live) decode(msg types.StreamMessage) (types.MarketUpdate, error) {
	var raw streamUpdate
	err := json.Unmarshal(msg.Payload, &raw)
	if err != nil {
		return types.MarketUpdate{}, fmt.Errorf("decode update: %w", err)
	}

	marketID := raw.MarketID
	if marketID == "" {
		marketID = msg.MarketID
	}
	if marketID == "" {
		return types.MarketUpdate{}, fmt.Errorf("update has no market id")
	}
	if raw.Odds == nil {
		return types.MarketUpdate{}, fmt.Errorf("update has no odds")
	}
	if *raw.Odds < 0 || *raw.Odds > 100 {
		return types.MarketUpdate{}, fmt.Errorf("odds %v out of range", *raw.Odds)
	}

	ts := d.now()
	if raw.Timestamp != nil {
		ts = *raw.Timestamp
	}

	return types.MarketUpdate{
		MarketID:  marketID,
		Odds:      *raw.Odds,
		Change24h: raw.Change24h,
		Timestamp: ts,
	}, nil
}

// Len returns the number of active subscriptions.
func (d *Live) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.total
}

// Close cancels every subscription, which also closes the stream, and
// waits for delivery goroutines. It must not be called from inside a
// listener.
func (d *Live) Close() error {
	d.mu.Lock()
	d.closed = true
	var subs []*Subscription
	for _, listeners := range d.byMarket {
		for _, ls := range listeners {
			subs = append(subs, ls.sub)
		}
	}
	d.mu.Unlock()

	for _, sub := range subs {
		sub.Cancel()
	}

	d.mu.Lock()
	d.closeStreamLocked()
	d.mu.Unlock()

	d.wg.Wait()
	return nil
}
