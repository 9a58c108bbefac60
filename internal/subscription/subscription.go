// Package subscription delivers periodic market updates to registered
// listeners, either from the simulator on a timer or from the live
// market stream.
package subscription

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mselser95/polymarket-paper/pkg/types"
)

// ErrClosed is returned by Subscribe after the dispatcher is closed.
var ErrClosed = errors.New("dispatcher closed")

// UpdateFunc receives updates for one subscription. Calls for a given
// subscription are sequential and in arrival order.
type UpdateFunc func(types.MarketUpdate)

// Dispatcher registers listeners for market updates. Subscribe returns
// immediately; delivery happens on dispatcher-owned goroutines.
type Dispatcher interface {
	Subscribe(marketID string, onUpdate UpdateFunc) (*Subscription, error)
	Close() error
}

// Subscription is the handle for one registration. Cancel is idempotent
// and safe to call from inside the listener.
type Subscription struct {
	ID       uuid.UUID
	MarketID string

	once     sync.Once
	done     chan struct{}
	onCancel func()
}

func newSubscription(marketID string) *Subscription {
	return &Subscription{
		ID:       uuid.New(),
		MarketID: marketID,
		done:     make(chan struct{}),
	}
}

// Cancel stops delivery. No update is delivered after Cancel returns,
// except one already executing on the listener goroutine.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		close(s.done)
		if s.onCancel != nil {
			s.onCancel()
		}
	})
}

// Done is closed once the subscription is cancelled.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

func (s *Subscription) cancelled() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// deliver invokes onUpdate unless the subscription was cancelled. A
// panicking listener is recovered so it cannot take down the dispatcher.
func deliver(sub *Subscription, onUpdate UpdateFunc, update types.MarketUpdate, mode string, logger *zap.Logger) {
	if sub.cancelled() {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			ListenerPanicsTotal.WithLabelValues(mode).Inc()
			logger.Error("listener-panicked",
				zap.String("subscription-id", sub.ID.String()),
				zap.String("market-id", sub.MarketID),
				zap.Any("panic", r))
		}
	}()

	onUpdate(update)
	UpdatesDeliveredTotal.WithLabelValues(mode).Inc()
}
