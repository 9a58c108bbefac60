package subscription

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mselser95/polymarket-paper/pkg/types"
)

// Recorder persists delivered updates.
type Recorder interface {
	StoreUpdate(ctx context.Context, update *types.MarketUpdate) error
}

// Recording wraps a Dispatcher so every delivered update is also passed
// to a Recorder before the listener sees it. Recorder failures are
// logged and do not block delivery.
type Recording struct {
	Dispatcher
	recorder Recorder
	timeout  time.Duration
	logger   *zap.Logger
}

// NewRecording wraps next.
func NewRecording(next Dispatcher, recorder Recorder, logger *zap.Logger) *Recording {
	return &Recording{
		Dispatcher: next,
		recorder:   recorder,
		timeout:    5 * time.Second,
		logger:     logger,
	}
}

func (r *Recording) Subscribe(marketID string, onUpdate UpdateFunc) (*Subscription, error) {
	return r.Dispatcher.Subscribe(marketID, func(update types.MarketUpdate) {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		err := r.recorder.StoreUpdate(ctx, &update)
		cancel()
		if err != nil {
			r.logger.Warn("store-update-failed",
				zap.String("market-id", update.MarketID),
				zap.Error(err))
		}
		onUpdate(update)
	})
}
