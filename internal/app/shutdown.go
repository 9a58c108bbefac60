package app

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Shutdown gracefully shuts down the application.
func (a *App) Shutdown() error {
	a.logger.Info("application-shutting-down")

	a.healthChecker.SetReady(false)
	a.cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	err := a.httpServer.Shutdown(shutdownCtx)
	if err != nil {
		a.logger.Error("http-server-shutdown-error", zap.Error(err))
	}

	a.Close()

	a.wg.Wait()

	a.logger.Info("application-shutdown-complete")
	return nil
}

// Close releases the dispatcher, storage and cache in dependency order.
// It is used directly by one-shot commands that never start the HTTP
// server. Safe to call more than once.
func (a *App) Close() {
	a.closeOnce.Do(func() {
		a.cancel()

		err := a.dispatcher.Close()
		if err != nil {
			a.logger.Error("dispatcher-close-error", zap.Error(err))
		}

		if a.storage != nil {
			err = a.storage.Close()
			if err != nil {
				a.logger.Error("storage-close-error", zap.Error(err))
			}
		}

		if a.marketCache != nil {
			a.marketCache.Close()
		}
	})
}
