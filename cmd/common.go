package cmd

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mselser95/polymarket-paper/internal/app"
	"github.com/mselser95/polymarket-paper/pkg/config"
)

// newApp loads config and builds the application for a command. The
// caller must Close the app and Sync the logger.
func newApp(opts *app.Options) (*app.App, *zap.Logger, error) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLoggerFor(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}

	application, err := app.New(cfg, logger, opts)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, fmt.Errorf("create app: %w", err)
	}

	return application, logger, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
