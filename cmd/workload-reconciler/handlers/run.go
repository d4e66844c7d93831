package handlers

import (
	"context"
	"fmt"
	"os"

	"github.com/skillcoder/workload-reconciler/internal/app"
	"github.com/skillcoder/workload-reconciler/internal/infra/logging"
	"github.com/skillcoder/workload-reconciler/internal/infra/shutdown"
)

// Run starts the reconciler daemon and blocks until a termination signal.
func Run(ctx context.Context) error {
	// listen before anything else so an early signal is not lost
	signals := shutdown.Notify()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.New(os.Stdout, cfg.LogFormat, cfg.LogLevel)

	application, err := app.New(logger, cfg, signals)
	if err != nil {
		return fmt.Errorf("new application: %w", err)
	}

	if err := application.Run(ctx); err != nil {
		return fmt.Errorf("run application: %w", err)
	}

	logger.InfoContext(ctx, "bye")

	return nil
}
