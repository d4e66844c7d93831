// Package handlers implements the CLI commands on top of the catalog use case
// and the reconciler daemon. Handlers write to the writers they are given and
// can be tested without cobra.
package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"k8s.io/utils/clock"

	"github.com/skillcoder/workload-reconciler/internal/app"
	"github.com/skillcoder/workload-reconciler/internal/config"
	"github.com/skillcoder/workload-reconciler/internal/infra/cronparser"
	"github.com/skillcoder/workload-reconciler/internal/infra/logging"
	"github.com/skillcoder/workload-reconciler/internal/logic/catalog"
	"github.com/skillcoder/workload-reconciler/internal/logic/manifest"
)

// Factory function variables - replaced in tests.
var (
	loadConfig = config.Load
	openStore  = app.NewStore
	newLogger  = func(cfg *config.Config) *slog.Logger {
		return logging.New(os.Stderr, cfg.LogFormat, cfg.LogLevel)
	}
	isTerminal = func(f *os.File) bool {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
)

// openCatalog builds the catalog on the configured store. The returned
// function closes the store.
func openCatalog(ctx context.Context) (*catalog.Service, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	logger := newLogger(cfg)

	store, err := openStore(logger, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}

	closeStore := func() {
		if err := store.Shutdown(ctx); err != nil {
			logger.WarnContext(ctx, "failed to close store", "reason", err)
		}
	}

	svc := catalog.New(logger, store, newParser(), clock.RealClock{})

	return svc, closeStore, nil
}

func newParser() *manifest.Parser {
	return manifest.NewParser(cronparser.New())
}
