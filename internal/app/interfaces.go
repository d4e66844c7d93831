package app

import (
	"context"

	"github.com/skillcoder/workload-reconciler/internal/infra/pinger"
	"github.com/skillcoder/workload-reconciler/internal/infra/shutdown"
	"github.com/skillcoder/workload-reconciler/internal/logic/catalog"
	"github.com/skillcoder/workload-reconciler/internal/logic/controller"
)

// Store is a spec and status store shared by the daemon and the CLI.
type Store interface {
	catalog.Store
	controller.Store
	pinger.Pinger
	shutdown.Shutdowner
}

// component is a long-running part of the daemon.
type component interface {
	Name() string
	Start(ctx context.Context) error
	Ready() <-chan struct{}
	shutdown.Shutdowner
}
