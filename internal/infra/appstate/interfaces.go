package appstate

import (
	"context"

	"github.com/skillcoder/workload-reconciler/internal/infra/pinger"
)

// pingerServer is the part of the pinger service the application state drives.
type pingerServer interface {
	Register(pinger pinger.Pinger) error
	GetAllStats() map[string]*pinger.Statistics
	Ready() <-chan struct{}
	Start(ctx context.Context) error
}
