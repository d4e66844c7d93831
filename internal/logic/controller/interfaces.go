package controller

import (
	"context"
	"time"

	"github.com/skillcoder/workload-reconciler/internal/logic/workload"
)

// Repository is the port interface for orchestrator operations.
// Implementations are provided by adapters in the outbound layer.
type Repository interface {
	ListPodsQuery(
		ctx context.Context,
		namespace string,
	) (PodList, error)

	// WatchPodsQuery delivers pod events to handler until ctx is done.
	WatchPodsQuery(
		ctx context.Context,
		namespace string,
		handler func(PodEvent),
	) error

	CreatePodCommand(
		ctx context.Context,
		spec *workload.WorkloadSpec,
		pod workload.PodRef,
		restarts int,
	) error

	RestartPodCommand(
		ctx context.Context,
		spec *workload.WorkloadSpec,
		pod workload.PodRef,
		restarts int,
	) error

	DeletePodCommand(
		ctx context.Context,
		pod workload.PodRef,
	) error
}

// Store is the part of the spec store the reconciler reads desired state from
// and reports observations to.
type Store interface {
	ListWorkloadsQuery(ctx context.Context, namespace string) ([]workload.WorkloadSpec, error)
	ListServicesQuery(ctx context.Context, namespace string) ([]workload.ServiceSpec, error)
	SaveConditionCommand(ctx context.Context, cond *workload.WorkloadCondition) error
	DeleteConditionCommand(ctx context.Context, namespace, name string) error
	SavePodStatusCommand(ctx context.Context, status *workload.PodStatus) error
	DeletePodStatusCommand(ctx context.Context, namespace, name string) error
}

type serviceSyncer interface {
	SyncServices(ctx context.Context, services []workload.ServiceSpec) error
}

type scheduler interface {
	NextAfter(expr, tz string, after time.Time) (time.Time, error)
}

type retrier interface {
	Do(ctx context.Context, operation string, fn func(ctx context.Context) error) error
}

// permanent is a private interface for checking errors that retrying cannot fix
// without importing the adapter package.
type permanent interface {
	IsPermanent()
}
