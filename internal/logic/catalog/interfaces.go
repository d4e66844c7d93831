package catalog

import (
	"context"

	"github.com/skillcoder/workload-reconciler/internal/logic/manifest"
	"github.com/skillcoder/workload-reconciler/internal/logic/workload"
)

// Store is the port for persisted desired and observed state.
// Implementations are provided by adapters in the outbound layer.
// An empty namespace in a list query means all namespaces.
type Store interface {
	GetWorkloadQuery(ctx context.Context, namespace, name string) (*workload.WorkloadSpec, error)
	ListWorkloadsQuery(ctx context.Context, namespace string) ([]workload.WorkloadSpec, error)
	SaveWorkloadCommand(ctx context.Context, spec *workload.WorkloadSpec) error
	DeleteWorkloadCommand(ctx context.Context, namespace, name string) error

	GetServiceQuery(ctx context.Context, namespace, name string) (*workload.ServiceSpec, error)
	ListServicesQuery(ctx context.Context, namespace string) ([]workload.ServiceSpec, error)
	SaveServiceCommand(ctx context.Context, svc *workload.ServiceSpec) error
	DeleteServiceCommand(ctx context.Context, namespace, name string) error

	GetConditionQuery(ctx context.Context, namespace, name string) (*workload.WorkloadCondition, error)
	ListPodStatusesQuery(ctx context.Context, namespace string) ([]workload.PodStatus, error)
}

type bundleParser interface {
	Parse(data []byte) (*manifest.Bundle, error)
}

// notFound is a private interface for checking "not found" errors
// without importing the adapter package.
type notFound interface {
	IsNotFound()
}
