package httpserver

import (
	"context"

	"github.com/skillcoder/workload-reconciler/internal/infra/appstate"
	"github.com/skillcoder/workload-reconciler/internal/logic/controller"
	"github.com/skillcoder/workload-reconciler/internal/logic/workload"
)

type appstater interface {
	IsHealthy() bool
	IsReady() bool
	Status() appstate.Status
}

type workersQuerier interface {
	WorkersQuery(ctx context.Context) []controller.WorkerInfo
	WorkerQuery(ctx context.Context, namespace, name string) (controller.WorkerInfo, bool)
}

type endpointsQuerier interface {
	Endpoints(namespace, name string) (workload.EndpointSet, bool)
	Resolve(namespace string, selector map[string]string, port int32) workload.EndpointSet
}
