package catalog

import "github.com/skillcoder/workload-reconciler/internal/logic/workload"

// Change describes what an apply did to one object.
type Change string

const (
	ChangeCreated    Change = "created"
	ChangeConfigured Change = "configured"
	ChangeUnchanged  Change = "unchanged"
	ChangeDeleted    Change = "deleted"
)

// Applied is the outcome for one object of a manifest.
type Applied struct {
	Kind       workload.Kind `json:"kind"`
	Namespace  string        `json:"namespace"`
	Name       string        `json:"name"`
	Change     Change        `json:"change"`
	Generation int64         `json:"generation,omitempty"`
}

// WorkloadStatus is a workload with its reconciler verdict and pods.
type WorkloadStatus struct {
	Spec      workload.WorkloadSpec       `json:"spec"`
	Condition *workload.WorkloadCondition `json:"condition,omitempty"`
	Pods      []workload.PodStatus        `json:"pods"`
}

// ServiceStatus is a service with its current endpoints.
type ServiceStatus struct {
	Spec      workload.ServiceSpec `json:"spec"`
	Endpoints workload.EndpointSet `json:"endpoints"`
}

// Status holds whatever exists under a name; a workload and a service may share it.
type Status struct {
	Workload *WorkloadStatus `json:"workload,omitempty"`
	Service  *ServiceStatus  `json:"service,omitempty"`
}

// Listing is the content of one or all namespaces.
type Listing struct {
	Workloads []WorkloadStatus      `json:"workloads"`
	Services  []workload.ServiceSpec `json:"services"`
}
