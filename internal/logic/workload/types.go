package workload

import (
	"strconv"
	"time"
)

// Kind is the kind of a submitted object.
type Kind string

const (
	KindPod        Kind = "Pod"
	KindDeployment Kind = "Deployment"
	KindService    Kind = "Service"
)

// RestartPolicy decides what happens to a terminated container.
type RestartPolicy string

const (
	RestartAlways    RestartPolicy = "Always"
	RestartOnFailure RestartPolicy = "OnFailure"
	RestartNever     RestartPolicy = "Never"
)

// Phase is the observed lifecycle phase of a pod.
type Phase string

const (
	PhasePending          Phase = "Pending"
	PhaseRunning          Phase = "Running"
	PhaseSucceeded        Phase = "Succeeded"
	PhaseFailed           Phase = "Failed"
	PhaseCrashLoopBackOff Phase = "CrashLoopBackOff"
)

// IsTerminated reports whether the container is no longer running.
func (p Phase) IsTerminated() bool {
	return p == PhaseSucceeded || p == PhaseFailed
}

// EnvVar is a single container environment variable.
type EnvVar struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Container describes the single container of a workload.
type Container struct {
	Name    string   `json:"name"`
	Image   string   `json:"image"`
	Command []string `json:"command,omitempty"`
	Args    []string `json:"args,omitempty"`
	Env     []EnvVar `json:"env,omitempty"`
	Port    int32    `json:"port,omitempty"`
}

// WorkloadSpec is the desired state of a pod or deployment.
type WorkloadSpec struct {
	UID             string            `json:"uid"`
	Kind            Kind              `json:"kind"`
	Name            string            `json:"name"`
	Namespace       string            `json:"namespace"`
	Labels          map[string]string `json:"labels,omitempty"`
	Replicas        int               `json:"replicas"`
	RestartPolicy   RestartPolicy     `json:"restartPolicy"`
	RestartSchedule string            `json:"restartSchedule,omitempty"`
	Timezone        string            `json:"timezone,omitempty"`
	Container       Container         `json:"container"`
	Generation      int64             `json:"generation"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

// Key returns the workload identity.
func (w *WorkloadSpec) Key() string {
	return Key(w.Namespace, w.Name)
}

// PodName returns the stable pod name for a replica slot.
func (w *WorkloadSpec) PodName(ordinal int) string {
	if w.Kind == KindPod {
		return w.Name
	}

	return w.Name + "-" + strconv.Itoa(ordinal)
}

// PodRef returns the pod reference for a replica slot.
func (w *WorkloadSpec) PodRef(ordinal int) PodRef {
	return PodRef{
		Namespace: w.Namespace,
		Name:      w.PodName(ordinal),
		Workload:  w.Name,
		Ordinal:   ordinal,
	}
}

// ServiceSpec selects running pods by labels.
type ServiceSpec struct {
	UID        string            `json:"uid"`
	Name       string            `json:"name"`
	Namespace  string            `json:"namespace"`
	Selector   map[string]string `json:"selector"`
	TargetPort int32             `json:"targetPort"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

// Key returns the service identity.
func (s *ServiceSpec) Key() string {
	return Key(s.Namespace, s.Name)
}

// PodRef identifies a pod owned by a workload.
type PodRef struct {
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
	Workload  string `json:"workload"`
	Ordinal   int    `json:"ordinal"`
}

// Key returns the pod identity.
func (r PodRef) Key() string {
	return Key(r.Namespace, r.Name)
}

// PodStatus is the observed state of one pod identity.
type PodStatus struct {
	Namespace          string            `json:"namespace"`
	Name               string            `json:"name"`
	Workload           string            `json:"workload"`
	Ordinal            int               `json:"ordinal"`
	UID                string            `json:"uid,omitempty"`
	Phase              Phase             `json:"phase"`
	RestartCount       int               `json:"restartCount"`
	LastExitCode       int               `json:"lastExitCode"`
	LastTransitionTime time.Time         `json:"lastTransitionTime"`
	Labels             map[string]string `json:"labels,omitempty"`
	Address            string            `json:"address,omitempty"`
	Terminating        bool              `json:"terminating,omitempty"`
	SpecHash           string            `json:"specHash,omitempty"`
	Sequence           uint64            `json:"sequence,omitempty"`
}

// Key returns the pod identity.
func (p *PodStatus) Key() string {
	return Key(p.Namespace, p.Name)
}

// Ref returns the reference of the pod.
func (p *PodStatus) Ref() PodRef {
	return PodRef{
		Namespace: p.Namespace,
		Name:      p.Name,
		Workload:  p.Workload,
		Ordinal:   p.Ordinal,
	}
}

// Endpoint is a routable address of a running pod.
type Endpoint struct {
	Pod     string `json:"pod"`
	Address string `json:"address"`
	Port    int32  `json:"port"`
}

// EndpointSet is the set of endpoints backing a service.
type EndpointSet struct {
	Namespace string     `json:"namespace"`
	Service   string     `json:"service"`
	Endpoints []Endpoint `json:"endpoints"`
}

// Addresses returns host:port pairs of the set.
func (e EndpointSet) Addresses() []string {
	out := make([]string, 0, len(e.Endpoints))
	for _, ep := range e.Endpoints {
		out = append(out, ep.Address+":"+strconv.Itoa(int(ep.Port)))
	}

	return out
}

// ConditionPhase summarizes a workload for status output.
type ConditionPhase string

const (
	ConditionProgressing ConditionPhase = "Progressing"
	ConditionReady       ConditionPhase = "Ready"
	ConditionCompleted   ConditionPhase = "Completed"
	ConditionFailed      ConditionPhase = "Failed"
)

// WorkloadCondition is the reconciler's verdict on a workload.
type WorkloadCondition struct {
	Namespace          string         `json:"namespace"`
	Name               string         `json:"name"`
	Phase              ConditionPhase `json:"phase"`
	Message            string         `json:"message,omitempty"`
	ObservedGeneration int64          `json:"observedGeneration"`
	UpdatedAt          time.Time      `json:"updatedAt"`
}

// Key joins namespace and name into an identity.
func Key(namespace, name string) string {
	return namespace + "/" + name
}
