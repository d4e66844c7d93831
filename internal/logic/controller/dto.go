package controller

import (
	"time"

	"github.com/skillcoder/workload-reconciler/internal/logic/restart"
	"github.com/skillcoder/workload-reconciler/internal/logic/workload"
)

// PodEvent is one pod notification from the orchestrator watch.
// ID identifies the delivery; a redelivered event carries the same ID.
type PodEvent struct {
	ID      string
	Status  workload.PodStatus
	Deleted bool
}

// PodList is a full pod listing. ResourceVersion is the orchestrator revision
// the listing reflects; zero means unknown.
type PodList struct {
	Items           []workload.PodStatus
	ResourceVersion uint64
}

// Config tunes the reconciler loop.
type Config struct {
	// Namespace limits specs and pods to one namespace. Empty means all.
	Namespace string
	Interval  time.Duration
	Backoff   restart.Config
}

// WorkerInfo is a point-in-time view of one workload worker.
type WorkerInfo struct {
	Namespace     string                   `json:"namespace"`
	Workload      string                   `json:"workload"`
	Generation    int64                    `json:"generation"`
	Deleted       bool                     `json:"deleted"`
	Halted        bool                     `json:"halted"`
	Condition     workload.ConditionPhase  `json:"condition,omitempty"`
	Pods          int                      `json:"pods"`
	Backoff       map[string]restart.State `json:"backoff,omitempty"`
	LastReconcile time.Time                `json:"lastReconcile"`
	NextWake      time.Time                `json:"nextWake,omitzero"`
	NextScheduled time.Time                `json:"nextScheduled,omitzero"`
	LastError     string                   `json:"lastError,omitempty"`
}
