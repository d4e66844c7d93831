package endpoints

import (
	"slices"
	"strings"

	"k8s.io/apimachinery/pkg/labels"

	"github.com/skillcoder/workload-reconciler/internal/logic/workload"
)

// Resolve computes the endpoint set of a service from pod observations.
// Only running pods that are not terminating and have an address are included.
// An empty selector matches nothing.
func Resolve(svc *workload.ServiceSpec, pods []workload.PodStatus) workload.EndpointSet {
	set := workload.EndpointSet{
		Namespace: svc.Namespace,
		Service:   svc.Name,
		Endpoints: []workload.Endpoint{},
	}

	if len(svc.Selector) == 0 {
		return set
	}

	selector := labels.SelectorFromSet(svc.Selector)

	for i := range pods {
		pod := &pods[i]

		if !Routable(pod) || pod.Namespace != svc.Namespace {
			continue
		}

		if !selector.Matches(labels.Set(pod.Labels)) {
			continue
		}

		set.Endpoints = append(set.Endpoints, workload.Endpoint{
			Pod:     pod.Name,
			Address: pod.Address,
			Port:    svc.TargetPort,
		})
	}

	slices.SortFunc(set.Endpoints, func(a, b workload.Endpoint) int {
		return strings.Compare(a.Pod, b.Pod)
	})

	return set
}

// Routable reports whether a pod may receive traffic.
func Routable(pod *workload.PodStatus) bool {
	return pod.Phase == workload.PhaseRunning && !pod.Terminating && pod.Address != ""
}
