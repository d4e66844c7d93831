package k8s

import (
	"strconv"
	"strings"

	corev1 "k8s.io/api/core/v1"

	"github.com/skillcoder/workload-reconciler/internal/logic/controller"
	"github.com/skillcoder/workload-reconciler/internal/logic/workload"
)

const crashLoopBackOffReason = "CrashLoopBackOff"

// toPodStatus converts a managed pod. It returns false for pods that lack the
// workload label and so cannot be attributed to a workload.
func toPodStatus(pod *corev1.Pod) (workload.PodStatus, bool) {
	name, ok := pod.Labels[controller.WorkloadLabelKey]
	if !ok || name == "" {
		return workload.PodStatus{}, false
	}

	ordinal, _ := strconv.Atoi(pod.Labels[controller.OrdinalLabelKey])
	restarts, _ := strconv.Atoi(pod.Annotations[controller.RestartCountAnnotationKey])

	status := workload.PodStatus{
		Namespace:    pod.Namespace,
		Name:         pod.Name,
		Workload:     name,
		Ordinal:      ordinal,
		UID:          string(pod.UID),
		Phase:        toPhase(pod),
		RestartCount: restarts,
		Labels:       userLabels(pod.Labels),
		Address:      pod.Status.PodIP,
		Terminating:  pod.DeletionTimestamp != nil,
		SpecHash:     pod.Annotations[controller.SpecHashAnnotationKey],
		Sequence:     parseResourceVersion(pod.ResourceVersion),
	}

	for i := range pod.Status.ContainerStatuses {
		cs := &pod.Status.ContainerStatuses[i]
		status.RestartCount += int(cs.RestartCount)

		switch {
		case cs.State.Terminated != nil:
			status.LastExitCode = int(cs.State.Terminated.ExitCode)
		case cs.LastTerminationState.Terminated != nil:
			status.LastExitCode = int(cs.LastTerminationState.Terminated.ExitCode)
		}
	}

	return status, true
}

func toPhase(pod *corev1.Pod) workload.Phase {
	for i := range pod.Status.ContainerStatuses {
		waiting := pod.Status.ContainerStatuses[i].State.Waiting
		if waiting != nil && waiting.Reason == crashLoopBackOffReason {
			return workload.PhaseCrashLoopBackOff
		}
	}

	switch pod.Status.Phase {
	case corev1.PodRunning:
		return workload.PhaseRunning
	case corev1.PodSucceeded:
		return workload.PhaseSucceeded
	case corev1.PodFailed:
		return workload.PhaseFailed
	case corev1.PodPending, corev1.PodUnknown:
		return workload.PhasePending
	default:
		// not yet scheduled
		return workload.PhasePending
	}
}

// userLabels strips the reconciler's own bookkeeping labels.
func userLabels(labels map[string]string) map[string]string {
	out := make(map[string]string, len(labels))

	for k, v := range labels {
		if strings.HasPrefix(k, controller.LabelDomain) {
			continue
		}

		out[k] = v
	}

	if len(out) == 0 {
		return nil
	}

	return out
}

// parseResourceVersion orders etcd-backed resource versions; anything else is zero.
func parseResourceVersion(rv string) uint64 {
	v, _ := strconv.ParseUint(rv, 10, 64)

	return v
}
