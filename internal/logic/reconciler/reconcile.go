// Package reconciler compares desired and observed workload state and computes
// the corrective actions. It performs no I/O.
package reconciler

import (
	"github.com/skillcoder/workload-reconciler/internal/logic/workload"
)

// Reconcile returns the single action that moves one replica slot toward the
// desired spec. An observed status with an empty Phase means the pod is absent.
//
// The result depends only on its inputs: once the effect of a returned action is
// observed, calling Reconcile again yields a NoOp.
func Reconcile(desired workload.WorkloadSpec, observed workload.PodStatus) workload.Action {
	ref := observed.Ref()
	if ref.Name == "" {
		ref = desired.PodRef(observed.Ordinal)
	}

	absent := observed.Phase == ""

	if !absent && observed.Terminating {
		return workload.NoOp(ref, workload.ReasonTerminating)
	}

	if observed.Ordinal >= desired.Replicas {
		if absent {
			return workload.NoOp(ref, workload.ReasonUpToDate)
		}

		return workload.Action{Kind: workload.ActionDelete, Pod: ref, Reason: workload.ReasonScaleDown}
	}

	if absent {
		return withSpec(workload.ActionCreate, ref, &desired, workload.ReasonMissing, observed.RestartCount)
	}

	if observed.SpecHash != "" && observed.SpecHash != workload.SpecHash(&desired) {
		return withSpec(workload.ActionRestart, ref, &desired, workload.ReasonSpecChanged, observed.RestartCount)
	}

	switch observed.Phase {
	case workload.PhasePending, workload.PhaseRunning:
		return workload.NoOp(ref, workload.ReasonUpToDate)
	case workload.PhaseSucceeded:
		if desired.RestartPolicy == workload.RestartAlways {
			return withSpec(workload.ActionRestart, ref, &desired, workload.ReasonCompleted, observed.RestartCount)
		}

		return workload.NoOp(ref, workload.ReasonTerminal)
	case workload.PhaseFailed:
		if restartsOnFailure(desired.RestartPolicy, observed.LastExitCode) {
			return withSpec(workload.ActionRestart, ref, &desired, workload.ReasonCrashed, observed.RestartCount)
		}

		return workload.NoOp(ref, workload.ReasonTerminal)
	case workload.PhaseCrashLoopBackOff:
		if desired.RestartPolicy == workload.RestartNever {
			return workload.NoOp(ref, workload.ReasonTerminal)
		}

		return withSpec(workload.ActionRestart, ref, &desired, workload.ReasonCrashed, observed.RestartCount)
	default:
		return workload.NoOp(ref, workload.ReasonUpToDate)
	}
}

func restartsOnFailure(policy workload.RestartPolicy, exitCode int) bool {
	switch policy {
	case workload.RestartAlways:
		return true
	case workload.RestartOnFailure:
		return exitCode != 0
	default:
		return false
	}
}

func withSpec(
	kind workload.ActionKind,
	ref workload.PodRef,
	spec *workload.WorkloadSpec,
	reason string,
	restarts int,
) workload.Action {
	specCopy := *spec

	return workload.Action{
		Kind:             kind,
		Pod:              ref,
		Spec:             &specCopy,
		Reason:           reason,
		ObservedRestarts: restarts,
	}
}
