package reconciler

import (
	"slices"
	"strings"

	"github.com/skillcoder/workload-reconciler/internal/logic/workload"
)

// Plan reconciles every replica slot of a workload and deletes the pods that do
// not belong to any slot. A nil desired spec means the workload was removed and
// every pod is deleted. The result holds one action per slot and per leftover
// pod, ordered by ordinal.
func Plan(desired *workload.WorkloadSpec, observed []workload.PodStatus) []workload.Action {
	var actions []workload.Action

	if desired == nil {
		for i := range observed {
			if !observed[i].Terminating {
				actions = append(actions, workload.Action{
					Kind:   workload.ActionDelete,
					Pod:    observed[i].Ref(),
					Reason: workload.ReasonScaleDown,
				})
			}
		}

		return sortActions(actions)
	}

	bySlot := make(map[int]workload.PodStatus, len(observed))

	for i := range observed {
		obs := observed[i]

		if obs.Name == desired.PodName(obs.Ordinal) {
			bySlot[obs.Ordinal] = obs

			continue
		}

		// a pod from a previous kind or name layout
		if !obs.Terminating {
			actions = append(actions, workload.Action{
				Kind:   workload.ActionDelete,
				Pod:    obs.Ref(),
				Reason: workload.ReasonScaleDown,
			})
		}
	}

	for ordinal := range desired.Replicas {
		obs, ok := bySlot[ordinal]
		if !ok {
			ref := desired.PodRef(ordinal)
			obs = workload.PodStatus{
				Namespace: ref.Namespace,
				Name:      ref.Name,
				Workload:  ref.Workload,
				Ordinal:   ordinal,
			}
		}

		actions = append(actions, Reconcile(*desired, obs))
	}

	for ordinal, obs := range bySlot {
		if ordinal >= desired.Replicas {
			actions = append(actions, Reconcile(*desired, obs))
		}
	}

	return sortActions(actions)
}

// Pending filters out NoOp actions.
func Pending(actions []workload.Action) []workload.Action {
	out := make([]workload.Action, 0, len(actions))

	for _, a := range actions {
		if !a.IsNoOp() {
			out = append(out, a)
		}
	}

	return out
}

func sortActions(actions []workload.Action) []workload.Action {
	slices.SortStableFunc(actions, func(a, b workload.Action) int {
		if a.Pod.Ordinal != b.Pod.Ordinal {
			return a.Pod.Ordinal - b.Pod.Ordinal
		}

		return strings.Compare(a.Pod.Name, b.Pod.Name)
	})

	return actions
}
