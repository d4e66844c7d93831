package workload

import "strconv"

// ActionKind tags an Action.
type ActionKind int

const (
	ActionNoOp ActionKind = iota
	ActionCreate
	ActionDelete
	ActionRestart
)

func (k ActionKind) String() string {
	switch k {
	case ActionNoOp:
		return "NoOp"
	case ActionCreate:
		return "Create"
	case ActionDelete:
		return "Delete"
	case ActionRestart:
		return "Restart"
	default:
		return "Unknown(" + strconv.Itoa(int(k)) + ")"
	}
}

// Restart and delete reasons.
const (
	ReasonMissing     = "Missing"
	ReasonScaleDown   = "ScaleDown"
	ReasonSpecChanged = "SpecChanged"
	ReasonCrashed     = "Crashed"
	ReasonCompleted   = "Completed"
	ReasonScheduled   = "Scheduled"
	ReasonUpToDate    = "UpToDate"
	ReasonTerminating = "Terminating"
	ReasonTerminal    = "Terminal"
)

// Action is a corrective step computed by the reconciler.
// Spec is set for Create and Restart.
type Action struct {
	Kind             ActionKind
	Pod              PodRef
	Spec             *WorkloadSpec
	Reason           string
	ObservedRestarts int
}

// NoOp returns an action that does nothing for the pod.
func NoOp(pod PodRef, reason string) Action {
	return Action{Kind: ActionNoOp, Pod: pod, Reason: reason}
}

// IsNoOp reports whether the action has no effect.
func (a Action) IsNoOp() bool {
	return a.Kind == ActionNoOp
}

// Key identifies an action for in-flight de-duplication.
// Two restarts of the same pod from the same observed restart count share a key.
func (a Action) Key() string {
	key := a.Kind.String() + ":" + a.Pod.Key()
	if a.Kind == ActionRestart {
		key += "@" + strconv.Itoa(a.ObservedRestarts)
	}

	if a.Spec != nil {
		key += "#" + strconv.FormatInt(a.Spec.Generation, 10)
	}

	return key
}
