package workload

// PodNameConflict is a pod name claimed by two different workloads.
type PodNameConflict struct {
	Pod      string
	Owner    string
	Claimant string
}

// FindPodNameConflicts walks specs in order and reports every workload that
// would create a pod already claimed by an earlier workload. At most one
// conflict is reported per claimant.
func FindPodNameConflicts(specs []WorkloadSpec) []PodNameConflict {
	owners := make(map[string]string)

	var conflicts []PodNameConflict

	for i := range specs {
		spec := &specs[i]

		for ordinal := range spec.Replicas {
			pod := Key(spec.Namespace, spec.PodName(ordinal))

			owner, ok := owners[pod]
			if !ok {
				owners[pod] = spec.Key()

				continue
			}

			if owner != spec.Key() {
				conflicts = append(conflicts, PodNameConflict{Pod: pod, Owner: owner, Claimant: spec.Key()})

				break
			}
		}
	}

	return conflicts
}
