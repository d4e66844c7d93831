package memory_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/skillcoder/workload-reconciler/internal/adapters/outbound/memory"
	"github.com/skillcoder/workload-reconciler/internal/logic/workload"
)

func TestStore_Workloads(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	store := memory.New()

	_, err := store.GetWorkloadQuery(ctx, "default", "web")

	var nf interface{ IsNotFound() }
	require.ErrorAs(t, err, &nf)

	spec := &workload.WorkloadSpec{
		Name:      "web",
		Namespace: "default",
		Labels:    map[string]string{"app": "web"},
		Replicas:  2,
	}
	require.NoError(t, store.SaveWorkloadCommand(ctx, spec))
	require.NoError(t, store.SaveWorkloadCommand(ctx, &workload.WorkloadSpec{Name: "api", Namespace: "jobs"}))

	// the caller's copy stays independent of the stored one
	spec.Labels["app"] = "changed"

	got, err := store.GetWorkloadQuery(ctx, "default", "web")
	require.NoError(t, err)
	require.Equal(t, "web", got.Labels["app"])
	require.Equal(t, 2, got.Replicas)

	all, err := store.ListWorkloadsQuery(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "default", all[0].Namespace)

	inJobs, err := store.ListWorkloadsQuery(ctx, "jobs")
	require.NoError(t, err)
	require.Len(t, inJobs, 1)

	require.NoError(t, store.DeleteWorkloadCommand(ctx, "default", "web"))
	require.ErrorAs(t, store.DeleteWorkloadCommand(ctx, "default", "web"), &nf)
}

func TestStore_PodStatusesAndConditions(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	store := memory.New()

	require.NoError(t, store.SavePodStatusCommand(ctx, &workload.PodStatus{
		Namespace: "default",
		Name:      "web-0",
		Workload:  "web",
		Phase:     workload.PhaseRunning,
	}))

	pods, err := store.ListPodStatusesQuery(ctx, "default")
	require.NoError(t, err)
	require.Len(t, pods, 1)
	require.Equal(t, workload.PhaseRunning, pods[0].Phase)

	require.NoError(t, store.DeletePodStatusCommand(ctx, "default", "web-0"))
	require.NoError(t, store.DeletePodStatusCommand(ctx, "default", "web-0"))

	pods, err = store.ListPodStatusesQuery(ctx, "default")
	require.NoError(t, err)
	require.Empty(t, pods)

	cond := &workload.WorkloadCondition{Namespace: "default", Name: "web", Phase: workload.ConditionReady}
	require.NoError(t, store.SaveConditionCommand(ctx, cond))

	got, err := store.GetConditionQuery(ctx, "default", "web")
	require.NoError(t, err)
	require.Equal(t, workload.ConditionReady, got.Phase)

	require.NoError(t, store.DeleteConditionCommand(ctx, "default", "web"))
	require.NoError(t, store.DeleteConditionCommand(ctx, "default", "web"))
}
