package workload_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/skillcoder/workload-reconciler/internal/logic/workload"
)

func TestWorkloadSpec_PodName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		giveKind workload.Kind
		giveOrd  int
		want     string
	}{
		{name: "pod keeps its name", giveKind: workload.KindPod, giveOrd: 0, want: "web"},
		{name: "deployment appends ordinal", giveKind: workload.KindDeployment, giveOrd: 2, want: "web-2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			spec := workload.WorkloadSpec{Kind: tt.giveKind, Name: "web", Namespace: "default"}
			require.Equal(t, tt.want, spec.PodName(tt.giveOrd))
			require.Equal(t, "default/"+tt.want, spec.PodRef(tt.giveOrd).Key())
		})
	}
}

func TestAction_Key(t *testing.T) {
	t.Parallel()

	pod := workload.PodRef{Namespace: "default", Name: "web-0", Workload: "web"}
	spec := &workload.WorkloadSpec{Generation: 3}

	first := workload.Action{Kind: workload.ActionRestart, Pod: pod, Spec: spec, ObservedRestarts: 1}
	same := workload.Action{Kind: workload.ActionRestart, Pod: pod, Spec: spec, ObservedRestarts: 1, Reason: "other"}
	next := workload.Action{Kind: workload.ActionRestart, Pod: pod, Spec: spec, ObservedRestarts: 2}

	require.Equal(t, first.Key(), same.Key())
	require.NotEqual(t, first.Key(), next.Key())
	require.Equal(t, "Restart", first.Kind.String())
	require.True(t, workload.NoOp(pod, workload.ReasonUpToDate).IsNoOp())
}

func TestSpecHash(t *testing.T) {
	t.Parallel()

	base := &workload.WorkloadSpec{
		Labels:    map[string]string{"app": "web", "tier": "front"},
		Container: workload.Container{Image: "nginx:1.27", Command: []string{"nginx"}},
	}
	reordered := &workload.WorkloadSpec{
		Labels:    map[string]string{"tier": "front", "app": "web"},
		Container: workload.Container{Image: "nginx:1.27", Command: []string{"nginx"}},
	}
	changed := &workload.WorkloadSpec{
		Labels:    base.Labels,
		Container: workload.Container{Image: "nginx:1.28", Command: []string{"nginx"}},
	}

	require.NotEmpty(t, workload.SpecHash(base))
	require.Equal(t, workload.SpecHash(base), workload.SpecHash(reordered))
	require.NotEqual(t, workload.SpecHash(base), workload.SpecHash(changed))
}

func TestEndpointSet_Addresses(t *testing.T) {
	t.Parallel()

	set := workload.EndpointSet{Endpoints: []workload.Endpoint{
		{Pod: "web-0", Address: "10.0.0.1", Port: 8080},
		{Pod: "web-1", Address: "10.0.0.2", Port: 8080},
	}}

	require.Equal(t, []string{"10.0.0.1:8080", "10.0.0.2:8080"}, set.Addresses())
}

func TestSemantic_DeepEqual(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := time.Now()
	cet := time.FixedZone("CET", 3600)

	tests := []struct {
		name  string
		giveA any
		giveB any
		want  bool
	}{
		{
			name:  "same instant in another zone",
			giveA: workload.WorkloadSpec{Name: "web", CreatedAt: at},
			giveB: workload.WorkloadSpec{Name: "web", CreatedAt: at.In(cet)},
			want:  true,
		},
		{
			name:  "nil and empty labels",
			giveA: workload.WorkloadSpec{Name: "web"},
			giveB: workload.WorkloadSpec{Name: "web", Labels: map[string]string{}},
			want:  true,
		},
		{
			name:  "different transition time",
			giveA: workload.PodStatus{Name: "web-0", LastTransitionTime: at},
			giveB: workload.PodStatus{Name: "web-0", LastTransitionTime: at.Add(time.Second)},
			want:  false,
		},
		{
			name:  "monotonic reading dropped by the store",
			giveA: workload.PodStatus{Name: "web-0", LastTransitionTime: now},
			giveB: workload.PodStatus{Name: "web-0", LastTransitionTime: now.Round(0)},
			want:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tt.want, workload.Semantic.DeepEqual(tt.giveA, tt.giveB))
		})
	}
}

func TestFindPodNameConflicts(t *testing.T) {
	t.Parallel()

	pod := func(ns, name string) workload.WorkloadSpec {
		return workload.WorkloadSpec{Kind: workload.KindPod, Namespace: ns, Name: name, Replicas: 1}
	}
	deployment := func(ns, name string, replicas int) workload.WorkloadSpec {
		return workload.WorkloadSpec{Kind: workload.KindDeployment, Namespace: ns, Name: name, Replicas: replicas}
	}

	tests := []struct {
		name string
		give []workload.WorkloadSpec
		want []workload.PodNameConflict
	}{
		{
			name: "pod named like a deployment replica",
			give: []workload.WorkloadSpec{deployment("default", "web", 2), pod("default", "web-1")},
			want: []workload.PodNameConflict{{Pod: "default/web-1", Owner: "default/web", Claimant: "default/web-1"}},
		},
		{
			name: "replica beyond the deployment size",
			give: []workload.WorkloadSpec{deployment("default", "web", 2), pod("default", "web-2")},
		},
		{
			name: "other namespace",
			give: []workload.WorkloadSpec{deployment("default", "web", 2), pod("prod", "web-0")},
		},
		{
			name: "deployment named like a pod with ordinal",
			give: []workload.WorkloadSpec{pod("default", "api-0"), deployment("default", "api", 3)},
			want: []workload.PodNameConflict{{Pod: "default/api-0", Owner: "default/api-0", Claimant: "default/api"}},
		},
		{
			name: "scaled to zero claims nothing",
			give: []workload.WorkloadSpec{deployment("default", "web", 0), pod("default", "web-0")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tt.want, workload.FindPodNameConflicts(tt.give))
		})
	}
}
