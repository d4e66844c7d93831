package restart_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	testingclock "k8s.io/utils/clock/testing"

	"github.com/skillcoder/workload-reconciler/internal/logic/restart"
	"github.com/skillcoder/workload-reconciler/internal/logic/workload"
)

const podID = "default/web-0"

func newEngine() (*restart.Engine, *testingclock.FakeClock) {
	clk := testingclock.NewFakeClock(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))

	return restart.New(clk, restart.Config{
		Initial:    time.Second,
		Max:        4 * time.Second,
		ResetAfter: time.Minute,
	}), clk
}

func TestEngine_Terminated_Policies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		givePolicy    workload.RestartPolicy
		giveExitCode  int
		wantState     restart.State
		wantFatal     bool
		wantCompleted bool
		wantErr       error
	}{
		{
			name:         "never with failure is forbidden",
			givePolicy:   workload.RestartNever,
			giveExitCode: 1,
			wantState:    restart.StateTerminated,
			wantFatal:    true,
			wantErr:      restart.ErrRestartForbidden,
		},
		{
			name:          "never with success is forbidden and completed",
			givePolicy:    workload.RestartNever,
			giveExitCode:  0,
			wantState:     restart.StateTerminated,
			wantFatal:     true,
			wantCompleted: true,
			wantErr:       restart.ErrRestartForbidden,
		},
		{
			name:          "on failure with success completes",
			givePolicy:    workload.RestartOnFailure,
			giveExitCode:  0,
			wantState:     restart.StateTerminated,
			wantFatal:     true,
			wantCompleted: true,
		},
		{
			name:         "on failure with error backs off",
			givePolicy:   workload.RestartOnFailure,
			giveExitCode: 137,
			wantState:    restart.StateBackoff,
		},
		{
			name:         "always with success backs off",
			givePolicy:   workload.RestartAlways,
			giveExitCode: 0,
			wantState:    restart.StateBackoff,
		},
		{
			name:         "unknown policy is permanent",
			givePolicy:   "Sometimes",
			giveExitCode: 1,
			wantState:    restart.StateTerminated,
			wantFatal:    true,
			wantErr:      restart.ErrUnknownPolicy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			engine, _ := newEngine()

			got := engine.Terminated(podID, tt.givePolicy, tt.giveExitCode, 0)
			require.Equal(t, tt.wantState, got.State)
			require.Equal(t, tt.wantFatal, got.Fatal)
			require.Equal(t, tt.wantCompleted, got.Completed)

			if tt.wantErr == nil {
				require.NoError(t, got.Err)

				return
			}

			require.ErrorIs(t, got.Err, tt.wantErr)
			require.ErrorIs(t, got.Err, workload.ErrPermanentPolicy)
		})
	}
}

func TestEngine_CrashLoop(t *testing.T) {
	t.Parallel()

	engine, clk := newEngine()

	var waits []time.Duration

	for restarts := range 4 {
		got := engine.Terminated(podID, workload.RestartAlways, 1, restarts)
		require.Equal(t, restart.StateBackoff, got.State)
		require.True(t, got.Advanced)

		waits = append(waits, got.Wait)

		// a duplicate report of the same crash neither advances nor permits
		again := engine.Terminated(podID, workload.RestartAlways, 1, restarts)
		require.False(t, again.Advanced)
		require.Equal(t, restart.StateBackoff, again.State)

		clk.Step(got.Wait)

		ready := engine.Terminated(podID, workload.RestartAlways, 1, restarts)
		require.Equal(t, restart.StateRestartPending, ready.State)
		require.Zero(t, ready.Wait)

		engine.Restarted(podID, restarts+1)
	}

	require.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 4 * time.Second}, waits)
	require.Less(t, waits[0], waits[1])
	require.Less(t, waits[1], waits[2])
}

func TestEngine_ResetAfterSustainedRunning(t *testing.T) {
	t.Parallel()

	clk := testingclock.NewFakeClock(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	engine := restart.New(clk, restart.Config{
		Initial:    time.Second,
		Max:        time.Minute,
		ResetAfter: 10 * time.Second,
	})

	first := engine.Terminated(podID, workload.RestartAlways, 1, 0)
	clk.Step(first.Wait)
	engine.Restarted(podID, 1)

	second := engine.Terminated(podID, workload.RestartAlways, 1, 1)
	require.Equal(t, 2*time.Second, second.Wait)
	clk.Step(second.Wait)
	engine.Restarted(podID, 2)

	engine.Running(podID)
	clk.Step(10 * time.Second)
	engine.Running(podID)

	state, ok := engine.State(podID)
	require.True(t, ok)
	require.Equal(t, restart.StateRunning, state)

	third := engine.Terminated(podID, workload.RestartAlways, 1, 2)
	require.Equal(t, time.Second, third.Wait)
}

func TestEngine_IgnoresReplacedInstance(t *testing.T) {
	t.Parallel()

	engine, clk := newEngine()

	first := engine.Terminated(podID, workload.RestartAlways, 1, 0)
	clk.Step(first.Wait)
	engine.Restarted(podID, 1)

	late := engine.Terminated(podID, workload.RestartAlways, 1, 0)
	require.Equal(t, restart.StateRunning, late.State)
	require.False(t, late.Advanced)

	next := engine.Terminated(podID, workload.RestartAlways, 1, 1)
	require.Equal(t, 2*time.Second, next.Wait)
}

func TestEngine_WindowExpires(t *testing.T) {
	t.Parallel()

	engine, clk := newEngine()

	first := engine.Terminated(podID, workload.RestartAlways, 1, 0)
	clk.Step(first.Wait)
	engine.Restarted(podID, 1)

	// quiet for longer than twice the cap
	clk.Step(9 * time.Second)

	next := engine.Terminated(podID, workload.RestartAlways, 1, 1)
	require.Equal(t, time.Second, next.Wait)
}

func TestEngine_ForgetAndPrune(t *testing.T) {
	t.Parallel()

	engine, _ := newEngine()

	engine.Terminated("default/a", workload.RestartAlways, 1, 0)
	engine.Terminated("default/b", workload.RestartAlways, 1, 0)

	engine.Forget("default/a")

	_, ok := engine.State("default/a")
	require.False(t, ok)

	engine.Prune(map[string]struct{}{})

	_, ok = engine.State("default/b")
	require.False(t, ok)

	got := engine.Terminated("default/b", workload.RestartAlways, 1, 0)
	require.Equal(t, time.Second, got.Wait)
}
