package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/skillcoder/workload-reconciler/internal/infra/metrics"
	"github.com/skillcoder/workload-reconciler/internal/logic/reconciler"
	"github.com/skillcoder/workload-reconciler/internal/logic/restart"
	"github.com/skillcoder/workload-reconciler/internal/logic/workload"
)

// worker is the single writer for one workload identity.
type worker struct {
	svc       *Service
	logger    *slog.Logger
	key       string
	namespace string
	name      string
	engine    *restart.Engine
	wake      chan struct{}

	mu               sync.Mutex
	desired          *workload.WorkloadSpec
	known            bool
	failedGeneration int64
	failure          string
	condition        *workload.WorkloadCondition
	persisted        map[string]workload.PodStatus
	issued           map[string]time.Time
	replacing        map[string]int
	scheduledGen     int64
	nextScheduled    time.Time
	lastReconcile    time.Time
	nextWake         time.Time
	scheduledAt      time.Time
	podCount         int
	backoff          map[string]restart.State
	lastErr          error
}

func newWorker(svc *Service, namespace, name string) *worker {
	key := workload.Key(namespace, name)

	return &worker{
		svc:       svc,
		logger:    svc.logger.With("workload", key),
		key:       key,
		namespace: namespace,
		name:      name,
		engine:    restart.New(svc.clock, svc.cfg.Backoff),
		wake:      make(chan struct{}, 1),
		persisted: make(map[string]workload.PodStatus),
		issued:    make(map[string]time.Time),
		replacing: make(map[string]int),
	}
}

// update replaces the desired spec; nil means the workload was deleted.
func (w *worker) update(spec *workload.WorkloadSpec) {
	w.mu.Lock()

	if spec != nil {
		cp := *spec
		spec = &cp
	}

	w.desired = spec
	w.known = true
	w.mu.Unlock()

	w.notify()
}

func (w *worker) notify() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *worker) run(ctx context.Context) {
	defer w.svc.wg.Done()

	for {
		wait := w.reconcile(ctx)

		if w.done() && w.svc.retire(w) {
			w.cleanup(ctx)
			w.logger.InfoContext(ctx, "worker stopped, no pods left")

			return
		}

		var timerC <-chan time.Time

		if wait > 0 {
			timer := w.svc.clock.NewTimer(wait)
			timerC = timer.C()

			select {
			case <-ctx.Done():
				timer.Stop()

				return
			case <-w.wake:
			case <-timerC:
			}

			timer.Stop()

			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-w.wake:
		}
	}
}

// reconcile runs one pass and returns the delay until the next timed wake-up,
// or zero when only events should wake the worker.
func (w *worker) reconcile(ctx context.Context) time.Duration {
	spec, known := w.spec()
	if !known {
		return 0
	}

	now := w.svc.clock.Now()
	pods := w.svc.pods.List(w.namespace, w.name)

	w.persist(ctx, pods)

	var (
		wait    time.Duration
		lastErr error
	)

	if spec != nil && w.halted(spec.Generation) {
		w.record(now, pods, 0, nil)

		return 0
	}

	var gate map[string]restart.Decision

	if spec != nil {
		var err error

		gate, wait, err = w.feedEngine(ctx, spec, pods)
		if err != nil {
			w.halt(ctx, spec, err)
			w.record(now, pods, 0, err)

			return 0
		}
	}

	actions := reconciler.Pending(reconciler.Plan(spec, pods))
	actions = append(actions, w.scheduledRestarts(ctx, spec, pods, now)...)

	if spec != nil && spec.RestartSchedule != "" && !w.nextScheduled.IsZero() {
		wait = shortest(wait, w.nextScheduled.Sub(now))
	}

	produced := make(map[string]struct{}, len(actions))

	for _, action := range actions {
		if action.Kind == workload.ActionRestart && gated(action.Reason) {
			if d, ok := gate[action.Pod.Key()]; ok && d.State != restart.StateRestartPending {
				metrics.RecordAction(action.Kind.String(), action.Reason, "backoff")

				continue
			}
		}

		key := action.Key()
		produced[key] = struct{}{}

		if at, ok := w.issued[key]; ok && now.Sub(at) < w.issuedTTL() {
			metrics.RecordAction(action.Kind.String(), action.Reason, "duplicate")

			continue
		}

		err := w.execute(ctx, action)
		if err != nil {
			lastErr = err

			var target permanent
			if spec != nil && errors.As(err, &target) {
				w.halt(ctx, spec, err)

				break
			}

			continue
		}

		w.issued[key] = now
	}

	// an action no longer produced had its effect observed
	maps.DeleteFunc(w.issued, func(key string, _ time.Time) bool {
		_, ok := produced[key]

		return !ok
	})

	w.record(now, pods, wait, lastErr)

	if spec != nil && !w.halted(spec.Generation) {
		w.setCondition(ctx, spec, pods, gate)
	}

	return wait
}

// feedEngine reports every observed pod to the restart engine and returns the
// engine decisions for terminated pods together with the shortest backoff wait.
func (w *worker) feedEngine(
	ctx context.Context,
	spec *workload.WorkloadSpec,
	pods []workload.PodStatus,
) (map[string]restart.Decision, time.Duration, error) {
	gate := make(map[string]restart.Decision)
	keep := make(map[string]struct{}, len(pods)+spec.Replicas)

	for ordinal := range spec.Replicas {
		keep[spec.PodRef(ordinal).Key()] = struct{}{}
	}

	var wait time.Duration

	hash := workload.SpecHash(spec)

	for i := range pods {
		pod := &pods[i]
		id := pod.Key()
		keep[id] = struct{}{}

		// outdated pods are replaced regardless of how they ended
		if pod.Terminating || pod.Ordinal >= spec.Replicas || (pod.SpecHash != "" && pod.SpecHash != hash) {
			continue
		}

		switch pod.Phase {
		case workload.PhaseRunning:
			w.engine.Running(id)
		case workload.PhaseSucceeded, workload.PhaseFailed, workload.PhaseCrashLoopBackOff:
			d := w.engine.Terminated(id, spec.RestartPolicy, pod.LastExitCode, pod.RestartCount)
			gate[id] = d

			if d.Fatal && !d.Completed && d.Err != nil {
				return gate, 0, fmt.Errorf("pod %s exited with code %d: %w", pod.Name, pod.LastExitCode, d.Err)
			}

			if d.State == restart.StateBackoff {
				wait = shortest(wait, d.Wait)

				if d.Advanced {
					metrics.ObserveRestartBackoff(d.Wait.Seconds())
					w.logger.InfoContext(ctx, "container in backoff",
						"pod", pod.Name,
						"restarts", pod.RestartCount,
						"wait", d.Wait.String(),
					)
					w.svc.pods.MarkBackoff(id)
				}
			}
		case workload.PhasePending:
		}
	}

	w.engine.Prune(keep)
	maps.DeleteFunc(w.replacing, func(id string, _ int) bool {
		_, ok := keep[id]

		return !ok
	})

	return gate, wait, nil
}

func (w *worker) scheduledRestarts(
	ctx context.Context,
	spec *workload.WorkloadSpec,
	pods []workload.PodStatus,
	now time.Time,
) []workload.Action {
	if spec == nil || spec.RestartSchedule == "" {
		w.nextScheduled = time.Time{}

		return nil
	}

	if w.nextScheduled.IsZero() || w.scheduledGen != spec.Generation {
		w.scheduleNext(ctx, spec, now)

		return nil
	}

	if now.Before(w.nextScheduled) {
		return nil
	}

	var actions []workload.Action

	for i := range pods {
		pod := &pods[i]
		if pod.Phase != workload.PhaseRunning || pod.Terminating || pod.Ordinal >= spec.Replicas {
			continue
		}

		actions = append(actions, workload.Action{
			Kind:             workload.ActionRestart,
			Pod:              pod.Ref(),
			Spec:             spec,
			Reason:           workload.ReasonScheduled,
			ObservedRestarts: pod.RestartCount,
		})
	}

	w.logger.InfoContext(ctx, "scheduled restart", "pods", len(actions), "at", w.nextScheduled)
	w.scheduleNext(ctx, spec, now)

	return actions
}

func (w *worker) scheduleNext(ctx context.Context, spec *workload.WorkloadSpec, now time.Time) {
	next, err := w.svc.schedule.NextAfter(spec.RestartSchedule, spec.Timezone, now)
	if err != nil {
		w.logger.ErrorContext(ctx, "restart schedule error", "schedule", spec.RestartSchedule, "reason", err)
		w.nextScheduled = time.Time{}

		return
	}

	w.scheduledGen = spec.Generation
	w.nextScheduled = next
}

// execute performs one action through the retry wrapper.
func (w *worker) execute(ctx context.Context, action workload.Action) error {
	logger := w.logger.With("action", action.Kind.String(), "pod", action.Pod.Name, "trigger", action.Reason)
	id := action.Pod.Key()
	operation := strings.ToLower(action.Kind.String()) + " pod"

	var err error

	switch action.Kind {
	case workload.ActionCreate:
		// a restart that deleted the pod but failed to create it is finished here
		restarts := max(action.ObservedRestarts, w.replacing[id])

		err = w.svc.retry.Do(ctx, operation, func(ctx context.Context) error {
			return w.svc.repo.CreatePodCommand(ctx, action.Spec, action.Pod, restarts)
		})
		if err == nil && restarts > 0 {
			delete(w.replacing, id)
			w.engine.Restarted(id, restarts)
		}
	case workload.ActionRestart:
		restarts := action.ObservedRestarts + 1

		err = w.svc.retry.Do(ctx, operation, func(ctx context.Context) error {
			return w.svc.repo.RestartPodCommand(ctx, action.Spec, action.Pod, restarts)
		})
		if err != nil {
			w.replacing[id] = max(w.replacing[id], restarts)

			break
		}

		delete(w.replacing, id)
		w.engine.Restarted(id, restarts)
		metrics.RecordRestart(action.Pod.Namespace, action.Pod.Workload, action.Reason)
	case workload.ActionDelete:
		err = w.svc.retry.Do(ctx, operation, func(ctx context.Context) error {
			return w.svc.repo.DeletePodCommand(ctx, action.Pod)
		})
		if err == nil {
			delete(w.replacing, id)
			w.engine.Forget(id)
		}
	case workload.ActionNoOp:
		return nil
	}

	if err != nil {
		metrics.RecordAction(action.Kind.String(), action.Reason, "error")
		logger.ErrorContext(ctx, "action failed", "reason", err)

		return fmt.Errorf("%w: %s %s: %w", ErrExecute, action.Kind, action.Pod.Key(), err)
	}

	metrics.RecordAction(action.Kind.String(), action.Reason, "ok")
	logger.InfoContext(ctx, "action executed", "restarts", action.ObservedRestarts)

	return nil
}

// halt stops reconciling the current generation until a new one is applied.
func (w *worker) halt(ctx context.Context, spec *workload.WorkloadSpec, err error) {
	w.mu.Lock()
	already := w.failedGeneration == spec.Generation
	w.failedGeneration = spec.Generation
	w.failure = err.Error()
	w.mu.Unlock()

	if already {
		return
	}

	metrics.RecordPolicyFailure(w.namespace, w.name)
	w.logger.ErrorContext(ctx, "reconciliation halted", "generation", spec.Generation, "reason", err)

	w.saveCondition(ctx, &workload.WorkloadCondition{
		Namespace:          w.namespace,
		Name:               w.name,
		Phase:              workload.ConditionFailed,
		Message:            err.Error(),
		ObservedGeneration: spec.Generation,
	})
}

func (w *worker) halted(generation int64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.failedGeneration != 0 && w.failedGeneration == generation
}

func (w *worker) setCondition(
	ctx context.Context,
	spec *workload.WorkloadSpec,
	pods []workload.PodStatus,
	gate map[string]restart.Decision,
) {
	var ready, completed int

	hash := workload.SpecHash(spec)

	for i := range pods {
		pod := &pods[i]
		if pod.Terminating || pod.Ordinal >= spec.Replicas {
			continue
		}

		if pod.Phase == workload.PhaseRunning && (pod.SpecHash == "" || pod.SpecHash == hash) {
			ready++
		}

		if d, ok := gate[pod.Key()]; ok && d.Fatal && d.Completed {
			completed++
		}
	}

	cond := &workload.WorkloadCondition{
		Namespace:          w.namespace,
		Name:               w.name,
		Phase:              workload.ConditionProgressing,
		ObservedGeneration: spec.Generation,
	}

	switch {
	case spec.Replicas > 0 && completed == spec.Replicas:
		cond.Phase = workload.ConditionCompleted
		cond.Message = "all pods completed"
	case ready == spec.Replicas:
		cond.Phase = workload.ConditionReady
		cond.Message = strconv.Itoa(ready) + "/" + strconv.Itoa(spec.Replicas) + " pods running"
	default:
		cond.Message = strconv.Itoa(ready) + "/" + strconv.Itoa(spec.Replicas) + " pods running"
	}

	w.saveCondition(ctx, cond)
}

// saveCondition persists cond when it differs from the last saved one.
func (w *worker) saveCondition(ctx context.Context, cond *workload.WorkloadCondition) {
	w.mu.Lock()
	prev := w.condition
	w.mu.Unlock()

	if prev != nil &&
		prev.Phase == cond.Phase &&
		prev.Message == cond.Message &&
		prev.ObservedGeneration == cond.ObservedGeneration {
		return
	}

	cond.UpdatedAt = w.svc.clock.Now()

	if err := w.svc.store.SaveConditionCommand(ctx, cond); err != nil {
		w.logger.ErrorContext(ctx, "save condition error", "reason", err)

		return
	}

	w.logger.InfoContext(ctx, "condition changed", "phase", cond.Phase, "message", cond.Message)

	w.mu.Lock()
	w.condition = cond
	w.mu.Unlock()
}

// persist writes changed pod observations to the store and removes vanished ones.
func (w *worker) persist(ctx context.Context, pods []workload.PodStatus) {
	current := make(map[string]struct{}, len(pods))

	for i := range pods {
		pod := pods[i]
		current[pod.Name] = struct{}{}

		if prev, ok := w.persisted[pod.Name]; ok && workload.Semantic.DeepEqual(prev, pod) {
			continue
		}

		if err := w.svc.store.SavePodStatusCommand(ctx, &pod); err != nil {
			w.logger.ErrorContext(ctx, "save pod status error", "pod", pod.Name, "reason", err)

			continue
		}

		w.persisted[pod.Name] = pod
	}

	for name := range w.persisted {
		if _, ok := current[name]; ok {
			continue
		}

		if err := w.svc.store.DeletePodStatusCommand(ctx, w.namespace, name); err != nil {
			w.logger.ErrorContext(ctx, "delete pod status error", "pod", name, "reason", err)

			continue
		}

		delete(w.persisted, name)
	}
}

// cleanup drops what the worker stored about a removed workload.
func (w *worker) cleanup(ctx context.Context) {
	w.persist(ctx, nil)

	if err := w.svc.store.DeleteConditionCommand(ctx, w.namespace, w.name); err != nil {
		w.logger.ErrorContext(ctx, "delete condition error", "reason", err)
	}
}

func (w *worker) spec() (*workload.WorkloadSpec, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.desired, w.known
}

// done reports whether a deleted workload has no pods left.
func (w *worker) done() bool {
	spec, known := w.spec()

	return known && spec == nil && len(w.svc.pods.List(w.namespace, w.name)) == 0
}

// retirable is called with the service lock held.
func (w *worker) retirable() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.desired == nil
}

func (w *worker) record(now time.Time, pods []workload.PodStatus, wait time.Duration, err error) {
	var backoff map[string]restart.State

	for i := range pods {
		if state, ok := w.engine.State(pods[i].Key()); ok && state != restart.StateRunning {
			if backoff == nil {
				backoff = make(map[string]restart.State)
			}

			backoff[pods[i].Name] = state
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.lastReconcile = now
	w.podCount = len(pods)
	w.backoff = backoff
	w.scheduledAt = w.nextScheduled
	w.lastErr = err
	w.nextWake = time.Time{}

	if wait > 0 {
		w.nextWake = now.Add(wait)
	}
}

func (w *worker) info() WorkerInfo {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := WorkerInfo{
		Namespace:     w.namespace,
		Workload:      w.name,
		Deleted:       w.known && w.desired == nil,
		Pods:          w.podCount,
		Backoff:       maps.Clone(w.backoff),
		LastReconcile: w.lastReconcile,
		NextWake:      w.nextWake,
		NextScheduled: w.scheduledAt,
	}

	if w.desired != nil {
		out.Generation = w.desired.Generation
		out.Halted = w.failedGeneration != 0 && w.failedGeneration == w.desired.Generation
	}

	if w.condition != nil {
		out.Condition = w.condition.Phase
	}

	if out.Halted {
		out.LastError = w.failure
	} else if w.lastErr != nil {
		out.LastError = w.lastErr.Error()
	}

	return out
}

func (w *worker) issuedTTL() time.Duration {
	return issuedTTLIntervals * w.svc.cfg.Interval
}

// gated reports whether a restart reason waits for the crash-loop backoff.
func gated(reason string) bool {
	return reason == workload.ReasonCrashed || reason == workload.ReasonCompleted
}

func shortest(cur, next time.Duration) time.Duration {
	if next <= 0 {
		return cur
	}

	if cur <= 0 || next < cur {
		return next
	}

	return cur
}

func splitKey(key string) (string, string) {
	namespace, name, _ := strings.Cut(key, "/")

	return namespace, name
}
