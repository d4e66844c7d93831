package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"k8s.io/utils/clock"

	"github.com/skillcoder/workload-reconciler/internal/infra/metrics"
	"github.com/skillcoder/workload-reconciler/internal/logic/tracker"
	"github.com/skillcoder/workload-reconciler/internal/logic/workload"
)

// Service runs one worker per workload identity and keeps them fed with
// desired state from the store and observed state from the orchestrator.
type Service struct {
	logger   *slog.Logger
	cfg      Config
	repo     Repository
	store    Store
	pods     *tracker.Tracker
	services serviceSyncer
	schedule scheduler
	retry    retrier
	clock    clock.WithTicker

	ready      chan struct{}
	doneCh     chan struct{}
	inShutdown atomic.Bool
	wg         sync.WaitGroup

	mu           sync.RWMutex
	workers      map[string]*worker
	lastSyncTime time.Time
}

// New creates a new controller service.
func New(
	logger *slog.Logger,
	cfg Config,
	repo Repository,
	store Store,
	pods *tracker.Tracker,
	services serviceSyncer,
	schedule scheduler,
	retry retrier,
	clk clock.WithTicker,
) *Service {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}

	return &Service{
		logger:   logger.With("component", "controller"),
		cfg:      cfg,
		repo:     repo,
		store:    store,
		pods:     pods,
		services: services,
		schedule: schedule,
		retry:    retry,
		clock:    clk,
		ready:    make(chan struct{}),
		doneCh:   make(chan struct{}),
		workers:  make(map[string]*worker),
	}
}

func (s *Service) Start(ctx context.Context) error {
	if s.inShutdown.Load() {
		s.logger.InfoContext(ctx, "controller service is shutting down, skipping start")

		return nil
	}

	go s.RunCommand(ctx)

	return nil
}

// Name returns the name of the component
func (s *Service) Name() string {
	return "workload-reconciler"
}

func (s *Service) Ready() <-chan struct{} {
	return s.ready
}

func (s *Service) Ping(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.ready:
		age := s.clock.Since(s.getLastSyncTime())
		if age > 2*s.cfg.Interval {
			return fmt.Errorf("last sync was too long ago: %s", age.Round(time.Second).String())
		}

		return nil
	default:
		return ErrNotReady
	}
}

func (s *Service) Shutdown(ctx context.Context) error {
	if !s.inShutdown.CompareAndSwap(false, true) {
		s.logger.ErrorContext(ctx, "controller service is already shutting down, skipping shutdown")

		return nil
	}

	defer func() {
		s.logger.InfoContext(ctx, "controller service shut down")
	}()

	s.logger.InfoContext(ctx, "shutting down controller service")

	// RunCommand exits on ctx cancellation once every worker has returned.
	select {
	case <-ctx.Done():
		return fmt.Errorf("shutdown context done before controller loop exited: %w", ctx.Err())
	case <-s.doneCh:
		s.logger.InfoContext(ctx, "controller loop exited")
	}

	return nil
}

// RunCommand feeds the tracker from the orchestrator watch, dispatches
// transitions to workers and resyncs specs every interval until ctx is done.
func (s *Service) RunCommand(ctx context.Context) {
	defer close(s.doneCh)

	logger := s.logger.With("controller", "RunCommand")

	transitions, cancel := s.pods.Subscribe(transitionBuffer)
	defer cancel()

	watchDone := make(chan struct{})

	go s.watchPods(ctx, watchDone)

	if err := s.SyncCommand(ctx); err != nil {
		logger.ErrorContext(ctx, "initial sync error", "reason", err)
	}

	close(s.ready)

	ticker := s.clock.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.InfoContext(ctx, "terminating main controller loop")
			s.wg.Wait()
			<-watchDone

			return
		case tr, ok := <-transitions:
			if !ok {
				return
			}

			s.dispatch(tr)
		case <-ticker.C():
			if err := s.SyncCommand(ctx); err != nil {
				logger.ErrorContext(ctx, "sync error", "reason", err)
			}
		}
	}
}

// SyncCommand reconciles the worker set with the stored specs, refreshes the
// tracker from a full pod listing and wakes every worker.
func (s *Service) SyncCommand(ctx context.Context) error {
	logger := s.logger.With("controller", "SyncCommand")

	specs, err := s.store.ListWorkloadsQuery(ctx, s.cfg.Namespace)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrListSpecs, err)
	}

	var errs []error

	if err := s.resyncPods(ctx); err != nil {
		// workers still act on what the watch delivered
		errs = append(errs, err)
	}

	s.syncWorkers(ctx, specs)

	if err := s.syncServices(ctx); err != nil {
		errs = append(errs, err)
	}

	s.setLastSyncTime(s.clock.Now())

	logger.DebugContext(ctx, "sync done", "workloads", len(specs))

	return errors.Join(errs...)
}

// WorkersQuery returns the state of every worker ordered by identity.
func (s *Service) WorkersQuery(_ context.Context) []WorkerInfo {
	s.mu.RLock()
	workers := slices.Collect(maps.Values(s.workers))
	s.mu.RUnlock()

	out := make([]WorkerInfo, 0, len(workers))
	for _, w := range workers {
		out = append(out, w.info())
	}

	slices.SortFunc(out, func(a, b WorkerInfo) int {
		return strings.Compare(workload.Key(a.Namespace, a.Workload), workload.Key(b.Namespace, b.Workload))
	})

	return out
}

// WorkerQuery returns the state of the worker reconciling one workload.
func (s *Service) WorkerQuery(_ context.Context, namespace, name string) (WorkerInfo, bool) {
	s.mu.RLock()
	w, ok := s.workers[workload.Key(namespace, name)]
	s.mu.RUnlock()

	if !ok {
		return WorkerInfo{}, false
	}

	return w.info(), true
}

func (s *Service) syncServices(ctx context.Context) error {
	services, err := s.store.ListServicesQuery(ctx, s.cfg.Namespace)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrListServices, err)
	}

	if err := s.services.SyncServices(ctx, services); err != nil {
		return fmt.Errorf("%w: %w", ErrSyncServices, err)
	}

	return nil
}

// resyncPods applies a full listing to the tracker. Tracked pods missing from
// the listing are dropped unless the watch delivered them after the revision
// the listing reflects.
func (s *Service) resyncPods(ctx context.Context) error {
	var list PodList

	err := s.retry.Do(ctx, "list pods", func(ctx context.Context) error {
		var err error

		list, err = s.repo.ListPodsQuery(ctx, s.cfg.Namespace)

		return err
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrListPods, err)
	}

	listed := make(map[string]struct{}, len(list.Items))

	for i := range list.Items {
		listed[list.Items[i].Key()] = struct{}{}

		s.pods.Apply(tracker.Event{Status: list.Items[i]})
	}

	for _, p := range s.pods.Snapshot(s.cfg.Namespace) {
		if _, ok := listed[p.Key()]; ok {
			continue
		}

		if list.ResourceVersion != 0 && p.Sequence > list.ResourceVersion {
			continue
		}

		s.pods.Apply(tracker.Event{Status: p, Deleted: true})
	}

	return nil
}

func (s *Service) syncWorkers(ctx context.Context, specs []workload.WorkloadSpec) {
	desired := make(map[string]*workload.WorkloadSpec, len(specs))
	for i := range specs {
		desired[specs[i].Key()] = &specs[i]
	}

	// workloads with pods but no spec are scaled to zero by a worker too
	for _, key := range s.pods.Workloads() {
		if _, ok := desired[key]; !ok {
			desired[key] = nil
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, w := range s.workers {
		if _, ok := desired[key]; !ok {
			w.update(nil)
		}
	}

	for key, spec := range desired {
		w, ok := s.workers[key]
		if !ok {
			if s.inShutdown.Load() || ctx.Err() != nil {
				continue
			}

			namespace, name := splitKey(key)
			w = newWorker(s, namespace, name)
			s.workers[key] = w
			s.wg.Add(1)

			go w.run(ctx)

			s.logger.InfoContext(ctx, "worker started", "workload", key)
		}

		w.update(spec)
	}

	metrics.SetWorkers(len(s.workers))
}

// dispatch wakes the worker owning the pod of a transition.
func (s *Service) dispatch(tr tracker.Transition) {
	s.mu.RLock()
	w, ok := s.workers[workload.Key(tr.Namespace, tr.Workload)]
	s.mu.RUnlock()

	if ok {
		w.notify()
	}
}

// retire removes a worker that has nothing left to do. It reports false when
// the workload got a spec again in the meantime.
func (s *Service) retire(w *worker) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !w.retirable() {
		return false
	}

	if cur, ok := s.workers[w.key]; ok && cur == w {
		delete(s.workers, w.key)
	}

	metrics.SetWorkers(len(s.workers))

	return true
}

func (s *Service) watchPods(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	logger := s.logger.With("controller", "watchPods")

	handler := func(ev PodEvent) {
		s.pods.Apply(tracker.Event{
			ID:      ev.ID,
			Status:  ev.Status,
			Deleted: ev.Deleted,
		})
	}

	for {
		err := s.repo.WatchPodsQuery(ctx, s.cfg.Namespace, handler)
		if ctx.Err() != nil {
			return
		}

		logger.ErrorContext(ctx, "pod watch stopped, restarting", "reason", err)

		select {
		case <-ctx.Done():
			return
		case <-s.clock.After(s.cfg.Interval):
		}
	}
}

func (s *Service) getLastSyncTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lastSyncTime
}

func (s *Service) setLastSyncTime(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastSyncTime = t
}
