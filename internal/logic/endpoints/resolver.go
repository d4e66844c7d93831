package endpoints

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/skillcoder/workload-reconciler/internal/infra/metrics"
	"github.com/skillcoder/workload-reconciler/internal/logic/tracker"
	"github.com/skillcoder/workload-reconciler/internal/logic/workload"
)

const transitionBuffer = 256

type podSource interface {
	Snapshot(namespace string) []workload.PodStatus
	Subscribe(buffer int) (<-chan tracker.Transition, func())
}

// Resolver keeps the endpoint sets of registered services current as pods
// change phase or labels.
type Resolver struct {
	logger *slog.Logger
	pods   podSource

	mu       sync.RWMutex
	services map[string]workload.ServiceSpec
	sets     map[string]workload.EndpointSet

	ready      chan struct{}
	doneCh     chan struct{}
	inShutdown atomic.Bool
}

// NewResolver creates a resolver reading pod observations from pods.
func NewResolver(logger *slog.Logger, pods podSource) *Resolver {
	return &Resolver{
		logger:   logger.With("component", "endpoints"),
		pods:     pods,
		services: make(map[string]workload.ServiceSpec),
		sets:     make(map[string]workload.EndpointSet),
		ready:    make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

func (r *Resolver) Name() string {
	return "endpoints-resolver"
}

// Start subscribes to pod transitions and keeps resolving until ctx is done.
func (r *Resolver) Start(ctx context.Context) error {
	if r.inShutdown.Load() {
		r.logger.InfoContext(ctx, "endpoints resolver is shutting down, skipping start")

		return nil
	}

	transitions, cancel := r.pods.Subscribe(transitionBuffer)

	go r.run(ctx, transitions, cancel)

	return nil
}

func (r *Resolver) Ready() <-chan struct{} {
	return r.ready
}

func (r *Resolver) Ping(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-r.ready:
		return nil
	default:
		return fmt.Errorf("endpoints resolver is not ready")
	}
}

func (r *Resolver) Shutdown(ctx context.Context) error {
	if !r.inShutdown.CompareAndSwap(false, true) {
		return nil
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("shutdown context done before endpoints loop exited: %w", ctx.Err())
	case <-r.doneCh:
		r.logger.InfoContext(ctx, "endpoints loop exited")
	}

	return nil
}

func (r *Resolver) run(ctx context.Context, transitions <-chan tracker.Transition, cancel func()) {
	defer close(r.doneCh)
	defer cancel()

	r.recomputeAll()
	close(r.ready)

	for {
		select {
		case <-ctx.Done():
			return
		case tr, ok := <-transitions:
			if !ok {
				return
			}

			if tr.PhaseChanged() || tr.LabelsChanged() {
				r.recomputeNamespace(tr.Namespace)
			}
		}
	}
}

// Resolve computes an endpoint set on demand for an ad hoc selector.
func (r *Resolver) Resolve(namespace string, selector map[string]string, port int32) workload.EndpointSet {
	svc := workload.ServiceSpec{Namespace: namespace, Selector: selector, TargetPort: port}

	return Resolve(&svc, r.pods.Snapshot(namespace))
}

// Endpoints returns the cached endpoint set of a registered service.
func (r *Resolver) Endpoints(namespace, name string) (workload.EndpointSet, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set, ok := r.sets[workload.Key(namespace, name)]
	if !ok {
		return workload.EndpointSet{}, false
	}

	set.Endpoints = slices.Clone(set.Endpoints)

	return set, true
}

// Register starts resolving a service, replacing a previous spec with the same identity.
func (r *Resolver) Register(svc workload.ServiceSpec) {
	svc.Selector = maps.Clone(svc.Selector)

	r.mu.Lock()
	r.services[svc.Key()] = svc
	r.mu.Unlock()

	r.recomputeNamespace(svc.Namespace)
}

// Unregister stops resolving a service.
func (r *Resolver) Unregister(namespace, name string) {
	key := workload.Key(namespace, name)

	r.mu.Lock()
	delete(r.services, key)
	delete(r.sets, key)
	r.mu.Unlock()

	metrics.DeleteServiceEndpoints(namespace, name)
}

// SyncServices makes the registered set equal to services.
func (r *Resolver) SyncServices(ctx context.Context, services []workload.ServiceSpec) error {
	want := make(map[string]workload.ServiceSpec, len(services))
	for _, svc := range services {
		want[svc.Key()] = svc
	}

	r.mu.RLock()
	var stale []workload.ServiceSpec

	for key, svc := range r.services {
		if _, ok := want[key]; !ok {
			stale = append(stale, svc)
		}
	}

	var changed []workload.ServiceSpec

	for key, svc := range want {
		cur, ok := r.services[key]
		if !ok || cur.TargetPort != svc.TargetPort || !maps.Equal(cur.Selector, svc.Selector) {
			changed = append(changed, svc)
		}
	}
	r.mu.RUnlock()

	for _, svc := range stale {
		r.logger.InfoContext(ctx, "service removed", "namespace", svc.Namespace, "service", svc.Name)
		r.Unregister(svc.Namespace, svc.Name)
	}

	for _, svc := range changed {
		r.logger.InfoContext(ctx, "service registered", "namespace", svc.Namespace, "service", svc.Name)
		r.Register(svc)
	}

	return nil
}

func (r *Resolver) recomputeAll() {
	r.mu.RLock()
	namespaces := make(map[string]struct{})
	for _, svc := range r.services {
		namespaces[svc.Namespace] = struct{}{}
	}
	r.mu.RUnlock()

	for ns := range namespaces {
		r.recomputeNamespace(ns)
	}
}

func (r *Resolver) recomputeNamespace(namespace string) {
	pods := r.pods.Snapshot(namespace)

	r.mu.Lock()
	defer r.mu.Unlock()

	for key, svc := range r.services {
		if svc.Namespace != namespace {
			continue
		}

		set := Resolve(&svc, pods)

		prev, ok := r.sets[key]
		if ok && slices.Equal(prev.Endpoints, set.Endpoints) {
			continue
		}

		r.sets[key] = set
		metrics.SetServiceEndpoints(svc.Namespace, svc.Name, len(set.Endpoints))

		r.logger.Info("endpoints changed",
			"namespace", svc.Namespace,
			"service", svc.Name,
			"endpoints", set.Addresses(),
		)
	}
}
