// Package catalog is the use case behind the CLI: it validates manifests,
// stores desired state and reads back what the reconciler observed.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"k8s.io/utils/clock"

	"github.com/skillcoder/workload-reconciler/internal/logic/endpoints"
	"github.com/skillcoder/workload-reconciler/internal/logic/manifest"
	"github.com/skillcoder/workload-reconciler/internal/logic/workload"
)

type Service struct {
	logger *slog.Logger
	store  Store
	parser bundleParser
	clock  clock.PassiveClock
}

// New creates a catalog service.
func New(
	logger *slog.Logger,
	store Store,
	parser bundleParser,
	clk clock.PassiveClock,
) *Service {
	return &Service{
		logger: logger.With("component", "catalog"),
		store:  store,
		parser: parser,
		clock:  clk,
	}
}

// ValidateQuery parses and validates a manifest without storing anything.
func (s *Service) ValidateQuery(data []byte) (*manifest.Bundle, error) {
	bundle, err := s.parser.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}

	return bundle, nil
}

// ApplyCommand validates every document of a manifest and stores them.
// Nothing is stored when any document is invalid.
func (s *Service) ApplyCommand(ctx context.Context, data []byte) ([]Applied, error) {
	bundle, err := s.ValidateQuery(data)
	if err != nil {
		return nil, err
	}

	return s.ApplyBundleCommand(ctx, bundle)
}

// ApplyBundleCommand stores an already validated bundle after checking it
// against the stored workloads.
func (s *Service) ApplyBundleCommand(ctx context.Context, bundle *manifest.Bundle) ([]Applied, error) {
	if err := s.checkStoredPodNames(ctx, bundle); err != nil {
		return nil, err
	}

	applied := make([]Applied, 0, bundle.Len())

	for i := range bundle.Workloads {
		result, err := s.applyWorkload(ctx, &bundle.Workloads[i])
		if err != nil {
			return applied, err
		}

		applied = append(applied, result)
	}

	for i := range bundle.Services {
		result, err := s.applyService(ctx, &bundle.Services[i])
		if err != nil {
			return applied, err
		}

		applied = append(applied, result)
	}

	return applied, nil
}

// checkStoredPodNames rejects bundle workloads whose pods would reuse a pod
// name of a stored workload the bundle does not replace.
func (s *Service) checkStoredPodNames(ctx context.Context, bundle *manifest.Bundle) error {
	if len(bundle.Workloads) == 0 {
		return nil
	}

	stored, err := s.store.ListWorkloadsQuery(ctx, "")
	if err != nil {
		return fmt.Errorf("%w: list workloads: %w", ErrStore, err)
	}

	incoming := make(map[string]struct{}, len(bundle.Workloads))
	for i := range bundle.Workloads {
		incoming[bundle.Workloads[i].Key()] = struct{}{}
	}

	specs := make([]workload.WorkloadSpec, 0, len(stored)+len(bundle.Workloads))

	for i := range stored {
		if _, ok := incoming[stored[i].Key()]; !ok {
			specs = append(specs, stored[i])
		}
	}

	specs = append(specs, bundle.Workloads...)

	var errs []error

	for _, c := range workload.FindPodNameConflicts(specs) {
		if _, ok := incoming[c.Claimant]; !ok {
			continue
		}

		errs = append(errs, fmt.Errorf("%w: workload %s: pod %s is already created by workload %s",
			workload.ErrValidation, c.Claimant, c.Pod, c.Owner))
	}

	return errors.Join(errs...)
}

func (s *Service) applyWorkload(ctx context.Context, spec *workload.WorkloadSpec) (Applied, error) {
	result := Applied{Kind: spec.Kind, Namespace: spec.Namespace, Name: spec.Name}
	now := s.clock.Now().UTC()

	current, err := s.store.GetWorkloadQuery(ctx, spec.Namespace, spec.Name)

	switch {
	case isNotFound(err):
		spec.UID = uuid.NewString()
		spec.Generation = 1
		spec.CreatedAt = now
		result.Change = ChangeCreated
	case err != nil:
		return result, fmt.Errorf("%w: get workload %s: %w", ErrStore, spec.Key(), err)
	case sameWorkload(current, spec):
		result.Change = ChangeUnchanged
		result.Generation = current.Generation

		return result, nil
	default:
		spec.UID = current.UID
		spec.Generation = current.Generation + 1
		spec.CreatedAt = current.CreatedAt
		result.Change = ChangeConfigured
	}

	spec.UpdatedAt = now
	result.Generation = spec.Generation

	if err := s.store.SaveWorkloadCommand(ctx, spec); err != nil {
		return result, fmt.Errorf("%w: save workload %s: %w", ErrStore, spec.Key(), err)
	}

	s.logger.InfoContext(ctx, "workload applied",
		"namespace", spec.Namespace,
		"name", spec.Name,
		"change", result.Change,
		"generation", spec.Generation,
	)

	return result, nil
}

func (s *Service) applyService(ctx context.Context, svc *workload.ServiceSpec) (Applied, error) {
	result := Applied{Kind: workload.KindService, Namespace: svc.Namespace, Name: svc.Name}
	now := s.clock.Now().UTC()

	current, err := s.store.GetServiceQuery(ctx, svc.Namespace, svc.Name)

	switch {
	case isNotFound(err):
		svc.UID = uuid.NewString()
		svc.CreatedAt = now
		result.Change = ChangeCreated
	case err != nil:
		return result, fmt.Errorf("%w: get service %s: %w", ErrStore, svc.Key(), err)
	case current.TargetPort == svc.TargetPort && workload.Semantic.DeepEqual(current.Selector, svc.Selector):
		result.Change = ChangeUnchanged

		return result, nil
	default:
		svc.UID = current.UID
		svc.CreatedAt = current.CreatedAt
		result.Change = ChangeConfigured
	}

	svc.UpdatedAt = now

	if err := s.store.SaveServiceCommand(ctx, svc); err != nil {
		return result, fmt.Errorf("%w: save service %s: %w", ErrStore, svc.Key(), err)
	}

	s.logger.InfoContext(ctx, "service applied",
		"namespace", svc.Namespace,
		"name", svc.Name,
		"change", result.Change,
	)

	return result, nil
}

// sameWorkload compares the submitted fields and ignores store-assigned ones.
// Semantic equality treats nil and empty slices and maps alike, so a spec read
// back from the store compares equal to a freshly parsed one.
func sameWorkload(current, next *workload.WorkloadSpec) bool {
	a, b := *current, *next

	a.UID, a.Generation, a.CreatedAt, a.UpdatedAt = "", 0, time.Time{}, time.Time{}
	b.UID, b.Generation, b.CreatedAt, b.UpdatedAt = "", 0, time.Time{}, time.Time{}

	return workload.Semantic.DeepEqual(a, b)
}

// StatusQuery returns the workload and/or service stored under a name.
func (s *Service) StatusQuery(ctx context.Context, namespace, name string) (*Status, error) {
	status := &Status{}

	spec, err := s.store.GetWorkloadQuery(ctx, namespace, name)

	switch {
	case isNotFound(err):
	case err != nil:
		return nil, fmt.Errorf("%w: get workload: %w", ErrStore, err)
	default:
		ws, err := s.workloadStatus(ctx, spec)
		if err != nil {
			return nil, err
		}

		status.Workload = ws
	}

	svc, err := s.store.GetServiceQuery(ctx, namespace, name)

	switch {
	case isNotFound(err):
	case err != nil:
		return nil, fmt.Errorf("%w: get service: %w", ErrStore, err)
	default:
		pods, err := s.store.ListPodStatusesQuery(ctx, namespace)
		if err != nil {
			return nil, fmt.Errorf("%w: list pods: %w", ErrStore, err)
		}

		status.Service = &ServiceStatus{
			Spec:      *svc,
			Endpoints: endpoints.Resolve(svc, pods),
		}
	}

	if status.Workload == nil && status.Service == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, workload.Key(namespace, name))
	}

	return status, nil
}

func (s *Service) workloadStatus(ctx context.Context, spec *workload.WorkloadSpec) (*WorkloadStatus, error) {
	ws := &WorkloadStatus{Spec: *spec, Pods: []workload.PodStatus{}}

	cond, err := s.store.GetConditionQuery(ctx, spec.Namespace, spec.Name)

	switch {
	case isNotFound(err):
	case err != nil:
		return nil, fmt.Errorf("%w: get condition: %w", ErrStore, err)
	default:
		ws.Condition = cond
	}

	pods, err := s.store.ListPodStatusesQuery(ctx, spec.Namespace)
	if err != nil {
		return nil, fmt.Errorf("%w: list pods: %w", ErrStore, err)
	}

	for _, p := range pods {
		if p.Workload == spec.Name {
			ws.Pods = append(ws.Pods, p)
		}
	}

	slices.SortFunc(ws.Pods, func(a, b workload.PodStatus) int {
		if a.Ordinal != b.Ordinal {
			return a.Ordinal - b.Ordinal
		}

		return strings.Compare(a.Name, b.Name)
	})

	return ws, nil
}

// ListQuery lists the workloads and services of a namespace, or of all
// namespaces when namespace is empty.
func (s *Service) ListQuery(ctx context.Context, namespace string) (*Listing, error) {
	specs, err := s.store.ListWorkloadsQuery(ctx, namespace)
	if err != nil {
		return nil, fmt.Errorf("%w: list workloads: %w", ErrStore, err)
	}

	services, err := s.store.ListServicesQuery(ctx, namespace)
	if err != nil {
		return nil, fmt.Errorf("%w: list services: %w", ErrStore, err)
	}

	listing := &Listing{
		Workloads: make([]WorkloadStatus, 0, len(specs)),
		Services:  append([]workload.ServiceSpec{}, services...),
	}

	for i := range specs {
		ws, err := s.workloadStatus(ctx, &specs[i])
		if err != nil {
			return nil, err
		}

		listing.Workloads = append(listing.Workloads, *ws)
	}

	slices.SortFunc(listing.Workloads, func(a, b WorkloadStatus) int {
		return strings.Compare(a.Spec.Key(), b.Spec.Key())
	})
	slices.SortFunc(listing.Services, func(a, b workload.ServiceSpec) int {
		return strings.Compare(a.Key(), b.Key())
	})

	return listing, nil
}

// DeleteCommand removes the workload and/or service stored under a name.
// An empty kind deletes both. The reconciler scales removed workloads to zero.
func (s *Service) DeleteCommand(
	ctx context.Context,
	kind workload.Kind,
	namespace,
	name string,
) ([]Applied, error) {
	var deleted []Applied

	if kind != workload.KindService {
		spec, err := s.store.GetWorkloadQuery(ctx, namespace, name)

		switch {
		case isNotFound(err):
		case err != nil:
			return nil, fmt.Errorf("%w: get workload: %w", ErrStore, err)
		case kind != "" && spec.Kind != kind:
		default:
			if err := s.store.DeleteWorkloadCommand(ctx, namespace, name); err != nil && !isNotFound(err) {
				return nil, fmt.Errorf("%w: delete workload: %w", ErrStore, err)
			}

			deleted = append(deleted, Applied{
				Kind:       spec.Kind,
				Namespace:  namespace,
				Name:       name,
				Change:     ChangeDeleted,
				Generation: spec.Generation,
			})
		}
	}

	if kind == "" || kind == workload.KindService {
		err := s.store.DeleteServiceCommand(ctx, namespace, name)

		switch {
		case isNotFound(err):
		case err != nil:
			return nil, fmt.Errorf("%w: delete service: %w", ErrStore, err)
		default:
			deleted = append(deleted, Applied{
				Kind:      workload.KindService,
				Namespace: namespace,
				Name:      name,
				Change:    ChangeDeleted,
			})
		}
	}

	if len(deleted) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, workload.Key(namespace, name))
	}

	s.logger.InfoContext(ctx, "deleted", "namespace", namespace, "name", name, "objects", len(deleted))

	return deleted, nil
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}

	var target notFound

	return errors.As(err, &target)
}
