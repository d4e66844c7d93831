// Package memory is an in-process store used by tests and by single-process runs.
// Values are kept encoded so callers never share memory with the store.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/skillcoder/workload-reconciler/internal/logic/workload"
)

type Store struct {
	mu         sync.RWMutex
	workloads  map[string][]byte
	services   map[string][]byte
	conditions map[string][]byte
	pods       map[string][]byte
}

func New() *Store {
	return &Store{
		workloads:  make(map[string][]byte),
		services:   make(map[string][]byte),
		conditions: make(map[string][]byte),
		pods:       make(map[string][]byte),
	}
}

func (s *Store) Name() string {
	return "memory-store"
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Shutdown(_ context.Context) error {
	return nil
}

func (s *Store) GetWorkloadQuery(_ context.Context, namespace, name string) (*workload.WorkloadSpec, error) {
	return get[workload.WorkloadSpec](s, s.workloads, "workload", workload.Key(namespace, name))
}

func (s *Store) ListWorkloadsQuery(_ context.Context, namespace string) ([]workload.WorkloadSpec, error) {
	return list[workload.WorkloadSpec](s, s.workloads, namespace)
}

func (s *Store) SaveWorkloadCommand(_ context.Context, spec *workload.WorkloadSpec) error {
	return put(s, s.workloads, spec.Key(), spec)
}

func (s *Store) DeleteWorkloadCommand(_ context.Context, namespace, name string) error {
	return remove(s, s.workloads, "workload", workload.Key(namespace, name))
}

func (s *Store) GetServiceQuery(_ context.Context, namespace, name string) (*workload.ServiceSpec, error) {
	return get[workload.ServiceSpec](s, s.services, "service", workload.Key(namespace, name))
}

func (s *Store) ListServicesQuery(_ context.Context, namespace string) ([]workload.ServiceSpec, error) {
	return list[workload.ServiceSpec](s, s.services, namespace)
}

func (s *Store) SaveServiceCommand(_ context.Context, svc *workload.ServiceSpec) error {
	return put(s, s.services, svc.Key(), svc)
}

func (s *Store) DeleteServiceCommand(_ context.Context, namespace, name string) error {
	return remove(s, s.services, "service", workload.Key(namespace, name))
}

func (s *Store) GetConditionQuery(_ context.Context, namespace, name string) (*workload.WorkloadCondition, error) {
	return get[workload.WorkloadCondition](s, s.conditions, "condition", workload.Key(namespace, name))
}

func (s *Store) SaveConditionCommand(_ context.Context, cond *workload.WorkloadCondition) error {
	return put(s, s.conditions, workload.Key(cond.Namespace, cond.Name), cond)
}

func (s *Store) DeleteConditionCommand(_ context.Context, namespace, name string) error {
	err := remove(s, s.conditions, "condition", workload.Key(namespace, name))
	if isNotFound(err) {
		return nil
	}

	return err
}

func (s *Store) ListPodStatusesQuery(_ context.Context, namespace string) ([]workload.PodStatus, error) {
	return list[workload.PodStatus](s, s.pods, namespace)
}

func (s *Store) SavePodStatusCommand(_ context.Context, status *workload.PodStatus) error {
	return put(s, s.pods, status.Key(), status)
}

func (s *Store) DeletePodStatusCommand(_ context.Context, namespace, name string) error {
	err := remove(s, s.pods, "pod", workload.Key(namespace, name))
	if isNotFound(err) {
		return nil
	}

	return err
}

func get[T any](s *Store, bucket map[string][]byte, kind, key string) (*T, error) {
	s.mu.RLock()
	data, ok := bucket[key]
	s.mu.RUnlock()

	if !ok {
		return nil, &NotFoundError{Kind: kind, Key: key}
	}

	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode %s %s: %w", kind, key, err)
	}

	return &out, nil
}

func list[T any](s *Store, bucket map[string][]byte, namespace string) ([]T, error) {
	s.mu.RLock()
	keys := make([]string, 0, len(bucket))

	for key := range bucket {
		if namespace == "" || strings.HasPrefix(key, namespace+"/") {
			keys = append(keys, key)
		}
	}

	slices.Sort(keys)

	out := make([]T, 0, len(keys))

	for _, key := range keys {
		var item T
		if err := json.Unmarshal(bucket[key], &item); err != nil {
			s.mu.RUnlock()

			return nil, fmt.Errorf("decode %s: %w", key, err)
		}

		out = append(out, item)
	}
	s.mu.RUnlock()

	return out, nil
}

func put(s *Store, bucket map[string][]byte, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	s.mu.Lock()
	bucket[key] = data
	s.mu.Unlock()

	return nil
}

func remove(s *Store, bucket map[string][]byte, kind, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := bucket[key]; !ok {
		return &NotFoundError{Kind: kind, Key: key}
	}

	delete(bucket, key)

	return nil
}
