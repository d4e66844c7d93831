// Package redis keeps desired workload state and reconciler observations in Redis,
// so the CLI and the reconciler daemon can run as separate processes.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/go-redis/redis/v8"

	"github.com/skillcoder/workload-reconciler/internal/logic/workload"
)

const (
	keyPrefix     = "wr:"
	workloadsKey  = keyPrefix + "workloads"
	servicesKey   = keyPrefix + "services"
	conditionsKey = keyPrefix + "conditions"
	// namespacesKey indexes the namespaces that have pod hashes.
	namespacesKey = keyPrefix + "pods:namespaces"
	podsKeyPrefix = keyPrefix + "pods:"
)

// Store is a Redis-backed store. Each object kind lives in one hash keyed by
// namespace/name; pod statuses get one hash per namespace keyed by pod name.
type Store struct {
	logger *slog.Logger
	client redis.UniversalClient
}

// New creates a store on top of client.
func New(logger *slog.Logger, client redis.UniversalClient) *Store {
	return &Store{
		logger: logger.With("component", "redis-store"),
		client: client,
	}
}

// NewClient connects to a single Redis server.
func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func (s *Store) Name() string {
	return "redis-store"
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}

	return nil
}

func (s *Store) Shutdown(ctx context.Context) error {
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("close redis client: %w", err)
	}

	s.logger.InfoContext(ctx, "redis client closed")

	return nil
}

func (s *Store) GetWorkloadQuery(ctx context.Context, namespace, name string) (*workload.WorkloadSpec, error) {
	return hget[workload.WorkloadSpec](ctx, s.client, workloadsKey, "workload", workload.Key(namespace, name))
}

func (s *Store) ListWorkloadsQuery(ctx context.Context, namespace string) ([]workload.WorkloadSpec, error) {
	return hlist[workload.WorkloadSpec](ctx, s.client, workloadsKey, namespace)
}

func (s *Store) SaveWorkloadCommand(ctx context.Context, spec *workload.WorkloadSpec) error {
	return hset(ctx, s.client, workloadsKey, spec.Key(), spec)
}

func (s *Store) DeleteWorkloadCommand(ctx context.Context, namespace, name string) error {
	return hdel(ctx, s.client, workloadsKey, "workload", workload.Key(namespace, name))
}

func (s *Store) GetServiceQuery(ctx context.Context, namespace, name string) (*workload.ServiceSpec, error) {
	return hget[workload.ServiceSpec](ctx, s.client, servicesKey, "service", workload.Key(namespace, name))
}

func (s *Store) ListServicesQuery(ctx context.Context, namespace string) ([]workload.ServiceSpec, error) {
	return hlist[workload.ServiceSpec](ctx, s.client, servicesKey, namespace)
}

func (s *Store) SaveServiceCommand(ctx context.Context, svc *workload.ServiceSpec) error {
	return hset(ctx, s.client, servicesKey, svc.Key(), svc)
}

func (s *Store) DeleteServiceCommand(ctx context.Context, namespace, name string) error {
	return hdel(ctx, s.client, servicesKey, "service", workload.Key(namespace, name))
}

func (s *Store) GetConditionQuery(ctx context.Context, namespace, name string) (*workload.WorkloadCondition, error) {
	return hget[workload.WorkloadCondition](ctx, s.client, conditionsKey, "condition", workload.Key(namespace, name))
}

func (s *Store) SaveConditionCommand(ctx context.Context, cond *workload.WorkloadCondition) error {
	return hset(ctx, s.client, conditionsKey, workload.Key(cond.Namespace, cond.Name), cond)
}

func (s *Store) DeleteConditionCommand(ctx context.Context, namespace, name string) error {
	if err := s.client.HDel(ctx, conditionsKey, workload.Key(namespace, name)).Err(); err != nil {
		return fmt.Errorf("delete condition: %w", err)
	}

	return nil
}

func (s *Store) ListPodStatusesQuery(ctx context.Context, namespace string) ([]workload.PodStatus, error) {
	namespaces := []string{namespace}

	if namespace == "" {
		all, err := s.client.SMembers(ctx, namespacesKey).Result()
		if err != nil {
			return nil, fmt.Errorf("list pod namespaces: %w", err)
		}

		slices.Sort(all)
		namespaces = all
	}

	var out []workload.PodStatus

	for _, ns := range namespaces {
		pods, err := hlist[workload.PodStatus](ctx, s.client, podsKeyPrefix+ns, "")
		if err != nil {
			return nil, err
		}

		out = append(out, pods...)
	}

	if out == nil {
		out = []workload.PodStatus{}
	}

	return out, nil
}

func (s *Store) SavePodStatusCommand(ctx context.Context, status *workload.PodStatus) error {
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("encode pod %s: %w", status.Key(), err)
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, podsKeyPrefix+status.Namespace, status.Name, data)
	pipe.SAdd(ctx, namespacesKey, status.Namespace)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save pod %s: %w", status.Key(), err)
	}

	return nil
}

func (s *Store) DeletePodStatusCommand(ctx context.Context, namespace, name string) error {
	if err := s.client.HDel(ctx, podsKeyPrefix+namespace, name).Err(); err != nil {
		return fmt.Errorf("delete pod %s: %w", workload.Key(namespace, name), err)
	}

	return nil
}

func hget[T any](ctx context.Context, client redis.UniversalClient, key, kind, field string) (*T, error) {
	data, err := client.HGet(ctx, key, field).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, &NotFoundError{Kind: kind, Key: field}
	}

	if err != nil {
		return nil, fmt.Errorf("get %s %s: %w", kind, field, err)
	}

	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode %s %s: %w", kind, field, err)
	}

	return &out, nil
}

// hlist decodes every field of a hash whose name is in namespace, or all of
// them when namespace is empty.
func hlist[T any](ctx context.Context, client redis.UniversalClient, key, namespace string) ([]T, error) {
	fields, err := client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", key, err)
	}

	names := make([]string, 0, len(fields))

	for name := range fields {
		if namespace == "" || strings.HasPrefix(name, namespace+"/") {
			names = append(names, name)
		}
	}

	slices.Sort(names)

	out := make([]T, 0, len(names))

	for _, name := range names {
		var item T
		if err := json.Unmarshal([]byte(fields[name]), &item); err != nil {
			return nil, fmt.Errorf("decode %s %s: %w", key, name, err)
		}

		out = append(out, item)
	}

	return out, nil
}

func hset(ctx context.Context, client redis.UniversalClient, key, field string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", field, err)
	}

	if err := client.HSet(ctx, key, field, data).Err(); err != nil {
		return fmt.Errorf("save %s: %w", field, err)
	}

	return nil
}

func hdel(ctx context.Context, client redis.UniversalClient, key, kind, field string) error {
	removed, err := client.HDel(ctx, key, field).Result()
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", kind, field, err)
	}

	if removed == 0 {
		return &NotFoundError{Kind: kind, Key: field}
	}

	return nil
}
