package tracker

import (
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"k8s.io/utils/clock"
	"k8s.io/utils/lru"

	"github.com/skillcoder/workload-reconciler/internal/infra/metrics"
	"github.com/skillcoder/workload-reconciler/internal/logic/workload"
)

const defaultSeenCapacity = 4096

// Event is one delivery from the orchestrator feed.
// Delivery may be duplicated or reordered; ID and Status.Sequence are used to tell.
type Event struct {
	ID         string
	Status     workload.PodStatus
	Deleted    bool
	ObservedAt time.Time
}

// Transition describes a change the tracker accepted.
// Previous is nil for a new identity and Current is nil for a deleted one.
type Transition struct {
	Key       string
	Namespace string
	Workload  string
	Previous  *workload.PodStatus
	Current   *workload.PodStatus
}

// PhaseChanged reports whether the pod moved to another phase, appeared or vanished.
func (t Transition) PhaseChanged() bool {
	if t.Previous == nil || t.Current == nil {
		return true
	}

	return t.Previous.Phase != t.Current.Phase || t.Previous.Terminating != t.Current.Terminating
}

// LabelsChanged reports whether the label set or address differs.
func (t Transition) LabelsChanged() bool {
	if t.Previous == nil || t.Current == nil {
		return true
	}

	return !maps.Equal(t.Previous.Labels, t.Current.Labels) || t.Previous.Address != t.Current.Address
}

// Tracker mirrors the observed status of every managed pod.
type Tracker struct {
	logger *slog.Logger
	clock  clock.PassiveClock

	mu         sync.RWMutex
	pods       map[string]*workload.PodStatus
	tombstones map[string]uint64
	seen       *lru.Cache

	subsMu  sync.Mutex
	subs    map[int]chan Transition
	nextSub int
}

// New creates a tracker. seenCapacity bounds the duplicate-detection window.
func New(logger *slog.Logger, clk clock.PassiveClock, seenCapacity int) *Tracker {
	if seenCapacity <= 0 {
		seenCapacity = defaultSeenCapacity
	}

	return &Tracker{
		logger:     logger.With("component", "tracker"),
		clock:      clk,
		pods:       make(map[string]*workload.PodStatus),
		tombstones: make(map[string]uint64),
		seen:       lru.New(seenCapacity),
		subs:       make(map[int]chan Transition),
	}
}

// Apply merges an observation. It returns the accepted transition, or false when
// the event was a duplicate, stale or carried no change.
func (t *Tracker) Apply(ev Event) (Transition, bool) {
	observedAt := ev.ObservedAt
	if observedAt.IsZero() {
		observedAt = t.clock.Now()
	}

	t.mu.Lock()

	if ev.ID != "" {
		if _, dup := t.seen.Get(ev.ID); dup {
			t.mu.Unlock()
			metrics.RecordDuplicateEvent()

			return Transition{}, false
		}

		t.seen.Add(ev.ID, struct{}{})
	}

	tr, ok := t.applyLocked(ev.Status.Key(), &ev, observedAt)
	t.mu.Unlock()

	if ok {
		t.publish(tr)
	}

	return tr, ok
}

func (t *Tracker) applyLocked(key string, ev *Event, observedAt time.Time) (Transition, bool) {
	cur := t.pods[key]

	if tomb, ok := t.tombstones[key]; ok && cur == nil {
		if ev.Status.Sequence != 0 && ev.Status.Sequence <= tomb {
			return Transition{}, false
		}

		delete(t.tombstones, key)
	}

	if cur != nil && isStale(cur, &ev.Status) {
		t.logger.Debug("stale event ignored",
			"pod", key,
			"sequence", ev.Status.Sequence,
			"current", cur.Sequence,
		)

		return Transition{}, false
	}

	if ev.Deleted {
		if cur == nil {
			return Transition{}, false
		}

		delete(t.pods, key)

		if seq := max(ev.Status.Sequence, cur.Sequence); seq != 0 {
			t.tombstones[key] = seq
		}

		return Transition{
			Key:       key,
			Namespace: cur.Namespace,
			Workload:  cur.Workload,
			Previous:  cur,
		}, true
	}

	next := ev.Status
	next.Labels = maps.Clone(ev.Status.Labels)

	if cur != nil {
		next.RestartCount = max(cur.RestartCount, next.RestartCount)

		// CrashLoopBackOff is set by the reconciler; the orchestrator keeps reporting
		// the terminated phase until the restart happens.
		if cur.Phase == workload.PhaseCrashLoopBackOff &&
			next.Phase.IsTerminated() &&
			next.RestartCount == cur.RestartCount {
			next.Phase = workload.PhaseCrashLoopBackOff
		}

		if cur.Phase == next.Phase {
			next.LastTransitionTime = cur.LastTransitionTime
		}

		if sameObservation(cur, &next) {
			cur.Sequence = max(cur.Sequence, next.Sequence)

			return Transition{}, false
		}
	}

	if next.LastTransitionTime.IsZero() {
		next.LastTransitionTime = observedAt
	}

	t.pods[key] = &next

	return Transition{
		Key:       key,
		Namespace: next.Namespace,
		Workload:  next.Workload,
		Previous:  cur,
		Current:   clonePtr(&next),
	}, true
}

// MarkBackoff records the reconciler-owned CrashLoopBackOff phase for a terminated pod.
func (t *Tracker) MarkBackoff(key string) (Transition, bool) {
	t.mu.Lock()

	cur := t.pods[key]
	if cur == nil || cur.Phase == workload.PhaseCrashLoopBackOff || !cur.Phase.IsTerminated() {
		t.mu.Unlock()

		return Transition{}, false
	}

	next := clone(cur)
	next.Phase = workload.PhaseCrashLoopBackOff
	next.LastTransitionTime = t.clock.Now()
	t.pods[key] = &next

	tr := Transition{
		Key:       key,
		Namespace: next.Namespace,
		Workload:  next.Workload,
		Previous:  cur,
		Current:   clonePtr(&next),
	}

	t.mu.Unlock()

	t.publish(tr)

	return tr, true
}

// Get returns the status of one pod identity.
func (t *Tracker) Get(key string) (workload.PodStatus, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	cur, ok := t.pods[key]
	if !ok {
		return workload.PodStatus{}, false
	}

	return clone(cur), true
}

// List returns the pods of one workload ordered by ordinal.
func (t *Tracker) List(namespace, workloadName string) []workload.PodStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []workload.PodStatus

	for _, p := range t.pods {
		if p.Namespace == namespace && p.Workload == workloadName {
			out = append(out, clone(p))
		}
	}

	slices.SortFunc(out, func(a, b workload.PodStatus) int {
		if a.Ordinal != b.Ordinal {
			return a.Ordinal - b.Ordinal
		}

		return strings.Compare(a.Name, b.Name)
	})

	return out
}

// Snapshot returns every pod of a namespace, or of all namespaces when namespace is empty.
func (t *Tracker) Snapshot(namespace string) []workload.PodStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]workload.PodStatus, 0, len(t.pods))

	for _, p := range t.pods {
		if namespace == "" || p.Namespace == namespace {
			out = append(out, clone(p))
		}
	}

	slices.SortFunc(out, func(a, b workload.PodStatus) int {
		return strings.Compare(a.Key(), b.Key())
	})

	return out
}

// Workloads returns the identities of workloads that have at least one tracked pod.
func (t *Tracker) Workloads() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	set := make(map[string]struct{})
	for _, p := range t.pods {
		set[workload.Key(p.Namespace, p.Workload)] = struct{}{}
	}

	return slices.Sorted(maps.Keys(set))
}

// Subscribe returns a channel receiving every accepted transition and a cancel func.
// A subscriber that falls behind by more than buffer transitions misses the overflow
// and is expected to resync from List/Snapshot.
func (t *Tracker) Subscribe(buffer int) (<-chan Transition, func()) {
	ch := make(chan Transition, buffer)

	t.subsMu.Lock()
	id := t.nextSub
	t.nextSub++
	t.subs[id] = ch
	t.subsMu.Unlock()

	var once sync.Once

	return ch, func() {
		once.Do(func() {
			t.subsMu.Lock()
			delete(t.subs, id)
			t.subsMu.Unlock()
			close(ch)
		})
	}
}

func (t *Tracker) publish(tr Transition) {
	t.subsMu.Lock()
	defer t.subsMu.Unlock()

	for id, ch := range t.subs {
		select {
		case ch <- tr:
		default:
			metrics.RecordDroppedTransition()
			t.logger.Warn("subscriber is full, transition dropped", "subscriber", id, "pod", tr.Key)
		}
	}
}

func isStale(cur, next *workload.PodStatus) bool {
	return next.Sequence != 0 && cur.Sequence != 0 && next.Sequence < cur.Sequence
}

func sameObservation(a, b *workload.PodStatus) bool {
	return a.UID == b.UID &&
		a.Phase == b.Phase &&
		a.RestartCount == b.RestartCount &&
		a.LastExitCode == b.LastExitCode &&
		a.Address == b.Address &&
		a.Terminating == b.Terminating &&
		a.SpecHash == b.SpecHash &&
		maps.Equal(a.Labels, b.Labels)
}

func clone(p *workload.PodStatus) workload.PodStatus {
	out := *p
	out.Labels = maps.Clone(p.Labels)

	return out
}

func clonePtr(p *workload.PodStatus) *workload.PodStatus {
	out := clone(p)

	return &out
}
