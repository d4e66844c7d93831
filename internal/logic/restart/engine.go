package restart

import (
	"fmt"
	"sync"
	"time"

	"k8s.io/client-go/util/flowcontrol"
	"k8s.io/utils/clock"

	"github.com/skillcoder/workload-reconciler/internal/logic/workload"
)

// State of one container instance.
type State string

const (
	StateRunning        State = "Running"
	StateTerminated     State = "Terminated"
	StateBackoff        State = "Backoff"
	StateRestartPending State = "RestartPending"
)

const (
	DefaultInitial    = 10 * time.Second
	DefaultMax        = 5 * time.Minute
	DefaultResetAfter = 10 * time.Minute
)

// Config tunes the crash-loop backoff.
type Config struct {
	Initial    time.Duration
	Max        time.Duration
	ResetAfter time.Duration
}

// Decision is the outcome of a reported termination.
type Decision struct {
	State State
	// Wait is the time left until the restart is permitted. Zero for RestartPending.
	Wait time.Duration
	// Fatal means the instance must not be restarted.
	Fatal bool
	// Completed is set with Fatal when the container finished successfully.
	Completed bool
	// Advanced is set when this report entered a new backoff step.
	Advanced bool
	Err      error
}

type entry struct {
	state        State
	restarts     int
	readyAt      time.Time
	runningSince time.Time
}

// Engine tracks restart timing per pod identity.
// Backoff entries idle for longer than twice the cap expire, so the delay
// starts over after a quiet period.
type Engine struct {
	clock      clock.Clock
	resetAfter time.Duration
	backoff    *flowcontrol.Backoff

	mu      sync.Mutex
	entries map[string]*entry
}

// New creates an engine. Zero config values fall back to the defaults.
func New(clk clock.Clock, cfg Config) *Engine {
	if cfg.Initial <= 0 {
		cfg.Initial = DefaultInitial
	}

	if cfg.Max <= 0 {
		cfg.Max = DefaultMax
	}

	if cfg.Max < cfg.Initial {
		cfg.Max = cfg.Initial
	}

	if cfg.ResetAfter <= 0 {
		cfg.ResetAfter = DefaultResetAfter
	}

	backoff := flowcontrol.NewBackOff(cfg.Initial, cfg.Max)
	backoff.Clock = clk

	return &Engine{
		clock:      clk,
		resetAfter: cfg.ResetAfter,
		backoff:    backoff,
		entries:    make(map[string]*entry),
	}
}

// Terminated reports a terminated container and decides whether and when it may restart.
// Reporting the same termination again (same restart count) never advances the backoff.
func (e *Engine) Terminated(id string, policy workload.RestartPolicy, exitCode, restarts int) Decision {
	e.mu.Lock()
	defer e.mu.Unlock()

	ent := e.entry(id)

	switch policy {
	case workload.RestartNever:
		ent.state = StateTerminated

		return Decision{State: StateTerminated, Fatal: true, Completed: exitCode == 0, Err: ErrRestartForbidden}
	case workload.RestartOnFailure:
		if exitCode == 0 {
			ent.state = StateTerminated

			return Decision{State: StateTerminated, Fatal: true, Completed: true}
		}
	case workload.RestartAlways:
	default:
		return Decision{
			State: StateTerminated,
			Fatal: true,
			Err:   fmt.Errorf("%w: %w: %q", workload.ErrPermanentPolicy, ErrUnknownPolicy, policy),
		}
	}

	now := e.clock.Now()

	// a late report from an instance that was already replaced
	if restarts < ent.restarts && ent.state == StateRunning {
		return Decision{State: StateRunning}
	}

	if restarts <= ent.restarts && (ent.state == StateBackoff || ent.state == StateRestartPending) {
		return e.pending(ent, now)
	}

	e.backoff.Next(id, now)

	ent.restarts = restarts
	ent.runningSince = time.Time{}
	ent.readyAt = now.Add(e.backoff.Get(id))
	ent.state = StateBackoff

	d := e.pending(ent, now)
	d.Advanced = true

	return d
}

func (e *Engine) pending(ent *entry, now time.Time) Decision {
	if !now.Before(ent.readyAt) {
		ent.state = StateRestartPending

		return Decision{State: StateRestartPending}
	}

	return Decision{State: StateBackoff, Wait: ent.readyAt.Sub(now)}
}

// Running records that the instance is up. Once it has been running for the
// reset period, its backoff starts from the initial delay again.
func (e *Engine) Running(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ent := e.entry(id)
	now := e.clock.Now()

	if ent.state != StateRunning || ent.runningSince.IsZero() {
		ent.state = StateRunning
		ent.runningSince = now

		return
	}

	if now.Sub(ent.runningSince) >= e.resetAfter {
		e.backoff.Reset(id)
	}
}

// Restarted records that a restart was issued for the instance.
func (e *Engine) Restarted(id string, restarts int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ent := e.entry(id)
	ent.restarts = max(ent.restarts, restarts)
	ent.state = StateRunning
	ent.runningSince = time.Time{}
	ent.readyAt = time.Time{}
}

// State returns the current state of an instance.
func (e *Engine) State(id string) (State, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ent, ok := e.entries[id]
	if !ok {
		return "", false
	}

	return ent.state, true
}

// Forget drops all state kept for an instance.
func (e *Engine) Forget(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.entries, id)
	e.backoff.DeleteEntry(id)
}

// Prune forgets every instance not in keep.
func (e *Engine) Prune(keep map[string]struct{}) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for id := range e.entries {
		if _, ok := keep[id]; !ok {
			delete(e.entries, id)
			e.backoff.DeleteEntry(id)
		}
	}

	e.backoff.GC()
}

func (e *Engine) entry(id string) *entry {
	ent, ok := e.entries[id]
	if !ok {
		ent = &entry{restarts: -1}
		e.entries[id] = ent
	}

	return ent
}
