package appstate

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"syscall"
	"time"

	"k8s.io/utils/clock"

	"github.com/skillcoder/workload-reconciler/internal/infra/pinger"
	"github.com/skillcoder/workload-reconciler/internal/infra/shutdown"
)

// State represents the application state
type State string

const (
	StateInit        State = "init"
	StateStarting    State = "starting"
	StateRunning     State = "running"
	StateTerminating State = "terminating"
	StateTerminated  State = "terminated"
)

const defaultShutdownersCount = 10

// Status is the application state as served on /-/status.
type Status struct {
	State     State                         `json:"state"`
	StartTime time.Time                     `json:"startTime"`
	ReadyAt   time.Time                     `json:"readyAt,omitzero"`
	Uptime    string                        `json:"uptime"`
	UptimeSec float64                       `json:"uptimeSeconds"`
	Pingers   map[string]*pinger.Statistics `json:"pingers"`
}

// AppState tracks the process lifecycle and the components to shut down.
type AppState struct {
	mu                  sync.RWMutex
	logger              *slog.Logger
	clock               clock.Clock
	startedAt           time.Time
	readyAt             time.Time
	terminatingAt       time.Time
	state               State
	quit                <-chan os.Signal
	terminationFilePath string
	pinger              pingerServer
	shutdowners         []shutdown.Shutdowner
}

func New(
	logger *slog.Logger,
	clk clock.Clock,
	terminationFilePath string,
	quit <-chan os.Signal,
	pinger pingerServer,
) *AppState {
	return &AppState{
		logger:              logger.With("component", "appstate"),
		clock:               clk,
		startedAt:           clk.Now(),
		state:               StateInit,
		quit:                quit,
		terminationFilePath: terminationFilePath,
		pinger:              pinger,
		shutdowners:         make([]shutdown.Shutdowner, 0, defaultShutdownersCount),
	}
}

func (s *AppState) RegisterPinger(p pinger.Pinger) error {
	if err := s.pinger.Register(p); err != nil {
		return fmt.Errorf("register pinger: %w", err)
	}

	return nil
}

// RegisterShutdowner adds a component; components shut down in reverse order.
func (s *AppState) RegisterShutdowner(shutdowner shutdown.Shutdowner) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.shutdowners = append(s.shutdowners, shutdowner)
}

func (s *AppState) GetAllStats() map[string]*pinger.Statistics {
	return s.pinger.GetAllStats()
}

// SetStarting transitions the state from Init to Starting
func (s *AppState) SetStarting(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInit {
		return fmt.Errorf("set starting from %s: %w", s.state, ErrInvalidStateTransition)
	}

	return s.setState(StateStarting)
}

// SetRunning transitions the state from Starting to Running. A termination
// file present at this point turns into a SIGTERM to the process itself.
func (s *AppState) SetRunning(ctx context.Context) error {
	if err := s.setRunning(); err != nil {
		return err
	}

	if shutdown.CheckTerminationFile(ctx, s.logger, s.terminationFilePath) {
		pid := os.Getpid()
		s.logger.InfoContext(ctx, "termination file found after initialization, sending SIGTERM", "pid", pid)

		if err := syscall.Kill(pid, syscall.SIGTERM); err != nil {
			s.logger.ErrorContext(ctx, "failed to send SIGTERM", "reason", err, "pid", pid)
		}
	}

	return nil
}

func (s *AppState) setRunning() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateStarting {
		return fmt.Errorf("set running from %s: %w", s.state, ErrInvalidStateTransition)
	}

	s.readyAt = s.clock.Now()

	return s.setState(StateRunning)
}

// SetTerminating transitions the state to Terminating
func (s *AppState) SetTerminating(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateTerminating {
		return nil
	}

	if err := s.setState(StateTerminating); err != nil {
		return fmt.Errorf("set terminating: %w", err)
	}

	s.terminatingAt = s.clock.Now()

	return nil
}

func (s *AppState) setState(newState State) error {
	if s.state == StateTerminated {
		return ErrAlreadyTerminated
	}

	s.logger.Info("application state changed", "from", s.state, "to", newState)
	s.state = newState

	return nil
}

func (s *AppState) GetState() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state
}

func (s *AppState) GetStartTime() time.Time {
	return s.startedAt
}

func (s *AppState) GetUptime() time.Duration {
	return s.clock.Since(s.startedAt)
}

// IsHealthy is false once terminating or while a health-critical pinger fails.
func (s *AppState) IsHealthy() bool {
	switch s.GetState() {
	case StateStarting, StateRunning:
	default:
		return false
	}

	for _, st := range s.pinger.GetAllStats() {
		if !st.Healthy {
			return false
		}
	}

	return true
}

// IsReady is true while running and every ready-critical pinger passes.
func (s *AppState) IsReady() bool {
	if s.GetState() != StateRunning {
		return false
	}

	for _, st := range s.pinger.GetAllStats() {
		if !st.Ready {
			return false
		}
	}

	return true
}

func (s *AppState) Status() Status {
	s.mu.RLock()
	state, readyAt := s.state, s.readyAt
	s.mu.RUnlock()

	uptime := s.GetUptime()

	return Status{
		State:     state,
		StartTime: s.startedAt,
		ReadyAt:   readyAt,
		Uptime:    uptime.Round(time.Second).String(),
		UptimeSec: uptime.Seconds(),
		Pingers:   s.pinger.GetAllStats(),
	}
}

// Quit returns the channel that will receive the signal when shutdown is requested
func (s *AppState) Quit() <-chan os.Signal {
	return s.quit
}

// Shutdown marks the application terminating, shuts every registered
// component down and finally moves to Terminated. Repeated calls are no-ops.
func (s *AppState) Shutdown(ctx context.Context) error {
	if s.GetState() == StateTerminated {
		return nil
	}

	if err := s.SetTerminating(ctx); err != nil {
		return fmt.Errorf("set terminating application state: %w", err)
	}

	s.mu.RLock()
	shutdowners := make([]shutdown.Shutdowner, len(s.shutdowners))
	copy(shutdowners, s.shutdowners)
	s.mu.RUnlock()

	err := shutdown.GracefulShutdown(ctx, s.logger, shutdowners)

	s.mu.Lock()
	s.state = StateTerminated
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}
