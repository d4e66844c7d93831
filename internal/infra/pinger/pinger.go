package pinger

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"sync/atomic"
	"time"

	"k8s.io/utils/clock"

	"github.com/skillcoder/workload-reconciler/internal/infra/metrics"
	"github.com/skillcoder/workload-reconciler/internal/infra/shutdown"
)

const (
	// defaultPingTimeout is the default timeout for ping operations
	defaultPingTimeout = 1 * time.Second
)

// Optional interfaces a pinger may implement to tune how its result is used.
type readyCriticalPinger interface {
	PingerReadyCritical() bool
}

type healthCriticalPinger interface {
	PingerCritical() bool
}

type timeoutPinger interface {
	PingerTimeout() time.Duration
}

type entry struct {
	pinger         Pinger
	readyCritical  bool
	healthCritical bool
	timeout        time.Duration
	stats          *stats
}

// Service pings registered dependencies every interval and keeps their statistics.
type Service struct {
	logger     *slog.Logger
	interval   time.Duration
	clock      clock.WithTicker
	mu         sync.RWMutex
	entries    map[string]*entry
	ready      chan struct{}
	inShutdown atomic.Bool
	doneCh     chan struct{}
	wg         sync.WaitGroup
}

// New creates a new pinger service with the specified interval
func New(logger *slog.Logger, interval time.Duration, clk clock.WithTicker) *Service {
	return &Service{
		logger:   logger.With("component", "pinger"),
		interval: interval,
		clock:    clk,
		entries:  make(map[string]*entry),
		ready:    make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

var _ shutdown.Shutdowner = (*Service)(nil)

func (s *Service) Name() string {
	return "pinger-service"
}

// Register adds a pinger. Names must be unique.
func (s *Service) Register(p Pinger) error {
	if p == nil {
		return fmt.Errorf("register pinger: %w", ErrPingerNil)
	}

	name := p.Name()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[name]; exists {
		return fmt.Errorf("register pinger %s: %w", name, ErrPingerAlreadyRegistered)
	}

	e := &entry{
		pinger:         p,
		readyCritical:  true,
		healthCritical: true,
		timeout:        defaultPingTimeout,
		stats:          newStats(),
	}

	if rc, ok := p.(readyCriticalPinger); ok {
		e.readyCritical = rc.PingerReadyCritical()
	}

	if hc, ok := p.(healthCriticalPinger); ok {
		e.healthCritical = hc.PingerCritical()
	}

	if tp, ok := p.(timeoutPinger); ok && tp.PingerTimeout() > 0 {
		e.timeout = tp.PingerTimeout()
	}

	s.entries[name] = e

	s.logger.Info("pinger registered",
		"name", name,
		"readyCritical", e.readyCritical,
		"healthCritical", e.healthCritical,
		"timeout", e.timeout,
	)

	return nil
}

func (s *Service) Start(ctx context.Context) error {
	if s.inShutdown.Load() {
		s.logger.InfoContext(ctx, "pinger service is shutting down, skipping start")

		return nil
	}

	go s.run(ctx)

	return nil
}

// Ready is closed after the first round of pings has finished.
func (s *Service) Ready() <-chan struct{} {
	return s.ready
}

func (s *Service) Shutdown(ctx context.Context) error {
	if !s.inShutdown.CompareAndSwap(false, true) {
		s.logger.ErrorContext(ctx, "pinger service is already shutting down, skipping shutdown")

		return nil
	}

	s.logger.InfoContext(ctx, "shutting down pinger service")

	select {
	case <-ctx.Done():
		return fmt.Errorf("shutdown context done before pinger loop exited: %w", ctx.Err())
	case <-s.doneCh:
	}

	// in-flight pings
	s.wg.Wait()

	s.logger.InfoContext(ctx, "pinger service shut down")

	return nil
}

// GetStats returns statistics for a specific pinger
func (s *Service) GetStats(name string) (*Statistics, error) {
	s.mu.RLock()
	e, ok := s.entries[name]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("get stats: %w: %s", ErrPingerNotFound, name)
	}

	return e.statistics(), nil
}

// GetAllStats returns a snapshot of every pinger's statistics keyed by name.
func (s *Service) GetAllStats() map[string]*Statistics {
	s.mu.RLock()
	entries := maps.Clone(s.entries)
	s.mu.RUnlock()

	result := make(map[string]*Statistics, len(entries))
	for name, e := range entries {
		result[name] = e.statistics()
	}

	return result
}

func (s *Service) run(ctx context.Context) {
	defer close(s.doneCh)

	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	s.pingAll(ctx)

	close(s.ready)

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "terminating pinger loop")

			return
		case <-ticker.C():
			if s.inShutdown.Load() {
				return
			}

			s.pingAll(ctx)
		}
	}
}

// pingAll runs every registered pinger in parallel and waits for them.
func (s *Service) pingAll(ctx context.Context) {
	s.mu.RLock()
	entries := maps.Clone(s.entries)
	s.mu.RUnlock()

	var wg sync.WaitGroup

	for name, e := range entries {
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		s.wg.Add(1)

		go func() {
			defer wg.Done()
			defer s.wg.Done()

			s.ping(ctx, name, e)
		}()
	}

	wg.Wait()
}

func (s *Service) ping(ctx context.Context, name string, e *entry) {
	pingCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := s.clock.Now()
	err := e.pinger.Ping(pingCtx)
	latency := s.clock.Since(start)

	e.stats.record(start, latency, err)
	metrics.SetDependencyUp(name, err == nil)

	if err != nil {
		s.logger.DebugContext(ctx, "ping failed", "name", name, "latency", latency, "reason", err)

		return
	}

	s.logger.DebugContext(ctx, "ping ok", "name", name, "latency", latency)
}

func (e *entry) statistics() *Statistics {
	st := e.stats.snapshot()
	failing := st.LastError != ""

	st.Ready = !e.readyCritical || !failing
	st.Healthy = !e.healthCritical || !failing

	return st
}
