// Package retry runs orchestrator calls with a per-attempt timeout and
// exponential backoff between attempts.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/skillcoder/workload-reconciler/internal/infra/metrics"
)

const (
	DefaultTimeout      = 5 * time.Second
	DefaultMaxRetries   = 4
	DefaultInitialDelay = 200 * time.Millisecond
	DefaultMaxDelay     = 5 * time.Second
	DefaultMultiplier   = 2.0
)

// ErrExhausted is returned when every attempt failed with a retryable error.
var ErrExhausted = errors.New("retries exhausted")

// Config holds retry configuration.
type Config struct {
	// Timeout bounds a single attempt.
	Timeout time.Duration
	// MaxRetries is the number of attempts after the first one.
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// Option is a functional option for retry configuration.
type Option func(*Config)

func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Timeout = d
	}
}

func WithMaxRetries(n int) Option {
	return func(c *Config) {
		c.MaxRetries = n
	}
}

func WithInitialDelay(d time.Duration) Option {
	return func(c *Config) {
		c.InitialDelay = d
	}
}

func WithMaxDelay(d time.Duration) Option {
	return func(c *Config) {
		c.MaxDelay = d
	}
}

// Retryer retries operations that fail with transient errors.
type Retryer struct {
	logger *slog.Logger
	cfg    Config
}

// New creates a retryer with the defaults overridden by opts.
func New(logger *slog.Logger, opts ...Option) *Retryer {
	cfg := Config{
		Timeout:      DefaultTimeout,
		MaxRetries:   DefaultMaxRetries,
		InitialDelay: DefaultInitialDelay,
		MaxDelay:     DefaultMaxDelay,
		Multiplier:   DefaultMultiplier,
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	cfg.MaxRetries = max(cfg.MaxRetries, 0)
	cfg.MaxDelay = max(cfg.MaxDelay, cfg.InitialDelay)

	return &Retryer{
		logger: logger.With("component", "retry"),
		cfg:    cfg,
	}
}

// Do runs fn until it succeeds, fails with a non-retryable error, the attempts
// run out or ctx is done. Each attempt gets its own timeout and the delay
// between attempts grows up to MaxDelay without cutting attempts short.
func (r *Retryer) Do(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	steps := r.cfg.MaxRetries + 1

	backoff := wait.Backoff{
		Duration: r.cfg.InitialDelay,
		Factor:   r.cfg.Multiplier,
		Steps:    steps,
	}

	var lastErr error

	for attempt := 1; ; attempt++ {
		err := r.attempt(ctx, fn)
		if err == nil {
			return nil
		}

		lastErr = err

		if ctx.Err() != nil {
			return fmt.Errorf("%s: %w: %w", operation, ctx.Err(), lastErr)
		}

		if !Retryable(ctx, err) {
			return err
		}

		if attempt >= steps {
			r.logger.WarnContext(ctx, "orchestrator call failed after retries",
				"operation", operation,
				"attempts", attempt,
				"reason", lastErr,
			)

			return fmt.Errorf("%s: %w after %d attempts: %w", operation, ErrExhausted, attempt, lastErr)
		}

		metrics.RecordAPIRetry(operation)

		delay := min(backoff.Step(), r.cfg.MaxDelay)

		r.logger.DebugContext(ctx, "retrying orchestrator call",
			"operation", operation,
			"attempt", attempt,
			"delay", delay,
			"reason", err,
		)

		timer := time.NewTimer(delay)

		select {
		case <-ctx.Done():
			timer.Stop()

			return fmt.Errorf("%s: %w: %w", operation, ctx.Err(), lastErr)
		case <-timer.C:
		}
	}
}

func (r *Retryer) attempt(ctx context.Context, fn func(ctx context.Context) error) error {
	attemptCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	return fn(attemptCtx)
}

// FatalError wraps an error to mark it as non-retryable.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string {
	return e.Err.Error()
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// Fatal marks an error as non-retryable.
func Fatal(err error) error {
	if err == nil {
		return nil
	}

	return &FatalError{Err: err}
}

type permanent interface {
	IsPermanent()
}

type notFound interface {
	IsNotFound()
}

// Retryable reports whether err may succeed on another attempt.
// Cancellation of the parent ctx is never retryable; an attempt timeout is.
func Retryable(ctx context.Context, err error) bool {
	if err == nil || ctx.Err() != nil {
		return false
	}

	var fatalErr *FatalError
	if errors.As(err, &fatalErr) {
		return false
	}

	var p permanent
	if errors.As(err, &p) {
		return false
	}

	var nf notFound
	if errors.As(err, &nf) {
		return false
	}

	return !errors.Is(err, context.Canceled)
}
