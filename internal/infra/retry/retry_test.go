package retry_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/skillcoder/workload-reconciler/internal/infra/retry"
)

var errFlaky = errors.New("connection reset")

type permanentErr struct{}

func (permanentErr) Error() string { return "forbidden" }
func (permanentErr) IsPermanent()  {}

type notFoundErr struct{}

func (notFoundErr) Error() string { return "not found" }
func (notFoundErr) IsNotFound()   {}

func newRetryer(maxRetries int) *retry.Retryer {
	return retry.New(slog.Default(),
		retry.WithMaxRetries(maxRetries),
		retry.WithInitialDelay(time.Millisecond),
		retry.WithMaxDelay(5*time.Millisecond),
		retry.WithTimeout(50*time.Millisecond),
	)
}

func TestRetryer_Do(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		giveFailures int
		giveErr      error
		wantAttempts int
		wantErrIs    error
	}{
		{
			name:         "first attempt succeeds",
			wantAttempts: 1,
		},
		{
			name:         "succeeds after transient failures",
			giveFailures: 2,
			giveErr:      errFlaky,
			wantAttempts: 3,
		},
		{
			name:         "exhausts attempts",
			giveFailures: 10,
			giveErr:      errFlaky,
			wantAttempts: 4,
			wantErrIs:    retry.ErrExhausted,
		},
		{
			name:         "permanent error stops immediately",
			giveFailures: 10,
			giveErr:      permanentErr{},
			wantAttempts: 1,
			wantErrIs:    permanentErr{},
		},
		{
			name:         "not found stops immediately",
			giveFailures: 10,
			giveErr:      notFoundErr{},
			wantAttempts: 1,
			wantErrIs:    notFoundErr{},
		},
		{
			name:         "fatal error stops immediately",
			giveFailures: 10,
			giveErr:      retry.Fatal(errFlaky),
			wantAttempts: 1,
			wantErrIs:    errFlaky,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			attempts := 0

			err := newRetryer(3).Do(t.Context(), "create pod", func(context.Context) error {
				attempts++
				if attempts <= tt.giveFailures {
					return tt.giveErr
				}

				return nil
			})

			require.Equal(t, tt.wantAttempts, attempts)

			if tt.wantErrIs == nil {
				require.NoError(t, err)

				return
			}

			require.ErrorIs(t, err, tt.wantErrIs)
		})
	}
}

func TestRetryer_Do_MaxDelayKeepsAllAttempts(t *testing.T) {
	t.Parallel()

	r := retry.New(slog.Default(),
		retry.WithMaxRetries(10),
		retry.WithInitialDelay(time.Millisecond),
		retry.WithMaxDelay(4*time.Millisecond),
	)

	attempts := 0
	started := time.Now()

	err := r.Do(t.Context(), "list pods", func(context.Context) error {
		attempts++

		return errFlaky
	})

	require.ErrorIs(t, err, retry.ErrExhausted)
	require.ErrorIs(t, err, errFlaky)
	require.Equal(t, 11, attempts)
	// 1+2+4ms then 4ms per remaining delay
	require.GreaterOrEqual(t, time.Since(started), 35*time.Millisecond)
}

func TestRetryer_Do_AttemptTimeout(t *testing.T) {
	t.Parallel()

	attempts := 0

	err := newRetryer(1).Do(t.Context(), "list pods", func(ctx context.Context) error {
		attempts++

		<-ctx.Done()

		return ctx.Err()
	})

	require.Equal(t, 2, attempts)
	require.ErrorIs(t, err, retry.ErrExhausted)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRetryer_Do_ParentCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())

	attempts := 0

	err := newRetryer(5).Do(ctx, "delete pod", func(context.Context) error {
		attempts++
		cancel()

		return errFlaky
	})

	require.Equal(t, 1, attempts)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRetryable(t *testing.T) {
	t.Parallel()

	ctx := t.Context()

	require.True(t, retry.Retryable(ctx, errFlaky))
	require.True(t, retry.Retryable(ctx, context.DeadlineExceeded))
	require.False(t, retry.Retryable(ctx, nil))
	require.False(t, retry.Retryable(ctx, permanentErr{}))
	require.False(t, retry.Retryable(ctx, context.Canceled))
}
