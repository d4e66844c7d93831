package shutdown_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/skillcoder/workload-reconciler/internal/infra/shutdown"
	"github.com/skillcoder/workload-reconciler/internal/infra/shutdown/mocks"
)

func TestCheckTerminationFile(t *testing.T) {
	t.Parallel()

	logger := slog.Default()

	tests := []struct {
		name       string
		giveCreate bool
		givePath   string
		want       bool
	}{
		{name: "empty path disables the check", want: false},
		{name: "file missing", givePath: "nonexistent", want: false},
		{name: "file exists", givePath: "terminating", giveCreate: true, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := tt.givePath
			if path != "" {
				path = filepath.Join(t.TempDir(), path)
			}

			if tt.giveCreate {
				require.NoError(t, os.WriteFile(path, nil, 0o600))
			}

			require.Equal(t, tt.want, shutdown.CheckTerminationFile(t.Context(), logger, path))
		})
	}
}

func TestGracefulShutdown(t *testing.T) {
	t.Parallel()

	logger := slog.Default()

	t.Run("empty list returns nil", func(t *testing.T) {
		t.Parallel()

		require.NoError(t, shutdown.GracefulShutdown(t.Context(), logger, nil))
	})

	t.Run("error is reported and later components still shut down", func(t *testing.T) {
		t.Parallel()

		first := mocks.NewMockShutdowner(t)
		first.EXPECT().Name().Return("first").Once()
		first.EXPECT().Shutdown(mock.Anything).Return(nil).Once()

		second := mocks.NewMockShutdowner(t)
		second.EXPECT().Name().Return("second").Once()
		second.EXPECT().Shutdown(mock.Anything).Return(context.DeadlineExceeded).Once()

		err := shutdown.GracefulShutdown(t.Context(), logger, []shutdown.Shutdowner{first, second})
		require.ErrorIs(t, err, context.DeadlineExceeded)
		require.ErrorContains(t, err, "shutdown second")
	})

	t.Run("components shut down in reverse order", func(t *testing.T) {
		t.Parallel()

		var order []string

		record := func(name string) *mocks.MockShutdowner {
			m := mocks.NewMockShutdowner(t)
			m.EXPECT().Name().Return(name).Once()
			m.EXPECT().Shutdown(mock.Anything).RunAndReturn(func(context.Context) error {
				order = append(order, name)

				return nil
			}).Once()

			return m
		}

		err := shutdown.GracefulShutdown(t.Context(), logger, []shutdown.Shutdowner{
			record("store"), record("controller"), record("http-server"),
		})
		require.NoError(t, err)
		require.Equal(t, []string{"http-server", "controller", "store"}, order)
	})

	t.Run("cancelled origin context still shuts down", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		m := mocks.NewMockShutdowner(t)
		m.EXPECT().Name().Return("store").Once()
		m.EXPECT().Shutdown(mock.Anything).RunAndReturn(func(ctx context.Context) error {
			return ctx.Err()
		}).Once()

		err := shutdown.GracefulShutdown(ctx, logger, []shutdown.Shutdowner{m})
		require.False(t, errors.Is(err, context.Canceled))
		require.NoError(t, err)
	})
}
