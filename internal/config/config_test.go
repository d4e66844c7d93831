package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/skillcoder/workload-reconciler/internal/config"
)

type loadCase struct {
	name    string
	giveEnv map[string]string
	wantErr bool
	wantCfg *config.Config
}

func assertConfigFields(t *testing.T, got, want *config.Config) {
	t.Helper()

	if want == nil {
		return
	}

	if want.KubeConfig != "" {
		require.Equal(t, want.KubeConfig, got.KubeConfig)
	}

	if want.Namespace != "" {
		require.Equal(t, want.Namespace, got.Namespace)
	}

	if want.HTTPPort != "" {
		require.Equal(t, want.HTTPPort, got.HTTPPort)
	}

	if want.MetricsPort != "" {
		require.Equal(t, want.MetricsPort, got.MetricsPort)
	}

	if want.Interval != 0 {
		require.Equal(t, want.Interval, got.Interval)
	}

	if want.PingerInterval != 0 {
		require.Equal(t, want.PingerInterval, got.PingerInterval)
	}

	if want.LogLevel != "" {
		require.Equal(t, want.LogLevel, got.LogLevel)
	}

	if want.LogFormat != "" {
		require.Equal(t, want.LogFormat, got.LogFormat)
	}

	if want.Store != "" {
		require.Equal(t, want.Store, got.Store)
	}

	if want.RedisAddr != "" {
		require.Equal(t, want.RedisAddr, got.RedisAddr)
	}

	if want.RedisDB != 0 {
		require.Equal(t, want.RedisDB, got.RedisDB)
	}

	if want.APITimeout != 0 {
		require.Equal(t, want.APITimeout, got.APITimeout)
	}

	if want.APIMaxRetries != 0 {
		require.Equal(t, want.APIMaxRetries, got.APIMaxRetries)
	}

	if want.BackoffInitial != 0 {
		require.Equal(t, want.BackoffInitial, got.BackoffInitial)
	}

	if want.BackoffMax != 0 {
		require.Equal(t, want.BackoffMax, got.BackoffMax)
	}

	if want.BackoffResetAfter != 0 {
		require.Equal(t, want.BackoffResetAfter, got.BackoffResetAfter)
	}
}

func TestLoad(t *testing.T) {
	tests := []loadCase{
		{
			name: "all defaults",
			wantCfg: &config.Config{
				Namespace:         "default",
				LogLevel:          "info",
				LogFormat:         "json",
				HTTPPort:          "8080",
				MetricsPort:       "9090",
				Interval:          10 * time.Second,
				PingerInterval:    10 * time.Second,
				Store:             config.StoreRedis,
				RedisAddr:         "localhost:6379",
				APITimeout:        5 * time.Second,
				APIMaxRetries:     4,
				BackoffInitial:    10 * time.Second,
				BackoffMax:        5 * time.Minute,
				BackoffResetAfter: 10 * time.Minute,
			},
		},
		{
			name: "override RECONCILER_HTTP_PORT and RECONCILER_INTERVAL",
			giveEnv: map[string]string{
				"RECONCILER_HTTP_PORT": "9091",
				"RECONCILER_INTERVAL":  "1m",
			},
			wantCfg: &config.Config{
				HTTPPort: "9091",
				Interval: time.Minute,
			},
		},
		{
			name: "memory store in a custom namespace",
			giveEnv: map[string]string{
				"RECONCILER_STORE":     "memory",
				"RECONCILER_NAMESPACE": "apps",
			},
			wantCfg: &config.Config{
				Store:     config.StoreMemory,
				Namespace: "apps",
			},
		},
		{
			name: "redis connection",
			giveEnv: map[string]string{
				"RECONCILER_REDIS_ADDR": "redis:6379",
				"RECONCILER_REDIS_DB":   "3",
			},
			wantCfg: &config.Config{
				RedisAddr: "redis:6379",
				RedisDB:   3,
			},
		},
		{
			name: "kubeconfig falls back to KUBECONFIG",
			giveEnv: map[string]string{
				"RECONCILER_KUBECONFIG": "",
				"KUBECONFIG":            "/tmp/kubeconfig",
			},
			wantCfg: &config.Config{
				KubeConfig: "/tmp/kubeconfig",
			},
		},
		{
			name: "kubeconfig prefers RECONCILER_KUBECONFIG",
			giveEnv: map[string]string{
				"RECONCILER_KUBECONFIG": "/etc/reconciler/kubeconfig",
				"KUBECONFIG":            "/tmp/kubeconfig",
			},
			wantCfg: &config.Config{
				KubeConfig: "/etc/reconciler/kubeconfig",
			},
		},
		{
			name: "api and backoff tuning",
			giveEnv: map[string]string{
				"RECONCILER_API_TIMEOUT":         "500ms",
				"RECONCILER_API_MAX_RETRIES":     "2",
				"RECONCILER_BACKOFF_INITIAL":     "1s",
				"RECONCILER_BACKOFF_MAX":         "30s",
				"RECONCILER_BACKOFF_RESET_AFTER": "2m",
			},
			wantCfg: &config.Config{
				APITimeout:        500 * time.Millisecond,
				APIMaxRetries:     2,
				BackoffInitial:    time.Second,
				BackoffMax:        30 * time.Second,
				BackoffResetAfter: 2 * time.Minute,
			},
		},
		{
			name: "invalid RECONCILER_INTERVAL",
			giveEnv: map[string]string{
				"RECONCILER_INTERVAL": "x",
			},
			wantErr: true,
		},
		{
			name: "RECONCILER_INTERVAL below minimum",
			giveEnv: map[string]string{
				"RECONCILER_INTERVAL": "100ms",
			},
			wantErr: true,
		},
		{
			name: "invalid RECONCILER_PINGER_INTERVAL",
			giveEnv: map[string]string{
				"RECONCILER_PINGER_INTERVAL": "not-a-duration",
			},
			wantErr: true,
		},
		{
			name: "unknown RECONCILER_STORE",
			giveEnv: map[string]string{
				"RECONCILER_STORE": "etcd",
			},
			wantErr: true,
		},
		{
			name: "negative RECONCILER_API_MAX_RETRIES",
			giveEnv: map[string]string{
				"RECONCILER_API_MAX_RETRIES": "-1",
			},
			wantErr: true,
		},
		{
			name: "invalid RECONCILER_REDIS_DB",
			giveEnv: map[string]string{
				"RECONCILER_REDIS_DB": "zero",
			},
			wantErr: true,
		},
		{
			name: "RECONCILER_BACKOFF_MAX below RECONCILER_BACKOFF_INITIAL",
			giveEnv: map[string]string{
				"RECONCILER_BACKOFF_INITIAL": "1m",
				"RECONCILER_BACKOFF_MAX":     "10s",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.giveEnv {
				t.Setenv(k, v)
			}

			got, err := config.Load()
			if tt.wantErr {
				require.ErrorIs(t, err, config.ErrInvalid)

				return
			}

			require.NoError(t, err)
			require.NotNil(t, got)

			assertConfigFields(t, got, tt.wantCfg)
		})
	}
}
