package config

import "time"

// Env key constants. All reconciler configuration env vars use the RECONCILER_ prefix;
// duration values support explicit units (e.g. 5m, 40s, 2h).

// Path to kubeconfig file. If unset, KUBECONFIG is used as fallback.
const envKeyKubeConfig = "RECONCILER_KUBECONFIG"

// Kubernetes API server URL. If unset, KUBERNETES_MASTER is used as fallback.
const envKeyKubeMaster = "RECONCILER_KUBE_MASTER"

// Namespace the reconciler manages; empty means all namespaces.
const envKeyNamespace = "RECONCILER_NAMESPACE"

// Log level: debug, info, warn, error.
const envKeyLogLevel = "RECONCILER_LOG_LEVEL"

// Log format: json or text.
const envKeyLogFormat = "RECONCILER_LOG_FORMAT"

// Port for health, readiness and the workers API.
const envKeyHTTPPort = "RECONCILER_HTTP_PORT"

// Port for Prometheus metrics (GET /metrics).
const envKeyMetricsPort = "RECONCILER_METRICS_PORT"

// Spec sync and pod resync interval. Units: s, m, h (e.g. 10s, 1m).
const (
	envKeyInterval = "RECONCILER_INTERVAL"
	envMinInterval = time.Second
)

// Pinger check interval. Units: s, m, h (e.g. 10s, 1m).
const (
	envKeyPingerInterval = "RECONCILER_PINGER_INTERVAL"
	envMinPingerInterval = time.Second
)

// Spec store backend: redis or memory.
const envKeyStore = "RECONCILER_STORE"

// Redis connection for the redis store.
const (
	envKeyRedisAddr     = "RECONCILER_REDIS_ADDR"
	envKeyRedisPassword = "RECONCILER_REDIS_PASSWORD"
	envKeyRedisDB       = "RECONCILER_REDIS_DB"
)

// Timeout of a single orchestrator API call. Units: ms, s, m.
const (
	envKeyAPITimeout = "RECONCILER_API_TIMEOUT"
	envMinAPITimeout = 100 * time.Millisecond
)

// Retries of a failed orchestrator API call after the first attempt.
const envKeyAPIMaxRetries = "RECONCILER_API_MAX_RETRIES"

// Crash-loop backoff: first delay, cap, and the running time after which it resets.
const (
	envKeyBackoffInitial    = "RECONCILER_BACKOFF_INITIAL"
	envMinBackoffInitial    = 100 * time.Millisecond
	envKeyBackoffMax        = "RECONCILER_BACKOFF_MAX"
	envKeyBackoffResetAfter = "RECONCILER_BACKOFF_RESET_AFTER"
	envMinBackoffResetAfter = time.Second
)

// File whose presence starts a graceful shutdown.
const envKeyTerminationFile = "RECONCILER_TERMINATION_FILE"

// Standard k8s env keys used as fallback when RECONCILER_* are unset.
const (
	envKeyKubeConfigFallback = "KUBECONFIG"
	envKeyKubeMasterFallback = "KUBERNETES_MASTER"
)
