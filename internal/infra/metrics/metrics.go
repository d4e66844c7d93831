package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "workload_reconciler"

var actionsTotal = promauto.With(prometheus.DefaultRegisterer).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "actions_total",
		Help:      "Corrective actions executed against the orchestrator, by kind, reason and result.",
	},
	[]string{"kind", "reason", "result"},
)

var restartsTotal = promauto.With(prometheus.DefaultRegisterer).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "restarts_total",
		Help:      "Pod restarts issued by the reconciler.",
	},
	[]string{"namespace", "workload", "reason"},
)

var restartBackoffSeconds = promauto.With(prometheus.DefaultRegisterer).NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "restart_backoff_seconds",
		Help:      "Backoff waits entered after a container terminated.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
	},
)

var apiRetriesTotal = promauto.With(prometheus.DefaultRegisterer).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "api_retries_total",
		Help:      "Orchestrator calls retried after a transient failure.",
	},
	[]string{"operation"},
)

var policyFailuresTotal = promauto.With(prometheus.DefaultRegisterer).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "policy_failures_total",
		Help:      "Workloads moved to Failed by a permanent policy error.",
	},
	[]string{"namespace", "workload"},
)

var duplicateEventsTotal = promauto.With(prometheus.DefaultRegisterer).NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "duplicate_events_total",
		Help:      "Observed-state events dropped as duplicates.",
	},
)

var droppedTransitionsTotal = promauto.With(prometheus.DefaultRegisterer).NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dropped_transitions_total",
		Help:      "Transitions not delivered to a full subscriber.",
	},
)

var endpointsGauge = promauto.With(prometheus.DefaultRegisterer).NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "service_endpoints",
		Help:      "Endpoints currently resolved for a service.",
	},
	[]string{"namespace", "service"},
)

var workersGauge = promauto.With(prometheus.DefaultRegisterer).NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "workers",
		Help:      "Per-workload reconcile loops currently running.",
	},
)

// RecordAction counts an executed action. result is "ok" or "error".
func RecordAction(kind, reason, result string) {
	actionsTotal.WithLabelValues(kind, reason, result).Inc()
}

// RecordRestart counts a restart issued for a workload pod.
func RecordRestart(namespace, workload, reason string) {
	restartsTotal.WithLabelValues(namespace, workload, reason).Inc()
}

// ObserveRestartBackoff records the wait entered after a termination.
func ObserveRestartBackoff(seconds float64) {
	restartBackoffSeconds.Observe(seconds)
}

// RecordAPIRetry counts one retried orchestrator call.
func RecordAPIRetry(operation string) {
	apiRetriesTotal.WithLabelValues(operation).Inc()
}

// RecordPolicyFailure counts a workload moved to Failed.
func RecordPolicyFailure(namespace, workload string) {
	policyFailuresTotal.WithLabelValues(namespace, workload).Inc()
}

// RecordDuplicateEvent counts a duplicate observed-state delivery.
func RecordDuplicateEvent() {
	duplicateEventsTotal.Inc()
}

// RecordDroppedTransition counts a transition lost to a slow subscriber.
func RecordDroppedTransition() {
	droppedTransitionsTotal.Inc()
}

// SetServiceEndpoints publishes the endpoint count of a service.
func SetServiceEndpoints(namespace, service string, count int) {
	endpointsGauge.WithLabelValues(namespace, service).Set(float64(count))
}

// DeleteServiceEndpoints drops the series of a removed service.
func DeleteServiceEndpoints(namespace, service string) {
	endpointsGauge.DeleteLabelValues(namespace, service)
}

// SetWorkers publishes the number of running workload loops.
func SetWorkers(count int) {
	workersGauge.Set(float64(count))
}

var dependencyUpGauge = promauto.With(prometheus.DefaultRegisterer).NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "dependency_up",
		Help:      "Result of the last health ping per dependency (1 ok, 0 failing).",
	},
	[]string{"name"},
)

// SetDependencyUp publishes the last ping result of a dependency.
func SetDependencyUp(name string, up bool) {
	value := 0.0
	if up {
		value = 1
	}

	dependencyUpGauge.WithLabelValues(name).Set(value)
}
