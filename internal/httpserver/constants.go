package httpserver

import "time"

// Probe routes are served at the root, the reconciler API under apiPrefix.
const (
	routeHealthz = "/-/healthz"
	routeReadyz  = "/-/readyz"
	routeStatus  = "/-/status"

	apiPrefix              = "/api/v1"
	routeWorkers           = "/workers"
	routeWorker            = "/workers/{namespace}/{name}"
	routeSelectorEndpoints = "/namespaces/{namespace}/endpoints"
	routeServiceEndpoints  = "/namespaces/{namespace}/services/{name}/endpoints"
)

const (
	defaultPort = "8080"

	readTimeout       = 5 * time.Second
	readHeaderTimeout = 2 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 90 * time.Second
	// label selectors travel in the query string
	maxHeaderBytes = 1 << 14
)
