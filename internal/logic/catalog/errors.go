package catalog

import "errors"

var (
	// ErrNotFound is returned when no workload or service has the requested name.
	ErrNotFound = errors.New("not found")

	ErrStore = errors.New("store")
)
