package workload

import "errors"

var (
	// ErrValidation marks a malformed or incomplete document. Nothing is stored.
	ErrValidation = errors.New("validation error")

	// ErrTransientInfra marks an orchestrator failure worth retrying.
	ErrTransientInfra = errors.New("transient infrastructure error")

	// ErrPermanentPolicy marks a failure that retrying cannot fix.
	ErrPermanentPolicy = errors.New("permanent policy error")
)
