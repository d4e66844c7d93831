package commands

import (
	"errors"

	"github.com/skillcoder/workload-reconciler/internal/logic/workload"
)

const (
	ExitOK         = 0
	ExitError      = 1
	ExitValidation = 2
)

// ExitCode maps a command error to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, workload.ErrValidation):
		return ExitValidation
	default:
		return ExitError
	}
}
