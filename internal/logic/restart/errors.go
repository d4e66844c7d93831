package restart

import (
	"errors"
	"fmt"

	"github.com/skillcoder/workload-reconciler/internal/logic/workload"
)

var (
	// ErrRestartForbidden is returned for a terminated container under RestartPolicy Never.
	ErrRestartForbidden = fmt.Errorf("%w: restart forbidden by policy", workload.ErrPermanentPolicy)

	ErrUnknownPolicy = errors.New("unknown restart policy")
)
