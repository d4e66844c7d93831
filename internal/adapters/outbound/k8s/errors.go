package k8s

import (
	"errors"
	"fmt"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	utilnet "k8s.io/apimachinery/pkg/util/net"

	"github.com/skillcoder/workload-reconciler/internal/logic/workload"
)

// PodNotFoundError implements the NotFound marker checked by the logic layer.
type PodNotFoundError struct {
	Pod string
	Err error
}

func (e *PodNotFoundError) Error() string {
	return fmt.Sprintf("pod %s not found: %v", e.Pod, e.Err)
}

func (e *PodNotFoundError) Unwrap() error {
	return e.Err
}

// IsNotFound marks the error as a missing object.
func (e *PodNotFoundError) IsNotFound() {}

// TransientError is an API failure worth retrying.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() []error {
	return []error{workload.ErrTransientInfra, e.Err}
}

// IsTransient marks the error as retryable.
func (e *TransientError) IsTransient() {}

// PermanentError is an API failure that retrying cannot fix, such as a rejected
// pod object or missing permissions.
type PermanentError struct {
	Op  string
	Err error
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PermanentError) Unwrap() []error {
	return []error{workload.ErrPermanentPolicy, e.Err}
}

// IsPermanent marks the error as not retryable.
func (e *PermanentError) IsPermanent() {}

// classify wraps an API error into one of the marker types.
func classify(op, pod string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case apierrors.IsNotFound(err):
		return &PodNotFoundError{Pod: pod, Err: err}
	case apierrors.IsInvalid(err),
		apierrors.IsForbidden(err),
		apierrors.IsUnauthorized(err),
		apierrors.IsBadRequest(err),
		apierrors.IsMethodNotSupported(err),
		apierrors.IsNotAcceptable(err),
		apierrors.IsUnsupportedMediaType(err),
		apierrors.IsRequestEntityTooLargeError(err):
		return &PermanentError{Op: op, Err: err}
	case apierrors.IsTooManyRequests(err),
		apierrors.IsServerTimeout(err),
		apierrors.IsTimeout(err),
		apierrors.IsServiceUnavailable(err),
		apierrors.IsInternalError(err),
		apierrors.IsConflict(err),
		apierrors.IsAlreadyExists(err),
		utilnet.IsConnectionReset(err),
		utilnet.IsConnectionRefused(err),
		utilnet.IsProbableEOF(err):
		return &TransientError{Op: op, Err: err}
	}

	var status apierrors.APIStatus
	if errors.As(err, &status) {
		if code := status.Status().Code; code >= 400 && code < 500 {
			return &PermanentError{Op: op, Err: err}
		}
	}

	return &TransientError{Op: op, Err: err}
}
