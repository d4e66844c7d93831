package memory

import (
	"errors"
	"fmt"
)

// NotFoundError is returned when a key is absent.
type NotFoundError struct {
	Kind string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.Key)
}

// IsNotFound marks the error as a missing object.
func (e *NotFoundError) IsNotFound() {}

func isNotFound(err error) bool {
	var target *NotFoundError

	return errors.As(err, &target)
}
