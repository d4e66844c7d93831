package app

import "errors"

var (
	ErrTerminationFile = errors.New("termination file found")
	ErrUnknownStore    = errors.New("unknown store backend")
)
