package controller

import "errors"

var (
	ErrListSpecs    = errors.New("list workload specs")
	ErrListServices = errors.New("list services")
	ErrListPods     = errors.New("list pods")
	ErrSyncServices = errors.New("sync services")
	ErrExecute      = errors.New("execute action")
	ErrNotReady     = errors.New("controller is not ready")
)
