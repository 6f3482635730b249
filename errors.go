package bootstrap

import (
	"errors"
)

// Runtime errors
var (
	// Programming-contract violations
	ErrInvalidContract = errors.New("getBean failed, contract is empty")
	ErrRuntimeShutDown = errors.New("runtime is shut down")
	ErrBeanInCreation  = errors.New("bean is currently in creation")

	// Option errors
	ErrLoggerNil   = errors.New("logger is nil")
	ErrCatalogNil  = errors.New("catalog is nil")
	ErrObserverNil = errors.New("observer is nil")
)
