package bootstrap

import (
	"slices"

	"github.com/GoCodeAlone/bootstrap/registry"
)

// Option represents a functional option for configuring a Runtime
type Option func(*Runtime) error

// WithLogger sets the runtime logger
func WithLogger(logger Logger) Option {
	return func(r *Runtime) error {
		if logger == nil {
			return ErrLoggerNil
		}
		r.logger = logger
		return nil
	}
}

// WithSearchPath sets the roots scanned for unit descriptors and resources
func WithSearchPath(roots ...string) Option {
	return func(r *Runtime) error {
		r.searchPath = slices.Clone(roots)
		return nil
	}
}

// WithCatalog resolves units against catalog instead of registry.Default()
func WithCatalog(catalog *registry.Catalog) Option {
	return func(r *Runtime) error {
		if catalog == nil {
			return ErrCatalogNil
		}
		r.catalog = catalog
		return nil
	}
}

// WithConfigPaths replaces the candidate relative paths of the configuration resource
func WithConfigPaths(paths ...string) Option {
	return func(r *Runtime) error {
		r.configPaths = slices.Clone(paths)
		return nil
	}
}

// WithConfigDir resolves filesystem configuration paths relative to dir
func WithConfigDir(dir string) Option {
	return func(r *Runtime) error {
		r.configDir = dir
		return nil
	}
}

// WithReservedNamespaces replaces the contract namespaces excluded from indexing
func WithReservedNamespaces(namespaces ...string) Option {
	return func(r *Runtime) error {
		r.reserved = slices.Clone(namespaces)
		return nil
	}
}

// WithEntryContract changes the contract Run looks up. Its beans must still implement Runnable.
func WithEntryContract(contract registry.Contract) Option {
	return func(r *Runtime) error {
		if contract == "" {
			return ErrInvalidContract
		}
		r.entry = contract
		return nil
	}
}

// WithArgs sets the arguments vector handed to construction strategies
func WithArgs(args ...string) Option {
	return func(r *Runtime) error {
		r.args = slices.Clone(args)
		return nil
	}
}

// WithObservers registers observers for runtime events
func WithObservers(observers ...ObserverFunc) Option {
	return func(r *Runtime) error {
		for _, o := range observers {
			if o == nil {
				return ErrObserverNil
			}
		}
		r.observers = append(r.observers, observers...)
		return nil
	}
}
