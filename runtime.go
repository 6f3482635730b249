// Package bootstrap discovers, selects, constructs and launches the beans of
// an application before any business logic runs.
//
// A Runtime enumerates unit descriptors on a search path, indexes the
// self-registered units they name by the contracts they satisfy, and builds
// one cached bean per requested contract. Run drives the whole sequence for
// the Runnable entry contract.
package bootstrap

import (
	"context"
	"slices"
	"sync"

	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/GoCodeAlone/bootstrap/enumerate"
	"github.com/GoCodeAlone/bootstrap/properties"
	"github.com/GoCodeAlone/bootstrap/registry"
)

// Runtime owns the lifecycle state, the configuration, the candidate map and
// the bean cache of one application invocation.
type Runtime struct {
	mu     sync.Mutex
	state  State
	logger Logger

	catalog     *registry.Catalog
	searchPath  []string
	configPaths []string
	configDir   string
	reserved    []string
	entry       registry.Contract
	args        []string
	observers   []ObserverFunc
	pending     []cloudevents.Event

	config     properties.Properties
	configFrom string
	resources  []string
	candidates registry.CandidateMap
	beans      map[registry.Contract]any
	building   map[registry.Contract]struct{}
}

// New creates a runtime in the NotStarted state
func New(opts ...Option) (*Runtime, error) {
	r := &Runtime{
		state:      NotStarted,
		logger:     NopLogger{},
		catalog:    registry.Default(),
		entry:      EntryContract,
		args:       []string{},
		candidates: registry.NewCandidateMap(),
		beans:      make(map[registry.Contract]any),
		building:   make(map[registry.Contract]struct{}),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// State returns the current lifecycle state
func (r *Runtime) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Config returns the loaded configuration
func (r *Runtime) Config() properties.Properties {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.config
}

// ConfigSource names the configuration resource that was loaded, or "".
func (r *Runtime) ConfigSource() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.configFrom
}

// Resources returns the names enumerated during Start
func (r *Runtime) Resources() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.resources)
}

// Candidates returns the candidate map built during Start
func (r *Runtime) Candidates() registry.CandidateMap {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.candidates
}

// Start loads the configuration, enumerates the search path and indexes the
// candidates. It only acts in the NotStarted state; otherwise it returns the
// current state unchanged.
func (r *Runtime) Start(ctx context.Context) State {
	r.mu.Lock()
	state := r.startLocked()
	r.mu.Unlock()
	r.flush(ctx)
	return state
}

func (r *Runtime) startLocked() State {
	if r.state != NotStarted {
		return r.state
	}
	r.transition(Starting)
	r.logger.Info("------------ starting", "runtime", "bootstrap.Runtime", "searchPath", r.searchPath)

	var loaderOpts []properties.LoaderOption
	if len(r.configPaths) > 0 {
		loaderOpts = append(loaderOpts, properties.WithPaths(r.configPaths...))
	}
	if r.configDir != "" {
		loaderOpts = append(loaderOpts, properties.WithBaseDir(r.configDir))
	}
	r.config, r.configFrom = properties.NewLoader(r.logger, loaderOpts...).Load(enumerate.ConfigRoots(r.searchPath)...)

	// the candidate map must be complete before any selection happens
	r.resources = slices.Collect(enumerate.New(r.logger).Enumerate(r.searchPath))
	var indexOpts []registry.IndexerOption
	if r.reserved != nil {
		indexOpts = append(indexOpts, registry.WithReservedNamespaces(r.reserved...))
	}
	r.candidates = registry.NewIndexer(r.catalog, r.logger, indexOpts...).Index(slices.Values(r.resources))

	r.transition(Started)
	r.logger.Info("Runtime." + Started.String())
	return r.state
}

// Shutdown clears configuration, resources, candidates and beans. It only
// acts in the Starting or Started state; otherwise it is a no-op that emits
// nothing.
func (r *Runtime) Shutdown(ctx context.Context) State {
	r.mu.Lock()
	state := r.shutdownLocked()
	r.mu.Unlock()
	r.flush(ctx)
	return state
}

func (r *Runtime) shutdownLocked() State {
	if !r.state.Active() {
		return r.state
	}
	r.transition(ShuttingDown)
	r.logger.Info("Runtime." + ShuttingDown.String())

	r.config = properties.Properties{}
	r.configFrom = ""
	r.resources = nil
	r.candidates = registry.NewCandidateMap()
	clear(r.beans)
	clear(r.building)

	r.transition(ShutDown)
	r.logger.Info("Runtime." + ShutDown.String() + " ------------")
	return r.state
}

func (r *Runtime) transition(to State) {
	r.state = to
	r.queue(stateEventType(to), map[string]any{"state": to.String()})
}

// Run starts the runtime, looks up the entry bean, runs it with the loaded
// configuration and args, and shuts down. A missing entry bean is logged as a
// warning and is not an error.
func (r *Runtime) Run(ctx context.Context, args []string) error {
	if args == nil {
		args = []string{}
	}
	r.mu.Lock()
	r.args = slices.Clone(args)
	entry := r.entry
	r.mu.Unlock()

	r.Start(ctx)
	defer r.Shutdown(ctx)

	bean, ok, err := r.GetBean(ctx, entry)
	if err != nil {
		return err
	}
	if !ok {
		r.logger.Warn("no runnable instance found", "contract", entry)
		return nil
	}
	runnable, ok := bean.(Runnable)
	if !ok {
		r.logger.Warn("entry bean is not runnable", "contract", entry, "type", typeName(bean))
		return nil
	}
	runnable.Run(r.Config(), args)
	return nil
}
