package bootstrap

import (
	"context"
	"fmt"
	"reflect"
	"slices"

	"github.com/GoCodeAlone/bootstrap/properties"
	"github.com/GoCodeAlone/bootstrap/registry"
)

// GetBean returns the bean for contract, constructing and caching it on the
// first request. A cached bean is returned unconditionally. When no candidate
// can be constructed the result is absent (false) and a warning is logged.
// A NotStarted runtime is started first. An empty contract and lookups
// after shutdown are errors. Factories run without the runtime lock and may
// look up other beans; a lookup of a contract whose bean is still being
// constructed fails with ErrBeanInCreation.
func (r *Runtime) GetBean(ctx context.Context, contract registry.Contract) (any, bool, error) {
	return r.getBean(ctx, contract, nil)
}

// Bean is the typed form of GetBean for an interface contract T.
func Bean[T any](ctx context.Context, r *Runtime) (T, bool, error) {
	var zero T
	want := reflect.TypeFor[T]()
	if want.Kind() != reflect.Interface {
		want = nil
	}
	bean, ok, err := r.getBean(ctx, registry.ContractOf[T](), want)
	if err != nil || !ok {
		return zero, ok, err
	}
	typed, ok := bean.(T)
	if !ok {
		return zero, false, fmt.Errorf("%w: cached %T is not %s", registry.ErrContractMismatch, bean, reflect.TypeFor[T]())
	}
	return typed, true, nil
}

// beanRequest is a lookup that missed the cache, captured under the lock so
// that the factories can run without it.
type beanRequest struct {
	contract registry.Contract
	want     reflect.Type
	ranked   []registry.Ranked
	config   properties.Properties
	args     []string
}

func (r *Runtime) getBean(ctx context.Context, contract registry.Contract, want reflect.Type) (any, bool, error) {
	if contract == "" {
		return nil, false, ErrInvalidContract
	}

	r.mu.Lock()
	bean, ok, req, err := r.beginLocked(contract, want)
	r.mu.Unlock()
	r.flush(ctx)
	if err != nil || ok {
		return bean, ok, err
	}

	// factories may look up other beans
	winner, attempt := r.construct(req)

	r.mu.Lock()
	bean, ok, err = r.finishLocked(req, winner, attempt)
	r.mu.Unlock()
	r.flush(ctx)
	return bean, ok, err
}

// beginLocked returns a cached bean, or marks contract as in creation and
// snapshots what construction needs.
func (r *Runtime) beginLocked(contract registry.Contract, want reflect.Type) (any, bool, beanRequest, error) {
	switch r.state {
	case NotStarted:
		r.startLocked()
	case ShuttingDown, ShutDown:
		return nil, false, beanRequest{}, fmt.Errorf("%w: cannot get bean for %s", ErrRuntimeShutDown, contract)
	}

	if bean, ok := r.beans[contract]; ok {
		return bean, true, beanRequest{}, nil
	}
	if _, ok := r.building[contract]; ok {
		return nil, false, beanRequest{}, fmt.Errorf("%w: %s", ErrBeanInCreation, contract)
	}
	r.building[contract] = struct{}{}

	if want == nil {
		want = r.contractType(contract)
	}
	return nil, false, beanRequest{
		contract: contract,
		want:     want,
		ranked:   registry.Select(r.candidates, contract),
		config:   r.config,
		args:     slices.Clone(r.args),
	}, nil
}

// construct tries the ranked candidates in order and returns the first
// successful attempt.
func (r *Runtime) construct(req beanRequest) (registry.Ranked, registry.Attempt) {
	for _, candidate := range req.ranked {
		attempt := registry.Construct(candidate.Unit, req.config, req.args, req.want)
		if attempt.OK() {
			return candidate, attempt
		}
		r.logger.Debug("candidate could not be constructed",
			"contract", req.contract, "unit", candidate.Unit.Name(), "score", candidate.Score, "error", attempt.Err())
	}
	return registry.Ranked{}, registry.Attempt{}
}

func (r *Runtime) finishLocked(req beanRequest, winner registry.Ranked, attempt registry.Attempt) (any, bool, error) {
	delete(r.building, req.contract)
	if !r.state.Active() {
		return nil, false, fmt.Errorf("%w: cannot get bean for %s", ErrRuntimeShutDown, req.contract)
	}

	if !attempt.OK() {
		r.logger.Warn("no bean object created", "contract", req.contract)
		r.queue(EventTypeBeanMissing, map[string]any{"contract": string(req.contract)})
		return nil, false, nil
	}

	r.beans[req.contract] = attempt.Instance
	r.logger.Info("bean object created",
		"contract", req.contract, "unit", winner.Unit.Name(), "type", typeName(attempt.Instance),
		"strategy", attempt.Strategy.String(), "score", winner.Score)
	r.queue(EventTypeBeanCreated, map[string]any{
		"contract": string(req.contract),
		"unit":     winner.Unit.Name(),
		"strategy": attempt.Strategy.String(),
	})
	return attempt.Instance, true, nil
}

func (r *Runtime) contractType(contract registry.Contract) reflect.Type {
	if t := r.catalog.ContractType(contract); t != nil {
		return t
	}
	if contract == EntryContract {
		return reflect.TypeFor[Runnable]()
	}
	return nil
}

func typeName(v any) string {
	if v == nil {
		return "<nil>"
	}
	return reflect.TypeOf(v).String()
}
