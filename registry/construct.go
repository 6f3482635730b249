package registry

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/GoCodeAlone/bootstrap/properties"
)

// Strategy identifies one accepted constructor shape.
type Strategy int

// Construction strategies, tried in declaration order.
const (
	ArgsOnly Strategy = iota
	ConfigOnly
	ConfigAndArgs
	ArgsAndConfig
	NoParams
)

// Strategies lists every construction strategy in the order they are attempted.
var Strategies = []Strategy{ArgsOnly, ConfigOnly, ConfigAndArgs, ArgsAndConfig, NoParams}

func (s Strategy) String() string {
	switch s {
	case ArgsOnly:
		return "args"
	case ConfigOnly:
		return "config"
	case ConfigAndArgs:
		return "config+args"
	case ArgsAndConfig:
		return "args+config"
	case NoParams:
		return "none"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

func (s Strategy) available(f *Factories) bool {
	switch s {
	case ArgsOnly:
		return f.ArgsOnly != nil
	case ConfigOnly:
		return f.ConfigOnly != nil
	case ConfigAndArgs:
		return f.ConfigAndArgs != nil
	case ArgsAndConfig:
		return f.ArgsAndConfig != nil
	case NoParams:
		return f.NoParams != nil
	}
	return false
}

// Attempt is the outcome of constructing one unit: the instance and winning
// strategy on success, and every absorbed strategy failure.
type Attempt struct {
	Unit     UnitRef
	Instance any
	Strategy Strategy
	Failures []error
}

// OK reports whether a strategy produced an instance
func (a Attempt) OK() bool {
	return a.Instance != nil
}

// Err joins the absorbed failures, or nil on success.
func (a Attempt) Err() error {
	if a.OK() {
		return nil
	}
	return errors.Join(a.Failures...)
}

// Construct tries each strategy of ref in order and returns at the first one
// that yields an instance satisfying want. want may be nil to accept any
// instance. Failures never escape: missing strategies, returned errors,
// panics, nil instances and contract mismatches fall through to the next
// strategy.
func Construct(ref UnitRef, cfg properties.Properties, args []string, want reflect.Type) Attempt {
	attempt := Attempt{Unit: ref}
	if !ref.Valid() {
		attempt.Failures = append(attempt.Failures, ErrInvalidUnit)
		return attempt
	}
	for _, s := range Strategies {
		instance, err := invoke(s, &ref.unit.Factories, cfg, args)
		if err == nil && want != nil && !reflect.TypeOf(instance).Implements(want) {
			err = fmt.Errorf("%w: %T does not implement %s", ErrContractMismatch, instance, want)
		}
		if err != nil {
			attempt.Failures = append(attempt.Failures, fmt.Errorf("%s: %s: %w", ref.Name(), s, err))
			continue
		}
		attempt.Instance = instance
		attempt.Strategy = s
		return attempt
	}
	return attempt
}

func invoke(s Strategy, f *Factories, cfg properties.Properties, args []string) (instance any, err error) {
	if !s.available(f) {
		return nil, ErrNoStrategy
	}
	defer func() {
		if r := recover(); r != nil {
			instance = nil
			err = fmt.Errorf("%w: %v", ErrStrategyPanicked, r)
		}
	}()

	// factories receive their own copy of the arguments vector
	argv := append([]string(nil), args...)
	switch s {
	case ArgsOnly:
		instance, err = f.ArgsOnly(argv)
	case ConfigOnly:
		instance, err = f.ConfigOnly(cfg)
	case ConfigAndArgs:
		instance, err = f.ConfigAndArgs(cfg, argv)
	case ArgsAndConfig:
		instance, err = f.ArgsAndConfig(argv, cfg)
	case NoParams:
		instance, err = f.NoParams()
	}
	if err != nil {
		return nil, err
	}
	if isNil(instance) {
		return nil, ErrNilInstance
	}
	return instance, nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
