package registry

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// Static errors for registry package
var (
	ErrInvalidUnit           = errors.New("invalid unit registration")
	ErrUnitAlreadyRegistered = errors.New("unit already registered")
	ErrInvalidPriority       = errors.New("explicit priority must not be negative")
	ErrInvalidContract       = errors.New("invalid contract")
	ErrContractNotInterface  = errors.New("contract type must be an interface")
	ErrNoStrategy            = errors.New("construction strategy not provided")
	ErrStrategyPanicked      = errors.New("construction strategy panicked")
	ErrNilInstance           = errors.New("construction strategy returned nil instance")
	ErrContractMismatch      = errors.New("instance does not satisfy contract")
)

type contractEntry struct {
	extends []Contract
	typ     reflect.Type
}

// Catalog holds self-registered units and declared contracts. Collaborators
// register into Default from init functions; tests build their own catalogs.
type Catalog struct {
	mu        sync.RWMutex
	units     map[string]*Unit
	order     []string
	contracts map[Contract]*contractEntry
}

var defaultCatalog = NewCatalog()

// NewCatalog creates an empty catalog
func NewCatalog() *Catalog {
	return &Catalog{
		units:     make(map[string]*Unit),
		contracts: make(map[Contract]*contractEntry),
	}
}

// Default returns the process-wide catalog
func Default() *Catalog {
	return defaultCatalog
}

// Register adds u to the process-wide catalog.
func Register(u Unit) error {
	return defaultCatalog.Register(u)
}

// MustRegister is like Register but panics on error. It is meant for init functions.
func MustRegister(u Unit) {
	if err := defaultCatalog.Register(u); err != nil {
		panic(err)
	}
}

// Register adds a unit. Unit names are unique within a catalog.
func (c *Catalog) Register(u Unit) error {
	name := strings.TrimSpace(u.Name)
	if name == "" || strings.ContainsAny(name, " \t\r\n/\\") {
		return fmt.Errorf("%w: name %q", ErrInvalidUnit, u.Name)
	}
	if u.Priority != nil && *u.Priority < 0 {
		return fmt.Errorf("%w: unit %s has priority %d", ErrInvalidPriority, name, *u.Priority)
	}
	for _, ct := range u.Implements {
		if ct == "" {
			return fmt.Errorf("%w: unit %s implements an empty contract", ErrInvalidUnit, name)
		}
	}

	// the catalog owns its copy
	unit := u
	unit.Name = name
	unit.Implements = append([]Contract(nil), u.Implements...)
	if u.Priority != nil {
		unit.Priority = Priority(*u.Priority)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.units[name]; exists {
		return fmt.Errorf("%w: %s", ErrUnitAlreadyRegistered, name)
	}
	c.units[name] = &unit
	c.order = append(c.order, name)
	return nil
}

// RegisterContract declares that contract extends the given contracts.
// Declaring the same contract twice merges the extension lists.
func (c *Catalog) RegisterContract(contract Contract, extends ...Contract) error {
	if contract == "" {
		return ErrInvalidContract
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entryLocked(contract).addExtends(extends)
	return nil
}

// DeclareContract registers the interface type T as a contract so that
// constructed instances can be checked against it.
func DeclareContract[T any](c *Catalog, extends ...Contract) (Contract, error) {
	t := reflect.TypeFor[T]()
	if t.Kind() != reflect.Interface {
		return "", fmt.Errorf("%w: %s", ErrContractNotInterface, t)
	}
	contract := contractOfType(t)

	c.mu.Lock()
	defer c.mu.Unlock()
	entry := c.entryLocked(contract)
	entry.typ = t
	entry.addExtends(extends)
	return contract, nil
}

func (c *Catalog) entryLocked(contract Contract) *contractEntry {
	entry, ok := c.contracts[contract]
	if !ok {
		entry = &contractEntry{}
		c.contracts[contract] = entry
	}
	return entry
}

func (e *contractEntry) addExtends(extends []Contract) {
	for _, x := range extends {
		if x == "" {
			continue
		}
		dup := false
		for _, have := range e.extends {
			if have == x {
				dup = true
				break
			}
		}
		if !dup {
			e.extends = append(e.extends, x)
		}
	}
}

// Lookup resolves a unit by name
func (c *Catalog) Lookup(name string) (UnitRef, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	u, ok := c.units[name]
	if !ok {
		return UnitRef{}, false
	}
	return UnitRef{unit: u}, true
}

// Units returns every registered unit in registration order
func (c *Catalog) Units() []UnitRef {
	c.mu.RLock()
	defer c.mu.RUnlock()
	refs := make([]UnitRef, 0, len(c.order))
	for _, name := range c.order {
		refs = append(refs, UnitRef{unit: c.units[name]})
	}
	return refs
}

// Extends returns the contracts that contract extends
func (c *Catalog) Extends(contract Contract) []Contract {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if entry, ok := c.contracts[contract]; ok {
		return append([]Contract(nil), entry.extends...)
	}
	return nil
}

// ContractType returns the interface type declared for contract, or nil.
func (c *Catalog) ContractType(contract Contract) reflect.Type {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if entry, ok := c.contracts[contract]; ok {
		return entry.typ
	}
	return nil
}

// Len returns the number of registered units
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.units)
}
