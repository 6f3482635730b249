// Package registry defines the unit catalog, the capability index and the
// priority selection used to discover bean implementations.
package registry

import (
	"go/build"
	"os"
	"path/filepath"
	"reflect"
	"runtime/debug"
	"slices"
	"strings"
	"sync"

	"github.com/GoCodeAlone/bootstrap/properties"
)

// LowBound is the implicit score of a candidate that implements a contract
// directly. Deeper relationships score higher, explicit priorities are never
// below zero.
const LowBound = -100

// UnitSuffix marks unit descriptor names produced by enumeration.
const UnitSuffix = ".unit"

// Contract is the fully-qualified name of a capability contract.
type Contract string

// String returns the contract name
func (c Contract) String() string {
	return string(c)
}

// Logger is the subset of the application logger used by this package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}

// Factories holds the construction strategies a unit supports. Any subset
// may be set; unset strategies count as missing.
type Factories struct {
	ArgsOnly      func(args []string) (any, error)
	ConfigOnly    func(cfg properties.Properties) (any, error)
	ConfigAndArgs func(cfg properties.Properties, args []string) (any, error)
	ArgsAndConfig func(args []string, cfg properties.Properties) (any, error)
	NoParams      func() (any, error)
}

// Unit is a self-registration request for an implementation type.
type Unit struct {
	// Name is the fully-qualified dotted unit name, e.g. "application.Application".
	Name string

	// Implements lists the contracts the unit implements directly.
	Implements []Contract

	// Extends names the ancestor unit, if any. The ancestor counts as a
	// contract of this unit and its own contracts are inherited one level deeper.
	Extends string

	// Priority is the explicit selection priority. Nil means the implicit
	// ancestor-depth score applies.
	Priority *int

	Factories Factories
}

// Priority returns a pointer to p for use in Unit literals.
func Priority(p int) *int {
	return &p
}

// UnitRef is an immutable handle to a registered unit.
type UnitRef struct {
	unit *Unit
}

// Name returns the unit's fully-qualified name
func (r UnitRef) Name() string {
	if r.unit == nil {
		return ""
	}
	return r.unit.Name
}

// Valid reports whether r refers to a registered unit
func (r UnitRef) Valid() bool {
	return r.unit != nil
}

// Implements returns a copy of the directly implemented contracts
func (r UnitRef) Implements() []Contract {
	if r.unit == nil {
		return nil
	}
	return slices.Clone(r.unit.Implements)
}

// Extends returns the ancestor unit name
func (r UnitRef) Extends() string {
	if r.unit == nil {
		return ""
	}
	return r.unit.Extends
}

// Priority returns the explicit priority and whether one was declared.
func (r UnitRef) Priority() (int, bool) {
	if r.unit == nil || r.unit.Priority == nil {
		return 0, false
	}
	return *r.unit.Priority, true
}

// Descriptor is the serialized form of a unit written into unit descriptor files.
type Descriptor struct {
	Name       string   `yaml:"name"`
	Implements []string `yaml:"implements,omitempty"`
	Extends    string   `yaml:"extends,omitempty"`
	Priority   *int     `yaml:"priority,omitempty"`
	Strategies []string `yaml:"strategies,omitempty"`
}

// Descriptor describes the unit for export
func (r UnitRef) Descriptor() Descriptor {
	d := Descriptor{Name: r.Name(), Extends: r.Extends()}
	for _, c := range r.Implements() {
		d.Implements = append(d.Implements, string(c))
	}
	if p, ok := r.Priority(); ok {
		d.Priority = Priority(p)
	}
	if r.unit != nil {
		for _, s := range Strategies {
			if s.available(&r.unit.Factories) {
				d.Strategies = append(d.Strategies, s.String())
			}
		}
	}
	return d
}

// ContractOf derives the contract name of T. Standard library types are
// placed in the "std" namespace and predeclared types in "builtin".
func ContractOf[T any]() Contract {
	return contractOfType(reflect.TypeFor[T]())
}

func contractOfType(t reflect.Type) Contract {
	if t.PkgPath() == "" {
		return Contract("builtin." + t.String())
	}
	return contractName(t.PkgPath(), t.Name())
}

// contractName qualifies a named type declared in pkg.
func contractName(pkg, name string) Contract {
	if isStdlibPath(pkg) {
		return Contract("std." + pkg + "." + name)
	}
	return Contract(pkg + "." + name)
}

var (
	stdlibMu    sync.Mutex
	stdlibPaths = make(map[string]bool)

	// module paths linked into the running binary, none of which is standard library
	linkedModules = sync.OnceValue(func() []string {
		info, ok := debug.ReadBuildInfo()
		if !ok {
			return nil
		}
		var paths []string
		if info.Main.Path != "" {
			paths = append(paths, info.Main.Path)
		}
		for _, dep := range info.Deps {
			paths = append(paths, dep.Path)
		}
		return paths
	})
)

// isStdlibPath reports whether pkg is a standard library package. A dotted
// first element, the main package or a path inside a linked module is never
// standard library; anything else must exist below GOROOT/src.
func isStdlibPath(pkg string) bool {
	first, _, _ := strings.Cut(pkg, "/")
	if first == "main" || strings.Contains(first, ".") {
		return false
	}
	for _, mod := range linkedModules() {
		if pkg == mod || strings.HasPrefix(pkg, mod+"/") {
			return false
		}
	}

	stdlibMu.Lock()
	defer stdlibMu.Unlock()
	std, ok := stdlibPaths[pkg]
	if !ok {
		std = inGoroot(build.Default.GOROOT, pkg)
		stdlibPaths[pkg] = std
	}
	return std
}

// inGoroot checks for the package source below goroot. Without a GOROOT
// source tree the dotless path is taken as standard library.
func inGoroot(goroot, pkg string) bool {
	if goroot == "" {
		return true
	}
	src := filepath.Join(goroot, "src")
	if info, err := os.Stat(src); err != nil || !info.IsDir() {
		return true
	}
	info, err := os.Stat(filepath.Join(src, filepath.FromSlash(pkg)))
	return err == nil && info.IsDir()
}
