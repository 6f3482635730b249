// Package app holds the application entry points. Importing it registers
// them with the process-wide catalog.
package app

import (
	"fmt"
	"io"
	"os"

	"github.com/GoCodeAlone/bootstrap"
	"github.com/GoCodeAlone/bootstrap/properties"
	"github.com/GoCodeAlone/bootstrap/registry"
)

// NameKey is the property holding the application name.
const NameKey = "application.name"

const undefinedName = "(undefined)"

// Unit names registered by this package.
const (
	ApplicationUnit = "application.Application"
	FallbackUnit    = "application.Fallback"
)

// Application greets with the configured application name and echoes the
// arguments it was started with.
type Application struct {
	out io.Writer
}

// NewApplication creates an Application writing to out
func NewApplication(out io.Writer) *Application {
	if out == nil {
		out = os.Stdout
	}
	return &Application{out: out}
}

// Run prints the greeting and one line per argument
func (a *Application) Run(cfg properties.Properties, args []string) {
	name := cfg.GetOr(NameKey, undefinedName)
	fmt.Fprintf(a.out, "Hello, %q (%s)\n", name, ApplicationUnit)
	for _, arg := range args {
		fmt.Fprintf(a.out, "- arg: %s\n", arg)
	}
}

// Fallback is selected only when Application cannot be constructed. It
// reports the configured name once.
type Fallback struct {
	out  io.Writer
	name string
}

// Run prints a single line naming the application
func (f *Fallback) Run(_ properties.Properties, args []string) {
	fmt.Fprintf(f.out, "%s started with %d argument(s)\n", f.name, len(args))
}

// Output is where registered entry points write. Tests replace it.
var Output io.Writer = os.Stdout

// Units returns the registrations of this package.
func Units() []registry.Unit {
	return []registry.Unit{
		{
			Name:       ApplicationUnit,
			Implements: []registry.Contract{bootstrap.EntryContract},
			Priority:   registry.Priority(1),
			Factories: registry.Factories{
				NoParams: func() (any, error) { return NewApplication(Output), nil },
			},
		},
		{
			Name:       FallbackUnit,
			Implements: []registry.Contract{bootstrap.EntryContract},
			Factories: registry.Factories{
				ConfigOnly: func(cfg properties.Properties) (any, error) {
					return &Fallback{out: Output, name: cfg.GetOr(NameKey, undefinedName)}, nil
				},
			},
		},
	}
}

func init() {
	for _, u := range Units() {
		registry.MustRegister(u)
	}
}
