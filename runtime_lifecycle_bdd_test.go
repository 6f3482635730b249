package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/cucumber/godog"

	"github.com/GoCodeAlone/bootstrap/enumerate"
	"github.com/GoCodeAlone/bootstrap/registry"
)

// Static error variables for BDD tests
var (
	errUnexpectedState     = errors.New("unexpected runtime state")
	errUnexpectedGreeting  = errors.New("unexpected greeting")
	errBeanMissing         = errors.New("greeting bean was not found")
	errBeanPresent         = errors.New("greeting bean was found")
	errDifferentInstances  = errors.New("lookups returned different instances")
	errUnexpectedLogOutput = errors.New("unexpected log output")
	errExpectedShutDownErr = errors.New("expected a runtime shut down error")
	errConstruction        = errors.New("construction failed")
)

// RuntimeBDDContext holds the state of one lifecycle scenario
type RuntimeBDDContext struct {
	catalog  *registry.Catalog
	contract registry.Contract
	dirs     []string
	log      *testLogger
	runtime  *Runtime

	beans     []any
	found     bool
	lookupErr error
}

func (c *RuntimeBDDContext) reset() {
	c.cleanup()
	*c = RuntimeBDDContext{}
}

func (c *RuntimeBDDContext) cleanup() {
	for _, dir := range c.dirs {
		_ = os.RemoveAll(dir)
	}
	c.dirs = nil
}

func (c *RuntimeBDDContext) iHaveAnEmptyUnitCatalog() error {
	c.catalog = registry.NewCatalog()
	contract, err := registry.DeclareContract[greeting](c.catalog)
	if err != nil {
		return err
	}
	c.contract = contract
	c.log = &testLogger{}
	return nil
}

func greetingFactory(s string) registry.Factories {
	return registry.Factories{NoParams: func() (any, error) { return newGreeting(s), nil }}
}

func (c *RuntimeBDDContext) aUnitImplementing(name string) error {
	return c.catalog.Register(registry.Unit{Name: name, Implements: []registry.Contract{c.contract}})
}

func (c *RuntimeBDDContext) aUnitImplementingThatGreets(name, greets string) error {
	return c.catalog.Register(registry.Unit{
		Name:       name,
		Implements: []registry.Contract{c.contract},
		Factories:  greetingFactory(greets),
	})
}

func (c *RuntimeBDDContext) aUnitWithPriorityThatGreets(name string, priority int, greets string) error {
	return c.catalog.Register(registry.Unit{
		Name:       name,
		Implements: []registry.Contract{c.contract},
		Priority:   registry.Priority(priority),
		Factories:  greetingFactory(greets),
	})
}

func (c *RuntimeBDDContext) aUnitWithPriorityThatFails(name string, priority int) error {
	return c.catalog.Register(registry.Unit{
		Name:       name,
		Implements: []registry.Contract{c.contract},
		Priority:   registry.Priority(priority),
		Factories: registry.Factories{
			NoParams: func() (any, error) { return nil, errConstruction },
		},
	})
}

func (c *RuntimeBDDContext) aUnitExtending(name, parent string) error {
	return c.catalog.Register(registry.Unit{Name: name, Extends: parent})
}

func (c *RuntimeBDDContext) aUnitExtendingThatGreets(name, parent, greets string) error {
	return c.catalog.Register(registry.Unit{Name: name, Extends: parent, Factories: greetingFactory(greets)})
}

// ensureRuntime exports the catalog onto a fresh search path the first time a runtime is needed.
func (c *RuntimeBDDContext) ensureRuntime() error {
	if c.runtime != nil {
		return nil
	}
	unitsDir, err := os.MkdirTemp("", "bootstrap-units-*")
	if err != nil {
		return err
	}
	configDir, err := os.MkdirTemp("", "bootstrap-config-*")
	if err != nil {
		return err
	}
	c.dirs = append(c.dirs, unitsDir, configDir)

	if _, err := enumerate.ExportDir(unitsDir, c.catalog.Units()); err != nil {
		return err
	}
	c.runtime, err = New(
		WithLogger(c.log),
		WithCatalog(c.catalog),
		WithSearchPath(unitsDir),
		WithConfigDir(configDir),
	)
	return err
}

func (c *RuntimeBDDContext) iStartTheRuntime() error {
	if err := c.ensureRuntime(); err != nil {
		return err
	}
	c.runtime.Start(context.Background())
	return nil
}

func (c *RuntimeBDDContext) iShutDownTheRuntime() error {
	if err := c.ensureRuntime(); err != nil {
		return err
	}
	c.runtime.Shutdown(context.Background())
	return nil
}

func (c *RuntimeBDDContext) iRequestTheGreetingBean() error {
	if err := c.ensureRuntime(); err != nil {
		return err
	}
	bean, ok, err := c.runtime.GetBean(context.Background(), c.contract)
	c.found = ok
	c.lookupErr = err
	if ok {
		c.beans = append(c.beans, bean)
	}
	return nil
}

func (c *RuntimeBDDContext) theRuntimeStateShouldBe(want string) error {
	if got := c.runtime.State().String(); got != want {
		return fmt.Errorf("%w: got %s, want %s", errUnexpectedState, got, want)
	}
	return nil
}

func (c *RuntimeBDDContext) theStartingBannerShouldHaveBeenLoggedOnce() error {
	if n := len(filter(c.log.messages("info"), "------------ starting")); n != 1 {
		return fmt.Errorf("%w: starting banner logged %d times", errUnexpectedLogOutput, n)
	}
	return nil
}

func (c *RuntimeBDDContext) nothingShouldHaveBeenLogged() error {
	if n := c.log.count(); n != 0 {
		return fmt.Errorf("%w: %d entries", errUnexpectedLogOutput, n)
	}
	return nil
}

func (c *RuntimeBDDContext) theGreetingShouldBe(want string) error {
	if c.lookupErr != nil {
		return c.lookupErr
	}
	if !c.found {
		return errBeanMissing
	}
	g, ok := c.beans[len(c.beans)-1].(greeting)
	if !ok {
		return fmt.Errorf("%w: bean %T is not a greeting", errUnexpectedGreeting, c.beans[len(c.beans)-1])
	}
	if got := g.Greeting(); got != want {
		return fmt.Errorf("%w: got %q, want %q", errUnexpectedGreeting, got, want)
	}
	return nil
}

func (c *RuntimeBDDContext) bothLookupsShouldReturnTheSameInstance() error {
	if len(c.beans) != 2 {
		return fmt.Errorf("%w: %d beans found", errBeanMissing, len(c.beans))
	}
	if c.beans[0] != c.beans[1] {
		return errDifferentInstances
	}
	return nil
}

func (c *RuntimeBDDContext) noGreetingBeanShouldBeFound() error {
	if c.lookupErr != nil {
		return c.lookupErr
	}
	if c.found {
		return errBeanPresent
	}
	return nil
}

func (c *RuntimeBDDContext) aWarningShouldHaveBeenLogged(msg string) error {
	if len(filter(c.log.messages("warn"), msg)) == 0 {
		return fmt.Errorf("%w: no %q warning", errUnexpectedLogOutput, msg)
	}
	return nil
}

func (c *RuntimeBDDContext) theLookupShouldFailBecauseTheRuntimeIsShutDown() error {
	if !errors.Is(c.lookupErr, ErrRuntimeShutDown) {
		return fmt.Errorf("%w: got %v", errExpectedShutDownErr, c.lookupErr)
	}
	return nil
}

// InitializeRuntimeScenario registers the lifecycle step definitions
func InitializeRuntimeScenario(ctx *godog.ScenarioContext) {
	testCtx := &RuntimeBDDContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		testCtx.reset()
		return ctx, nil
	})
	ctx.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		testCtx.cleanup()
		return ctx, nil
	})

	// Background
	ctx.Step(`^I have an empty unit catalog$`, testCtx.iHaveAnEmptyUnitCatalog)

	// Units
	ctx.Step(`^a unit "([^"]*)" implementing the greeting contract$`, testCtx.aUnitImplementing)
	ctx.Step(`^a unit "([^"]*)" implementing the greeting contract that greets "([^"]*)"$`, testCtx.aUnitImplementingThatGreets)
	ctx.Step(`^a unit "([^"]*)" implementing the greeting contract with priority (\d+) that greets "([^"]*)"$`, testCtx.aUnitWithPriorityThatGreets)
	ctx.Step(`^a unit "([^"]*)" implementing the greeting contract with priority (\d+) that fails to construct$`, testCtx.aUnitWithPriorityThatFails)
	ctx.Step(`^a unit "([^"]*)" extending "([^"]*)"$`, testCtx.aUnitExtending)
	ctx.Step(`^a unit "([^"]*)" extending "([^"]*)" that greets "([^"]*)"$`, testCtx.aUnitExtendingThatGreets)

	// Lifecycle
	ctx.Step(`^I start the runtime$`, testCtx.iStartTheRuntime)
	ctx.Step(`^I shut down the runtime$`, testCtx.iShutDownTheRuntime)
	ctx.Step(`^the runtime state should be "([^"]*)"$`, testCtx.theRuntimeStateShouldBe)
	ctx.Step(`^the starting banner should have been logged once$`, testCtx.theStartingBannerShouldHaveBeenLoggedOnce)
	ctx.Step(`^nothing should have been logged$`, testCtx.nothingShouldHaveBeenLogged)

	// Beans
	ctx.Step(`^I request the greeting bean$`, testCtx.iRequestTheGreetingBean)
	ctx.Step(`^I request the greeting bean again$`, testCtx.iRequestTheGreetingBean)
	ctx.Step(`^the greeting should be "([^"]*)"$`, testCtx.theGreetingShouldBe)
	ctx.Step(`^both lookups should return the same instance$`, testCtx.bothLookupsShouldReturnTheSameInstance)
	ctx.Step(`^no greeting bean should be found$`, testCtx.noGreetingBeanShouldBeFound)
	ctx.Step(`^a "([^"]*)" warning should have been logged$`, testCtx.aWarningShouldHaveBeenLogged)
	ctx.Step(`^the lookup should fail because the runtime is shut down$`, testCtx.theLookupShouldFailBecauseTheRuntimeIsShutDown)
}

// TestRuntimeLifecycle runs the BDD tests for the runtime lifecycle
func TestRuntimeLifecycle(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeRuntimeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features/runtime_lifecycle.feature"},
			TestingT: t,
			Strict:   true,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
