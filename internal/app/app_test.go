package app

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoCodeAlone/bootstrap"
	"github.com/GoCodeAlone/bootstrap/enumerate"
	"github.com/GoCodeAlone/bootstrap/properties"
	"github.com/GoCodeAlone/bootstrap/registry"
)

func TestApplicationRun(t *testing.T) {
	var out bytes.Buffer
	NewApplication(&out).Run(properties.New(map[string]string{NameKey: "demo"}), []string{"one", "two"})
	assert.Equal(t, "Hello, \"demo\" (application.Application)\n- arg: one\n- arg: two\n", out.String())
}

func TestApplicationRunWithoutName(t *testing.T) {
	var out bytes.Buffer
	NewApplication(&out).Run(properties.Properties{}, nil)
	assert.Equal(t, "Hello, \"(undefined)\" (application.Application)\n", out.String())
}

func TestUnitsAreRegistered(t *testing.T) {
	for _, name := range []string{ApplicationUnit, FallbackUnit} {
		_, ok := registry.Default().Lookup(name)
		assert.True(t, ok, name)
	}
}

func TestApplicationIsSelected(t *testing.T) {
	var out bytes.Buffer
	prev := Output
	Output = &out
	t.Cleanup(func() { Output = prev })

	catalog := registry.NewCatalog()
	for _, u := range Units() {
		require.NoError(t, catalog.Register(u))
	}
	dir := t.TempDir()
	_, err := enumerate.ExportDir(dir, catalog.Units())
	require.NoError(t, err)

	r, err := bootstrap.New(
		bootstrap.WithCatalog(catalog),
		bootstrap.WithSearchPath(dir),
		bootstrap.WithConfigDir(t.TempDir()),
	)
	require.NoError(t, err)
	require.NoError(t, r.Run(context.Background(), []string{"x"}))
	assert.Equal(t, "Hello, \"(undefined)\" (application.Application)\n- arg: x\n", out.String())
}

func TestFallbackRun(t *testing.T) {
	var out bytes.Buffer
	prev := Output
	Output = &out
	t.Cleanup(func() { Output = prev })

	units := Units()
	bean, err := units[1].Factories.ConfigOnly(properties.New(map[string]string{NameKey: "demo"}))
	require.NoError(t, err)
	bean.(bootstrap.Runnable).Run(properties.Properties{}, []string{"a", "b"})
	assert.Equal(t, "demo started with 2 argument(s)\n", out.String())
}
