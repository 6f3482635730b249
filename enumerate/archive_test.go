package enumerate

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/GoCodeAlone/bootstrap/registry"
)

func exportCatalog(t *testing.T) *registry.Catalog {
	t.Helper()
	c := registry.NewCatalog()
	require.NoError(t, c.Register(registry.Unit{
		Name:       "application.Application",
		Implements: []registry.Contract{"app.Entry"},
		Priority:   registry.Priority(1),
		Factories: registry.Factories{
			NoParams: func() (any, error) { return struct{}{}, nil },
		},
	}))
	require.NoError(t, c.Register(registry.Unit{Name: "application.impl.Worker", Extends: "application.Application"}))
	return c
}

func TestUnitPath(t *testing.T) {
	p, err := UnitPath("application.Application")
	require.NoError(t, err)
	assert.Equal(t, "application/Application.unit", p)

	for _, bad := range []string{"", ".a", "a.", "a..b"} {
		_, err := UnitPath(bad)
		assert.ErrorIs(t, err, ErrInvalidUnitName, bad)
	}
}

func TestExportDirRoundTrip(t *testing.T) {
	c := exportCatalog(t)
	dir := t.TempDir()

	n, err := ExportDir(dir, c.Units())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	body, err := os.ReadFile(filepath.Join(dir, "application", "Application.unit"))
	require.NoError(t, err)
	var d registry.Descriptor
	require.NoError(t, yaml.Unmarshal(body, &d))
	assert.Equal(t, "application.Application", d.Name)
	assert.Equal(t, []string{"app.Entry"}, d.Implements)
	assert.Equal(t, []string{"none"}, d.Strategies)

	names := slices.Collect(New(nil).Enumerate([]string{dir}))
	assert.ElementsMatch(t, []string{"application.Application.unit", "application.impl.Worker.unit"}, names)
}

func TestExportArchiveRoundTrip(t *testing.T) {
	c := exportCatalog(t)
	dir := t.TempDir()
	props := filepath.Join(dir, "application.properties")
	require.NoError(t, os.WriteFile(props, []byte("application.name=zip\n"), 0o600))

	archive := filepath.Join(dir, "app.zip")
	require.NoError(t, ExportArchive(archive, c.Units(), map[string]string{
		"resources/application.properties": props,
	}))

	names := slices.Collect(New(nil).Enumerate([]string{archive}))
	assert.ElementsMatch(t, []string{
		"application.Application.unit",
		"application.impl.Worker.unit",
		"resources/application.properties",
	}, names)
}

func TestExportArchiveMissingResource(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "app.zip")
	err := ExportArchive(archive, nil, map[string]string{"application.properties": filepath.Join(t.TempDir(), "missing")})
	assert.ErrorIs(t, err, ErrArchiveWrite)
}
