package properties

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// FileName is the base name of the application configuration resource.
const FileName = "application"

var (
	defaultDirs = []string{"", "resources/", "config/"}
	defaultExts = []string{".properties", ".yaml", ".yml", ".toml"}
)

// DefaultPaths returns the candidate locations in lookup order: every
// directory for ".properties" first, then the structured formats.
func DefaultPaths() []string {
	paths := make([]string, 0, len(defaultDirs)*len(defaultExts))
	for _, ext := range defaultExts {
		for _, dir := range defaultDirs {
			paths = append(paths, dir+FileName+ext)
		}
	}
	return paths
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

// Loader locates and reads the configuration resource.
type Loader struct {
	paths  []string
	dir    string
	logger Logger
}

// LoaderOption configures a Loader
type LoaderOption func(*Loader)

// WithPaths replaces the candidate relative paths
func WithPaths(paths ...string) LoaderOption {
	return func(l *Loader) {
		if len(paths) > 0 {
			l.paths = append([]string(nil), paths...)
		}
	}
}

// WithBaseDir resolves filesystem candidates relative to dir instead of the working directory
func WithBaseDir(dir string) LoaderOption {
	return func(l *Loader) {
		l.dir = dir
	}
}

// NewLoader creates a loader using DefaultPaths unless overridden
func NewLoader(logger Logger, opts ...LoaderOption) *Loader {
	if logger == nil {
		logger = nopLogger{}
	}
	l := &Loader{paths: DefaultPaths(), logger: logger}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Paths returns the candidate relative paths in lookup order
func (l *Loader) Paths() []string {
	return append([]string(nil), l.paths...)
}

// Load returns the first configuration resource that can be read. The
// candidate paths are tried relative to the base directory first, then under
// each root in order: a directory root is searched like the base directory, a
// file root is read as an archive. When nothing is found an empty bag is
// returned and a warning logged. The second result names the source that was
// used.
func (l *Loader) Load(roots ...string) (Properties, string) {
	if props, src, ok := l.loadFromDir(l.dir); ok {
		return props, src
	}

	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			l.logger.Debug("skipping unreadable configuration root", "root", root, "error", err)
			continue
		}
		load := l.loadFromArchive
		if info.IsDir() {
			load = l.loadFromDir
		}
		if props, src, ok := load(root); ok {
			return props, src
		}
	}

	l.logger.Warn("no configuration resource found, no properties loaded", "paths", l.paths, "roots", roots)
	return Properties{}, ""
}

func (l *Loader) loadFromDir(dir string) (Properties, string, bool) {
	for _, rel := range l.paths {
		fn := filepath.Join(dir, filepath.FromSlash(rel))
		data, err := os.ReadFile(fn)
		if err != nil {
			continue
		}
		props, err := decode(rel, data)
		if err != nil {
			l.logger.Debug("skipping unreadable configuration", "path", fn, "error", err)
			continue
		}
		l.logger.Info("loaded properties", "count", props.Len(), "from", fn)
		return props, fn, true
	}
	return Properties{}, "", false
}

func (l *Loader) loadFromArchive(archive string) (Properties, string, bool) {
	zr, err := zip.OpenReader(archive)
	if err != nil {
		l.logger.Debug("cannot open archive for configuration", "archive", archive, "error", err)
		return Properties{}, "", false
	}
	defer zr.Close()

	entries := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		entries[strings.ReplaceAll(f.Name, "\\", "/")] = f
	}
	for _, rel := range l.paths {
		f, ok := entries[rel]
		if !ok {
			continue
		}
		data, err := readZipFile(f)
		if err != nil {
			l.logger.Debug("skipping unreadable archive entry", "archive", archive, "entry", rel, "error", err)
			continue
		}
		props, err := decode(rel, data)
		if err != nil {
			l.logger.Debug("skipping unreadable configuration", "archive", archive, "entry", rel, "error", err)
			continue
		}
		src := archive + ": " + rel
		l.logger.Info("loaded properties from archive resource", "count", props.Len(), "from", src)
		return props, src, true
	}
	return Properties{}, "", false
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func decode(name string, data []byte) (Properties, error) {
	switch strings.ToLower(path.Ext(name)) {
	case ".properties":
		return Parse(bytes.NewReader(data))
	case ".yaml", ".yml":
		var tree map[string]any
		if err := yaml.Unmarshal(data, &tree); err != nil {
			return Properties{}, fmt.Errorf("yaml: %w", err)
		}
		return flatten(tree), nil
	case ".toml":
		var tree map[string]any
		if err := toml.Unmarshal(data, &tree); err != nil {
			return Properties{}, fmt.Errorf("toml: %w", err)
		}
		return flatten(tree), nil
	default:
		return Properties{}, fmt.Errorf("%w: %s", ErrUnsupportedExt, name)
	}
}

// flatten turns nested maps into dotted keys. Lists are joined with commas.
func flatten(tree map[string]any) Properties {
	values := make(map[string]string)
	var walk func(prefix string, v any)
	walk = func(prefix string, v any) {
		switch node := v.(type) {
		case map[string]any:
			keys := make([]string, 0, len(node))
			for k := range node {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				key := k
				if prefix != "" {
					key = prefix + "." + k
				}
				walk(key, node[k])
			}
		case []any:
			parts := make([]string, 0, len(node))
			for _, item := range node {
				parts = append(parts, fmt.Sprint(item))
			}
			values[prefix] = strings.Join(parts, ",")
		case nil:
			values[prefix] = ""
		default:
			values[prefix] = fmt.Sprint(node)
		}
	}
	walk("", tree)
	return Properties{values: values}
}
