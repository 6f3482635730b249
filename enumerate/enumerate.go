// Package enumerate lists the unit descriptors and configuration resources
// available on a search path of directories or a single archive.
package enumerate

import (
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// UnitSuffix marks unit descriptor files.
const UnitSuffix = ".unit"

var (
	archiveExts  = []string{".zip", ".jar"}
	resourceExts = []string{".properties", ".yaml", ".yml", ".toml"}

	// test units end in Test or Tests, optionally followed by a nested name
	testUnitPattern = regexp.MustCompile(`Tests?(\$[^.]*)?\.unit$`)
)

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

// Enumerator produces resource names from a search path.
type Enumerator struct {
	logger Logger
}

// New creates an enumerator
func New(logger Logger) *Enumerator {
	if logger == nil {
		logger = nopLogger{}
	}
	return &Enumerator{logger: logger}
}

// ParseSearchPath splits an OS path list such as $UNITPATH into roots.
// Empty elements are dropped.
func ParseSearchPath(list string) []string {
	var roots []string
	for _, root := range filepath.SplitList(list) {
		if root = strings.TrimSpace(root); root != "" {
			roots = append(roots, root)
		}
	}
	return roots
}

// ExpandRoots expands glob patterns in the search path. Plain roots are kept
// as they are, even when they do not exist; patterns without matches vanish.
func ExpandRoots(searchPath []string) []string {
	var roots []string
	seen := make(map[string]bool)
	add := func(root string) {
		if !seen[root] {
			seen[root] = true
			roots = append(roots, root)
		}
	}
	for _, root := range searchPath {
		if !strings.ContainsAny(root, "*?[{") {
			add(root)
			continue
		}
		matches, err := doublestar.FilepathGlob(root)
		if err != nil {
			continue
		}
		for _, m := range matches {
			add(m)
		}
	}
	return roots
}

// IsArchive reports whether path names a regular file with an archive extension.
func IsArchive(path string) bool {
	if !hasExt(path, archiveExts) {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// SingleArchive returns the archive path when the search path resolves to
// exactly one root and that root is an archive.
func SingleArchive(searchPath []string) (string, bool) {
	roots := ExpandRoots(searchPath)
	if len(roots) == 1 && IsArchive(roots[0]) {
		return roots[0], true
	}
	return "", false
}

// ConfigRoots returns the roots configuration is read from: every directory
// root in search path order, then the archive when it is the only root.
func ConfigRoots(searchPath []string) []string {
	if archive, ok := SingleArchive(searchPath); ok {
		return []string{archive}
	}
	var dirs []string
	for _, root := range ExpandRoots(searchPath) {
		if info, err := os.Stat(root); err == nil && info.IsDir() {
			dirs = append(dirs, root)
		}
	}
	return dirs
}

// Enumerate lazily yields the deduplicated resource names found on
// searchPath. Unit descriptors are yielded as dotted names keeping the unit
// suffix ("application/Application.unit" becomes
// "application.Application.unit"); configuration resources keep their slash
// separated relative path.
//
// A search path resolving to exactly one archive is read from the archive's
// entry list. Every other search path is walked as directories and archive
// roots are skipped. Unreadable roots are skipped with a warning.
func (e *Enumerator) Enumerate(searchPath []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		roots := ExpandRoots(searchPath)
		if len(roots) == 0 {
			e.logger.Warn("empty search path, no resources found")
			return
		}

		seen := make(map[string]bool)
		count := 0
		emit := func(rel string) bool {
			name, ok := resourceName(rel)
			if !ok || seen[name] {
				return true
			}
			seen[name] = true
			count++
			return yield(name)
		}

		if len(roots) == 1 && IsArchive(roots[0]) {
			if !e.enumerateArchive(roots[0], emit) {
				return
			}
			e.logger.Info("found resources in archive", "count", count, "archive", roots[0])
			return
		}

		for _, root := range roots {
			if IsArchive(root) {
				e.logger.Debug("skipping archive in multi-root search path", "root", root)
				continue
			}
			if !e.walkDir(root, emit) {
				return
			}
		}
		e.logger.Info("found resources in filesystem", "count", count, "roots", len(roots))
	}
}

// walkDir returns false when the consumer stopped the iteration.
func (e *Enumerator) walkDir(root string, emit func(string) bool) bool {
	stopped := false
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return err
			}
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			return nil
		}
		if !emit(filepath.ToSlash(rel)) {
			stopped = true
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		e.logger.Warn("skipping unreadable root", "root", root, "error", err)
	}
	return !stopped
}

// resourceName maps a slash separated relative path to the enumerated name
// and reports whether the path is a unit or configuration resource that
// passes the exclusion rules.
func resourceName(rel string) (string, bool) {
	rel = strings.TrimPrefix(strings.ReplaceAll(rel, "\\", "/"), "./")
	base := rel[strings.LastIndex(rel, "/")+1:]
	if base == "" || strings.HasPrefix(base, ".") {
		return "", false
	}
	switch {
	case strings.HasSuffix(rel, UnitSuffix):
		name := strings.ReplaceAll(rel, "/", ".")
		if Excluded(name) {
			return "", false
		}
		return name, true
	case hasExt(rel, resourceExts):
		return rel, true
	default:
		return "", false
	}
}

// Excluded reports whether a dotted unit name is a metadata descriptor
// ("-info", "_info") or a test unit.
func Excluded(name string) bool {
	if strings.Contains(name, "-info") || strings.Contains(name, "_info") {
		return true
	}
	return testUnitPattern.MatchString(name)
}

func hasExt(name string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}
