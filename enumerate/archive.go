package enumerate

import (
	"archive/zip"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/GoCodeAlone/bootstrap/registry"
)

// Static errors for enumerate package
var (
	ErrInvalidUnitName = errors.New("invalid unit name")
	ErrArchiveWrite    = errors.New("failed to write archive")
)

// enumerateArchive returns false when the consumer stopped the iteration.
func (e *Enumerator) enumerateArchive(archive string, emit func(string) bool) bool {
	zr, err := zip.OpenReader(archive)
	if err != nil {
		e.logger.Warn("skipping unreadable archive", "archive", archive, "error", err)
		return true
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if !emit(f.Name) {
			return false
		}
	}
	return true
}

// UnitPath maps a dotted unit name to its descriptor path:
// "application.Application" becomes "application/Application.unit".
func UnitPath(name string) (string, error) {
	if name == "" || strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") || strings.Contains(name, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidUnitName, name)
	}
	return strings.ReplaceAll(name, ".", "/") + UnitSuffix, nil
}

func descriptorBody(ref registry.UnitRef) ([]byte, error) {
	return yaml.Marshal(ref.Descriptor())
}

// ExportDir writes a unit descriptor for every ref below dir and returns the
// number of files written.
func ExportDir(dir string, refs []registry.UnitRef) (int, error) {
	written := 0
	for _, ref := range refs {
		rel, err := UnitPath(ref.Name())
		if err != nil {
			return written, err
		}
		body, err := descriptorBody(ref)
		if err != nil {
			return written, fmt.Errorf("marshal descriptor %s: %w", ref.Name(), err)
		}
		fn := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(fn), 0o755); err != nil {
			return written, fmt.Errorf("create directory for %s: %w", ref.Name(), err)
		}
		if err := os.WriteFile(fn, body, 0o644); err != nil {
			return written, fmt.Errorf("write descriptor %s: %w", ref.Name(), err)
		}
		written++
	}
	return written, nil
}

// ExportArchive writes a zip archive holding a unit descriptor for every ref
// plus the given extra resources (archive path -> local file).
func ExportArchive(archive string, refs []registry.UnitRef, resources map[string]string) (err error) {
	out, err := os.Create(archive)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrArchiveWrite, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: %w", ErrArchiveWrite, cerr)
		}
	}()

	zw := zip.NewWriter(out)
	for _, ref := range refs {
		rel, uerr := UnitPath(ref.Name())
		if uerr != nil {
			return uerr
		}
		body, merr := descriptorBody(ref)
		if merr != nil {
			return fmt.Errorf("marshal descriptor %s: %w", ref.Name(), merr)
		}
		if werr := writeEntry(zw, rel, body); werr != nil {
			return werr
		}
	}
	for entry, local := range resources {
		body, rerr := os.ReadFile(local)
		if rerr != nil {
			return fmt.Errorf("%w: %w", ErrArchiveWrite, rerr)
		}
		if werr := writeEntry(zw, path.Clean(filepath.ToSlash(entry)), body); werr != nil {
			return werr
		}
	}
	if cerr := zw.Close(); cerr != nil {
		return fmt.Errorf("%w: %w", ErrArchiveWrite, cerr)
	}
	return nil
}

func writeEntry(zw *zip.Writer, name string, body []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrArchiveWrite, name, err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrArchiveWrite, name, err)
	}
	return nil
}
