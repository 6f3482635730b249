// Package properties provides the immutable key/value configuration bag handed
// to beans, and the loader that locates it.
package properties

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"maps"
	"reflect"
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/golobby/cast"
)

// Static errors for properties package
var (
	ErrInvalidLine    = errors.New("invalid properties line")
	ErrKeyNotFound    = errors.New("property not found")
	ErrInvalidValue   = errors.New("invalid property value")
	ErrUnsupportedExt = errors.New("unsupported configuration format")
)

// Properties is an immutable configuration bag. The zero value is empty and usable.
type Properties struct {
	values map[string]string
}

// New creates a bag holding a copy of values
func New(values map[string]string) Properties {
	if len(values) == 0 {
		return Properties{}
	}
	return Properties{values: maps.Clone(values)}
}

// Lookup returns the value for key and whether it was present
func (p Properties) Lookup(key string) (string, bool) {
	v, ok := p.values[key]
	return v, ok
}

// Get returns the value for key, or "" when absent
func (p Properties) Get(key string) string {
	return p.values[key]
}

// GetOr returns the value for key, or def when absent
func (p Properties) GetOr(key, def string) string {
	if v, ok := p.values[key]; ok {
		return v
	}
	return def
}

// Keys returns all keys in lexical order
func (p Properties) Keys() []string {
	return slices.Sorted(maps.Keys(p.values))
}

// Len returns the number of properties
func (p Properties) Len() int {
	return len(p.values)
}

// Map returns a copy of the underlying values
func (p Properties) Map() map[string]string {
	return maps.Clone(p.values)
}

// Int returns the value for key converted to int
func (p Properties) Int(key string) (int, error) {
	v, err := p.convert(key, reflect.TypeFor[int]())
	if err != nil {
		return 0, err
	}
	out, ok := v.(int)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrInvalidValue, key)
	}
	return out, nil
}

// Bool returns the value for key converted to bool
func (p Properties) Bool(key string) (bool, error) {
	v, err := p.convert(key, reflect.TypeFor[bool]())
	if err != nil {
		return false, err
	}
	out, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrInvalidValue, key)
	}
	return out, nil
}

// Float returns the value for key converted to float64
func (p Properties) Float(key string) (float64, error) {
	v, err := p.convert(key, reflect.TypeFor[float64]())
	if err != nil {
		return 0, err
	}
	out, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrInvalidValue, key)
	}
	return out, nil
}

// Duration returns the value for key parsed with time.ParseDuration
func (p Properties) Duration(key string) (time.Duration, error) {
	raw, ok := p.values[key]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrInvalidValue, key, err)
	}
	return d, nil
}

func (p Properties) convert(key string, t reflect.Type) (any, error) {
	raw, ok := p.values[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}
	v, err := cast.FromType(strings.TrimSpace(raw), t)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidValue, key, err)
	}
	return v, nil
}

// Parse reads key=value lines. A key ends at the first '=', ':' or
// whitespace; "key: value", "key value" and a bare "key" with an empty value
// are all accepted. Lines starting with '#' or '!' are comments and
// surrounding quotes are removed from values. Later keys override earlier
// ones. Only a line with an empty key is invalid.
func Parse(r io.Reader) (Properties, error) {
	values := make(map[string]string)
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
			continue
		}

		key, value := splitLine(line)
		if key == "" {
			return Properties{}, fmt.Errorf("%w at line %d: %s", ErrInvalidLine, lineNum, line)
		}
		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') || (value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}
		values[key] = value
	}
	if err := scanner.Err(); err != nil {
		return Properties{}, fmt.Errorf("scanner error: %w", err)
	}
	return Properties{values: values}, nil
}

func splitLine(line string) (string, string) {
	end := strings.IndexFunc(line, isKeyTerminator)
	if end < 0 {
		return line, ""
	}
	key, rest := line[:end], line[end:]
	rest = strings.TrimLeftFunc(rest, unicode.IsSpace)
	if rest != "" && (rest[0] == '=' || rest[0] == ':') {
		rest = rest[1:]
	}
	return key, strings.TrimSpace(rest)
}

func isKeyTerminator(r rune) bool {
	return r == '=' || r == ':' || unicode.IsSpace(r)
}
