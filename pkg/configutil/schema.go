package configutil

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Kind is the value type a settings key accepts. Numeric strings are
// accepted too, since settings may come from the environment.
type Kind int

const (
	KindNumber Kind = iota
	KindInteger
)

func (k Kind) String() string {
	if k == KindInteger {
		return "an integer"
	}
	return "a number"
}

// Field constrains one key of a settings map. Nil bounds are open.
type Field struct {
	Key  string
	Kind Kind
	Min  *float64
	Max  *float64
}

// Bound is a helper for Field.Min and Field.Max.
func Bound(v float64) *float64 { return &v }

// Schema lists the keys a settings map may carry. Path prefixes every
// reported key, e.g. "ollama.options".
type Schema struct {
	Path   string
	Fields []Field
}

// ValidateSettings checks that every key in input is declared by schema and
// that its value has the declared kind and lies within the bounds. Keys are
// matched case, underscore and hyphen insensitively. All failures are
// reported together, ordered by key.
func ValidateSettings(input map[string]any, schema Schema) error {
	fields := make(map[string]Field, len(schema.Fields))
	for _, f := range schema.Fields {
		fields[normalizeKey(f.Key)] = f
	}

	keys := make([]string, 0, len(input))
	for k := range input {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs []error
	for _, k := range keys {
		f, ok := fields[normalizeKey(k)]
		if !ok {
			errs = append(errs, fmt.Errorf("%s: unknown setting", schema.key(k)))
			continue
		}
		if err := f.check(input[k]); err != nil {
			errs = append(errs, fmt.Errorf("%s %w", schema.key(f.Key), err))
		}
	}
	return errors.Join(errs...)
}

func (s Schema) key(k string) string {
	if s.Path == "" {
		return k
	}
	return s.Path + "." + k
}

func (f Field) check(v any) error {
	n, ok := numeric(v)
	if !ok || (f.Kind == KindInteger && n != math.Trunc(n)) {
		return fmt.Errorf("must be %s, got %v", f.Kind, v)
	}
	if f.Min != nil && n < *f.Min {
		return fmt.Errorf("must be >= %g, got %v", *f.Min, v)
	}
	if f.Max != nil && n > *f.Max {
		return fmt.Errorf("must be <= %g, got %v", *f.Max, v)
	}
	return nil
}

func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
	}
	return 0, false
}

func normalizeKey(value string) string {
	value = strings.ToLower(value)
	value = strings.ReplaceAll(value, "_", "")
	value = strings.ReplaceAll(value, "-", "")
	return value
}
