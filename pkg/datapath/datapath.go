// Package datapath resolves dot-delimited paths like
// "riskScores.overallScore" against arbitrary Go values. It walks
// structs (matching exported field names or json tags, case-insensitive),
// maps with string keys, and pointers/interfaces transparently.
//
// Resolution never panics and never errors: a path that cannot be
// followed yields (nil, false).
package datapath

import (
	"reflect"
	"strings"
)

// Resolve walks path segment by segment from root. The boolean reports
// whether the full path resolved to a value (which may itself be nil
// for typed nil pointers stored at the leaf).
func Resolve(root any, path string) (any, bool) {
	if path == "" {
		return root, true
	}
	cur := root
	for _, seg := range strings.Split(path, ".") {
		next, ok := step(cur, seg)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// step resolves a single path segment against v.
func step(v any, seg string) (any, bool) {
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		for _, key := range rv.MapKeys() {
			if strings.EqualFold(key.String(), seg) {
				return rv.MapIndex(key).Interface(), true
			}
		}
		return nil, false
	case reflect.Struct:
		t := rv.Type()
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			if fieldMatches(f, seg) {
				return rv.Field(i).Interface(), true
			}
		}
		return nil, false
	default:
		return nil, false
	}
}

// fieldMatches compares seg against the field's json tag name first,
// then the Go field name, both case-insensitively. Callers write paths
// in the wire naming ("risk_scores" or "riskScores"); normalizing away
// underscores lets both spellings hit the same field.
func fieldMatches(f reflect.StructField, seg string) bool {
	want := normalize(seg)
	if tag := f.Tag.Get("json"); tag != "" && tag != "-" {
		name, _, _ := strings.Cut(tag, ",")
		if name != "" && normalize(name) == want {
			return true
		}
	}
	return normalize(f.Name) == want
}

func normalize(s string) string {
	s = strings.ReplaceAll(s, "_", "")
	return strings.ToLower(s)
}

// AsFloat converts numeric values (all int/uint/float widths) to
// float64. Non-numeric values report false.
func AsFloat(v any) (float64, bool) {
	if v == nil {
		return 0, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	default:
		return 0, false
	}
}

// IsEmpty reports whether v is absent for display/condition purposes:
// nil, a nil pointer/slice/map, an empty string, an empty collection,
// or a numeric zero.
func IsEmpty(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil() || IsEmpty(rv.Elem().Interface())
	case reflect.Slice, reflect.Map, reflect.Array, reflect.String:
		return rv.Len() == 0
	default:
		return rv.IsZero()
	}
}

// Elements returns v as a []any if it resolves to a slice or array.
func Elements(v any) ([]any, bool) {
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
