package storage

import (
	"fmt"
	"reflect"
)

// Filter is an exact-match predicate: field name to expected value.
// A nil value matches an unset optional field.
type Filter map[string]any

// ParseFilter converts raw field/value strings into a typed Filter.
func (s Schema[T]) ParseFilter(raw map[string]string) (Filter, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	filter := make(Filter, len(raw))
	for name, value := range raw {
		f, ok := s.lookup(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnknownField, s.Table, name)
		}
		v, err := f.Parse(value)
		if err != nil {
			return nil, err
		}
		filter[name] = v
	}
	return filter, nil
}

// CheckFilter verifies that every name in filter is declared by the schema.
func (s Schema[T]) CheckFilter(filter Filter) error {
	for name := range filter {
		if _, ok := s.lookup(name); !ok {
			return fmt.Errorf("%w: %s.%s", ErrUnknownField, s.Table, name)
		}
	}
	return nil
}

// Match reports whether rec satisfies every entry of filter.
// Names must have been checked with CheckFilter.
func (s Schema[T]) Match(rec *T, filter Filter) bool {
	for name, want := range filter {
		f, ok := s.lookup(name)
		if !ok || !valuesEqual(reflect.ValueOf(f.Dest(rec)).Elem(), want) {
			return false
		}
	}
	return true
}

func valuesEqual(have reflect.Value, want any) bool {
	for have.Kind() == reflect.Pointer {
		if have.IsNil() {
			return isNil(want)
		}
		have = have.Elem()
	}
	if isNil(want) {
		return false
	}

	w := reflect.ValueOf(want)
	for w.Kind() == reflect.Pointer {
		w = w.Elem()
	}
	if w.Type() != have.Type() {
		if !isNumeric(w.Kind()) || !isNumeric(have.Kind()) {
			return false
		}
		return asFloat(have) == asFloat(w)
	}
	return reflect.DeepEqual(have.Interface(), w.Interface())
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

func asFloat(v reflect.Value) float64 {
	switch {
	case v.CanInt():
		return float64(v.Int())
	case v.CanUint():
		return float64(v.Uint())
	default:
		return v.Float()
	}
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
