package storage

import (
	"encoding"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// ColumnType is the SQL type a field is stored as.
type ColumnType string

const (
	Text      ColumnType = "TEXT"
	Integer   ColumnType = "INTEGER"
	Real      ColumnType = "REAL"
	Timestamp ColumnType = "TIMESTAMP"
)

// KeyColumn is the name of the auto-assigned identity column.
const KeyColumn = "pk"

var (
	timeType            = reflect.TypeOf((*time.Time)(nil)).Elem()
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// ResolveType maps a Go value type to its column type.
// Optional (pointer) values and anything not numeric, textual or temporal
// are stored as TEXT.
func ResolveType(t reflect.Type) ColumnType {
	if t == nil {
		return Text
	}
	switch t.Kind() {
	case reflect.String:
		return Text
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Integer
	case reflect.Float32, reflect.Float64:
		return Real
	case reflect.Struct:
		if isTemporal(t) {
			return Timestamp
		}
	}
	return Text
}

// isTemporal reports whether t is time.Time or a struct embedding it.
func isTemporal(t reflect.Type) bool {
	if t == timeType {
		return true
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous && f.Type == timeType {
			return true
		}
	}
	return false
}

// Field describes one stored field of a record type T.
type Field[T any] struct {
	Name string
	Type reflect.Type

	ref func(*T) any
}

// Column declares a field named name whose storage location inside a record
// is returned by ref.
func Column[T, V any](name string, ref func(*T) *V) Field[T] {
	return Field[T]{
		Name: name,
		Type: reflect.TypeOf((*V)(nil)).Elem(),
		ref:  func(rec *T) any { return ref(rec) },
	}
}

// ColumnType returns the SQL type of the field.
func (f Field[T]) ColumnType() ColumnType {
	return ResolveType(f.Type)
}

// Value returns the field's current value in rec, suitable for binding.
// Optional values are dereferenced; an unset one binds as NULL.
func (f Field[T]) Value(rec *T) any {
	v := reflect.ValueOf(f.ref(rec)).Elem()
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	return v.Interface()
}

// Dest returns a pointer into rec suitable for scanning.
func (f Field[T]) Dest(rec *T) any {
	return f.ref(rec)
}

// Parse converts a raw string into a value comparable with this field.
// For optional fields "None", "NULL" and the empty string mean nil.
func (f Field[T]) Parse(raw string) (any, error) {
	v, err := parseValue(f.Type, raw)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", f.Name, err)
	}
	return v, nil
}

func parseValue(t reflect.Type, raw string) (any, error) {
	if t.Kind() == reflect.Pointer {
		if raw == "" || raw == "None" || raw == "NULL" {
			return nil, nil
		}
		return parseValue(t.Elem(), raw)
	}

	if reflect.PointerTo(t).Implements(textUnmarshalerType) {
		p := reflect.New(t)
		if err := p.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(raw)); err != nil {
			return nil, err
		}
		return p.Elem().Interface(), nil
	}

	v := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.String:
		v.SetString(raw)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, t.Bits())
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", raw)
		}
		v.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(raw, 10, t.Bits())
		if err != nil {
			return nil, fmt.Errorf("invalid unsigned integer %q", raw)
		}
		v.SetUint(n)
	case reflect.Float32, reflect.Float64:
		n, err := strconv.ParseFloat(raw, t.Bits())
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", raw)
		}
		v.SetFloat(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid boolean %q", raw)
		}
		v.SetBool(b)
	default:
		return nil, fmt.Errorf("cannot parse into %s", t)
	}
	return v.Interface(), nil
}

// Schema maps a record type to its backing table.
type Schema[T any] struct {
	// Table is the backing table name.
	Table string

	// Key returns the location of the record's identity.
	Key func(*T) *int64

	// Fields are the non-key columns in declaration order.
	Fields []Field[T]
}

// NewSchema builds a schema whose table is named after T, lower-cased.
func NewSchema[T any](key func(*T) *int64, fields ...Field[T]) Schema[T] {
	return Schema[T]{
		Table:  strings.ToLower(reflect.TypeOf((*T)(nil)).Elem().Name()),
		Key:    key,
		Fields: fields,
	}
}

// Validate checks that the schema can be mapped to a table.
func (s Schema[T]) Validate() error {
	if s.Table == "" {
		return fmt.Errorf("schema has no table name")
	}
	if s.Key == nil {
		return fmt.Errorf("schema %s has no key accessor", s.Table)
	}
	seen := make(map[string]bool, len(s.Fields))
	for _, f := range s.Fields {
		switch {
		case f.Name == "":
			return fmt.Errorf("schema %s has a field with no name", s.Table)
		case f.Name == KeyColumn:
			return fmt.Errorf("schema %s: field %s collides with the key column", s.Table, f.Name)
		case seen[f.Name]:
			return fmt.Errorf("schema %s: duplicate field %s", s.Table, f.Name)
		case f.ref == nil:
			return fmt.Errorf("schema %s: field %s has no accessor", s.Table, f.Name)
		}
		seen[f.Name] = true
	}
	return nil
}

// Field looks up a non-key field by name.
func (s Schema[T]) Field(name string) (Field[T], bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field[T]{}, false
}

// Clone returns a copy of rec whose optional (pointer) fields point at fresh
// values, so the copy shares no storage with rec.
func (s Schema[T]) Clone(rec *T) T {
	out := *rec
	for _, f := range s.Fields {
		if f.Type.Kind() != reflect.Pointer {
			continue
		}
		v := reflect.ValueOf(f.ref(&out)).Elem()
		if v.IsNil() {
			continue
		}
		fresh := reflect.New(v.Type().Elem())
		fresh.Elem().Set(v.Elem())
		v.Set(fresh)
	}
	return out
}

// lookup resolves a filterable name, including the key column.
func (s Schema[T]) lookup(name string) (Field[T], bool) {
	if name == KeyColumn {
		return Column(KeyColumn, s.Key), true
	}
	return s.Field(name)
}
