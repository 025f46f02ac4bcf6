// Package memory provides an in-process implementation of storage.Repository.
// Nothing is persisted; it backs tests and throwaway sessions.
package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/mmynk/bookkeeper/internal/storage"
)

// Repository keeps records in a map keyed by their assigned key.
type Repository[T any] struct {
	schema storage.Schema[T]
	rows   map[int64]T
	nextPk int64
}

// New creates an empty repository for schema.
func New[T any](schema storage.Schema[T]) (*Repository[T], error) {
	if err := schema.Validate(); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	return &Repository[T]{schema: schema, rows: make(map[int64]T)}, nil
}

// Table returns the schema's table name.
func (r *Repository[T]) Table() string {
	return r.schema.Table
}

func (r *Repository[T]) Add(_ context.Context, rec *T) (int64, error) {
	key := r.schema.Key(rec)
	if *key != 0 {
		return 0, fmt.Errorf("add to %s: %w (pk=%d)", r.schema.Table, storage.ErrKeyAssigned, *key)
	}
	r.nextPk++
	*key = r.nextPk
	r.rows[*key] = r.schema.Clone(rec)
	return *key, nil
}

func (r *Repository[T]) Get(_ context.Context, pk int64) (*T, error) {
	rec, ok := r.rows[pk]
	if !ok {
		return nil, nil
	}
	out := r.schema.Clone(&rec)
	return &out, nil
}

func (r *Repository[T]) GetAll(_ context.Context, filter storage.Filter) ([]T, error) {
	if err := r.schema.CheckFilter(filter); err != nil {
		return nil, err
	}

	keys := make([]int64, 0, len(r.rows))
	for pk := range r.rows {
		keys = append(keys, pk)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	var out []T
	for _, pk := range keys {
		rec := r.rows[pk]
		if r.schema.Match(&rec, filter) {
			out = append(out, r.schema.Clone(&rec))
		}
	}
	return out, nil
}

func (r *Repository[T]) Update(_ context.Context, rec *T) error {
	pk := *r.schema.Key(rec)
	if pk == 0 {
		return fmt.Errorf("update %s: %w", r.schema.Table, storage.ErrKeyUnassigned)
	}
	if _, ok := r.rows[pk]; !ok {
		return fmt.Errorf("%s %d: %w", r.schema.Table, pk, storage.ErrNotFound)
	}
	r.rows[pk] = r.schema.Clone(rec)
	return nil
}

func (r *Repository[T]) Delete(_ context.Context, pk int64) error {
	if _, ok := r.rows[pk]; !ok {
		return fmt.Errorf("%s %d: %w", r.schema.Table, pk, storage.ErrNotFound)
	}
	delete(r.rows, pk)
	return nil
}
