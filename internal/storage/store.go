// Package storage provides abstractions for persistent record storage.
//
// A record type is described by an explicit Schema: a key accessor plus an
// ordered list of named field descriptors. Backends translate the five
// Repository operations into statements against one table per record type.
package storage

import (
	"context"
	"errors"
)

var (
	// ErrKeyAssigned is returned by Add when the record already carries a key.
	ErrKeyAssigned = errors.New("record already has a key")

	// ErrKeyUnassigned is returned by Update when the record was never persisted.
	ErrKeyUnassigned = errors.New("record has no key")

	// ErrNotFound is returned by Update and Delete when no row matches the key.
	ErrNotFound = errors.New("record not found")

	// ErrUnknownField is returned when a filter names a field the schema does not declare.
	ErrUnknownField = errors.New("unknown field")
)

// Repository defines the CRUD operations available for one record type.
// This abstraction allows swapping storage backends without changing the
// presenter layer.
type Repository[T any] interface {
	// Add persists a new record and returns the assigned key.
	// The record's key field is populated by the store.
	// Returns ErrKeyAssigned if the key is already non-zero.
	Add(ctx context.Context, rec *T) (int64, error)

	// Get retrieves a record by its key.
	// Returns nil and no error if the key does not exist.
	Get(ctx context.Context, pk int64) (*T, error)

	// GetAll retrieves every record matching the filter.
	// A nil or empty filter returns every record.
	GetAll(ctx context.Context, filter Filter) ([]T, error)

	// Update overwrites every non-key field of an existing record.
	// Returns ErrKeyUnassigned if the key is zero.
	Update(ctx context.Context, rec *T) error

	// Delete removes the record with the given key.
	// Returns ErrNotFound if no row was removed.
	Delete(ctx context.Context, pk int64) error
}
