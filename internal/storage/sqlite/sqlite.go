// Package sqlite provides a SQLite-backed implementation of storage.Repository.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/bookkeeper/internal/models"
	"github.com/mmynk/bookkeeper/internal/storage"
)

// Ensure Repository implements storage.Repository
var _ storage.Repository[models.Category] = (*Repository[models.Category])(nil)

// Open opens the database file at dbPath, creating parent directories as needed.
func Open(dbPath string) (*sql.DB, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open database with pure Go driver
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Repository implements storage.Repository for one record type using SQLite.
type Repository[T any] struct {
	db     *sql.DB
	schema storage.Schema[T]
	stmts  statements
}

// New creates a repository for schema on db and ensures its table exists.
// Creating the table is idempotent and never alters an existing one.
func New[T any](ctx context.Context, db *sql.DB, schema storage.Schema[T]) (*Repository[T], error) {
	if err := schema.Validate(); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}

	r := &Repository[T]{
		db:     db,
		schema: schema,
		stmts:  buildStatements(schema),
	}

	if _, err := db.ExecContext(ctx, r.stmts.create); err != nil {
		return nil, fmt.Errorf("failed to create table %s: %w", schema.Table, err)
	}

	return r, nil
}

// Table returns the backing table name.
func (r *Repository[T]) Table() string {
	return r.schema.Table
}

// Add inserts rec and writes the generated key back onto it.
func (r *Repository[T]) Add(ctx context.Context, rec *T) (int64, error) {
	key := r.schema.Key(rec)
	if *key != 0 {
		return 0, fmt.Errorf("add to %s: %w (pk=%d)", r.schema.Table, storage.ErrKeyAssigned, *key)
	}

	var (
		res sql.Result
		err error
	)
	if len(r.schema.Fields) == 0 {
		res, err = r.db.ExecContext(ctx, r.stmts.insertDefault)
	} else {
		res, err = r.db.ExecContext(ctx, r.stmts.insert, r.values(rec)...)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert into %s: %w", r.schema.Table, err)
	}

	pk, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read key for %s: %w", r.schema.Table, err)
	}
	*key = pk

	return pk, nil
}

// Get retrieves the record with the given key, or nil if there is none.
func (r *Repository[T]) Get(ctx context.Context, pk int64) (*T, error) {
	rec := new(T)
	err := r.db.QueryRowContext(ctx, r.stmts.get, pk).Scan(r.dests(rec)...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s %d: %w", r.schema.Table, pk, err)
	}
	return rec, nil
}

// GetAll retrieves every record, then keeps those matching filter.
func (r *Repository[T]) GetAll(ctx context.Context, filter storage.Filter) ([]T, error) {
	if err := r.schema.CheckFilter(filter); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, r.stmts.getAll)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", r.schema.Table, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var rec T
		if err := rows.Scan(r.dests(&rec)...); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", r.schema.Table, err)
		}
		if r.schema.Match(&rec, filter) {
			out = append(out, rec)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", r.schema.Table, err)
	}

	return out, nil
}

// Update overwrites every non-key column of the row keyed by rec.
func (r *Repository[T]) Update(ctx context.Context, rec *T) error {
	pk := *r.schema.Key(rec)
	if pk == 0 {
		return fmt.Errorf("update %s: %w", r.schema.Table, storage.ErrKeyUnassigned)
	}
	if len(r.schema.Fields) == 0 {
		return nil
	}

	args := append(r.values(rec), pk)
	res, err := r.db.ExecContext(ctx, r.stmts.update, args...)
	if err != nil {
		return fmt.Errorf("failed to update %s %d: %w", r.schema.Table, pk, err)
	}
	return checkAffected(res, r.schema.Table, pk)
}

// Delete removes the row with the given key.
func (r *Repository[T]) Delete(ctx context.Context, pk int64) error {
	res, err := r.db.ExecContext(ctx, r.stmts.delete, pk)
	if err != nil {
		return fmt.Errorf("failed to delete %s %d: %w", r.schema.Table, pk, err)
	}
	return checkAffected(res, r.schema.Table, pk)
}

func (r *Repository[T]) values(rec *T) []any {
	vals := make([]any, len(r.schema.Fields))
	for i, f := range r.schema.Fields {
		vals[i] = f.Value(rec)
	}
	return vals
}

func (r *Repository[T]) dests(rec *T) []any {
	dests := make([]any, 0, len(r.schema.Fields)+1)
	dests = append(dests, r.schema.Key(rec))
	for _, f := range r.schema.Fields {
		dests = append(dests, f.Dest(rec))
	}
	return dests
}

func checkAffected(res sql.Result, table string, pk int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows for %s: %w", table, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", table, pk, storage.ErrNotFound)
	}
	return nil
}
