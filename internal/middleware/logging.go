// Package middleware provides decorators that wrap a storage.Repository
// with cross-cutting behaviour: structured logging and Prometheus metrics.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mmynk/bookkeeper/internal/storage"
)

// Operation names used in logs and metric labels.
const (
	OpAdd    = "add"
	OpGet    = "get"
	OpGetAll = "get_all"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Results used in logs and metric labels.
const (
	ResultOK       = "ok"
	ResultNotFound = "not_found"
	ResultMisuse   = "misuse"
	ResultError    = "error"
)

// Classify maps an operation error to a result label.
func Classify(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, storage.ErrNotFound):
		return ResultNotFound
	case errors.Is(err, storage.ErrKeyAssigned),
		errors.Is(err, storage.ErrKeyUnassigned),
		errors.Is(err, storage.ErrUnknownField):
		return ResultMisuse
	default:
		return ResultError
	}
}

type loggingRepository[T any] struct {
	next   storage.Repository[T]
	table  string
	logger *slog.Logger
}

// WithLogging returns a repository that logs every call made to next.
// It logs the operation, table, key, duration and any error.
func WithLogging[T any](next storage.Repository[T], table string, logger *slog.Logger) storage.Repository[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &loggingRepository[T]{next: next, table: table, logger: logger}
}

func (r *loggingRepository[T]) Add(ctx context.Context, rec *T) (int64, error) {
	start := time.Now()
	pk, err := r.next.Add(ctx, rec)
	r.log(ctx, OpAdd, start, err, "pk", pk)
	return pk, err
}

func (r *loggingRepository[T]) Get(ctx context.Context, pk int64) (*T, error) {
	start := time.Now()
	rec, err := r.next.Get(ctx, pk)
	r.log(ctx, OpGet, start, err, "pk", pk, "found", rec != nil)
	return rec, err
}

func (r *loggingRepository[T]) GetAll(ctx context.Context, filter storage.Filter) ([]T, error) {
	start := time.Now()
	recs, err := r.next.GetAll(ctx, filter)
	r.log(ctx, OpGetAll, start, err, "filter_fields", len(filter), "count", len(recs))
	return recs, err
}

func (r *loggingRepository[T]) Update(ctx context.Context, rec *T) error {
	start := time.Now()
	err := r.next.Update(ctx, rec)
	r.log(ctx, OpUpdate, start, err)
	return err
}

func (r *loggingRepository[T]) Delete(ctx context.Context, pk int64) error {
	start := time.Now()
	err := r.next.Delete(ctx, pk)
	r.log(ctx, OpDelete, start, err, "pk", pk)
	return err
}

func (r *loggingRepository[T]) log(ctx context.Context, op string, start time.Time, err error, attrs ...any) {
	attrs = append(attrs,
		"operation", op,
		"table", r.table,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	switch Classify(err) {
	case ResultOK:
		r.logger.DebugContext(ctx, "Repository ok", attrs...)
	case ResultError:
		r.logger.ErrorContext(ctx, "Repository error", append(attrs, "error", err)...)
	default:
		r.logger.WarnContext(ctx, "Repository rejected", append(attrs, "error", err)...)
	}
}
