package middleware

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mmynk/bookkeeper/internal/storage"
)

// OperationsMetric is the fully qualified name of the operation counter.
const OperationsMetric = "bookkeeper_repository_operations_total"

// Metrics holds the Prometheus collectors shared by every instrumented repository.
type Metrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewMetrics creates the repository collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bookkeeper",
			Subsystem: "repository",
			Name:      "operations_total",
			Help:      "Repository operations by table, operation and result.",
		}, []string{"table", "operation", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bookkeeper",
			Subsystem: "repository",
			Name:      "operation_duration_seconds",
			Help:      "Repository operation latency.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"table", "operation"}),
	}
	reg.MustRegister(m.operations, m.duration)
	return m
}

func (m *Metrics) observe(table, op string, start time.Time, err error) {
	m.operations.WithLabelValues(table, op, Classify(err)).Inc()
	m.duration.WithLabelValues(table, op).Observe(time.Since(start).Seconds())
}

type metricsRepository[T any] struct {
	next    storage.Repository[T]
	table   string
	metrics *Metrics
}

// WithMetrics returns a repository that records every call made to next.
func WithMetrics[T any](next storage.Repository[T], table string, m *Metrics) storage.Repository[T] {
	return &metricsRepository[T]{next: next, table: table, metrics: m}
}

func (r *metricsRepository[T]) Add(ctx context.Context, rec *T) (int64, error) {
	start := time.Now()
	pk, err := r.next.Add(ctx, rec)
	r.metrics.observe(r.table, OpAdd, start, err)
	return pk, err
}

func (r *metricsRepository[T]) Get(ctx context.Context, pk int64) (*T, error) {
	start := time.Now()
	rec, err := r.next.Get(ctx, pk)
	r.metrics.observe(r.table, OpGet, start, err)
	return rec, err
}

func (r *metricsRepository[T]) GetAll(ctx context.Context, filter storage.Filter) ([]T, error) {
	start := time.Now()
	recs, err := r.next.GetAll(ctx, filter)
	r.metrics.observe(r.table, OpGetAll, start, err)
	return recs, err
}

func (r *metricsRepository[T]) Update(ctx context.Context, rec *T) error {
	start := time.Now()
	err := r.next.Update(ctx, rec)
	r.metrics.observe(r.table, OpUpdate, start, err)
	return err
}

func (r *metricsRepository[T]) Delete(ctx context.Context, pk int64) error {
	start := time.Now()
	err := r.next.Delete(ctx, pk)
	r.metrics.observe(r.table, OpDelete, start, err)
	return err
}
