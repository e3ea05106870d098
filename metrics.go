package tagdex

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; package
// prom provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordMutation is called after each public mutation.
	// op is the operation name ("add", "set", ...), err is nil if successful.
	RecordMutation(op string, duration time.Duration, err error)

	// RecordQuery is called after each query evaluation.
	// matches is the number of matched entries (0 or 1 for first-match).
	RecordQuery(shape Shape, matches int, duration time.Duration, err error)

	// RecordRollback is called when a mutation was undone because a
	// primitive or interceptor failed.
	RecordRollback(op string)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordMutation(string, time.Duration, error)  {}
func (NoopMetricsCollector) RecordQuery(Shape, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordRollback(string)                        {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	MutationCount      atomic.Int64
	MutationErrors     atomic.Int64
	MutationTotalNanos atomic.Int64
	QueryCount         atomic.Int64
	QueryErrors        atomic.Int64
	QueryMatches       atomic.Int64
	QueryTotalNanos    atomic.Int64
	RollbackCount      atomic.Int64
}

// RecordMutation implements MetricsCollector.
func (b *BasicMetricsCollector) RecordMutation(op string, duration time.Duration, err error) {
	b.MutationCount.Add(1)
	b.MutationTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.MutationErrors.Add(1)
	}
}

// RecordQuery implements MetricsCollector.
func (b *BasicMetricsCollector) RecordQuery(shape Shape, matches int, duration time.Duration, err error) {
	b.QueryCount.Add(1)
	b.QueryTotalNanos.Add(duration.Nanoseconds())
	b.QueryMatches.Add(int64(matches))
	if err != nil {
		b.QueryErrors.Add(1)
	}
}

// RecordRollback implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRollback(op string) {
	b.RollbackCount.Add(1)
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		MutationCount:    b.MutationCount.Load(),
		MutationErrors:   b.MutationErrors.Load(),
		MutationAvgNanos: avg(b.MutationTotalNanos.Load(), b.MutationCount.Load()),
		QueryCount:       b.QueryCount.Load(),
		QueryErrors:      b.QueryErrors.Load(),
		QueryMatches:     b.QueryMatches.Load(),
		QueryAvgNanos:    avg(b.QueryTotalNanos.Load(), b.QueryCount.Load()),
		RollbackCount:    b.RollbackCount.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	MutationCount    int64
	MutationErrors   int64
	MutationAvgNanos int64
	QueryCount       int64
	QueryErrors      int64
	QueryMatches     int64
	QueryAvgNanos    int64
	RollbackCount    int64
}
