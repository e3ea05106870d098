package tagdex

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBasicMetricsCollector(t *testing.T) {
	m := &BasicMetricsCollector{}
	d := fixture(t, WithMetricsCollector(m))

	_, err := d.Values(All("a"))
	require.NoError(t, err)
	_, err = d.Values(Filter[string]{})
	require.Error(t, err)
	_, _, err = d.First(Any("c"))
	require.NoError(t, err)

	stats := m.GetStats()
	assert.Equal(t, int64(6), stats.MutationCount)
	assert.Equal(t, int64(0), stats.MutationErrors)
	assert.Equal(t, int64(3), stats.QueryCount)
	assert.Equal(t, int64(1), stats.QueryErrors)
	assert.Equal(t, int64(4), stats.QueryMatches)
	assert.GreaterOrEqual(t, stats.QueryAvgNanos, int64(0))
}

func TestCountRecordsQueries(t *testing.T) {
	var buf bytes.Buffer
	m := &BasicMetricsCollector{}
	d := fixture(t, WithMetricsCollector(m), WithLogger(NewLogger(slog.NewJSONHandler(&buf, nil))))
	before := m.GetStats()

	_, err := d.Count(Filter[string]{})
	require.ErrorIs(t, err, ErrInvalidQueryParameter)
	assert.Contains(t, buf.String(), `"msg":"query failed"`)

	stats := m.GetStats()
	assert.Equal(t, before.QueryCount+1, stats.QueryCount)
	assert.Equal(t, before.QueryErrors+1, stats.QueryErrors)
	assert.Equal(t, before.QueryMatches, stats.QueryMatches)

	n, err := d.Count(Any("a"))
	require.NoError(t, err)
	require.Positive(t, n)

	stats = m.GetStats()
	assert.Equal(t, before.QueryCount+2, stats.QueryCount)
	assert.Equal(t, before.QueryErrors+1, stats.QueryErrors)
	assert.Equal(t, before.QueryMatches+int64(n), stats.QueryMatches)
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	d := New[string](WithLogger(logger))
	_, err := d.Add("x", "a")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"msg":"mutation completed"`)
	assert.Contains(t, buf.String(), `"op":"add"`)

	buf.Reset()
	_, err = d.Values(Filter[string]{})
	require.Error(t, err)
	assert.Contains(t, buf.String(), `"msg":"query failed"`)

	buf.Reset()
	ro := d.Copy(WithInterceptor(ReadOnly()), WithLogger(logger))
	_, err = ro.Add("y", "a")
	require.Error(t, err)
	assert.Contains(t, buf.String(), `"msg":"mutation failed"`)

	buf.Reset()
	_, err = ro.Add(1, "a", "b")
	require.Error(t, err)
	assert.NotContains(t, buf.String(), "rolled back")
}

func TestLoggerRollback(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(slog.NewTextHandler(&buf, nil))

	d := New[string](
		WithLogger(logger),
		WithInterceptor(InterceptorFuncs{BeforeFunc: func(c *Call) error {
			if c.Op == OpAddTagToEntry {
				return ErrAccessViolation
			}
			return nil
		}}),
	)
	_, err := d.Add("x", "a")
	require.ErrorIs(t, err, ErrAccessViolation)
	assert.Contains(t, buf.String(), "mutation rolled back")
	assert.Contains(t, buf.String(), "primitives_undone=2")
}

func TestOptionsDefaults(t *testing.T) {
	d := New[string](WithLogger(nil), WithMetricsCollector(nil), WithEntryGuard(nil), WithInterceptor(nil))
	assert.IsType(t, NoopMetricsCollector{}, d.opts.metrics)
	assert.NotNil(t, d.opts.logger)
	assert.Empty(t, d.opts.interceptors)

	_, err := d.Add(NewTuple[string]("x"))
	require.ErrorIs(t, err, ErrInvalidEntry)
}
