package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceSnapshotAggregates(t *testing.T) {
	m := NewMetricsService()

	m.RecordCacheOperation(true, 2*time.Millisecond)
	m.RecordCacheOperation(true, 2*time.Millisecond)
	m.RecordCacheOperation(false, 2*time.Millisecond)
	m.ObserveHTTPRequest("GET", "/api/v1/conflicts", 200, 10*time.Millisecond)
	m.ObserveHTTPRequest("GET", "/api/v1/slots", 200, 30*time.Millisecond)
	m.ObserveSolverRun("success", time.Second)

	snap := m.Snapshot()
	assert.InDelta(t, 2.0/3.0, snap.CacheHitRatio, 1e-9)
	assert.Equal(t, uint64(2), snap.CacheHits)
	assert.Equal(t, uint64(1), snap.CacheMisses)
	assert.Equal(t, uint64(2), snap.RequestsTotal)
	assert.InDelta(t, 20.0, snap.AverageRequestDurationMs, 1e-6)
	assert.Equal(t, uint64(1), snap.SolverRuns)
	require.False(t, snap.GeneratedAt.IsZero())
	assert.Greater(t, snap.Goroutines, 0)
}

func TestMetricsServiceNilReceiverIsSafe(t *testing.T) {
	var m *MetricsService
	m.RecordCacheOperation(true, time.Millisecond)
	m.ObserveSolverRun("error", time.Second)

	snap := m.Snapshot()
	assert.Zero(t, snap.RequestsTotal)
	assert.Zero(t, snap.CacheHits)
}
