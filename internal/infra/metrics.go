package infra

import (
	"sync/atomic"
	"time"
)

// Metrics provides lightweight observability without external dependencies.
// Uses atomic operations for thread-safety.
type Metrics struct {
	// Counters
	linesDecoded atomic.Uint64
	bytesRead    atomic.Uint64
	reconnects   atomic.Uint64
	errorsTotal  atomic.Uint64

	// Decode latency tracking
	latencySumNs atomic.Int64
	latencyCount atomic.Uint64

	// Gauges
	marketsTracked    atomic.Int32
	activeConnections atomic.Int32
}

// GlobalMetrics is the singleton metrics instance.
var GlobalMetrics = &Metrics{}

// RecordLine records one decoded stream line with its size and latency.
func (m *Metrics) RecordLine(bytes int, latencyNs int64) {
	m.linesDecoded.Add(1)
	m.bytesRead.Add(uint64(bytes))
	m.latencySumNs.Add(latencyNs)
	m.latencyCount.Add(1)
}

// RecordError records an error occurrence.
func (m *Metrics) RecordError() {
	m.errorsTotal.Add(1)
}

// RecordReconnect records a stream reconnection.
func (m *Metrics) RecordReconnect() {
	m.reconnects.Add(1)
}

// SetMarketsTracked sets the number of markets currently cached.
func (m *Metrics) SetMarketsTracked(count int32) {
	m.marketsTracked.Store(count)
}

// IncrementConnections increments active connections by 1.
func (m *Metrics) IncrementConnections() {
	m.activeConnections.Add(1)
}

// DecrementConnections decrements active connections by 1.
func (m *Metrics) DecrementConnections() {
	m.activeConnections.Add(-1)
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	LinesDecoded      uint64
	BytesRead         uint64
	Reconnects        uint64
	ErrorsTotal       uint64
	AvgLatencyNs      int64
	MarketsTracked    int32
	ActiveConnections int32
	Timestamp         time.Time
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	var avgLatency int64
	count := m.latencyCount.Load()
	if count > 0 {
		avgLatency = m.latencySumNs.Load() / int64(count)
	}

	return MetricsSnapshot{
		LinesDecoded:      m.linesDecoded.Load(),
		BytesRead:         m.bytesRead.Load(),
		Reconnects:        m.reconnects.Load(),
		ErrorsTotal:       m.errorsTotal.Load(),
		AvgLatencyNs:      avgLatency,
		MarketsTracked:    m.marketsTracked.Load(),
		ActiveConnections: m.activeConnections.Load(),
		Timestamp:         time.Now(),
	}
}

// Reset clears all metrics (for testing).
func (m *Metrics) Reset() {
	m.linesDecoded.Store(0)
	m.bytesRead.Store(0)
	m.reconnects.Store(0)
	m.errorsTotal.Store(0)
	m.latencySumNs.Store(0)
	m.latencyCount.Store(0)
	m.marketsTracked.Store(0)
	m.activeConnections.Store(0)
}
