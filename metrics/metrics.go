package metrics

import "time"

// Metrics records per-request and per-event measurements.
// Implementations must be safe for concurrent use.
type Metrics interface {
	// RecordRequest records one completed HTTP exchange.
	RecordRequest(route string, status int, duration time.Duration)
	// RecordBytes records content bytes moved by a route ("in" or "out").
	RecordBytes(route, direction string, n int)
	// RecordEvent records one notification delivered to the metrics subscriber.
	RecordEvent(kind string)
	// RecordInFlight adjusts the in-flight gauge for route by delta.
	RecordInFlight(route string, delta int)
}

type noopMetrics struct{}

// NewNoopMetrics returns a Metrics that does nothing.
func NewNoopMetrics() Metrics {
	return noopMetrics{}
}

func (noopMetrics) RecordRequest(string, int, time.Duration) {}
func (noopMetrics) RecordBytes(string, string, int)          {}
func (noopMetrics) RecordEvent(string)                       {}
func (noopMetrics) RecordInFlight(string, int)               {}
