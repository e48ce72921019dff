package common

import (
	"sync"
	"time"
)

// Metrics counts the work a running service has done. All methods are safe
// for concurrent use by HTTP handlers.
type Metrics struct {
	mu          sync.Mutex
	start       time.Time
	requests    int64
	submissions int64
	degraded    int64
}

func NewMetrics() *Metrics {
	return &Metrics{start: time.Now()}
}

// IncRequest records one served API request.
func (m *Metrics) IncRequest() {
	m.mu.Lock()
	m.requests++
	m.mu.Unlock()
}

// IncSubmission records one accepted submission.
func (m *Metrics) IncSubmission() {
	m.mu.Lock()
	m.submissions++
	m.mu.Unlock()
}

// IncDegraded records one fetch that was answered with an empty result
// because its backing data was unavailable.
func (m *Metrics) IncDegraded() {
	m.mu.Lock()
	m.degraded++
	m.mu.Unlock()
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return MetricsSnapshot{
		UptimeSeconds: int64(time.Since(m.start).Seconds()),
		Requests:      m.requests,
		Submissions:   m.submissions,
		Degraded:      m.degraded,
	}
}

type MetricsSnapshot struct {
	UptimeSeconds int64 `json:"uptime_seconds"`
	Requests      int64 `json:"requests"`
	Submissions   int64 `json:"submissions"`
	Degraded      int64 `json:"degraded"`
}
