// Package metrics collects per-invocation replication counters and renders
// the invocation report.
package metrics

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
)

// Metrics collects counters for one invocation.
// It uses atomic operations for counter updates.
type Metrics struct {
	mu sync.RWMutex

	received        int64 // Changes decoded from the event
	applied         int64 // Changes submitted and confirmed INSYNC
	skipped         int64 // Changes rejected by the filter
	noOps           int64 // Deletes of records already gone
	upsertFallbacks int64 // Creates retried as UPSERT
	healthOverrides int64 // Deletes that used the existing EvaluateTargetHealth
	errors          int64 // Fatal replication errors

	skipReasons map[string]int64
	applyTime   time.Duration // Total time spent applying and waiting
	startTime   time.Time
}

// NewMetrics creates a new Metrics instance with initialized counters
func NewMetrics() *Metrics {
	return &Metrics{
		skipReasons: make(map[string]int64),
		startTime:   time.Now(),
	}
}

// RecordReceived increments the received changes counter
func (m *Metrics) RecordReceived() {
	atomic.AddInt64(&m.received, 1)
}

// RecordApplied increments the applied changes counter
func (m *Metrics) RecordApplied() {
	atomic.AddInt64(&m.applied, 1)
}

// RecordSkipped increments the skipped counter and the per-reason count
func (m *Metrics) RecordSkipped(reason string) {
	atomic.AddInt64(&m.skipped, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.skipReasons[reason]++
}

// RecordNoOp increments the no-op counter
func (m *Metrics) RecordNoOp() {
	atomic.AddInt64(&m.noOps, 1)
}

// RecordUpsertFallback increments the UPSERT fallback counter
func (m *Metrics) RecordUpsertFallback() {
	atomic.AddInt64(&m.upsertFallbacks, 1)
}

// RecordHealthOverride increments the EvaluateTargetHealth override counter
func (m *Metrics) RecordHealthOverride() {
	atomic.AddInt64(&m.healthOverrides, 1)
}

// RecordError increments the errors counter
func (m *Metrics) RecordError() {
	atomic.AddInt64(&m.errors, 1)
}

// RecordApplyTime adds the time spent in one Apply call
func (m *Metrics) RecordApplyTime(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.applyTime += d
}

// Report is the invocation summary written to the log and the report sink.
type Report struct {
	EventID         string           `json:"eventId,omitempty"`
	HostedZoneID    string           `json:"hostedZoneId"`
	StartTime       time.Time        `json:"startTime"`
	EndTime         time.Time        `json:"endTime"`
	Duration        time.Duration    `json:"duration"`
	ApplyTime       time.Duration    `json:"applyTime"`
	Received        int64            `json:"received"`
	Applied         int64            `json:"applied"`
	Skipped         int64            `json:"skipped"`
	NoOps           int64            `json:"noOps"`
	UpsertFallbacks int64            `json:"upsertFallbacks"`
	HealthOverrides int64            `json:"healthOverrides"`
	Errors          int64            `json:"errors"`
	SkipReasons     map[string]int64 `json:"skipReasons,omitempty"`
	Results         map[string]bool  `json:"results"`
}

// GenerateReport snapshots the counters into a Report.
// Callers fill in EventID, HostedZoneID and Results.
func (m *Metrics) GenerateReport() Report {
	endTime := time.Now()

	m.mu.RLock()
	reasons := make(map[string]int64, len(m.skipReasons))
	for k, v := range m.skipReasons {
		reasons[k] = v
	}
	applyTime := m.applyTime
	m.mu.RUnlock()

	return Report{
		StartTime:       m.startTime,
		EndTime:         endTime,
		Duration:        endTime.Sub(m.startTime),
		ApplyTime:       applyTime,
		Received:        atomic.LoadInt64(&m.received),
		Applied:         atomic.LoadInt64(&m.applied),
		Skipped:         atomic.LoadInt64(&m.skipped),
		NoOps:           atomic.LoadInt64(&m.noOps),
		UpsertFallbacks: atomic.LoadInt64(&m.upsertFallbacks),
		HealthOverrides: atomic.LoadInt64(&m.healthOverrides),
		Errors:          atomic.LoadInt64(&m.errors),
		SkipReasons:     reasons,
	}
}

// MarshalJSON renders durations as strings.
func (r Report) MarshalJSON() ([]byte, error) {
	type Alias Report
	return json.Marshal(&struct {
		Alias
		Duration  string `json:"duration"`
		ApplyTime string `json:"applyTime"`
	}{
		Alias:     Alias(r),
		Duration:  r.Duration.String(),
		ApplyTime: r.ApplyTime.String(),
	})
}

// String returns a human-readable summary of the report.
func (r Report) String() string {
	return fmt.Sprintf(
		"Replication completed in %s\n"+
			"Changes received: %d\n"+
			"Applied: %d (upsert fallbacks: %d, health overrides: %d)\n"+
			"No-ops: %d\n"+
			"Skipped: %d",
		r.Duration,
		r.Received,
		r.Applied,
		r.UpsertFallbacks,
		r.HealthOverrides,
		r.NoOps,
		r.Skipped,
	)
}
