package report

import (
	"context"
	"sync"

	"github.com/gurre/route53-org-sync/metrics"
)

// MemorySink implements the Sink interface in memory.
// It's primarily intended for testing purposes.
type MemorySink struct {
	reports []metrics.Report
	mu      sync.RWMutex
}

// NewMemorySink creates a new MemorySink instance
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Write appends the report
func (s *MemorySink) Write(ctx context.Context, r metrics.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, r)
	return nil
}

// Reports returns a copy of every report written so far
func (s *MemorySink) Reports() []metrics.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]metrics.Report, len(s.reports))
	copy(out, s.reports)
	return out
}
