// Package coordinator decomposes a change event into individual record set
// changes, routes each through the filter and the replication engine, and
// aggregates the per-record results.
package coordinator

import (
	"context"
	"time"

	"github.com/gurre/route53-org-sync/filter"
	"github.com/gurre/route53-org-sync/logging"
	"github.com/gurre/route53-org-sync/metrics"
	"github.com/gurre/route53-org-sync/recordset"
	"github.com/gurre/route53-org-sync/replicator"
	"github.com/gurre/route53-org-sync/report"
	"go.uber.org/zap"
)

// Decider decides whether a change is replicated.
type Decider interface {
	Decide(c recordset.Change) filter.Decision
}

// Applier applies an accepted change to the target zone.
type Applier interface {
	Apply(ctx context.Context, c recordset.Change) (replicator.Outcome, error)
}

// Result maps a record name to true when the change was applied (or was a
// recognized no-op) and false when the filter skipped it.
type Result map[string]bool

// Coordinator processes the changes of one event strictly in order.
type Coordinator struct {
	filter       Decider
	engine       Applier
	sink         report.Sink
	hostedZoneID string
	log          *zap.Logger
}

// NewCoordinator creates a Coordinator. sink may be nil.
func NewCoordinator(f Decider, engine Applier, sink report.Sink, hostedZoneID string, log *zap.Logger) *Coordinator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Coordinator{
		filter:       f,
		engine:       engine,
		sink:         sink,
		hostedZoneID: hostedZoneID,
		log:          log.Named("coordinator"),
	}
}

// Process runs every change of ev through the filter and, when accepted,
// the replication engine. Filtered changes never stop processing. The first
// replication error aborts the event: Process returns the results recorded
// so far together with that error, unchanged.
func (c *Coordinator) Process(ctx context.Context, ev recordset.Event) (Result, error) {
	m := metrics.NewMetrics()
	results := make(Result, len(ev.Changes))

	for _, change := range ev.Changes {
		m.RecordReceived()
		c.log.Debug("processing record set change",
			logging.RecordName(change.Name),
			logging.RecordType(change.Type),
			logging.Action(string(change.Action)),
			logging.SetIdentifier(change.SetIdentifier))

		decision := c.filter.Decide(change)
		if !decision.Accept {
			c.log.Debug("change skipped", logging.RecordName(change.Name), logging.Reason(string(decision.Reason)))
			m.RecordSkipped(string(decision.Reason))
			results[change.Name] = false
			continue
		}

		start := time.Now()
		outcome, err := c.engine.Apply(ctx, change)
		m.RecordApplyTime(time.Since(start))
		if err != nil {
			m.RecordError()
			c.publish(ctx, ev, m, results)
			return results, err
		}

		if outcome.NoOp {
			m.RecordNoOp()
		} else {
			m.RecordApplied()
		}
		if outcome.UpsertFallback {
			m.RecordUpsertFallback()
		}
		if outcome.HealthOverride {
			m.RecordHealthOverride()
		}
		results[change.Name] = true
	}

	c.publish(ctx, ev, m, results)
	return results, nil
}

// publish logs the invocation report and writes it to the sink. Sink
// failures are logged, not returned: the changes are already applied.
func (c *Coordinator) publish(ctx context.Context, ev recordset.Event, m *metrics.Metrics, results Result) {
	r := m.GenerateReport()
	r.EventID = ev.ID
	r.HostedZoneID = c.hostedZoneID
	r.Results = results

	c.log.Info("invocation report",
		zap.Int64("received", r.Received),
		zap.Int64("applied", r.Applied),
		zap.Int64("skipped", r.Skipped),
		zap.Int64("no_ops", r.NoOps),
		zap.Int64("upsert_fallbacks", r.UpsertFallbacks),
		zap.Int64("health_overrides", r.HealthOverrides),
		zap.Int64("errors", r.Errors),
		zap.Duration("duration", r.Duration))

	if c.sink == nil {
		return
	}
	if err := c.sink.Write(ctx, r); err != nil {
		c.log.Error("failed to write invocation report", zap.Error(err))
	}
}
