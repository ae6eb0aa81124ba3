// Package filter decides whether a record set change is replicated.
package filter

import (
	"strings"

	"github.com/gurre/route53-org-sync/logging"
	"github.com/gurre/route53-org-sync/recordset"
	"go.uber.org/zap"
)

// Reason explains a decision.
type Reason string

const (
	ReasonAccepted      Reason = "accepted"
	ReasonHalted        Reason = "halt_processing"
	ReasonDomain        Reason = "domain_mismatch"
	ReasonSetIdentifier Reason = "non_simple_set_identifier"
)

// Decision is the outcome of Decide. It is never persisted.
type Decision struct {
	Accept bool
	Reason Reason
}

// Filter applies the halt flag, the domain suffix filter and the
// set identifier rule, in that order. The first rejection wins.
type Filter struct {
	halt   bool
	domain string
	log    *zap.Logger
}

// New creates a Filter. An empty domain disables the suffix check.
func New(halt bool, domain string, log *zap.Logger) *Filter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Filter{
		halt:   halt,
		domain: domain,
		log:    log.Named("filter"),
	}
}

// Decide returns whether c should be replicated. Rejections are logged
// (info for halt and domain, warn for set identifier) and never error.
func (f *Filter) Decide(c recordset.Change) Decision {
	fields := []zap.Field{logging.RecordName(c.Name), logging.RecordType(c.Type), logging.Action(string(c.Action))}

	if f.halt {
		f.log.Info("HALT_PROCESSING is set, not replicating change", fields...)
		return Decision{Reason: ReasonHalted}
	}

	if f.domain != "" && !MatchesDomain(c.Name, f.domain) {
		f.log.Info("record is outside the company domain, not replicating change",
			append(fields, zap.String("domain_filter", f.domain))...)
		return Decision{Reason: ReasonDomain}
	}

	if c.HasSetIdentifier() && c.SetIdentifier != recordset.SimpleSetIdentifier {
		f.log.Warn("set identifier is not Simple, typically a regional deployment that must be handled manually",
			append(fields, logging.SetIdentifier(c.SetIdentifier))...)
		return Decision{Reason: ReasonSetIdentifier}
	}

	return Decision{Accept: true, Reason: ReasonAccepted}
}

// MatchesDomain reports whether name ends with domain, where domain may be
// configured with or without the trailing dot.
func MatchesDomain(name, domain string) bool {
	return strings.HasSuffix(name, domain) || strings.HasSuffix(name, domain+".")
}
