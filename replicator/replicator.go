// Package replicator applies accepted record set changes to the target
// hosted zone and absorbs the idempotency races caused by replayed or
// reordered change notifications.
package replicator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	"github.com/aws/aws-sdk-go-v2/service/route53/types"
	"github.com/gurre/route53-org-sync/aws"
	"github.com/gurre/route53-org-sync/logging"
	"github.com/gurre/route53-org-sync/recordset"
	"go.uber.org/zap"
)

// DefaultComment is attached to every replicated change batch.
const DefaultComment = "Autogenerated from aws-route53-organization-recordset-registration for AWS Route53 recordsets."

// maxAttempts bounds the attempt loop: the original action, then at most
// one UPSERT after an "already exists" conflict.
const maxAttempts = 2

var (
	// ErrUnrecognizedConflict wraps an InvalidChangeBatch that is neither
	// a delete of a missing record nor a create of an existing one.
	ErrUnrecognizedConflict = errors.New("unrecognized change batch conflict")

	// ErrPropagationWait wraps failures and timeouts while waiting for a
	// change to reach INSYNC.
	ErrPropagationWait = errors.New("change propagation wait failed")

	// ErrMalformedChange is returned for accepted changes without an alias target.
	ErrMalformedChange = errors.New("record set change has no alias target")
)

// Options configures an Engine.
type Options struct {
	HostedZoneID    string        // Target hosted zone
	WaitDelay       time.Duration // Delay between GetChange polls
	WaitMaxAttempts int           // Polls before ErrPropagationWait
	Comment         string        // Change batch comment, DefaultComment when empty
}

// Outcome describes what Apply did for one change.
type Outcome struct {
	ChangeID       string           // Provider change id, empty for a no-op
	Action         recordset.Action // Action that was finally submitted
	NoOp           bool             // Delete of a record that was already gone
	UpsertFallback bool             // Create retried as UPSERT
	HealthOverride bool             // Delete used the existing EvaluateTargetHealth
}

// Engine applies changes to one hosted zone. It holds no state between calls.
type Engine struct {
	client aws.Route53Client
	opts   Options
	log    *zap.Logger
}

// New creates an Engine for the target zone.
func New(client aws.Route53Client, opts Options, log *zap.Logger) *Engine {
	if opts.Comment == "" {
		opts.Comment = DefaultComment
	}
	if opts.WaitDelay <= 0 {
		opts.WaitDelay = 30 * time.Second
	}
	if opts.WaitMaxAttempts <= 0 {
		opts.WaitMaxAttempts = 20
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		client: client,
		opts:   opts,
		log:    log.Named("replicator").With(logging.HostedZone(opts.HostedZoneID)),
	}
}

// Apply submits c to the target zone and, unless the change turned out to be
// a no-op, blocks until the provider reports it INSYNC.
//
// A CREATE rejected because the record already exists is retried exactly once
// as UPSERT. A DELETE rejected because the record is missing is reported as a
// no-op. Every other error is returned; provider errors stay reachable with
// errors.As.
func (e *Engine) Apply(ctx context.Context, c recordset.Change) (Outcome, error) {
	if c.AliasTarget == nil {
		return Outcome{}, fmt.Errorf("%w: %s %s", ErrMalformedChange, c.Name, c.Type)
	}

	log := e.log.With(logging.RecordName(c.Name), logging.RecordType(c.Type))
	out := Outcome{Action: c.Action}
	evalHealth := c.AliasTarget.EvaluateTargetHealth

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if out.Action == recordset.ActionDelete {
			existing, found, err := e.existingEvaluateTargetHealth(ctx, c)
			if err != nil {
				return out, err
			}
			if found && existing != evalHealth {
				log.Warn("existing record set has a different EvaluateTargetHealth, probably edited manually; deleting with the existing value",
					zap.Bool("requested", evalHealth), zap.Bool("existing", existing))
				evalHealth = existing
				out.HealthOverride = true
			}
		}

		log.Info("submitting record set change", logging.Action(string(out.Action)), zap.Int("attempt", attempt))
		changeID, err := e.submit(ctx, c, out.Action, evalHealth)
		if err == nil {
			out.ChangeID = changeID
			break
		}

		switch classify(err) {
		case conflictNotFound:
			log.Warn("record set was already deleted, nothing to do", zap.Error(err))
			out.NoOp = true
			return out, nil
		case conflictAlreadyExists:
			if out.Action == recordset.ActionUpsert || attempt == maxAttempts {
				return out, fmt.Errorf("%w: %w", ErrUnrecognizedConflict, err)
			}
			log.Warn("record set already exists, retrying as UPSERT", zap.Error(err))
			out.Action = recordset.ActionUpsert
			out.UpsertFallback = true
		case conflictOther:
			log.Error("change batch rejected", zap.Error(err))
			return out, fmt.Errorf("%w: %w", ErrUnrecognizedConflict, err)
		default:
			return out, fmt.Errorf("failed to change record set %s: %w", c.Name, err)
		}
	}

	if err := e.waitForChange(ctx, out.ChangeID); err != nil {
		return out, err
	}
	log.Info("record set change is INSYNC; this does not mean the record has reached on-prem DNS servers",
		logging.ChangeID(out.ChangeID))

	return out, nil
}

// submit issues one ChangeResourceRecordSets call and returns the change id.
func (e *Engine) submit(ctx context.Context, c recordset.Change, action recordset.Action, evalHealth bool) (string, error) {
	resp, err := e.client.ChangeResourceRecordSets(ctx, &route53.ChangeResourceRecordSetsInput{
		HostedZoneId: awssdk.String(e.opts.HostedZoneID),
		ChangeBatch: &types.ChangeBatch{
			Comment: awssdk.String(e.opts.Comment),
			Changes: []types.Change{
				{
					Action: types.ChangeAction(action),
					ResourceRecordSet: &types.ResourceRecordSet{
						Name: awssdk.String(c.Name),
						Type: types.RRType(c.Type),
						AliasTarget: &types.AliasTarget{
							HostedZoneId:         awssdk.String(c.AliasTarget.HostedZoneID),
							DNSName:              awssdk.String(c.AliasTarget.DNSName),
							EvaluateTargetHealth: evalHealth,
						},
					},
				},
			},
		},
	})
	if err != nil {
		return "", err
	}
	if resp.ChangeInfo == nil || resp.ChangeInfo.Id == nil {
		return "", fmt.Errorf("change for %s returned no change id", c.Name)
	}
	return *resp.ChangeInfo.Id, nil
}

// existingEvaluateTargetHealth looks up the record set c would delete and
// returns its EvaluateTargetHealth. ListResourceRecordSets starts at the
// given name and type, so the first result is only used when it matches.
func (e *Engine) existingEvaluateTargetHealth(ctx context.Context, c recordset.Change) (bool, bool, error) {
	resp, err := e.client.ListResourceRecordSets(ctx, &route53.ListResourceRecordSetsInput{
		HostedZoneId:    awssdk.String(e.opts.HostedZoneID),
		StartRecordName: awssdk.String(c.Name),
		StartRecordType: types.RRType(c.Type),
		MaxItems:        awssdk.Int32(1),
	})
	if err != nil {
		return false, false, fmt.Errorf("failed to list record sets for %s: %w", c.Name, err)
	}
	if len(resp.ResourceRecordSets) == 0 {
		return false, false, nil
	}

	rrs := resp.ResourceRecordSets[0]
	if !SameName(awssdk.ToString(rrs.Name), c.Name) || string(rrs.Type) != c.Type || rrs.AliasTarget == nil {
		return false, false, nil
	}
	return rrs.AliasTarget.EvaluateTargetHealth, true, nil
}

// waitForChange blocks until changeID is INSYNC or the attempt budget is spent.
func (e *Engine) waitForChange(ctx context.Context, changeID string) error {
	delay := e.opts.WaitDelay
	waiter := route53.NewResourceRecordSetsChangedWaiter(e.client, func(o *route53.ResourceRecordSetsChangedWaiterOptions) {
		o.MinDelay = delay
		o.MaxDelay = delay
	})

	maxWait := delay * time.Duration(e.opts.WaitMaxAttempts)
	if err := waiter.Wait(ctx, &route53.GetChangeInput{Id: awssdk.String(changeID)}, maxWait); err != nil {
		return fmt.Errorf("%w: change %s after %s: %w", ErrPropagationWait, changeID, maxWait, err)
	}
	return nil
}

// SameName compares DNS names ignoring case, the trailing dot and Route53's
// octal escaping of '*'.
func SameName(a, b string) bool {
	norm := func(s string) string {
		s = strings.ReplaceAll(s, `\052`, "*")
		return strings.TrimSuffix(s, ".")
	}
	return strings.EqualFold(norm(a), norm(b))
}
