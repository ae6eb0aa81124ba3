// Package handler wires configuration, credentials, filtering and
// replication into the entry point invoked once per change event.
package handler

import (
	"context"
	"errors"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/smithy-go"
	"github.com/goccy/go-json"
	"github.com/gurre/route53-org-sync/aws"
	"github.com/gurre/route53-org-sync/config"
	"github.com/gurre/route53-org-sync/coordinator"
	"github.com/gurre/route53-org-sync/credentials"
	"github.com/gurre/route53-org-sync/filter"
	"github.com/gurre/route53-org-sync/logging"
	"github.com/gurre/route53-org-sync/recordset"
	"github.com/gurre/route53-org-sync/replicator"
	"github.com/gurre/route53-org-sync/report"
	"go.uber.org/zap"
)

// Route53Factory builds a target-zone client from assumed credentials.
type Route53Factory func(creds awssdk.Credentials) aws.Route53Client

// Handler processes one change event per Handle call. Configuration is
// read from Getenv on every call so that operational flags such as
// HALT_PROCESSING take effect without a redeploy.
type Handler struct {
	Getenv  func(string) string
	STS     aws.STSClient
	Route53 Route53Factory
	S3      aws.S3Client // only needed for s3:// report destinations
	Log     *zap.Logger
}

// errorSummary is logged for every failed invocation.
type errorSummary struct {
	IsError bool   `json:"isError"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Handle decodes payload, assumes the target account role and replicates
// every change. It returns the per-record result map; on failure the error
// is logged and returned unchanged.
func (h *Handler) Handle(ctx context.Context, payload json.RawMessage) (map[string]bool, error) {
	log := h.Log
	if log == nil {
		log = zap.NewNop()
	}

	results, err := h.handle(ctx, payload, log)
	if err != nil {
		log.Info("failed event", zap.ByteString("event", payload))
		summary, _ := json.Marshal(errorSummary{IsError: true, Type: ErrorType(err), Message: err.Error()})
		log.Error(string(summary), zap.Error(err))
		return results, err
	}
	return results, nil
}

func (h *Handler) handle(ctx context.Context, payload json.RawMessage, log *zap.Logger) (coordinator.Result, error) {
	cfg, err := config.FromEnv(h.Getenv)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	log = log.WithOptions(zap.IncreaseLevel(logging.ParseLevel(cfg.LogLevel)))

	ev, err := recordset.DecodeEvent(payload)
	if err != nil {
		return nil, err
	}
	log = log.With(zap.String("event_id", ev.ID), logging.HostedZone(cfg.DestHostedZoneID))
	log.Info("received record set change event",
		zap.String("source_zone", ev.HostedZoneID),
		zap.String("event_name", ev.EventName),
		zap.Int("changes", len(ev.Changes)),
		zap.Bool("halt", cfg.HaltProcessing),
		zap.Duration("max_wait", cfg.MaxWait()))

	sink, err := report.NewSink(cfg.ReportURI, h.S3)
	if err != nil {
		return nil, err
	}

	creds, err := credentials.NewProvider(h.STS, cfg.AssumeRoleARN, cfg.SessionName, cfg.SessionDuration, log).Assume(ctx)
	if err != nil {
		return nil, err
	}

	engine := replicator.New(h.Route53(creds), replicator.Options{
		HostedZoneID:    cfg.DestHostedZoneID,
		WaitDelay:       cfg.WaitDelay,
		WaitMaxAttempts: cfg.WaitMaxAttempts,
	}, log)
	f := filter.New(cfg.HaltProcessing, cfg.DomainFilter, log)

	return coordinator.NewCoordinator(f, engine, sink, cfg.DestHostedZoneID, log).Process(ctx, ev)
}

// ErrorType names the kind of err for the error summary: the provider
// error code when there is one, then a known error kind, then the Go type.
func ErrorType(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	for _, kind := range []error{
		credentials.ErrAssumeRole,
		replicator.ErrUnrecognizedConflict,
		replicator.ErrPropagationWait,
		replicator.ErrMalformedChange,
		recordset.ErrMalformedEvent,
	} {
		if errors.Is(err, kind) {
			return kind.Error()
		}
	}
	return fmt.Sprintf("%T", err)
}
