// Package logging builds the zap logger used across the replicator and
// provides the standard field constructors for record set changes.
package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Format selects the log encoder.
type Format string

const (
	FormatJSON    Format = "json"    // Lambda / CloudWatch
	FormatConsole Format = "console" // local runs
)

// Options configures New.
type Options struct {
	Format  Format
	Level   string // debug|info|warn|error, anything else is info
	Service string // optional "service" field on every entry
}

// New builds a logger for the given options. If the zap config fails to
// build it falls back to zap.NewProduction.
func New(opts Options) *zap.Logger {
	var zcfg zap.Config
	if opts.Format == FormatConsole {
		zcfg = zap.NewDevelopmentConfig()
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zcfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		zcfg.DisableStacktrace = true
	} else {
		zcfg = zap.NewProductionConfig()
		zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		zcfg.Sampling = nil
	}
	zcfg.Level = zap.NewAtomicLevelAt(ParseLevel(opts.Level))
	zcfg.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	l, err := zcfg.Build(zap.AddCaller())
	if err != nil {
		l, _ = zap.NewProduction()
	}
	if opts.Service != "" {
		l = l.With(zap.String("service", opts.Service))
	}
	return l
}

// ParseLevel converts a level name to a zapcore.Level.
func ParseLevel(lvl string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// RecordName is the record set name field.
func RecordName(v string) zap.Field {
	return zap.String("record_name", v)
}

// RecordType is the record set type field.
func RecordType(v string) zap.Field {
	return zap.String("record_type", v)
}

// Action is the change action field.
func Action(v string) zap.Field {
	return zap.String("action", v)
}

// SetIdentifier is the routing set identifier field.
func SetIdentifier(v string) zap.Field {
	return zap.String("set_identifier", v)
}

// HostedZone is the target hosted zone field.
func HostedZone(v string) zap.Field {
	return zap.String("hosted_zone_id", v)
}

// ChangeID is the provider change identifier field.
func ChangeID(v string) zap.Field {
	return zap.String("change_id", v)
}

// Reason is a decision reason field.
func Reason(v string) zap.Field {
	return zap.String("reason", v)
}
