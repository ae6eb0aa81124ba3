// Package config holds the process-wide settings of one replication invocation.
// Settings are read from the environment on every invocation and passed
// explicitly to the filter and the replication engine.
package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Environment variable names read by FromEnv.
const (
	EnvHaltProcessing  = "HALT_PROCESSING"
	EnvDestHostedZone  = "DEST_HOSTED_ZONE_ID"
	EnvDomainFilter    = "COMPANY_DOMAIN_FILTER"
	EnvAssumeRoleARN   = "ASSUME_ROLE_ARN"
	EnvSessionName     = "ASSUME_ROLE_SESSION_NAME"
	EnvSessionDuration = "ASSUME_ROLE_DURATION"
	EnvWaitDelay       = "CHANGE_WAIT_DELAY"
	EnvWaitMaxAttempts = "CHANGE_WAIT_MAX_ATTEMPTS"
	EnvRegion          = "AWS_REGION"
	EnvLogLevel        = "LOG_LEVEL"
	EnvReportURI       = "REPORT_S3_URI"
)

// Defaults applied by FromEnv when a variable is unset.
const (
	DefaultSessionName     = "SyncRole"
	DefaultSessionDuration = 15 * time.Minute
	DefaultWaitDelay       = 30 * time.Second
	DefaultWaitMaxAttempts = 20
	DefaultLogLevel        = "info"
)

// STS accepts role sessions between 15 minutes and 12 hours.
const (
	minSessionDuration = 15 * time.Minute
	maxSessionDuration = 12 * time.Hour
)

// Config holds all configuration for one invocation.
type Config struct {
	HaltProcessing   bool          // Reject every change when set
	DestHostedZoneID string        // Target hosted zone for all replicated changes
	DomainFilter     string        // Optional name suffix filter, with or without trailing dot
	AssumeRoleARN    string        // Role to assume in the target account
	SessionName      string        // STS role session name
	SessionDuration  time.Duration // STS session lifetime
	WaitDelay        time.Duration // Delay between propagation checks
	WaitMaxAttempts  int           // Propagation checks before giving up
	Region           string        // AWS region, empty uses the SDK default chain
	LogLevel         string        // debug|info|warn|error
	ReportURI        string        // Optional s3:// or file:// report destination
}

// FromEnv builds a Config from getenv (normally os.Getenv).
// It applies defaults and parses typed values but does not validate;
// call Validate before use.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		DestHostedZoneID: strings.TrimPrefix(strings.TrimSpace(getenv(EnvDestHostedZone)), "/hostedzone/"),
		DomainFilter:     strings.TrimSpace(getenv(EnvDomainFilter)),
		AssumeRoleARN:    strings.TrimSpace(getenv(EnvAssumeRoleARN)),
		SessionName:      DefaultSessionName,
		SessionDuration:  DefaultSessionDuration,
		WaitDelay:        DefaultWaitDelay,
		WaitMaxAttempts:  DefaultWaitMaxAttempts,
		Region:           strings.TrimSpace(getenv(EnvRegion)),
		LogLevel:         DefaultLogLevel,
		ReportURI:        strings.TrimSpace(getenv(EnvReportURI)),
	}

	if v := strings.TrimSpace(getenv(EnvHaltProcessing)); v != "" {
		halt, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", EnvHaltProcessing, v, err)
		}
		cfg.HaltProcessing = halt
	}
	if v := strings.TrimSpace(getenv(EnvSessionName)); v != "" {
		cfg.SessionName = v
	}
	if v := strings.TrimSpace(getenv(EnvSessionDuration)); v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", EnvSessionDuration, v, err)
		}
		cfg.SessionDuration = d
	}
	if v := strings.TrimSpace(getenv(EnvWaitDelay)); v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", EnvWaitDelay, v, err)
		}
		cfg.WaitDelay = d
	}
	if v := strings.TrimSpace(getenv(EnvWaitMaxAttempts)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", EnvWaitMaxAttempts, v, err)
		}
		cfg.WaitMaxAttempts = n
	}
	if v := strings.TrimSpace(getenv(EnvLogLevel)); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}

	return cfg, nil
}

// parseDuration accepts Go duration strings or a bare number of seconds.
func parseDuration(v string) (time.Duration, error) {
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(v)
}

// MaxWait returns the propagation wait ceiling (delay × attempts).
func (c *Config) MaxWait() time.Duration {
	return c.WaitDelay * time.Duration(c.WaitMaxAttempts)
}

// Validate ensures all required fields are present and have valid values.
func (c *Config) Validate() error {
	if c.DestHostedZoneID == "" {
		return fmt.Errorf("destination hosted zone id is required")
	}

	if c.AssumeRoleARN == "" {
		return fmt.Errorf("assume role ARN is required")
	}
	if !strings.HasPrefix(c.AssumeRoleARN, "arn:") {
		return fmt.Errorf("assume role ARN must start with arn:")
	}

	if c.SessionName == "" {
		return fmt.Errorf("role session name is required")
	}

	if c.SessionDuration < minSessionDuration || c.SessionDuration > maxSessionDuration {
		return fmt.Errorf("role session duration must be between %s and %s", minSessionDuration, maxSessionDuration)
	}

	if c.WaitDelay < time.Millisecond {
		return fmt.Errorf("change wait delay must be at least 1ms")
	}

	if c.WaitMaxAttempts < 1 {
		return fmt.Errorf("change wait max attempts must be at least 1")
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log level must be one of debug, info, warn, error")
	}

	if c.ReportURI != "" {
		u, err := url.Parse(c.ReportURI)
		if err != nil {
			return fmt.Errorf("invalid report URI: %w", err)
		}
		if u.Scheme != "s3" && u.Scheme != "file" {
			return fmt.Errorf("report URI must use s3 or file scheme")
		}
	}

	return nil
}
