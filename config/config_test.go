package config

import (
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		DestHostedZoneID: "Z0123456789ABC",
		AssumeRoleARN:    "arn:aws:iam::111111111111:role/route53-sync",
		SessionName:      DefaultSessionName,
		SessionDuration:  DefaultSessionDuration,
		WaitDelay:        DefaultWaitDelay,
		WaitMaxAttempts:  DefaultWaitMaxAttempts,
		LogLevel:         DefaultLogLevel,
	}
}

func envOf(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestValidConfig(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config to pass validation, got: %v", err)
	}
}

func TestMissingHostedZone(t *testing.T) {
	cfg := validConfig()
	cfg.DestHostedZoneID = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing hosted zone id")
	}
}

func TestMissingAssumeRoleARN(t *testing.T) {
	cfg := validConfig()
	cfg.AssumeRoleARN = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing assume role ARN")
	}
}

func TestInvalidAssumeRoleARN(t *testing.T) {
	cfg := validConfig()
	cfg.AssumeRoleARN = "role/route53-sync"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for ARN without arn: prefix")
	}
}

func TestInvalidSessionDuration(t *testing.T) {
	testCases := []time.Duration{0, time.Minute, 14 * time.Minute, 13 * time.Hour}
	for _, d := range testCases {
		t.Run(d.String(), func(t *testing.T) {
			cfg := validConfig()
			cfg.SessionDuration = d
			if err := cfg.Validate(); err == nil {
				t.Errorf("expected error for session duration %v", d)
			}
		})
	}
}

func TestInvalidWaitSettings(t *testing.T) {
	cfg := validConfig()
	cfg.WaitDelay = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero wait delay")
	}

	cfg = validConfig()
	cfg.WaitMaxAttempts = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero wait attempts")
	}
}

func TestInvalidLogLevel(t *testing.T) {
	for _, level := range []string{"", "trace", "INFO"} {
		t.Run(level, func(t *testing.T) {
			cfg := validConfig()
			cfg.LogLevel = level
			if err := cfg.Validate(); err == nil {
				t.Errorf("expected error for log level %q", level)
			}
		})
	}
}

func TestReportURI(t *testing.T) {
	testCases := []struct {
		uri   string
		valid bool
	}{
		{"", true},
		{"s3://bucket/reports/run.json", true},
		{"file:///tmp/report.json", true},
		{"https://bucket/report", false},
		{"bucket/report", false},
	}

	for _, tc := range testCases {
		t.Run(tc.uri, func(t *testing.T) {
			cfg := validConfig()
			cfg.ReportURI = tc.uri
			err := cfg.Validate()
			if tc.valid && err != nil {
				t.Errorf("expected %q to pass, got: %v", tc.uri, err)
			}
			if !tc.valid && err == nil {
				t.Errorf("expected error for report URI %q", tc.uri)
			}
		})
	}
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(envOf(map[string]string{
		EnvDestHostedZone: "/hostedzone/Z0123456789ABC",
		EnvAssumeRoleARN:  "arn:aws:iam::111111111111:role/route53-sync",
	}))
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got: %v", err)
	}

	if cfg.DestHostedZoneID != "Z0123456789ABC" {
		t.Errorf("expected hosted zone prefix to be stripped, got %q", cfg.DestHostedZoneID)
	}
	if cfg.HaltProcessing {
		t.Error("expected halt flag to default to false")
	}
	if cfg.SessionName != "SyncRole" {
		t.Errorf("expected session name SyncRole, got %q", cfg.SessionName)
	}
	if cfg.SessionDuration != 900*time.Second {
		t.Errorf("expected 900s session, got %v", cfg.SessionDuration)
	}
	if cfg.MaxWait() != 10*time.Minute {
		t.Errorf("expected 10m wait ceiling, got %v", cfg.MaxWait())
	}
}

func TestFromEnvHaltFlag(t *testing.T) {
	testCases := []struct {
		value string
		want  bool
	}{
		{"1", true},
		{"true", true},
		{"0", false},
		{"false", false},
		{"", false},
	}

	for _, tc := range testCases {
		t.Run(tc.value, func(t *testing.T) {
			cfg, err := FromEnv(envOf(map[string]string{EnvHaltProcessing: tc.value}))
			if err != nil {
				t.Fatalf("FromEnv failed: %v", err)
			}
			if cfg.HaltProcessing != tc.want {
				t.Errorf("halt %q: expected %v, got %v", tc.value, tc.want, cfg.HaltProcessing)
			}
		})
	}
}

func TestFromEnvInvalidValues(t *testing.T) {
	testCases := []struct {
		name string
		env  map[string]string
	}{
		{"halt", map[string]string{EnvHaltProcessing: "yes please"}},
		{"duration", map[string]string{EnvSessionDuration: "forever"}},
		{"delay", map[string]string{EnvWaitDelay: "soon"}},
		{"attempts", map[string]string{EnvWaitMaxAttempts: "many"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := FromEnv(envOf(tc.env)); err == nil {
				t.Errorf("expected error for %v", tc.env)
			}
		})
	}
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(envOf(map[string]string{
		EnvDomainFilter:    "api.test.io",
		EnvSessionName:     "OrgSync",
		EnvSessionDuration: "1h",
		EnvWaitDelay:       "5",
		EnvWaitMaxAttempts: "3",
		EnvLogLevel:        "DEBUG",
		EnvRegion:          "us-east-1",
	}))
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}

	if cfg.DomainFilter != "api.test.io" {
		t.Errorf("unexpected domain filter %q", cfg.DomainFilter)
	}
	if cfg.SessionName != "OrgSync" {
		t.Errorf("unexpected session name %q", cfg.SessionName)
	}
	if cfg.SessionDuration != time.Hour {
		t.Errorf("unexpected session duration %v", cfg.SessionDuration)
	}
	if cfg.WaitDelay != 5*time.Second {
		t.Errorf("expected bare number to be seconds, got %v", cfg.WaitDelay)
	}
	if cfg.WaitMaxAttempts != 3 {
		t.Errorf("unexpected wait attempts %d", cfg.WaitMaxAttempts)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected lowercased log level, got %q", cfg.LogLevel)
	}
	if cfg.Region != "us-east-1" {
		t.Errorf("unexpected region %q", cfg.Region)
	}
}
