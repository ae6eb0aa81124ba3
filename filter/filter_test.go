package filter

import (
	"testing"

	"github.com/gurre/route53-org-sync/recordset"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func change(name, setID string) recordset.Change {
	return recordset.Change{
		Action:        recordset.ActionCreate,
		Name:          name,
		Type:          "A",
		SetIdentifier: setID,
		AliasTarget: &recordset.AliasTarget{
			HostedZoneID: "Z35SXDOTRQ7X7K",
			DNSName:      "dualstack.test-alb.us-east-1.elb.amazonaws.com.",
		},
	}
}

func newObserved(halt bool, domain string) (*Filter, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return New(halt, domain, zap.New(core)), logs
}

func TestDecide(t *testing.T) {
	testCases := []struct {
		name   string
		halt   bool
		domain string
		change recordset.Change
		want   Decision
		level  zapcore.Level
	}{
		{
			name:   "accepted without filter",
			change: change("test.api.test.io.", ""),
			want:   Decision{Accept: true, Reason: ReasonAccepted},
		},
		{
			name:   "accepted with filter",
			domain: "api.test.io",
			change: change("test.api.test.io.", ""),
			want:   Decision{Accept: true, Reason: ReasonAccepted},
		},
		{
			name:   "accepted with dotted filter",
			domain: "api.test.io.",
			change: change("test.api.test.io.", ""),
			want:   Decision{Accept: true, Reason: ReasonAccepted},
		},
		{
			name:   "accepted Simple set identifier",
			domain: "api.test.io",
			change: change("test.api.test.io.", "Simple"),
			want:   Decision{Accept: true, Reason: ReasonAccepted},
		},
		{
			name:   "halted",
			halt:   true,
			change: change("test.api.test.io.", ""),
			want:   Decision{Reason: ReasonHalted},
			level:  zapcore.InfoLevel,
		},
		{
			name:   "halt wins over domain mismatch",
			halt:   true,
			domain: "api.test.io",
			change: change("test-url.not.an.api", "us-east-1"),
			want:   Decision{Reason: ReasonHalted},
			level:  zapcore.InfoLevel,
		},
		{
			name:   "domain mismatch",
			domain: "api.test.io",
			change: change("test-url.not.an.api", ""),
			want:   Decision{Reason: ReasonDomain},
			level:  zapcore.InfoLevel,
		},
		{
			name:   "domain wins over set identifier",
			domain: "api.test.io",
			change: change("test-url.not.an.api", "us-east-1"),
			want:   Decision{Reason: ReasonDomain},
			level:  zapcore.InfoLevel,
		},
		{
			name:   "regional set identifier",
			domain: "api.test.io",
			change: change("regional.api.test.io.", "us-east-1"),
			want:   Decision{Reason: ReasonSetIdentifier},
			level:  zapcore.WarnLevel,
		},
		{
			name:   "set identifier is case sensitive",
			change: change("regional.api.test.io.", "simple"),
			want:   Decision{Reason: ReasonSetIdentifier},
			level:  zapcore.WarnLevel,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f, logs := newObserved(tc.halt, tc.domain)
			got := f.Decide(tc.change)
			if got != tc.want {
				t.Fatalf("expected %+v, got %+v", tc.want, got)
			}

			if tc.want.Accept {
				if logs.Len() != 0 {
					t.Errorf("expected no log entries for accepted change, got %d", logs.Len())
				}
				return
			}
			entries := logs.All()
			if len(entries) != 1 {
				t.Fatalf("expected 1 log entry, got %d", len(entries))
			}
			if entries[0].Level != tc.level {
				t.Errorf("expected %v log, got %v", tc.level, entries[0].Level)
			}
		})
	}
}

func TestMatchesDomain(t *testing.T) {
	testCases := []struct {
		name, domain string
		want         bool
	}{
		{"test.api.test.io.", "api.test.io", true},
		{"test.api.test.io", "api.test.io", true},
		{"test.api.test.io.", "api.test.io.", true},
		{"test.api.test.io", "api.test.io.", false},
		{"test-url.not.an.api", "api.test.io", false},
		{"api.test.io.evil.com.", "api.test.io", false},
	}

	for _, tc := range testCases {
		if got := MatchesDomain(tc.name, tc.domain); got != tc.want {
			t.Errorf("MatchesDomain(%q, %q) = %v, want %v", tc.name, tc.domain, got, tc.want)
		}
	}
}

func TestNewNilLogger(t *testing.T) {
	f := New(false, "", nil)
	if d := f.Decide(change("test.api.test.io.", "")); !d.Accept {
		t.Errorf("expected accept, got %+v", d)
	}
}
