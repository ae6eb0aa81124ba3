package credentials

import (
	"context"
	"errors"
	"testing"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	ststypes "github.com/aws/aws-sdk-go-v2/service/sts/types"
)

type mockSTSClient struct {
	inputs []*sts.AssumeRoleInput
	out    *sts.AssumeRoleOutput
	err    error
}

func (m *mockSTSClient) AssumeRole(ctx context.Context, params *sts.AssumeRoleInput, optFns ...func(*sts.Options)) (*sts.AssumeRoleOutput, error) {
	m.inputs = append(m.inputs, params)
	if m.err != nil {
		return nil, m.err
	}
	return m.out, nil
}

type mockIAMClient struct {
	input *iam.SimulatePrincipalPolicyInput
	out   *iam.SimulatePrincipalPolicyOutput
	err   error
}

func (m *mockIAMClient) SimulatePrincipalPolicy(ctx context.Context, params *iam.SimulatePrincipalPolicyInput, optFns ...func(*iam.Options)) (*iam.SimulatePrincipalPolicyOutput, error) {
	m.input = params
	return m.out, m.err
}

const testRole = "arn:aws:iam::111111111111:role/route53-sync"

func TestAssume(t *testing.T) {
	expires := time.Date(2026, 1, 1, 0, 15, 0, 0, time.UTC)
	client := &mockSTSClient{out: &sts.AssumeRoleOutput{Credentials: &ststypes.Credentials{
		AccessKeyId:     awssdk.String("AKIA"),
		SecretAccessKey: awssdk.String("secret"),
		SessionToken:    awssdk.String("token"),
		Expiration:      &expires,
	}}}

	p := NewProvider(client, testRole, "SyncRole", 15*time.Minute, nil)
	creds, err := p.Assume(context.Background())
	if err != nil {
		t.Fatalf("Assume failed: %v", err)
	}
	if creds.AccessKeyID != "AKIA" || creds.SecretAccessKey != "secret" || creds.SessionToken != "token" {
		t.Errorf("unexpected credentials %+v", creds)
	}
	if !creds.CanExpire || !creds.Expires.Equal(expires) {
		t.Errorf("expected expiry %v, got %v", expires, creds.Expires)
	}

	in := client.inputs[0]
	if awssdk.ToString(in.RoleArn) != testRole {
		t.Errorf("expected role %s, got %s", testRole, awssdk.ToString(in.RoleArn))
	}
	if awssdk.ToString(in.RoleSessionName) != "SyncRole" {
		t.Errorf("expected session SyncRole, got %s", awssdk.ToString(in.RoleSessionName))
	}
	if awssdk.ToInt32(in.DurationSeconds) != 900 {
		t.Errorf("expected 900 seconds, got %d", awssdk.ToInt32(in.DurationSeconds))
	}
}

func TestAssumeIsNotCached(t *testing.T) {
	client := &mockSTSClient{out: &sts.AssumeRoleOutput{Credentials: &ststypes.Credentials{
		AccessKeyId: awssdk.String("AKIA"),
	}}}
	p := NewProvider(client, testRole, "SyncRole", 15*time.Minute, nil)

	for i := 0; i < 3; i++ {
		if _, err := p.Assume(context.Background()); err != nil {
			t.Fatalf("Assume failed: %v", err)
		}
	}
	if len(client.inputs) != 3 {
		t.Errorf("expected 3 AssumeRole calls, got %d", len(client.inputs))
	}
}

func TestAssumeErrors(t *testing.T) {
	denied := errors.New("AccessDenied")
	tests := []struct {
		name   string
		client *mockSTSClient
	}{
		{"provider error", &mockSTSClient{err: denied}},
		{"no credentials", &mockSTSClient{out: &sts.AssumeRoleOutput{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProvider(tt.client, testRole, "SyncRole", 15*time.Minute, nil).Assume(context.Background())
			if !errors.Is(err, ErrAssumeRole) {
				t.Fatalf("expected ErrAssumeRole, got %v", err)
			}
			if tt.client.err != nil && !errors.Is(err, tt.client.err) {
				t.Errorf("expected the provider error to stay reachable, got %v", err)
			}
		})
	}
}

func TestNewRoute53Client(t *testing.T) {
	creds := awssdk.Credentials{AccessKeyID: "AKIA", SecretAccessKey: "secret", SessionToken: "token"}
	if NewRoute53Client(awssdk.Config{Region: "us-east-1"}, creds) == nil {
		t.Fatal("expected a client")
	}
}

func TestCheckAssumeRole(t *testing.T) {
	principal := "arn:aws:iam::222222222222:role/lambda"
	tests := []struct {
		name    string
		client  *mockIAMClient
		wantErr bool
		denied  bool
	}{
		{
			name: "allowed",
			client: &mockIAMClient{out: &iam.SimulatePrincipalPolicyOutput{EvaluationResults: []iamtypes.EvaluationResult{
				{EvalActionName: awssdk.String(ActionAssumeRole), EvalDecision: iamtypes.PolicyEvaluationDecisionTypeAllowed},
			}}},
		},
		{
			name: "implicit deny",
			client: &mockIAMClient{out: &iam.SimulatePrincipalPolicyOutput{EvaluationResults: []iamtypes.EvaluationResult{
				{EvalActionName: awssdk.String(ActionAssumeRole), EvalDecision: iamtypes.PolicyEvaluationDecisionTypeImplicitDeny},
			}}},
			wantErr: true,
			denied:  true,
		},
		{
			name:    "no results",
			client:  &mockIAMClient{out: &iam.SimulatePrincipalPolicyOutput{}},
			wantErr: true,
			denied:  true,
		},
		{
			name:    "provider error",
			client:  &mockIAMClient{err: errors.New("NoSuchEntity")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckAssumeRole(context.Background(), tt.client, principal, testRole)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CheckAssumeRole() error = %v, wantErr %v", err, tt.wantErr)
			}
			if errors.Is(err, ErrAssumeRoleDenied) != tt.denied {
				t.Errorf("expected denied=%v, got %v", tt.denied, err)
			}
			if tt.client.input == nil || tt.client.input.ActionNames[0] != ActionAssumeRole {
				t.Error("expected sts:AssumeRole to be simulated")
			}
		})
	}
}
