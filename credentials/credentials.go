// Package credentials obtains short-lived credentials for the target
// account by assuming the configured role, once per invocation.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	sdkcreds "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/gurre/route53-org-sync/aws"
	"go.uber.org/zap"
)

// ActionAssumeRole is the IAM action checked by CheckAssumeRole.
const ActionAssumeRole = "sts:AssumeRole"

var (
	// ErrAssumeRole wraps every failure to obtain target account credentials.
	ErrAssumeRole = errors.New("failed to assume role")

	// ErrAssumeRoleDenied is returned by CheckAssumeRole when the principal
	// is not allowed to assume the role.
	ErrAssumeRoleDenied = errors.New("assume role is not allowed")
)

// Provider assumes a role in the target account. Credentials are never
// cached: every Assume call asks STS for a fresh session.
type Provider struct {
	client      aws.STSClient
	roleARN     string
	sessionName string
	duration    time.Duration
	log         *zap.Logger
}

// NewProvider creates a Provider for roleARN.
func NewProvider(client aws.STSClient, roleARN, sessionName string, duration time.Duration, log *zap.Logger) *Provider {
	if log == nil {
		log = zap.NewNop()
	}
	return &Provider{
		client:      client,
		roleARN:     roleARN,
		sessionName: sessionName,
		duration:    duration,
		log:         log.Named("credentials"),
	}
}

// Assume returns temporary credentials for the configured role.
func (p *Provider) Assume(ctx context.Context) (awssdk.Credentials, error) {
	out, err := p.client.AssumeRole(ctx, &sts.AssumeRoleInput{
		RoleArn:         awssdk.String(p.roleARN),
		RoleSessionName: awssdk.String(p.sessionName),
		DurationSeconds: awssdk.Int32(int32(p.duration / time.Second)),
	})
	if err != nil {
		return awssdk.Credentials{}, fmt.Errorf("%w %s: %w", ErrAssumeRole, p.roleARN, err)
	}
	if out.Credentials == nil {
		return awssdk.Credentials{}, fmt.Errorf("%w %s: response carried no credentials", ErrAssumeRole, p.roleARN)
	}

	c := out.Credentials
	creds := awssdk.Credentials{
		AccessKeyID:     awssdk.ToString(c.AccessKeyId),
		SecretAccessKey: awssdk.ToString(c.SecretAccessKey),
		SessionToken:    awssdk.ToString(c.SessionToken),
		Source:          "AssumeRole",
	}
	if c.Expiration != nil {
		creds.CanExpire = true
		creds.Expires = *c.Expiration
	}

	p.log.Debug("assumed role",
		zap.String("role_arn", p.roleARN),
		zap.String("session_name", p.sessionName),
		zap.Time("expires", creds.Expires))
	return creds, nil
}

// NewRoute53Client returns a Route53 client that signs with creds instead
// of the ambient credential chain of cfg.
func NewRoute53Client(cfg awssdk.Config, creds awssdk.Credentials) aws.Route53Client {
	cfg = cfg.Copy()
	cfg.Credentials = sdkcreds.NewStaticCredentialsProvider(creds.AccessKeyID, creds.SecretAccessKey, creds.SessionToken)
	return aws.NewRoute53Client(route53.NewFromConfig(cfg))
}

// CheckAssumeRole simulates principalARN's policies and reports whether it
// may call sts:AssumeRole on roleARN.
func CheckAssumeRole(ctx context.Context, client aws.IAMClient, principalARN, roleARN string) error {
	out, err := client.SimulatePrincipalPolicy(ctx, &iam.SimulatePrincipalPolicyInput{
		PolicySourceArn: awssdk.String(principalARN),
		ActionNames:     []string{ActionAssumeRole},
		ResourceArns:    []string{roleARN},
	})
	if err != nil {
		return fmt.Errorf("failed to simulate policy for %s: %w", principalARN, err)
	}
	if len(out.EvaluationResults) == 0 {
		return fmt.Errorf("%w: no evaluation result for %s", ErrAssumeRoleDenied, principalARN)
	}
	for _, r := range out.EvaluationResults {
		if r.EvalDecision != iamtypes.PolicyEvaluationDecisionTypeAllowed {
			return fmt.Errorf("%w: %s on %s evaluated to %s", ErrAssumeRoleDenied, principalARN, roleARN, r.EvalDecision)
		}
	}
	return nil
}
