// Package aws defines the narrow AWS service surfaces the replicator depends on.
// Every interface is satisfied by the corresponding SDK client so production code
// can pass SDK clients directly while tests pass in-memory fakes.
package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// Route53Client defines the Route53 operations used against the target hosted zone.
// GetChange backs the ResourceRecordSetsChanged waiter.
type Route53Client interface {
	ChangeResourceRecordSets(ctx context.Context, params *route53.ChangeResourceRecordSetsInput, optFns ...func(*route53.Options)) (*route53.ChangeResourceRecordSetsOutput, error)
	ListResourceRecordSets(ctx context.Context, params *route53.ListResourceRecordSetsInput, optFns ...func(*route53.Options)) (*route53.ListResourceRecordSetsOutput, error)
	GetChange(ctx context.Context, params *route53.GetChangeInput, optFns ...func(*route53.Options)) (*route53.GetChangeOutput, error)
}

// STSClient defines the role assumption operation used to reach the target account.
type STSClient interface {
	AssumeRole(ctx context.Context, params *sts.AssumeRoleInput, optFns ...func(*sts.Options)) (*sts.AssumeRoleOutput, error)
}

// IAMClient defines the policy simulation used by the assume-role preflight.
type IAMClient interface {
	SimulatePrincipalPolicy(ctx context.Context, params *iam.SimulatePrincipalPolicyInput, optFns ...func(*iam.Options)) (*iam.SimulatePrincipalPolicyOutput, error)
}

// S3Client defines the object write used to publish invocation reports.
type S3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Compile-time interface checks to ensure implementations satisfy interfaces
var (
	_ Route53Client = (*Route53ClientImpl)(nil)
	_ STSClient     = (*STSClientImpl)(nil)
	_ IAMClient     = (*IAMClientImpl)(nil)
	_ S3Client      = (*S3ClientImpl)(nil)

	// AWS SDK interface checks to ensure SDK clients satisfy interfaces
	_ Route53Client = (*route53.Client)(nil)
	_ STSClient     = (*sts.Client)(nil)
	_ IAMClient     = (*iam.Client)(nil)
	_ S3Client      = (*s3.Client)(nil)

	// The propagation waiter only needs GetChange
	_ route53.GetChangeAPIClient = (Route53Client)(nil)
)
