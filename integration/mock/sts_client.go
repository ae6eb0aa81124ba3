package mock

import (
	"context"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/aws-sdk-go-v2/service/sts/types"
)

// STSClient is a mock implementation of aws.STSClient that issues fixed
// session credentials and records every request.
type STSClient struct {
	mu sync.Mutex

	// Requests holds every AssumeRole input in order
	Requests []*sts.AssumeRoleInput
	// Err, when set, is returned instead of credentials
	Err error
}

// NewSTSClient creates a mock STS client.
func NewSTSClient() *STSClient {
	return &STSClient{}
}

func (m *STSClient) AssumeRole(ctx context.Context, params *sts.AssumeRoleInput, optFns ...func(*sts.Options)) (*sts.AssumeRoleOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests = append(m.Requests, params)

	if m.Err != nil {
		return nil, m.Err
	}
	expires := time.Now().Add(time.Duration(aws.ToInt32(params.DurationSeconds)) * time.Second)
	return &sts.AssumeRoleOutput{
		Credentials: &types.Credentials{
			AccessKeyId:     aws.String("ASIAMOCKACCESSKEY"),
			SecretAccessKey: aws.String("mock-secret"),
			SessionToken:    aws.String("mock-session-token"),
			Expiration:      &expires,
		},
	}, nil
}
