package mock

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Client is a mock implementation of aws.S3Client interface for testing
type S3Client struct {
	mu sync.Mutex

	// Maps bucket/key to object content
	Objects map[string][]byte
	// Maps bucket/key to content type
	ContentTypes map[string]string
}

// NewS3Client creates a new mock S3 client
func NewS3Client() *S3Client {
	return &S3Client{
		Objects:      make(map[string][]byte),
		ContentTypes: make(map[string]string),
	}
}

func (m *S3Client) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	key := aws.ToString(params.Bucket) + "/" + aws.ToString(params.Key)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Objects[key] = data
	m.ContentTypes[key] = aws.ToString(params.ContentType)
	return &s3.PutObjectOutput{}, nil
}

// Object returns the stored content for bucket and key.
func (m *S3Client) Object(bucket, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.Objects[bucket+"/"+key]
	return data, ok
}
