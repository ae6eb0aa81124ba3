// Package report publishes invocation reports to S3, the local filesystem
// or memory.
package report

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	json "github.com/goccy/go-json"
	"github.com/gurre/route53-org-sync/aws"
	"github.com/gurre/route53-org-sync/metrics"
)

// Sink receives the report of one invocation.
// Example:
//
//	sink, err := report.NewSink("s3://my-bucket/route53-sync/last.json", s3Client)
//	if err != nil {
//	    return err
//	}
//	err = sink.Write(ctx, m.GenerateReport())
type Sink interface {
	Write(ctx context.Context, r metrics.Report) error
}

// NewSink returns the sink for uri: s3:// writes through client, file://
// writes locally. An empty uri returns nil.
func NewSink(uri string, client aws.S3Client) (Sink, error) {
	if uri == "" {
		return nil, nil
	}
	switch {
	case strings.HasPrefix(uri, "s3://"):
		return NewS3Sink(client, uri)
	case strings.HasPrefix(uri, "file://"):
		return NewFileSink(uri)
	default:
		return nil, fmt.Errorf("unsupported report URI: %s", uri)
	}
}

// S3Sink implements the Sink interface using AWS S3.
type S3Sink struct {
	client aws.S3Client
	bucket string
	key    string
}

// NewS3Sink creates a new S3Sink instance from an S3 URI.
func NewS3Sink(client aws.S3Client, uri string) (*S3Sink, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid S3 URI: %w", err)
	}
	if u.Scheme != "s3" {
		return nil, fmt.Errorf("invalid S3 URI scheme: %s", u.Scheme)
	}
	if client == nil {
		return nil, fmt.Errorf("S3 client is required for %s", uri)
	}

	key := strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return nil, fmt.Errorf("S3 URI must name a bucket and key: %s", uri)
	}

	return &S3Sink{
		client: client,
		bucket: u.Host,
		key:    key,
	}, nil
}

// Write uploads the report as JSON.
func (s *S3Sink) Write(ctx context.Context, r metrics.Report) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	contentType := "application/json"
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         &s.key,
		Body:        bytes.NewReader(data),
		ContentType: &contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload report: %w", err)
	}

	return nil
}

// FileSink implements the Sink interface using the local filesystem.
type FileSink struct {
	path string
}

// NewFileSink creates a new FileSink instance from a file URI.
// The path must be absolute and is cleaned to prevent path traversal attacks.
func NewFileSink(uri string) (*FileSink, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid file URI: %w", err)
	}
	if u.Scheme != "file" {
		return nil, fmt.Errorf("invalid file URI scheme: %s", u.Scheme)
	}

	cleanPath := filepath.Clean(u.Path)
	if !filepath.IsAbs(cleanPath) {
		return nil, fmt.Errorf("report path must be absolute: %s", cleanPath)
	}

	if err := os.MkdirAll(filepath.Dir(cleanPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	return &FileSink{path: cleanPath}, nil
}

// Write writes the report as indented JSON, replacing any previous report.
func (f *FileSink) Write(ctx context.Context, r metrics.Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	if err := os.WriteFile(f.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}

	return nil
}
