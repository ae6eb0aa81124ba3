// Package main runs the record set replicator, either as an AWS Lambda
// function or locally against a saved event file.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/goccy/go-json"
	"github.com/gurre/route53-org-sync/aws"
	"github.com/gurre/route53-org-sync/config"
	"github.com/gurre/route53-org-sync/credentials"
	"github.com/gurre/route53-org-sync/handler"
	"github.com/gurre/route53-org-sync/logging"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const serviceName = "route53-org-sync"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	fs := flag.NewFlagSet(serviceName, flag.ExitOnError)

	eventFile := fs.String("event", "", "Process a saved EventBridge event file instead of starting the Lambda runtime")
	envFile := fs.String("env-file", "", "Load environment variables from a .env file before running")
	preflight := fs.String("preflight-principal", "", "Check that this IAM principal may assume ASSUME_ROLE_ARN, then exit")

	if err := fs.Parse(os.Args[1:]); err != nil {
		return fmt.Errorf("failed to parse flags: %w", err)
	}

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			return fmt.Errorf("failed to load %s: %w", *envFile, err)
		}
	}

	local := *eventFile != "" || *preflight != ""
	format := logging.FormatJSON
	if local {
		format = logging.FormatConsole
	}
	// Debug here; LOG_LEVEL raises it per invocation.
	log := logging.New(logging.Options{Format: format, Level: "debug", Service: serviceName})
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(os.Getenv(config.EnvRegion)))
	if err != nil {
		return fmt.Errorf("failed to load AWS config: %w", err)
	}

	if *preflight != "" {
		return checkPreflight(ctx, awsCfg, *preflight, log)
	}

	h := &handler.Handler{
		Getenv: os.Getenv,
		STS:    aws.NewSTSClient(sts.NewFromConfig(awsCfg)),
		Route53: func(creds awssdk.Credentials) aws.Route53Client {
			return credentials.NewRoute53Client(awsCfg, creds)
		},
		S3:  aws.NewS3Client(s3.NewFromConfig(awsCfg)),
		Log: log,
	}

	if *eventFile == "" {
		lambda.Start(h.Handle)
		return nil
	}

	payload, err := os.ReadFile(*eventFile)
	if err != nil {
		return fmt.Errorf("failed to read event file: %w", err)
	}
	results, err := h.Handle(ctx, json.RawMessage(payload))
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func checkPreflight(ctx context.Context, awsCfg awssdk.Config, principal string, log *zap.Logger) error {
	roleARN := os.Getenv(config.EnvAssumeRoleARN)
	if roleARN == "" {
		return fmt.Errorf("%s is not set", config.EnvAssumeRoleARN)
	}

	client := aws.NewIAMClient(iam.NewFromConfig(awsCfg))
	if err := credentials.CheckAssumeRole(ctx, client, principal, roleARN); err != nil {
		return err
	}
	log.Info("principal may assume the target role",
		zap.String("principal", principal),
		zap.String("role_arn", roleARN))
	return nil
}
