package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// NewS3Client initializes the S3 client from the environment or shared AWS config.
// A custom endpoint switches to path-style addressing for S3-compatible stores.
func NewS3Client(ctx context.Context, cfg StorageConfig) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// PublicReadPolicy returns a bucket policy allowing anonymous reads below the image prefix
func PublicReadPolicy(cfg StorageConfig) string {
	return `{
		"Version": "2012-10-17",
		"Statement": [
			{
				"Sid": "PublicReadGeneratedImages",
				"Effect": "Allow",
				"Principal": "*",
				"Action": "s3:GetObject",
				"Resource": "arn:aws:s3:::` + cfg.Bucket + `/` + cfg.Prefix + `/*"
			}
		]
	}`
}

// ApplyPublicReadPolicy applies PublicReadPolicy to the configured bucket
func ApplyPublicReadPolicy(ctx context.Context, client *s3.Client, cfg StorageConfig) error {
	_, err := client.PutBucketPolicy(ctx, &s3.PutBucketPolicyInput{
		Bucket: aws.String(cfg.Bucket),
		Policy: aws.String(PublicReadPolicy(cfg)),
	})
	if err != nil {
		return fmt.Errorf("failed to apply bucket policy: %w", err)
	}
	return nil
}
