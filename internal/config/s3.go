// internal/config/s3.go
package config

import (
	"context"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config holds the object storage settings used for profile photos.
type S3Config struct {
	Client        *s3.Client
	Bucket        string
	PublicBaseURL string
}

// Enabled reports whether photo uploads can be served.
func (c *S3Config) Enabled() bool {
	return c != nil && c.Client != nil && c.Bucket != ""
}

// NewS3Config creates a new S3 configuration. It returns a disabled config
// (nil client) when no bucket is configured.
func NewS3Config(ctx context.Context) (*S3Config, error) {
	bucket := os.Getenv("S3_BUCKET_NAME")
	if bucket == "" {
		return &S3Config{}, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(getEnv("AWS_REGION", "us-east-1")),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			os.Getenv("AWS_ACCESS_KEY_ID"),
			os.Getenv("AWS_SECRET_ACCESS_KEY"),
			"",
		)),
	)
	if err != nil {
		return nil, err
	}

	endpoint := os.Getenv("S3_ENDPOINT")
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	publicBaseURL := strings.TrimRight(os.Getenv("S3_PUBLIC_BASE_URL"), "/")
	if publicBaseURL == "" {
		publicBaseURL = "https://" + bucket + ".s3." + cfg.Region + ".amazonaws.com"
	}

	return &S3Config{
		Client:        client,
		Bucket:        bucket,
		PublicBaseURL: publicBaseURL,
	}, nil
}
