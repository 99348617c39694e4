package services

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"cashflow/internal/config"
)

// PhotoStore persists profile photos and returns their public URL.
type PhotoStore interface {
	Put(ctx context.Context, key string, contentType string, body io.Reader) (string, error)
}

type S3PhotoStore struct {
	uploader      *manager.Uploader
	bucket        string
	publicBaseURL string
}

// NewS3PhotoStore returns nil when object storage is not configured.
func NewS3PhotoStore(cfg *config.S3Config) *S3PhotoStore {
	if !cfg.Enabled() {
		return nil
	}
	return &S3PhotoStore{
		uploader:      manager.NewUploader(cfg.Client),
		bucket:        cfg.Bucket,
		publicBaseURL: cfg.PublicBaseURL,
	}
}

func (s *S3PhotoStore) Put(ctx context.Context, key string, contentType string, body io.Reader) (string, error) {
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload photo: %w", err)
	}
	return s.publicBaseURL + "/" + key, nil
}
