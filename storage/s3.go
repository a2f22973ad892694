package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/reelhub/reelhub/config"
)

// S3 stores objects in an S3-compatible object store (AWS S3, MinIO).
type S3 struct {
	client       *s3.Client
	endpoint     string
	region       string
	usePathStyle bool
}

// NewS3 builds an S3 storage backend from application configuration.
// Static credentials are used when provided; otherwise the default chain applies.
func NewS3(cfg config.AppConfig) (*S3, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.S3Region),
	}
	if cfg.S3AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		}
		o.UsePathStyle = cfg.S3UsePathStyle
	})

	return &S3{
		client:       client,
		endpoint:     strings.TrimRight(cfg.S3Endpoint, "/"),
		region:       cfg.S3Region,
		usePathStyle: cfg.S3UsePathStyle,
	}, nil
}

// Download returns the object bytes.
func (s *S3) Download(ctx context.Context, bucket, path string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		return nil, fmt.Errorf("get object %s/%s: %w", bucket, path, err)
	}
	defer out.Body.Close()

	b, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read object body %s/%s: %w", bucket, path, err)
	}
	return b, nil
}

// Upload writes the object with upsert semantics and returns its public URL.
func (s *S3) Upload(ctx context.Context, bucket, path string, data []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(path),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put object %s/%s: %w", bucket, path, err)
	}
	return s.publicURL(bucket, path), nil
}

func (s *S3) publicURL(bucket, path string) string {
	if s.endpoint != "" {
		if s.usePathStyle {
			return fmt.Sprintf("%s/%s/%s", s.endpoint, bucket, path)
		}
		// virtual-hosted style against a custom endpoint
		scheme, host, found := strings.Cut(s.endpoint, "://")
		if found {
			return fmt.Sprintf("%s://%s.%s/%s", scheme, bucket, host, path)
		}
		return fmt.Sprintf("%s/%s/%s", s.endpoint, bucket, path)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, s.region, path)
}
