package invoice

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ikram-mever-codes/csb-backend/internal/pkg/env"
)

// S3Store keeps rendered invoice documents in an S3-compatible bucket.
type S3Store struct {
	s3Client *s3.Client
	bucket   string
}

// NewS3StoreFromEnv builds the document store from DOCS_S3_* variables.
// Returns an error when the store is not configured; callers fall back
// to the filesystem store in that case.
func NewS3StoreFromEnv() (*S3Store, error) {
	bucket := env.GetEnv("DOCS_S3_BUCKET", "")
	if bucket == "" {
		return nil, fmt.Errorf("document storage is not configured")
	}

	awsConfig, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(env.GetEnv("DOCS_S3_REGION", "us-east-1")),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			env.GetEnv("DOCS_S3_ACCESS_KEY_ID", ""),
			env.GetEnv("DOCS_S3_SECRET_ACCESS_KEY", ""),
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	endpoint := env.GetEnv("DOCS_S3_ENDPOINT_URL", "")
	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
			o.UseAccelerate = false
		}
	})

	store := &S3Store{s3Client: s3Client, bucket: bucket}

	_, err = s3Client.HeadBucket(context.TODO(), &s3.HeadBucketInput{
		Bucket: aws.String(bucket),
	})
	if err != nil {
		return nil, fmt.Errorf("bucket %s not accessible: %w", bucket, err)
	}

	log.Infof("[Invoice] Document store ready, bucket: %s", bucket)
	return store, nil
}

func (s *S3Store) Put(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload document %s: %w", key, err)
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}

// FSStore writes documents under a local directory. Used in development
// and as the fallback when no bucket is configured.
type FSStore struct {
	Dir string
}

func NewFSStore(dir string) *FSStore {
	if dir == "" {
		dir = "./documents"
	}
	return &FSStore{Dir: dir}
}

func (s *FSStore) Put(_ context.Context, key string, body []byte, _ string) (string, error) {
	path := filepath.Join(s.Dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create document directory: %w", err)
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return "", fmt.Errorf("failed to write document %s: %w", path, err)
	}
	return path, nil
}

// NewStoreFromEnv prefers the S3 store and falls back to the filesystem.
func NewStoreFromEnv() Store {
	store, err := NewS3StoreFromEnv()
	if err != nil {
		log.Warnf("[Invoice] Using filesystem document store: %v", err)
		return NewFSStore(env.GetEnv("DOCS_LOCAL_DIR", "./documents"))
	}
	return store
}
