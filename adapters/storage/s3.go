package storage

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/Skryldev/image-filter/core"
	apperrors "github.com/Skryldev/image-filter/errors"
)

// S3Client defines the minimal object-store interface used by the adapter.
// Inject an aws-sdk-go-v2 (or MinIO) client wrapper in production.
type S3Client interface {
	PutObject(ctx context.Context, bucket, key string, body io.Reader, meta map[string]string) error
	HeadObject(ctx context.Context, bucket, key string) (bool, error)
}

// S3 is the StorageAdapter backed by an S3-compatible store.  A key's Bucket
// field is used as an object prefix inside the configured bucket.
type S3 struct {
	client S3Client
	bucket string
}

// NewS3 creates an S3 adapter.  client must not be nil.
func NewS3(client S3Client, bucket string) (*S3, error) {
	if client == nil {
		return nil, fmt.Errorf("s3 storage: client must not be nil")
	}
	if bucket == "" {
		return nil, fmt.Errorf("s3 storage: bucket must not be empty")
	}
	return &S3{client: client, bucket: bucket}, nil
}

func (s *S3) objectKey(key core.StorageKey) string {
	return path.Join(key.Bucket, key.Path)
}

func (s *S3) Put(ctx context.Context, key core.StorageKey, r io.Reader, meta map[string]string) error {
	if err := ctx.Err(); err != nil {
		return apperrors.Wrap(apperrors.UnableToSave, "s3.put", err)
	}
	if err := s.client.PutObject(ctx, s.bucket, s.objectKey(key), r, meta); err != nil {
		return apperrors.Wrap(apperrors.UnableToSave, "s3.put", err)
	}
	return nil
}

// Location returns the object key inside the configured bucket.
func (s *S3) Location(key core.StorageKey) string { return s.objectKey(key) }

func (s *S3) Exists(ctx context.Context, key core.StorageKey) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return s.client.HeadObject(ctx, s.bucket, s.objectKey(key))
}

var _ core.StorageAdapter = (*S3)(nil)
