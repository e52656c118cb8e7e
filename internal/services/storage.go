package services

import (
	"context"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sinar-app/sinar-api/internal/config"
	"github.com/sinar-app/sinar-api/internal/media"
)

// ObjectStorage is the object store the services write through. The
// gateway only needs the read half.
type ObjectStorage interface {
	media.ObjectStore
	Upload(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string) error
	Remove(ctx context.Context, bucket, key string) error
}

// Buckets names the two buckets the API writes to.
type Buckets struct {
	Document string
	Report   string
}

func BucketsFromConfig(cfg *config.Config) Buckets {
	return Buckets{Document: cfg.MinIOBucketDocument, Report: cfg.MinIOBucketReport}
}

type StorageService struct {
	client *minio.Client
}

func NewStorageService(ctx context.Context, cfg *config.Config) (*StorageService, error) {
	client, err := minio.New(cfg.MinIOEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIOAccessKey, cfg.MinIOSecretKey, ""),
		Secure: cfg.MinIOUseSSL,
	})
	if err != nil {
		return nil, err
	}

	// Ensure buckets exist
	for _, bucket := range []string{cfg.MinIOBucketDocument, cfg.MinIOBucketReport} {
		exists, err := client.BucketExists(ctx, bucket)
		if err != nil {
			return nil, err
		}
		if !exists {
			if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
				return nil, err
			}
		}
	}

	return &StorageService{client: client}, nil
}

func (s *StorageService) Upload(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

func (s *StorageService) Stat(ctx context.Context, bucket, key string) (media.ObjectInfo, error) {
	info, err := s.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return media.ObjectInfo{}, err
	}
	return media.ObjectInfo{
		Size:         info.Size,
		ContentType:  info.ContentType,
		LastModified: info.LastModified,
	}, nil
}

func (s *StorageService) Open(ctx context.Context, bucket, key string, offset, length int64) (io.ReadCloser, error) {
	opts := minio.GetObjectOptions{}
	if offset > 0 || length >= 0 {
		end := int64(0)
		if length >= 0 {
			end = offset + length - 1
		}
		if err := opts.SetRange(offset, end); err != nil {
			return nil, err
		}
	}
	return s.client.GetObject(ctx, bucket, key, opts)
}

func (s *StorageService) Remove(ctx context.Context, bucket, key string) error {
	return s.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{})
}
