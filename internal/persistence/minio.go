package persistence

import (
	"context"
	"errors"
	"io"
	"net/url"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/config"
)

// ObjectStore wraps the MinIO client holding complaint photo evidence.
type ObjectStore struct {
	Client *minio.Client
	Bucket string
	cfg    config.MinioConfig
}

// NewObjectStore connects to MinIO and ensures the attachment bucket exists.
// Connection problems are logged, not fatal; uploads will fail until the
// store becomes reachable.
func NewObjectStore(ctx context.Context, cfg config.MinioConfig, logger *zap.Logger) (*ObjectStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, err
	}

	store := &ObjectStore{Client: client, Bucket: cfg.Bucket, cfg: cfg}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		logger.Warn("unable to reach object store", zap.Error(err))
		return store, nil
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			logger.Warn("unable to create attachment bucket", zap.String("bucket", cfg.Bucket), zap.Error(err))
			return store, nil
		}
		logger.Info("created attachment bucket", zap.String("bucket", cfg.Bucket))
	}

	logger.Info("connected to object store", zap.String("bucket", cfg.Bucket))
	return store, nil
}

// Put streams an object into the attachment bucket.
func (s *ObjectStore) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	if s == nil || s.Client == nil {
		return errors.New("object store not configured")
	}
	_, err := s.Client.PutObject(ctx, s.Bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

// Get opens an object for reading. The caller closes it.
func (s *ObjectStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if s == nil || s.Client == nil {
		return nil, errors.New("object store not configured")
	}
	return s.Client.GetObject(ctx, s.Bucket, key, minio.GetObjectOptions{})
}

// PresignedGet returns a time-limited download URL with a download filename.
func (s *ObjectStore) PresignedGet(ctx context.Context, key, fileName string) (*url.URL, error) {
	if s == nil || s.Client == nil {
		return nil, errors.New("object store not configured")
	}
	params := make(url.Values)
	if fileName != "" {
		params.Set("response-content-disposition", `attachment; filename="`+fileName+`"`)
	}
	return s.Client.PresignedGetObject(ctx, s.Bucket, key, s.cfg.PresignTTL(), params)
}

// Remove deletes an object.
func (s *ObjectStore) Remove(ctx context.Context, key string) error {
	if s == nil || s.Client == nil {
		return errors.New("object store not configured")
	}
	return s.Client.RemoveObject(ctx, s.Bucket, key, minio.RemoveObjectOptions{})
}

// Ping verifies object store connectivity.
func (s *ObjectStore) Ping(ctx context.Context) error {
	if s == nil || s.Client == nil {
		return errors.New("object store not configured")
	}
	_, err := s.Client.BucketExists(ctx, s.Bucket)
	return err
}
