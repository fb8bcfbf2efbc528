package minioStore

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/clinicore/docrag/internal/config"
	"github.com/clinicore/docrag/pkg/logger_i"
)

type Store struct {
	client     *minio.Client
	bucketName string
	logger     *logger_i.Logger
}

func Open(ctx context.Context) (*Store, error) {
	client, err := minio.New(config.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.MinioAccess, config.MinioSecret, ""),
		Secure: config.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, config.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, config.MinioBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	logger := logger_i.NewLogger("Minio Store")
	logger.Info("Minio connection established", "endpoint", config.MinioEndpoint, "bucket", config.MinioBucket)

	return &Store{
		client:     client,
		bucketName: config.MinioBucket,
		logger:     logger,
	}, nil
}

func (s *Store) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucketName, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		s.logger.Error("Failed to store object", "key", key, "error", err)
		return fmt.Errorf("failed to store object: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		s.logger.Error("Failed to get object", "key", key, "error", err)
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	return obj, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucketName, key, minio.RemoveObjectOptions{}); err != nil {
		s.logger.Error("Failed to delete object", "key", key, "error", err)
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}
