// Package storage holds the object store used for generated podcast audio.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStore stores generated audio artifacts and hands out time-limited
// retrieval URLs.
type ObjectStore interface {
	PutAudio(ctx context.Context, key string, audio []byte) error
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// MinioStore implements ObjectStore on any S3-compatible endpoint.
type MinioStore struct {
	client *minio.Client
	bucket string
}

// NewMinioStore connects to the endpoint and ensures the bucket exists.
func NewMinioStore(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinioStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init object store client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}
	return &MinioStore{client: client, bucket: bucket}, nil
}

// PutAudio uploads an MP3 object. Audio files never change once written, so
// they are cached aggressively.
func (m *MinioStore) PutAudio(ctx context.Context, key string, audio []byte) error {
	_, err := m.client.PutObject(ctx, m.bucket, key,
		bytes.NewReader(audio), int64(len(audio)),
		minio.PutObjectOptions{
			ContentType:  "audio/mpeg",
			CacheControl: "max-age=31536000",
		})
	if err != nil {
		return fmt.Errorf("put audio object: %w", err)
	}
	return nil
}

// PresignGet generates a pre-signed GET URL for a stored object.
func (m *MinioStore) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	url, err := m.client.PresignedGetObject(ctx, m.bucket, key, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("presign get: %w", err)
	}
	return url.String(), nil
}
