// Package storage provides S3-compatible object storage access.
// This is part of the platform layer and contains no business logic.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"time"

	"leadmarket_backend/platform/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Client wraps a MinIO connection for export uploads.
type Client struct {
	minio  *minio.Client
	bucket string
}

// NewClient connects to the configured MinIO endpoint and ensures the export
// bucket exists.
func NewClient(ctx context.Context, cfg config.StorageConfig) (*Client, error) {
	mc, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	client := &Client{minio: mc, bucket: cfg.GetMinioBucketExports()}
	exists, err := mc.BucketExists(ctx, client.bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := mc.MakeBucket(ctx, client.bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}
	return client, nil
}

// Upload stores an object and returns its name.
func (c *Client) Upload(ctx context.Context, objectName, contentType string, data []byte) (string, error) {
	_, err := c.minio.PutObject(ctx, c.bucket, objectName,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("upload object: %w", err)
	}
	return objectName, nil
}

// PresignedURL returns a time-limited download link for an object.
func (c *Client) PresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	u, err := c.minio.PresignedGetObject(ctx, c.bucket, objectName, expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign object: %w", err)
	}
	return u.String(), nil
}
