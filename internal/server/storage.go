// storage.go - MinIO-backed object storage for file contents.
//
// The store holds only metadata; bytes live under ObjectKey in the
// configured bucket.
package server

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStorage is the boundary the handlers stream bytes through.
// Production uses MinIO; tests substitute an in-memory implementation.
type ObjectStorage interface {
	Put(ctx context.Context, objectKey string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, objectKey string) (io.ReadCloser, error)
	Remove(ctx context.Context, objectKey string) error
}

// BlobStorage streams file contents to and from object storage.
type BlobStorage struct {
	client *minio.Client
	bucket string
}

func normaliseEndpoint(raw string) (endpoint string, secure bool, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false, fmt.Errorf("empty endpoint")
	}

	// Accept either "minio:9000" or "http://minio:9000" / "https://minio:9000".
	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", false, err
		}
		if u.Host == "" {
			return "", false, fmt.Errorf("invalid endpoint")
		}
		if u.Path != "" && u.Path != "/" {
			return "", false, fmt.Errorf("endpoint must not contain a path")
		}
		secure = (u.Scheme == "https")
		return u.Host, secure, nil
	}

	// No scheme provided, treat as host:port (insecure for local MinIO).
	return raw, false, nil
}

// NewBlobStorage connects to MinIO and checks the bucket exists.
func NewBlobStorage(cfg S3Config) (*BlobStorage, error) {
	if cfg.Endpoint == "" || cfg.AccessKey == "" || cfg.SecretKey == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("object storage configuration incomplete")
	}

	endpoint, secure, err := normaliseEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, err
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, err
	}

	exists, err := client.BucketExists(context.Background(), cfg.Bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("bucket does not exist: %s", cfg.Bucket)
	}

	return &BlobStorage{client: client, bucket: cfg.Bucket}, nil
}

// Put streams r into the bucket under objectKey. size may be -1 when the
// length is unknown; MinIO then uses multipart upload.
func (b *BlobStorage) Put(ctx context.Context, objectKey string, r io.Reader, size int64, contentType string) error {
	_, err := b.client.PutObject(ctx, b.bucket, objectKey, r, size,
		minio.PutObjectOptions{ContentType: contentType})
	return err
}

// Get opens the object for reading. The caller must Close it. Stat is
// forced to surface missing-object errors before any bytes are copied.
func (b *BlobStorage) Get(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	obj, err := b.client.GetObject(ctx, b.bucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, err
	}
	return obj, nil
}

// Remove deletes the object. Used when a metadata insert fails after the
// bytes were already stored.
func (b *BlobStorage) Remove(ctx context.Context, objectKey string) error {
	return b.client.RemoveObject(ctx, b.bucket, objectKey, minio.RemoveObjectOptions{})
}

var _ ObjectStorage = (*BlobStorage)(nil)
