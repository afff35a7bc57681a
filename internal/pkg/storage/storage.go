// Package storage abstracts the object store that holds ledger exports.
// Three backends are supported: AWS S3, Google Cloud Storage and MinIO.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrMissingSigner is returned by PresignGet when the backend has no
// signing credentials configured.
var ErrMissingSigner = errors.New("storage: signed url signer not configured")

// Storage is the object store surface the service needs: write a snapshot,
// read it back, inspect it, remove it, and hand out download links.
type Storage interface {
	io.Closer

	PutObject(ctx context.Context, bucket, key string, r io.Reader, opts PutOptions) (ObjectInfo, error)
	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, ObjectInfo, error)
	StatObject(ctx context.Context, bucket, key string) (ObjectInfo, error)
	DeleteObject(ctx context.Context, bucket, key string) error
	PresignGet(ctx context.Context, bucket, key string, expiry time.Duration) (string, error)
}

// PutOptions carries upload metadata.
type PutOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Bucket      string
	Key         string
	Size        int64
	ETag        string
	ContentType string
	Metadata    map[string]string
	UpdatedAt   time.Time
}
