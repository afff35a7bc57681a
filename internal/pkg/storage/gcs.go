package storage

import (
	"context"
	"io"
	"time"

	gcs "cloud.google.com/go/storage"
)

// GCSOptions configures the Google Cloud Storage backend. A prebuilt Client
// takes priority; the signer fields enable PresignGet.
type GCSOptions struct {
	Client         *gcs.Client
	GoogleAccessID string
	PrivateKey     []byte
}

// GCSAdapter implements Storage against Google Cloud Storage.
type GCSAdapter struct {
	client         *gcs.Client
	googleAccessID string
	privateKey     []byte
}

func NewGCS(ctx context.Context, opts GCSOptions) (*GCSAdapter, error) {
	client := opts.Client
	if client == nil {
		var err error
		if client, err = gcs.NewClient(ctx); err != nil {
			return nil, err
		}
	}

	return &GCSAdapter{
		client:         client,
		googleAccessID: opts.GoogleAccessID,
		privateKey:     opts.PrivateKey,
	}, nil
}

func (g *GCSAdapter) PutObject(ctx context.Context, bucket, key string, r io.Reader, opts PutOptions) (ObjectInfo, error) {
	w := g.client.Bucket(bucket).Object(key).NewWriter(ctx)
	w.ContentType = opts.ContentType
	if len(opts.Metadata) > 0 {
		w.Metadata = opts.Metadata
	}

	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return ObjectInfo{}, err
	}
	if err := w.Close(); err != nil {
		return ObjectInfo{}, err
	}

	if attrs := w.Attrs(); attrs != nil {
		return gcsInfo(attrs), nil
	}
	return ObjectInfo{Bucket: bucket, Key: key, Size: opts.Size, ContentType: opts.ContentType, Metadata: opts.Metadata}, nil
}

func (g *GCSAdapter) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, ObjectInfo, error) {
	obj := g.client.Bucket(bucket).Object(key)

	reader, err := obj.NewReader(ctx)
	if err != nil {
		return nil, ObjectInfo{}, err
	}

	attrs, err := obj.Attrs(ctx)
	if err != nil {
		reader.Close()
		return nil, ObjectInfo{}, err
	}

	return reader, gcsInfo(attrs), nil
}

func (g *GCSAdapter) StatObject(ctx context.Context, bucket, key string) (ObjectInfo, error) {
	attrs, err := g.client.Bucket(bucket).Object(key).Attrs(ctx)
	if err != nil {
		return ObjectInfo{}, err
	}
	return gcsInfo(attrs), nil
}

func (g *GCSAdapter) DeleteObject(ctx context.Context, bucket, key string) error {
	return g.client.Bucket(bucket).Object(key).Delete(ctx)
}

func (g *GCSAdapter) PresignGet(_ context.Context, bucket, key string, expiry time.Duration) (string, error) {
	if g.googleAccessID == "" || len(g.privateKey) == 0 {
		return "", ErrMissingSigner
	}

	return gcs.SignedURL(bucket, key, &gcs.SignedURLOptions{
		Method:         "GET",
		Expires:        time.Now().Add(expiry),
		GoogleAccessID: g.googleAccessID,
		PrivateKey:     g.privateKey,
	})
}

func (g *GCSAdapter) Close() error {
	return g.client.Close()
}

func gcsInfo(attrs *gcs.ObjectAttrs) ObjectInfo {
	return ObjectInfo{
		Bucket:      attrs.Bucket,
		Key:         attrs.Name,
		Size:        attrs.Size,
		ETag:        attrs.Etag,
		ContentType: attrs.ContentType,
		Metadata:    attrs.Metadata,
		UpdatedAt:   attrs.Updated,
	}
}
