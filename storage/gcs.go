package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSStore keeps blobs in a single Cloud Storage bucket.
type GCSStore struct {
	client        *gcs.Client
	bucket        string
	publicBaseURL string
}

func NewGCSStore(ctx context.Context, bucket, publicBaseURL string, opts ...option.ClientOption) (*GCSStore, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, fmt.Errorf("missing GCS bucket name")
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	base := strings.TrimRight(publicBaseURL, "/")
	if base == "" || strings.HasPrefix(base, "/") {
		base = "https://storage.googleapis.com/" + bucket
	}
	return &GCSStore{client: client, bucket: bucket, publicBaseURL: base}, nil
}

func (s *GCSStore) Upload(ctx context.Context, data []byte, contentType string) (Object, error) {
	key := NewKey(contentType)
	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return Object{}, fmt.Errorf("write object %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return Object{}, fmt.Errorf("close object %s: %w", key, err)
	}
	return Object{URL: s.PublicURL(key), Key: key, ContentType: contentType, Size: int64(len(data))}, nil
}

func (s *GCSStore) Delete(ctx context.Context, keys []string) error {
	var errs []error
	for _, key := range keys {
		err := s.client.Bucket(s.bucket).Object(key).Delete(ctx)
		if err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
			errs = append(errs, fmt.Errorf("delete %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

func (s *GCSStore) PublicURL(key string) string {
	if key == "" {
		return ""
	}
	return s.publicBaseURL + "/" + key
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}
