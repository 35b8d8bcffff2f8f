package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore keeps blobs on disk under Dir and serves them from BaseURL.
type LocalStore struct {
	Dir     string
	BaseURL string
}

func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	// Create destination directory if it doesn't exist
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{Dir: dir, BaseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *LocalStore) Upload(ctx context.Context, data []byte, contentType string) (Object, error) {
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}
	key := NewKey(contentType)
	if err := os.WriteFile(s.path(key), data, 0644); err != nil {
		return Object{}, err
	}
	return Object{URL: s.PublicURL(key), Key: key, ContentType: contentType, Size: int64(len(data))}, nil
}

func (s *LocalStore) Delete(ctx context.Context, keys []string) error {
	var errs []error
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, fmt.Errorf("delete %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

func (s *LocalStore) PublicURL(key string) string {
	if key == "" {
		return ""
	}
	return s.BaseURL + "/" + key
}

// path keeps keys inside Dir.
func (s *LocalStore) path(key string) string {
	return filepath.Join(s.Dir, filepath.Base(key))
}
