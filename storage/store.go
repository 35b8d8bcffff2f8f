package storage

import (
	"context"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// Object is what the store hands back after an upload.
type Object struct {
	URL         string `json:"url"`
	Key         string `json:"key"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// AssetStore is the blob storage collaborator. Delete must treat missing keys as
// already deleted.
type AssetStore interface {
	Upload(ctx context.Context, data []byte, contentType string) (Object, error)
	Delete(ctx context.Context, keys []string) error
	PublicURL(key string) string
}

// NewKey returns a random object key carrying an extension derived from the content type.
func NewKey(contentType string) string {
	ext := ""
	if m := mimetype.Lookup(baseType(contentType)); m != nil {
		ext = m.Extension()
	}
	return uuid.NewString() + ext
}

func baseType(contentType string) string {
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}
