package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStore(dir, "http://localhost:8080/uploads/")
	require.NoError(t, err)

	obj, err := s.Upload(context.Background(), pdfBody, "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/uploads/"+obj.Key, obj.URL)
	assert.Equal(t, int64(len(pdfBody)), obj.Size)

	data, err := os.ReadFile(filepath.Join(dir, obj.Key))
	require.NoError(t, err)
	assert.Equal(t, pdfBody, data)

	require.NoError(t, s.Delete(context.Background(), []string{obj.Key}))
	_, err = os.Stat(filepath.Join(dir, obj.Key))
	assert.True(t, os.IsNotExist(err))

	// missing keys count as deleted
	assert.NoError(t, s.Delete(context.Background(), []string{obj.Key, "never-existed.pdf"}))
}

func TestLocalStoreKeepsKeysInsideDir(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStore(filepath.Join(dir, "uploads"), "/uploads")
	require.NoError(t, err)

	outside := filepath.Join(dir, "secret.txt")
	require.NoError(t, os.WriteFile(outside, []byte("keep"), 0644))

	require.NoError(t, s.Delete(context.Background(), []string{"../secret.txt"}))
	_, err = os.Stat(outside)
	assert.NoError(t, err)
}
