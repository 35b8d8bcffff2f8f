package testutil

import (
	"context"
	"errors"
	"sync"

	"learnhub/storage"
)

var ErrStoreDown = errors.New("asset store unavailable")

// FakeAssetStore is an in-memory storage.AssetStore that records every call.
type FakeAssetStore struct {
	mu          sync.Mutex
	objects     map[string][]byte
	deleteCalls int
	deleted     []string

	FailUpload     bool
	FailUploadFrom int // when > 0, uploads after this many successes fail
	FailDelete     bool
	uploads        int
}

func NewFakeAssetStore() *FakeAssetStore {
	return &FakeAssetStore{objects: make(map[string][]byte)}
}

func (s *FakeAssetStore) Upload(ctx context.Context, data []byte, contentType string) (storage.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailUpload || (s.FailUploadFrom > 0 && s.uploads >= s.FailUploadFrom) {
		return storage.Object{}, ErrStoreDown
	}
	s.uploads++
	key := storage.NewKey(contentType)
	s.objects[key] = append([]byte(nil), data...)
	return storage.Object{URL: s.PublicURL(key), Key: key, ContentType: contentType, Size: int64(len(data))}, nil
}

func (s *FakeAssetStore) Delete(ctx context.Context, keys []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteCalls++
	if s.FailDelete {
		return ErrStoreDown
	}
	for _, k := range keys {
		delete(s.objects, k)
		s.deleted = append(s.deleted, k)
	}
	return nil
}

func (s *FakeAssetStore) PublicURL(key string) string {
	return "https://cdn.test/" + key
}

// Put stores an object directly, as if uploaded earlier.
func (s *FakeAssetStore) Put(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = []byte("x")
}

func (s *FakeAssetStore) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok
}

func (s *FakeAssetStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

func (s *FakeAssetStore) DeleteCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteCalls
}

func (s *FakeAssetStore) Deleted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deleted...)
}

func (s *FakeAssetStore) SetFailDelete(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FailDelete = v
}
