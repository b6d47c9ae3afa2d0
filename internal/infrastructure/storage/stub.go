package storage

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"time"

	documentapp "github.com/autodealer/backend/internal/application/document"
)

var _ documentapp.ArtifactStore = (*StubArtifactStore)(nil)

// StubArtifactStore keeps artifacts in process memory.
// Used in development and tests when no S3 backend is configured.
type StubArtifactStore struct {
	// BaseURL prefixes generated download URLs
	BaseURL string

	mu      sync.RWMutex
	objects map[string]stubObject
}

type stubObject struct {
	data        []byte
	contentType string
}

// NewStubArtifactStore creates an empty stub store
func NewStubArtifactStore() *StubArtifactStore {
	return &StubArtifactStore{
		BaseURL: "http://localhost:8080/artifacts",
		objects: make(map[string]stubObject),
	}
}

// Put stores a copy of data
func (s *StubArtifactStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if key == "" {
		return errors.New("storage key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = stubObject{data: append([]byte(nil), data...), contentType: contentType}
	return nil
}

// Get returns a copy of the stored data
func (s *StubArtifactStore) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, errors.New("storage key is required")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return append([]byte(nil), obj.data...), nil
}

// Exists reports whether key was stored
func (s *StubArtifactStore) Exists(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, errors.New("storage key is required")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[key]
	return ok, nil
}

// DownloadURL returns a fake URL carrying the expiry
func (s *StubArtifactStore) DownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, errors.New("storage key is required")
	}
	expiresAt := time.Now().Add(expiresIn)
	return s.BaseURL + "/" + key + "?expires=" + url.QueryEscape(expiresAt.Format(time.RFC3339)), expiresAt, nil
}
