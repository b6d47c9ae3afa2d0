package storage

import (
	"context"
	"testing"
	"time"

	"github.com/autodealer/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestStubArtifactStore_RoundTrip(t *testing.T) {
	s := NewStubArtifactStore()
	ctx := context.Background()

	ok, err := s.Exists(ctx, "documents/2026/BC-2026-00003.pdf")
	require.NoError(t, err)
	assert.False(t, ok)

	payload := []byte("%PDF-1.3")
	require.NoError(t, s.Put(ctx, "documents/2026/BC-2026-00003.pdf", payload, "application/pdf"))
	payload[0] = 'X'

	got, err := s.Get(ctx, "documents/2026/BC-2026-00003.pdf")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.3", string(got), "stored bytes are a copy")

	ok, err = s.Exists(ctx, "documents/2026/BC-2026-00003.pdf")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStubArtifactStore_Missing(t *testing.T) {
	s := NewStubArtifactStore()
	_, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestStubArtifactStore_DownloadURL(t *testing.T) {
	s := NewStubArtifactStore()

	u, expiresAt, err := s.DownloadURL(context.Background(), "documents/2026/FM-2026-00001.pdf", time.Hour)
	require.NoError(t, err)
	assert.Contains(t, u, "http://localhost:8080/artifacts/documents/2026/FM-2026-00001.pdf?expires=")
	assert.True(t, expiresAt.After(time.Now()))

	_, _, err = s.DownloadURL(context.Background(), "", time.Hour)
	assert.Error(t, err)
}

func TestNew_SelectsProvider(t *testing.T) {
	store, err := New(context.Background(), &config.StorageConfig{Provider: "stub"}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &StubArtifactStore{}, store)

	_, err = New(context.Background(), &config.StorageConfig{Provider: "ftp"}, zap.NewNop())
	assert.Error(t, err)
}
