package storage

import (
	"context"
	"fmt"

	documentapp "github.com/autodealer/backend/internal/application/document"
	"github.com/autodealer/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// New returns the artifact store selected by cfg.Provider
func New(ctx context.Context, cfg *config.StorageConfig, logger *zap.Logger) (documentapp.ArtifactStore, error) {
	switch cfg.Provider {
	case "s3":
		store, err := NewS3ArtifactStore(ctx, cfg, WithLogger(logger))
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return store, nil
	case "stub", "":
		logger.Warn("using in-memory artifact storage; rendered documents are not persisted")
		return NewStubArtifactStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Provider)
	}
}
