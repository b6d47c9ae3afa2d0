package document

import (
	"context"
	"fmt"
	"time"

	"github.com/autodealer/backend/internal/domain/document"
)

// ArtifactStore keeps rendered document files.
// Implemented by the infrastructure layer (S3-compatible storage or an in-process stub).
type ArtifactStore interface {
	// Put stores data under key, replacing any previous object
	Put(ctx context.Context, key string, data []byte, contentType string) error

	// Get returns the object stored under key
	Get(ctx context.Context, key string) ([]byte, error)

	// Exists checks whether key holds an object
	Exists(ctx context.Context, key string) (bool, error)

	// DownloadURL returns a time-limited URL for key
	DownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error)
}

// Renderer turns an issued document into a PDF.
// It must read only the document's own snapshots and frozen amounts.
type Renderer interface {
	Render(ctx context.Context, doc *document.Document) ([]byte, error)
}

// RegisterExporter writes a list of documents as a spreadsheet
type RegisterExporter interface {
	Export(docs []document.Document) ([]byte, error)
}

// ArtifactKey is the storage key of a document's rendered PDF
func ArtifactKey(doc *document.Document) string {
	return fmt.Sprintf("documents/%d/%s.pdf", doc.Number.Year, doc.DocumentNumber)
}

// Metrics receives ledger measurements. Implementations must be safe for concurrent use.
type Metrics interface {
	AllocationConflict(ctx context.Context, prefix string)
	DocumentIssued(ctx context.Context, prefix string, status document.Status, elapsed time.Duration)
	DocumentVoided(ctx context.Context, prefix string)
	DocumentCancelled(ctx context.Context, prefix string)
	RenderCompleted(ctx context.Context, prefix string, elapsed time.Duration, err error)
}

// NopMetrics discards every measurement
type NopMetrics struct{}

func (NopMetrics) AllocationConflict(context.Context, string)                             {}
func (NopMetrics) DocumentIssued(context.Context, string, document.Status, time.Duration) {}
func (NopMetrics) DocumentVoided(context.Context, string)                                 {}
func (NopMetrics) DocumentCancelled(context.Context, string)                              {}
func (NopMetrics) RenderCompleted(context.Context, string, time.Duration, error)          {}
