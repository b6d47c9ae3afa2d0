// Package rendering produces PDF files for issued documents.
//
// Renderers read nothing but the document record: the frozen amounts and the
// vehicle, client and company snapshots taken at issuance. A document lacking
// its vehicle or client snapshot is refused with document.ErrSnapshotMissing.
package rendering

import (
	"fmt"
	"time"

	documentapp "github.com/autodealer/backend/internal/application/document"
	"github.com/autodealer/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Error codes for rendering failures
const (
	ErrCodeRenderTimeout = "RENDER_TIMEOUT"
	ErrCodeRenderFailed  = "RENDER_FAILED"
	ErrCodeEmptyOutput   = "RENDER_EMPTY"
)

// RenderError is a failure to produce the PDF. The document itself is intact,
// so the caller may retry.
type RenderError struct {
	Code    string
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// Retryable is always true: rendering has no side effects on the ledger
func (e *RenderError) Retryable() bool {
	return true
}

// NewRenderError creates a new RenderError
func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// New returns the renderer selected by cfg.Engine
func New(cfg config.RenderingConfig, logger *zap.Logger) (documentapp.Renderer, error) {
	switch cfg.Engine {
	case "gofpdf", "":
		return NewGofpdfRenderer(), nil
	case "chromedp":
		return NewChromedpRenderer(&ChromedpConfig{
			RemoteURL:      cfg.ChromeURL,
			DefaultTimeout: cfg.Timeout,
			NoSandbox:      true,
			Logger:         logger,
		})
	default:
		return nil, fmt.Errorf("unknown rendering engine %q", cfg.Engine)
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("02/01/2006")
}
