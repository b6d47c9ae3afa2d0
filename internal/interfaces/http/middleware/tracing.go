// Package middleware provides the gin middleware of the ledger API.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingConfig holds configuration for the tracing middleware.
type TracingConfig struct {
	ServiceName string
	Enabled     bool
}

// DefaultTracingConfig returns default tracing configuration.
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		ServiceName: "dealer-ledger",
		Enabled:     true,
	}
}

// Tracing returns otelgin tracing middleware. Spans are named "METHOD route".
func Tracing(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return otelgin.Middleware(cfg.ServiceName)
}

// SpanAttributes adds the request ID, Idempotency-Key presence and the
// document ID of document routes to the active span. Place it after Tracing.
func SpanAttributes() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			enrichSpan(c, span)
		}
		c.Next()
	}
}

func enrichSpan(c *gin.Context, span trace.Span) {
	if requestID := c.GetString(RequestIDKey); requestID != "" {
		span.SetAttributes(attribute.String("request_id", requestID))
	}
	if c.GetHeader("Idempotency-Key") != "" {
		span.SetAttributes(attribute.Bool("idempotent", true))
	}
	if strings.Contains(c.FullPath(), "/documents/:id") {
		span.SetAttributes(attribute.String("document.id", c.Param("id")))
	}
}

// SpanErrorMarker marks spans of 4xx and 5xx responses as errors.
func SpanErrorMarker() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}
		status := c.Writer.Status()
		if status < http.StatusBadRequest {
			return
		}
		span.SetStatus(codes.Error, http.StatusText(status))
		span.SetAttributes(attribute.Int("http.status_code", status))
		if c.GetBool(NumberConsumedKey) {
			span.SetAttributes(attribute.Bool("document.number_consumed", true))
		}
	}
}

// NumberConsumedKey is set by handlers when a failed call used up a document number
const NumberConsumedKey = "number_consumed"
