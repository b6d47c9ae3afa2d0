package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/autodealer/backend/internal/domain/document"
	"github.com/autodealer/backend/internal/domain/shared"
	"github.com/autodealer/backend/internal/infrastructure/logger"
	"github.com/autodealer/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestIDKey is the gin context key set by the RequestID middleware
const RequestIDKey = "request_id"

// IdempotencyKeyHeader lets clients retry document creation safely
const IdempotencyKeyHeader = "Idempotency-Key"

// numberConsumedKey flags the request for span and access log enrichment
const numberConsumedKey = "number_consumed"

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// retryable is implemented by upstream failures that leave the ledger untouched
type retryable interface {
	Retryable() bool
}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	if id := c.GetString(RequestIDKey); id != "" {
		return id
	}
	return c.GetHeader("X-Request-ID")
}

// parseID reads a UUID path parameter, answering 400 when it is malformed
func (h *BaseHandler) parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		h.BadRequest(c, "Invalid "+param+" format")
		return uuid.Nil, false
	}
	return id, true
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// BindError answers a request whose body or query failed to bind.
// Validator failures are listed per field.
func (h *BaseHandler) BindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make([]dto.ValidationDetail, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, dto.ValidationDetail{
				Field:   toSnake(fe.Field()),
				Message: validationMessage(fe),
			})
		}
		c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse("Request validation failed", getRequestID(c), details))
		return
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidJSON, "Request body is not valid JSON")
		return
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge, "Request body exceeds maximum allowed size")
		return
	}
	h.BadRequest(c, err.Error())
}

// HandleError converts service errors to HTTP responses.
//
// The ledger's two failure families are kept apart: an AllocationError means
// nothing was consumed and the call can be retried as is, a PersistenceFailure
// means a number was burned and the response says so.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	requestID := getRequestID(c)
	log := logger.L(c.Request.Context())

	var pf *document.PersistenceFailure
	if errors.As(err, &pf) {
		log.Error("document number consumed without a saved document",
			zap.String("number", pf.Formatted),
			zap.Bool("void_recorded", pf.VoidRecorded),
			zap.Error(pf.Cause),
		)
		c.Set(numberConsumedKey, true)
		resp := dto.NewErrorResponseWithRequestID(dto.ErrCodeNumberConsumed,
			"document number "+pf.Formatted+" issued but not saved; contact support", requestID)
		resp.Error.NumberConsumed = true
		resp.Error.DocumentNumber = pf.Formatted
		c.JSON(http.StatusInternalServerError, resp)
		return
	}

	var ua *document.UncertainAllocation
	if errors.As(err, &ua) {
		log.Error("document number allocation outcome unknown",
			zap.String("prefix", ua.Prefix),
			zap.Int("year", ua.Year),
			zap.Error(ua.Cause),
		)
		resp := dto.NewErrorResponseWithHelp(dto.ErrCodeAllocationUncertain,
			"A "+ua.Prefix+" document number may have been consumed without a document",
			"Check the document register before retrying")
		resp.Error.RequestID = requestID
		resp.Error.NumberMaybeConsumed = true
		c.JSON(http.StatusInternalServerError, resp)
		return
	}

	var ae *document.AllocationError
	if errors.As(err, &ae) {
		log.Warn("document number allocation failed",
			zap.String("prefix", ae.Prefix),
			zap.Int("attempts", ae.Attempts),
			zap.Error(ae.Cause),
		)
		resp := dto.NewErrorResponseWithHelp(dto.ErrCodeAllocationConflict,
			"Could not allocate a document number; nothing was consumed", "Retry the request")
		resp.Error.RequestID = requestID
		c.JSON(http.StatusConflict, resp)
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		resp := dto.NewErrorResponseWithRequestID(code, domainErr.Message, requestID)
		resp.Error.Field = domainErr.Field
		c.JSON(dto.GetHTTPStatus(code), resp)
		return
	}

	var r retryable
	if errors.As(err, &r) && r.Retryable() {
		log.Warn("upstream failure", zap.Error(err))
		h.Error(c, http.StatusBadGateway, dto.ErrCodeRenderFailed, "Document rendering failed; the document is intact, retry later")
		return
	}

	log.Error("unhandled error", zap.Error(err))
	h.InternalError(c, "An unexpected error occurred")
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "len":
		return "must be " + fe.Param() + " characters long"
	case "max":
		return "must be at most " + fe.Param()
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "email":
		return "must be a valid email address"
	case "plate":
		return "must be a valid registration plate"
	case "datetime":
		return "must be a date formatted " + fe.Param()
	default:
		return "failed " + fe.Tag() + " validation"
	}
}

// toSnake turns a Go field name into its JSON spelling (PurchasePrice -> purchase_price)
func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 && !(s[i-1] >= 'A' && s[i-1] <= 'Z') {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
