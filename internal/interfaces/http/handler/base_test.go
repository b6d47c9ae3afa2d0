package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/autodealer/backend/internal/domain/document"
	"github.com/autodealer/backend/internal/domain/shared"
	"github.com/autodealer/backend/internal/domain/stock"
	"github.com/autodealer/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestContext(method, body string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return c, w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestGetRequestID(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(*gin.Context)
		expectedID string
	}{
		{
			name: "from context string",
			setup: func(c *gin.Context) {
				c.Set(RequestIDKey, "ctx-request-id")
			},
			expectedID: "ctx-request-id",
		},
		{
			name: "from header when context empty",
			setup: func(c *gin.Context) {
				c.Request.Header.Set("X-Request-ID", "header-request-id")
			},
			expectedID: "header-request-id",
		},
		{
			name:       "empty when not set",
			setup:      func(c *gin.Context) {},
			expectedID: "",
		},
		{
			name: "context takes precedence over header",
			setup: func(c *gin.Context) {
				c.Set(RequestIDKey, "ctx-id")
				c.Request.Header.Set("X-Request-ID", "header-id")
			},
			expectedID: "ctx-id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestContext("GET", "")
			tt.setup(c)
			assert.Equal(t, tt.expectedID, getRequestID(c))
		})
	}
}

func TestBaseHandlerSuccessWithMeta(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext("GET", "")

	h.SuccessWithMeta(c, []string{"a", "b"}, 45, 2, 20)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(45), resp.Meta.Total)
	assert.Equal(t, 3, resp.Meta.TotalPages)
}

func TestBaseHandlerCreatedAndNoContent(t *testing.T) {
	h := &BaseHandler{}

	c, w := newTestContext("POST", "")
	h.Created(c, map[string]string{"id": "1"})
	assert.Equal(t, http.StatusCreated, w.Code)

	c, w = newTestContext("DELETE", "")
	h.NoContent(c)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestBaseHandlerErrorMethods(t *testing.T) {
	tests := []struct {
		name         string
		method       func(*BaseHandler, *gin.Context)
		expectedCode int
		expectedErr  string
	}{
		{"BadRequest", func(h *BaseHandler, c *gin.Context) { h.BadRequest(c, "bad") }, http.StatusBadRequest, dto.ErrCodeBadRequest},
		{"NotFound", func(h *BaseHandler, c *gin.Context) { h.NotFound(c, "missing") }, http.StatusNotFound, dto.ErrCodeNotFound},
		{"InternalError", func(h *BaseHandler, c *gin.Context) { h.InternalError(c, "boom") }, http.StatusInternalServerError, dto.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestContext("GET", "")
			c.Set(RequestIDKey, "req-1")

			tt.method(&BaseHandler{}, c)

			assert.Equal(t, tt.expectedCode, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.expectedErr, resp.Error.Code)
			assert.Equal(t, "req-1", resp.Error.RequestID)
		})
	}
}

func TestBaseHandlerParseID(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext("GET", "")
	c.Params = gin.Params{{Key: "id", Value: "not-a-uuid"}}

	_, ok := h.parseID(c, "id")

	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid id format", decodeResponse(t, w).Error.Message)
}

type bindTarget struct {
	Kind          string `json:"kind" binding:"required,oneof=order_form margin_invoice"`
	PurchasePrice string `json:"purchase_price" binding:"required"`
}

func TestBaseHandlerBindError(t *testing.T) {
	t.Run("validator errors are listed per field", func(t *testing.T) {
		c, w := newTestContext("POST", `{"kind":"receipt"}`)
		var req bindTarget
		err := c.ShouldBindJSON(&req)
		require.Error(t, err)

		(&BaseHandler{}).BindError(c, err)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeResponse(t, w)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		require.Len(t, resp.Error.Details, 2)
		assert.Equal(t, "kind", resp.Error.Details[0].Field)
		assert.Equal(t, "must be one of: order_form margin_invoice", resp.Error.Details[0].Message)
		assert.Equal(t, "purchase_price", resp.Error.Details[1].Field)
		assert.Equal(t, "is required", resp.Error.Details[1].Message)
	})

	t.Run("malformed json", func(t *testing.T) {
		c, w := newTestContext("POST", `{"kind":`)
		var req bindTarget
		err := c.ShouldBindJSON(&req)
		require.Error(t, err)

		(&BaseHandler{}).BindError(c, err)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidJSON, decodeResponse(t, w).Error.Code)
	})

	t.Run("body too large", func(t *testing.T) {
		c, w := newTestContext("POST", "")
		(&BaseHandler{}).BindError(c, &http.MaxBytesError{Limit: 10})

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Equal(t, dto.ErrCodeRequestTooLarge, decodeResponse(t, w).Error.Code)
	})
}

type upstreamFailure struct{}

func (upstreamFailure) Error() string   { return "renderer timed out" }
func (upstreamFailure) Retryable() bool { return true }

func TestBaseHandlerHandleError(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		expectedCode int
		expectedErr  string
	}{
		{"not found", shared.ErrNotFound, http.StatusNotFound, dto.ErrCodeNotFound},
		{"wrapped not found", errors.Join(errors.New("loading vehicle"), shared.ErrNotFound), http.StatusNotFound, dto.ErrCodeNotFound},
		{"validation", shared.NewValidationError("sale_price", "must be positive"), http.StatusBadRequest, dto.ErrCodeValidation},
		{"missing plate", document.ErrMissingRegistrationPlate, http.StatusUnprocessableEntity, dto.ErrCodeMissingRegistrationPlate},
		{"invalid state", shared.ErrInvalidState, http.StatusUnprocessableEntity, dto.ErrCodeInvalidState},
		{"cost locked", stock.ErrCostLocked, http.StatusConflict, dto.ErrCodeCostLocked},
		{"snapshot missing", document.ErrSnapshotMissing, http.StatusGone, dto.ErrCodeSnapshotMissing},
		{"concurrency", shared.ErrConcurrencyConflict, http.StatusConflict, dto.ErrCodeConcurrencyConflict},
		{"upstream", upstreamFailure{}, http.StatusBadGateway, dto.ErrCodeRenderFailed},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError, dto.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestContext("GET", "")

			(&BaseHandler{}).HandleError(c, tt.err)

			assert.Equal(t, tt.expectedCode, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.expectedErr, resp.Error.Code)
			assert.False(t, resp.Error.NumberConsumed)
		})
	}
}

func TestBaseHandlerHandleErrorKeepsFieldOfValidationError(t *testing.T) {
	c, w := newTestContext("POST", "")

	(&BaseHandler{}).HandleError(c, shared.NewValidationError("billing_type", "is required for invoices"))

	resp := decodeResponse(t, w)
	assert.Equal(t, "billing_type", resp.Error.Field)
}

func TestBaseHandlerHandleErrorAllocationFailure(t *testing.T) {
	c, w := newTestContext("POST", "")

	(&BaseHandler{}).HandleError(c, &document.AllocationError{
		Prefix: "FM", Year: 2026, Attempts: 3, Cause: document.ErrAllocationConflict,
	})

	assert.Equal(t, http.StatusConflict, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, dto.ErrCodeAllocationConflict, resp.Error.Code)
	assert.Equal(t, "Retry the request", resp.Error.Help)
	assert.False(t, resp.Error.NumberConsumed)
}

func TestBaseHandlerHandleErrorUncertainAllocation(t *testing.T) {
	c, w := newTestContext("POST", "")
	c.Set(RequestIDKey, "req-43")

	(&BaseHandler{}).HandleError(c, &document.UncertainAllocation{
		Prefix: "FV", Year: 2026,
		Cause: fmt.Errorf("%w: i/o timeout", document.ErrAllocationOutcomeUnknown),
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, dto.ErrCodeAllocationUncertain, resp.Error.Code)
	assert.True(t, resp.Error.NumberMaybeConsumed)
	assert.False(t, resp.Error.NumberConsumed)
	assert.Equal(t, "req-43", resp.Error.RequestID)
	assert.Contains(t, resp.Error.Message, "may have been consumed")
	assert.NotContains(t, resp.Error.Message, "nothing was consumed")
	assert.NotContains(t, resp.Error.Message, "i/o timeout")
	assert.Equal(t, "Check the document register before retrying", resp.Error.Help)
}

func TestBaseHandlerHandleErrorPersistenceFailure(t *testing.T) {
	c, w := newTestContext("POST", "")
	c.Set(RequestIDKey, "req-42")

	(&BaseHandler{}).HandleError(c, &document.PersistenceFailure{
		Number:       document.Number{Prefix: "FM", Year: 2026, Sequence: 7},
		Formatted:    "FM-2026-00007",
		VoidRecorded: true,
		Cause:        errors.New("connection reset"),
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, dto.ErrCodeNumberConsumed, resp.Error.Code)
	assert.True(t, resp.Error.NumberConsumed)
	assert.Equal(t, "FM-2026-00007", resp.Error.DocumentNumber)
	assert.Equal(t, "req-42", resp.Error.RequestID)
	assert.Contains(t, resp.Error.Message, "FM-2026-00007 issued but not saved")
	assert.NotContains(t, resp.Error.Message, "connection reset")
}

func TestToSnake(t *testing.T) {
	assert.Equal(t, "purchase_price", toSnake("PurchasePrice"))
	assert.Equal(t, "vin", toSnake("VIN"))
	assert.Equal(t, "vehicle_id", toSnake("VehicleID"))
	assert.Equal(t, "kind", toSnake("Kind"))
}
