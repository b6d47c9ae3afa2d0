package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	documentapp "github.com/autodealer/backend/internal/application/document"
	"github.com/autodealer/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

const (
	defaultLinkExpiry = 15 * time.Minute
	maxLinkExpiry     = 24 * time.Hour
	xlsxContentType   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// DocumentHandler handles the document ledger endpoints
type DocumentHandler struct {
	BaseHandler
	ledger *documentapp.LedgerService
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(ledger *documentapp.LedgerService) *DocumentHandler {
	return &DocumentHandler{ledger: ledger}
}

// Create godoc
// @Summary      Issue a document
// @Description  Issue a finalized document with the next number of its sequence. A replay under the same Idempotency-Key answers 200 with the original document
// @Tags         documents
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Replays the original response when repeated"
// @Param        request body documentapp.CreateDocumentRequest true "Document request"
// @Success      201 {object} dto.Response{data=documentapp.DocumentResponse}
// @Success      200 {object} dto.Response{data=documentapp.DocumentResponse} "Replayed"
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /documents [post]
func (h *DocumentHandler) Create(c *gin.Context) {
	h.create(c, false)
}

// CreateDraft godoc
// @Summary      Issue a draft
// @Description  Issue a numbered draft document
// @Tags         documents
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Replays the original response when repeated"
// @Param        request body documentapp.CreateDocumentRequest true "Document request"
// @Success      201 {object} dto.Response{data=documentapp.DocumentResponse}
// @Success      200 {object} dto.Response{data=documentapp.DocumentResponse} "Replayed"
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /documents/drafts [post]
func (h *DocumentHandler) CreateDraft(c *gin.Context) {
	h.create(c, true)
}

func (h *DocumentHandler) create(c *gin.Context, draft bool) {
	var req documentapp.CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	key := c.GetHeader(IdempotencyKeyHeader)

	var (
		doc *documentapp.DocumentResponse
		err error
	)
	if draft {
		doc, err = h.ledger.CreateDraft(c.Request.Context(), req, key)
	} else {
		doc, err = h.ledger.Create(c.Request.Context(), req, key)
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if doc.Replayed {
		h.Success(c, doc)
		return
	}
	h.Created(c, doc)
}

// Finalize godoc
// @Summary      Finalize a draft
// @Description  Move a draft document to finalized
// @Tags         documents
// @Accept       json
// @Produce      json
// @Param        id path string true "Document ID" format(uuid)
// @Success      200 {object} dto.Response{data=documentapp.DocumentResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /documents/{id}/finalize [post]
func (h *DocumentHandler) Finalize(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	doc, err := h.ledger.Finalize(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// Cancel godoc
// @Summary      Cancel a document
// @Description  Cancel a document. Its number stays consumed
// @Tags         documents
// @Accept       json
// @Produce      json
// @Param        id path string true "Document ID" format(uuid)
// @Param        request body documentapp.CancelDocumentRequest true "Cancellation reason"
// @Success      200 {object} dto.Response{data=documentapp.DocumentResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /documents/{id}/cancel [post]
func (h *DocumentHandler) Cancel(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req documentapp.CancelDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	doc, err := h.ledger.Cancel(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// GetByID godoc
// @Summary      Get document by ID
// @Description  Retrieve a document with its vehicle and client snapshots
// @Tags         documents
// @Accept       json
// @Produce      json
// @Param        id path string true "Document ID" format(uuid)
// @Success      200 {object} dto.Response{data=documentapp.DocumentResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /documents/{id} [get]
func (h *DocumentHandler) GetByID(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	doc, err := h.ledger.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// List godoc
// @Summary      List documents
// @Description  Retrieve the document register. Void records are hidden unless include_void is set
// @Tags         documents
// @Accept       json
// @Produce      json
// @Param        search query string false "Number or client name"
// @Param        kind query string false "Document kind" Enums(order_form, margin_invoice, vat_invoice, administrative_certificate)
// @Param        status query string false "Document status" Enums(draft, finalized, cancelled)
// @Param        prefix query string false "Number prefix" Enums(BC, FM, FV, CC, DA, DI)
// @Param        year query int false "Sequence year"
// @Param        billing_type query string false "Billing type" Enums(margin, vat)
// @Param        vehicle_id query string false "Vehicle ID" format(uuid)
// @Param        client_id query string false "Client ID" format(uuid)
// @Param        include_void query bool false "Include void records"
// @Param        issued_from query string false "Start date (YYYY-MM-DD)"
// @Param        issued_to query string false "End date (YYYY-MM-DD)"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Param        order_by query string false "Sort field"
// @Param        order_dir query string false "Sort direction" Enums(asc, desc)
// @Success      200 {object} dto.Response{data=[]documentapp.DocumentListResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /documents [get]
func (h *DocumentHandler) List(c *gin.Context) {
	var filter documentapp.DocumentListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	docs, total, err := h.ledger.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, pageSize := dto.PageRequest{Page: filter.Page, PageSize: filter.PageSize}.Normalize()
	h.SuccessWithMeta(c, docs, total, page, pageSize)
}

// History godoc
// @Summary      Get document history
// @Description  Return the lifecycle events of a document, oldest first
// @Tags         documents
// @Accept       json
// @Produce      json
// @Param        id path string true "Document ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]documentapp.HistoryEntryResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /documents/{id}/history [get]
func (h *DocumentHandler) History(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	entries, err := h.ledger.History(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entries)
}

// DownloadPDF godoc
// @Summary      Download document PDF
// @Description  Stream the PDF of a document, from the artifact store when already rendered
// @Tags         documents
// @Accept       json
// @Produce      application/pdf
// @Param        id path string true "Document ID" format(uuid)
// @Success      200 {file} binary
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      410 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /documents/{id}/pdf [get]
func (h *DocumentHandler) DownloadPDF(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	rendered, err := h.ledger.RenderPDF(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", rendered.Filename))
	if rendered.FromStore {
		c.Header("X-Artifact-Source", "store")
	}
	c.Data(http.StatusOK, "application/pdf", rendered.Data)
}

// PDFLink godoc
// @Summary      Get a PDF link
// @Description  Return a time-limited link to the stored PDF of a document
// @Tags         documents
// @Accept       json
// @Produce      json
// @Param        id path string true "Document ID" format(uuid)
// @Param        expires_in query int false "Link lifetime in seconds" default(900) maximum(86400)
// @Success      200 {object} dto.Response{data=documentapp.ArtifactLinkResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /documents/{id}/pdf/link [get]
func (h *DocumentHandler) PDFLink(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	expiresIn := defaultLinkExpiry
	if raw := c.Query("expires_in"); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs < 1 || time.Duration(secs)*time.Second > maxLinkExpiry {
			h.BadRequest(c, "expires_in must be a number of seconds between 1 and 86400")
			return
		}
		expiresIn = time.Duration(secs) * time.Second
	}

	link, err := h.ledger.ArtifactLink(c.Request.Context(), id, expiresIn)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, link)
}

// ExportRegister godoc
// @Summary      Export the register
// @Description  Return the document register matching the filters as a spreadsheet
// @Tags         documents
// @Accept       json
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        kind query string false "Document kind"
// @Param        status query string false "Document status"
// @Param        year query int false "Sequence year"
// @Param        include_void query bool false "Include void records"
// @Param        issued_from query string false "Start date (YYYY-MM-DD)"
// @Param        issued_to query string false "End date (YYYY-MM-DD)"
// @Success      200 {file} binary
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /documents/export.xlsx [get]
func (h *DocumentHandler) ExportRegister(c *gin.Context) {
	var filter documentapp.DocumentListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	data, err := h.ledger.ExportRegister(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	filename := "document-register-" + time.Now().Format("20060102") + ".xlsx"
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// TaxQuote godoc
// @Summary      Quote a sale
// @Description  Compute the amounts of a prospective sale without issuing anything
// @Tags         tax
// @Accept       json
// @Produce      json
// @Param        request body documentapp.TaxQuoteRequest true "Sale figures"
// @Success      200 {object} dto.Response{data=documentapp.TaxQuoteResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /tax/quote [post]
func (h *DocumentHandler) TaxQuote(c *gin.Context) {
	var req documentapp.TaxQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	quote, err := h.ledger.TaxQuote(req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, quote)
}
