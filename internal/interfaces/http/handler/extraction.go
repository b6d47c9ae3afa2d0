package handler

import (
	extractionapp "github.com/autodealer/backend/internal/application/extraction"
	"github.com/gin-gonic/gin"
)

// ExtractVehicleRequest carries the free text to extract from
type ExtractVehicleRequest struct {
	Text string `json:"text" binding:"required,max=20000"`
}

// ExtractionHandler handles AI-assisted vehicle data entry
type ExtractionHandler struct {
	BaseHandler
	extractionService *extractionapp.Service
}

// NewExtractionHandler creates a new ExtractionHandler
func NewExtractionHandler(extractionService *extractionapp.Service) *ExtractionHandler {
	return &ExtractionHandler{extractionService: extractionService}
}

// ExtractVehicle godoc
// @Summary      Extract vehicle fields
// @Description  Suggest validated vehicle fields from free text. Nothing is saved
// @Tags         extractions
// @Accept       json
// @Produce      json
// @Param        request body ExtractVehicleRequest true "Text to extract from"
// @Success      200 {object} dto.Response{data=extractionapp.ExtractedVehicle}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /extractions/vehicle [post]
func (h *ExtractionHandler) ExtractVehicle(c *gin.Context) {
	var req ExtractVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	extracted, err := h.extractionService.ExtractVehicle(c.Request.Context(), req.Text)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, extracted)
}
