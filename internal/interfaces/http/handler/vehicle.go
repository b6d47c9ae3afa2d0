package handler

import (
	"io"
	"strings"

	stockapp "github.com/autodealer/backend/internal/application/stock"
	"github.com/autodealer/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// VehicleHandler handles vehicle and cost ledger endpoints
type VehicleHandler struct {
	BaseHandler
	vehicleService *stockapp.VehicleService
}

// NewVehicleHandler creates a new VehicleHandler
func NewVehicleHandler(vehicleService *stockapp.VehicleService) *VehicleHandler {
	return &VehicleHandler{vehicleService: vehicleService}
}

// Create godoc
// @Summary      Register a vehicle
// @Description  Register a vehicle with its purchase price and initial costs
// @Tags         vehicles
// @Accept       json
// @Produce      json
// @Param        request body stockapp.CreateVehicleRequest true "Vehicle details"
// @Success      201 {object} dto.Response{data=stockapp.VehicleResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /vehicles [post]
func (h *VehicleHandler) Create(c *gin.Context) {
	var req stockapp.CreateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	vehicle, err := h.vehicleService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, vehicle)
}

// Import godoc
// @Summary      Import a stock file
// @Description  Register vehicles from a CSV stock file sent as the multipart field "file" or as a raw text/csv body. Every row is validated before anything is saved
// @Tags         vehicles
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file false "CSV stock file"
// @Param        dry_run query bool false "Validate only, save nothing"
// @Param        skip_invalid query bool false "Save the valid rows even when others fail"
// @Success      201 {object} dto.Response{data=stockapp.ImportResult}
// @Success      200 {object} dto.Response{data=stockapp.ImportResult} "Dry run or rejected file"
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      413 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /vehicles/import [post]
func (h *VehicleHandler) Import(c *gin.Context) {
	var body io.Reader = c.Request.Body
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("file")
		if err != nil {
			h.BadRequest(c, "Missing upload field \"file\"")
			return
		}
		f, err := fh.Open()
		if err != nil {
			h.BadRequest(c, "Unreadable upload")
			return
		}
		defer f.Close()
		body = f
	}

	result, err := h.vehicleService.Import(c.Request.Context(), body, stockapp.ImportOptions{
		DryRun:      c.Query("dry_run") == "true",
		SkipInvalid: c.Query("skip_invalid") == "true",
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if result.Imported > 0 {
		h.Created(c, result)
		return
	}
	h.Success(c, result)
}

// GetByID godoc
// @Summary      Get vehicle by ID
// @Description  Retrieve a vehicle with its cost ledger and summary
// @Tags         vehicles
// @Accept       json
// @Produce      json
// @Param        id path string true "Vehicle ID" format(uuid)
// @Success      200 {object} dto.Response{data=stockapp.VehicleResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /vehicles/{id} [get]
func (h *VehicleHandler) GetByID(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	vehicle, err := h.vehicleService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, vehicle)
}

// List godoc
// @Summary      List vehicles
// @Description  Retrieve a paginated list of vehicles
// @Tags         vehicles
// @Accept       json
// @Produce      json
// @Param        search query string false "Make, model, VIN or plate"
// @Param        status query string false "Vehicle status" Enums(sourcing, in_stock, reserved, sold)
// @Param        make query string false "Make"
// @Param        origin_country query string false "ISO country of origin"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Param        order_by query string false "Sort field"
// @Param        order_dir query string false "Sort direction" Enums(asc, desc)
// @Success      200 {object} dto.Response{data=[]stockapp.VehicleListResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /vehicles [get]
func (h *VehicleHandler) List(c *gin.Context) {
	var filter stockapp.VehicleListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	vehicles, total, err := h.vehicleService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, pageSize := dto.PageRequest{Page: filter.Page, PageSize: filter.PageSize}.Normalize()
	h.SuccessWithMeta(c, vehicles, total, page, pageSize)
}

// Update godoc
// @Summary      Update a vehicle
// @Description  Change the selling price, registration plate or status of a vehicle
// @Tags         vehicles
// @Accept       json
// @Produce      json
// @Param        id path string true "Vehicle ID" format(uuid)
// @Param        request body stockapp.UpdateVehicleRequest true "Fields to change"
// @Success      200 {object} dto.Response{data=stockapp.VehicleResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /vehicles/{id} [put]
func (h *VehicleHandler) Update(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req stockapp.UpdateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	vehicle, err := h.vehicleService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, vehicle)
}

// AddCost godoc
// @Summary      Add a cost entry
// @Description  Append a cost entry to the vehicle cost ledger
// @Tags         vehicles
// @Accept       json
// @Produce      json
// @Param        id path string true "Vehicle ID" format(uuid)
// @Param        request body stockapp.AddCostRequest true "Cost entry"
// @Success      201 {object} dto.Response{data=stockapp.VehicleResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /vehicles/{id}/costs [post]
func (h *VehicleHandler) AddCost(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req stockapp.AddCostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	vehicle, err := h.vehicleService.AddCost(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, vehicle)
}

// DeleteCost godoc
// @Summary      Delete a cost entry
// @Description  Remove a cost entry unless an issued document locks the ledger
// @Tags         vehicles
// @Accept       json
// @Produce      json
// @Param        id path string true "Vehicle ID" format(uuid)
// @Param        costId path string true "Cost entry ID" format(uuid)
// @Success      200 {object} dto.Response{data=stockapp.VehicleResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /vehicles/{id}/costs/{costId} [delete]
func (h *VehicleHandler) DeleteCost(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	costID, ok := h.parseID(c, "costId")
	if !ok {
		return
	}

	vehicle, err := h.vehicleService.DeleteCost(c.Request.Context(), id, costID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, vehicle)
}

// CostSummary godoc
// @Summary      Get cost summary
// @Description  Return the cost price, margin and cost breakdown of a vehicle
// @Tags         vehicles
// @Accept       json
// @Produce      json
// @Param        id path string true "Vehicle ID" format(uuid)
// @Success      200 {object} dto.Response{data=stockapp.CostSummaryResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /vehicles/{id}/cost-summary [get]
func (h *VehicleHandler) CostSummary(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	summary, err := h.vehicleService.CostSummary(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// BillingSuggestion godoc
// @Summary      Suggest a VAT regime
// @Description  Return the billing type suggested by the vehicle origin
// @Tags         vehicles
// @Accept       json
// @Produce      json
// @Param        id path string true "Vehicle ID" format(uuid)
// @Success      200 {object} dto.Response{data=stockapp.BillingSuggestionResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /vehicles/{id}/billing-suggestion [get]
func (h *VehicleHandler) BillingSuggestion(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	suggestion, err := h.vehicleService.SuggestBilling(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, suggestion)
}
