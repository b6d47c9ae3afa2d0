package handler

import (
	tradeinapp "github.com/autodealer/backend/internal/application/tradein"
	"github.com/gin-gonic/gin"
)

// TradeInHandler handles trade-in endpoints
type TradeInHandler struct {
	BaseHandler
	tradeInService *tradeinapp.Service
}

// NewTradeInHandler creates a new TradeInHandler
func NewTradeInHandler(tradeInService *tradeinapp.Service) *TradeInHandler {
	return &TradeInHandler{tradeInService: tradeInService}
}

// Create godoc
// @Summary      Record a trade-in
// @Description  Record a vehicle taken in part-exchange and add it to stock
// @Tags         trade-ins
// @Accept       json
// @Produce      json
// @Param        request body tradeinapp.CreateTradeInRequest true "Trade-in details"
// @Success      201 {object} dto.Response{data=tradeinapp.TradeInResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /trade-ins [post]
func (h *TradeInHandler) Create(c *gin.Context) {
	var req tradeinapp.CreateTradeInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	tradeIn, err := h.tradeInService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, tradeIn)
}

// GetByID godoc
// @Summary      Get trade-in by ID
// @Description  Retrieve a trade-in with its vehicle
// @Tags         trade-ins
// @Accept       json
// @Produce      json
// @Param        id path string true "Trade-in ID" format(uuid)
// @Success      200 {object} dto.Response{data=tradeinapp.TradeInResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /trade-ins/{id} [get]
func (h *TradeInHandler) GetByID(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	tradeIn, err := h.tradeInService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tradeIn)
}
