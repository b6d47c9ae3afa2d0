package handler

import (
	"github.com/autodealer/backend/internal/interfaces/http/router"
)

// ClientRoutes creates the route group for client endpoints
func ClientRoutes(handler *ClientHandler) *router.DomainGroup {
	group := router.NewDomainGroup("clients", "/clients")
	group.POST("", handler.Create)
	group.GET("", handler.List)
	group.GET("/:id", handler.GetByID)
	group.PUT("/:id", handler.Update)
	return group
}

// VehicleRoutes creates the route group for vehicles and their cost ledger
func VehicleRoutes(handler *VehicleHandler) *router.DomainGroup {
	group := router.NewDomainGroup("vehicles", "/vehicles")
	group.POST("", handler.Create)
	group.GET("", handler.List)
	group.POST("/import", handler.Import)
	group.GET("/:id", handler.GetByID)
	group.PUT("/:id", handler.Update)

	// Cost ledger
	group.POST("/:id/costs", handler.AddCost)
	group.DELETE("/:id/costs/:costId", handler.DeleteCost)
	group.GET("/:id/cost-summary", handler.CostSummary)
	group.GET("/:id/billing-suggestion", handler.BillingSuggestion)
	return group
}

// DocumentRoutes creates the route group for the document ledger
func DocumentRoutes(handler *DocumentHandler) *router.DomainGroup {
	group := router.NewDomainGroup("documents", "/documents")
	group.POST("", handler.Create)
	group.POST("/drafts", handler.CreateDraft)
	group.GET("", handler.List)
	group.GET("/export.xlsx", handler.ExportRegister)
	group.GET("/:id", handler.GetByID)
	group.POST("/:id/finalize", handler.Finalize)
	group.POST("/:id/cancel", handler.Cancel)
	group.GET("/:id/history", handler.History)

	// Artifacts
	group.GET("/:id/pdf", handler.DownloadPDF)
	group.GET("/:id/pdf/link", handler.PDFLink)
	return group
}

// TaxRoutes creates the route group for tax computations
func TaxRoutes(handler *DocumentHandler) *router.DomainGroup {
	group := router.NewDomainGroup("tax", "/tax")
	group.POST("/quote", handler.TaxQuote)
	return group
}

// TradeInRoutes creates the route group for trade-ins
func TradeInRoutes(handler *TradeInHandler) *router.DomainGroup {
	group := router.NewDomainGroup("trade-ins", "/trade-ins")
	group.POST("", handler.Create)
	group.GET("/:id", handler.GetByID)
	return group
}

// ExtractionRoutes creates the route group for AI-assisted data entry
func ExtractionRoutes(handler *ExtractionHandler) *router.DomainGroup {
	group := router.NewDomainGroup("extractions", "/extractions")
	group.POST("/vehicle", handler.ExtractVehicle)
	return group
}

// SystemRoutes creates the route group for system endpoints
func SystemRoutes(handler *SystemHandler) *router.DomainGroup {
	group := router.NewDomainGroup("system", "/system")
	group.GET("/info", handler.GetSystemInfo)
	group.GET("/ping", handler.Ping)
	group.GET("/health", handler.Health)
	return group
}
