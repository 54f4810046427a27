package router

import (
	"github.com/erp/stockcore/internal/interfaces/http/handler"
)

// StockRoutes builds the route group for the stock ledger and reservations
func StockRoutes(h *handler.StockHandler) *DomainGroup {
	dg := NewDomainGroup("stock", "/stock")

	dg.POST("/movements", h.RecordMovement)
	dg.GET("/products/:product_id/branches/:branch_id", h.GetStock)
	dg.GET("/products/:product_id/branches/:branch_id/breakdown", h.GetBreakdown)
	dg.GET("/products/:product_id/branches/:branch_id/movements", h.ListMovements)

	reservations := dg.Group("reservations", "/reservations")
	reservations.POST("/reserve", h.Reserve)
	reservations.POST("/release", h.Release)

	return dg
}

// TransferRoutes builds the route group for the transfer workflow
func TransferRoutes(h *handler.TransferHandler) *DomainGroup {
	dg := NewDomainGroup("transfers", "/transfers")

	dg.POST("", h.Create)
	dg.GET("", h.List)
	dg.GET("/number/:transfer_number", h.GetByNumber)
	dg.GET("/:id", h.GetByID)
	dg.DELETE("/:id", h.Delete)
	dg.POST("/:id/submit", h.Submit)
	dg.POST("/:id/approve", h.Approve)
	dg.POST("/:id/reject", h.Reject)
	dg.POST("/:id/cancel", h.Cancel)
	dg.POST("/:id/ship", h.Ship)
	dg.POST("/:id/receive", h.Receive)
	dg.POST("/:id/complete", h.Complete)
	dg.POST("/:id/restore", h.Restore)
	dg.GET("/:id/transit", h.GetOpenTransit)

	return dg
}

// SystemRoutes builds the route group for system endpoints
func SystemRoutes(h *handler.SystemHandler) *DomainGroup {
	dg := NewDomainGroup("system", "/system")

	dg.GET("/info", h.GetSystemInfo)
	dg.GET("/ping", h.Ping)

	return dg
}
