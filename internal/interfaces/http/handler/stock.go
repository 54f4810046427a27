package handler

import (
	"context"

	inventoryapp "github.com/erp/stockcore/internal/application/inventory"
	"github.com/erp/stockcore/internal/domain/inventory"
	"github.com/erp/stockcore/internal/domain/shared"
	"github.com/erp/stockcore/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockHandler handles stock ledger and reservation API endpoints
type StockHandler struct {
	BaseHandler
	ledger       *inventoryapp.LedgerService
	reservations *inventoryapp.ReservationService
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(ledger *inventoryapp.LedgerService, reservations *inventoryapp.ReservationService) *StockHandler {
	return &StockHandler{
		ledger:       ledger,
		reservations: reservations,
	}
}

// ===================== Request Types =====================

// RecordMovementRequest represents a request to append a ledger entry
// @Description Request body for recording a stock movement
type RecordMovementRequest struct {
	ProductID     string  `json:"product_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	WarehouseID   string  `json:"warehouse_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440001"`
	MovementType  string  `json:"movement_type" binding:"required" example:"PURCHASE"`
	Quantity      float64 `json:"quantity" binding:"required" example:"25.0"`
	UnitCost      float64 `json:"unit_cost" binding:"omitempty,gte=0" example:"12.50"`
	ReferenceKind string  `json:"reference_kind" example:"PURCHASE_ORDER"`
	ReferenceID   string  `json:"reference_id" example:"550e8400-e29b-41d4-a716-446655440002"`
	BatchID       string  `json:"batch_id" example:"550e8400-e29b-41d4-a716-446655440003"`
}

// ReservationRequest represents a request to reserve or release stock
// @Description Request body for stock reservation operations
type ReservationRequest struct {
	ProductID string  `json:"product_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	BranchID  string  `json:"branch_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440001"`
	Quantity  float64 `json:"quantity" binding:"required,gt=0" example:"5.0"`
}

// stockPathParams binds the product/branch pair from the URL
type stockPathParams struct {
	ProductID string `uri:"product_id" binding:"required,uuid"`
	BranchID  string `uri:"branch_id" binding:"required,uuid"`
}

func (p stockPathParams) parse() (productID, branchID uuid.UUID, err error) {
	productID, err = uuid.Parse(p.ProductID)
	if err != nil {
		return
	}
	branchID, err = uuid.Parse(p.BranchID)
	return
}

// ===================== Query Handlers =====================

// GetStock godoc
// @ID           getStockLevel
// @Summary      Get stock level
// @Description  Get the current stock position of a product at a branch, derived from the movement ledger
// @Tags         stock
// @Produce      json
// @Param        product_id path string true "Product ID"
// @Param        branch_id path string true "Branch ID"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /stock/products/{product_id}/branches/{branch_id} [get]
func (h *StockHandler) GetStock(c *gin.Context) {
	var params stockPathParams
	if err := c.ShouldBindUri(&params); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	productID, branchID, err := params.parse()
	if err != nil {
		h.BadRequest(c, "Invalid ID format")
		return
	}

	view, err := h.ledger.GetStockView(c.Request.Context(), productID, branchID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, view)
}

// GetBreakdown godoc
// @ID           getStockBreakdown
// @Summary      Get per-warehouse stock breakdown
// @Description  Break a branch stock level down into the contributing warehouses
// @Tags         stock
// @Produce      json
// @Param        product_id path string true "Product ID"
// @Param        branch_id path string true "Branch ID"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Security     BearerAuth
// @Router       /stock/products/{product_id}/branches/{branch_id}/breakdown [get]
func (h *StockHandler) GetBreakdown(c *gin.Context) {
	var params stockPathParams
	if err := c.ShouldBindUri(&params); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	productID, branchID, err := params.parse()
	if err != nil {
		h.BadRequest(c, "Invalid ID format")
		return
	}

	breakdown, err := h.ledger.GetStockBreakdown(c.Request.Context(), productID, branchID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, breakdown)
}

// ListMovements godoc
// @ID           listStockMovements
// @Summary      List ledger movements
// @Description  List the movement ledger for a product at a branch, newest first
// @Tags         stock
// @Produce      json
// @Param        product_id path string true "Product ID"
// @Param        branch_id path string true "Branch ID"
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Param        order_by query string false "Sort field"
// @Param        order_dir query string false "Sort direction (asc/desc)"
// @Param        movement_type query string false "Filter by movement type"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Security     BearerAuth
// @Router       /stock/products/{product_id}/branches/{branch_id}/movements [get]
func (h *StockHandler) ListMovements(c *gin.Context) {
	var params stockPathParams
	if err := c.ShouldBindUri(&params); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	productID, branchID, err := params.parse()
	if err != nil {
		h.BadRequest(c, "Invalid ID format")
		return
	}

	listReq := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&listReq); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	listReq.Normalize()

	filter := shared.Filter{
		Page:     listReq.Page,
		PageSize: listReq.PageSize,
		OrderBy:  listReq.OrderBy,
		OrderDir: listReq.OrderDir,
	}
	if mt := c.Query("movement_type"); mt != "" {
		if !inventory.MovementType(mt).IsValid() {
			h.BadRequest(c, "Invalid movement type")
			return
		}
		filter.Filters = map[string]interface{}{"movement_type": mt}
	}

	page, err := h.ledger.ListMovements(c.Request.Context(), productID, branchID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// ===================== Ledger Write Handlers =====================

// RecordMovement godoc
// @ID           recordStockMovement
// @Summary      Record a stock movement
// @Description  Append a signed movement to the stock ledger. Positive quantities credit stock, negative quantities debit it.
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        request body RecordMovementRequest true "Movement request"
// @Success      201 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Security     BearerAuth
// @Router       /stock/movements [post]
func (h *StockHandler) RecordMovement(c *gin.Context) {
	var req RecordMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}
	warehouseID, err := uuid.Parse(req.WarehouseID)
	if err != nil {
		h.BadRequest(c, "Invalid warehouse ID format")
		return
	}

	movementType := inventory.MovementType(req.MovementType)
	if !movementType.IsValid() {
		h.BadRequest(c, "Invalid movement type")
		return
	}

	appReq := inventoryapp.MovementRequest{
		ProductID:    productID,
		WarehouseID:  warehouseID,
		MovementType: movementType,
		Quantity:     decimal.NewFromFloat(req.Quantity),
		UnitCost:     decimal.NewFromFloat(req.UnitCost),
	}

	if req.ReferenceKind != "" || req.ReferenceID != "" {
		ref, err := shared.NewDocumentRef(shared.DocumentKind(req.ReferenceKind), req.ReferenceID)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		appReq.Reference = ref
	}

	if req.BatchID != "" {
		batchID, err := uuid.Parse(req.BatchID)
		if err != nil {
			h.BadRequest(c, "Invalid batch ID format")
			return
		}
		appReq.BatchID = &batchID
	}

	if actorID, err := getActorID(c); err == nil {
		appReq.OperatorID = &actorID
	}

	movement, err := h.ledger.RecordMovement(c.Request.Context(), appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, inventoryapp.NewMovementView(movement))
}

// ===================== Reservation Handlers =====================

// Reserve godoc
// @ID           reserveStock
// @Summary      Reserve stock
// @Description  Reserve available stock for a product at a branch
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        request body ReservationRequest true "Reservation request"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Security     BearerAuth
// @Router       /stock/reservations/reserve [post]
func (h *StockHandler) Reserve(c *gin.Context) {
	h.handleReservation(c, h.reservations.Reserve)
}

// Release godoc
// @ID           releaseStock
// @Summary      Release reserved stock
// @Description  Release a previously made reservation for a product at a branch
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        request body ReservationRequest true "Release request"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Security     BearerAuth
// @Router       /stock/reservations/release [post]
func (h *StockHandler) Release(c *gin.Context) {
	h.handleReservation(c, h.reservations.Release)
}

func (h *StockHandler) handleReservation(
	c *gin.Context,
	op func(ctx context.Context, productID, branchID uuid.UUID, quantity decimal.Decimal) error,
) {
	var req ReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}
	branchID, err := uuid.Parse(req.BranchID)
	if err != nil {
		h.BadRequest(c, "Invalid branch ID format")
		return
	}

	quantity := decimal.NewFromFloat(req.Quantity)
	if !quantity.IsPositive() {
		h.BadRequest(c, "Quantity must be positive")
		return
	}

	if err := op(c.Request.Context(), productID, branchID, quantity); err != nil {
		h.HandleError(c, err)
		return
	}

	view, err := h.ledger.GetStockView(c.Request.Context(), productID, branchID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, view)
}
