package handler

import (
	transferapp "github.com/erp/stockcore/internal/application/transfer"
	"github.com/erp/stockcore/internal/domain/shared"
	"github.com/erp/stockcore/internal/domain/transfer"
	"github.com/erp/stockcore/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransferHandler handles stock transfer workflow API endpoints
type TransferHandler struct {
	BaseHandler
	transfers *transferapp.Service
}

// NewTransferHandler creates a new TransferHandler
func NewTransferHandler(transfers *transferapp.Service) *TransferHandler {
	return &TransferHandler{transfers: transfers}
}

// ===================== Request Types =====================

// CreateTransferRequest represents a request to create a transfer draft
// @Description Request body for creating a stock transfer
type CreateTransferRequest struct {
	FromWarehouseID   string                    `json:"from_warehouse_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	ToWarehouseID     string                    `json:"to_warehouse_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440001"`
	RequiredApprovals int                       `json:"required_approvals" binding:"omitempty,min=0,max=5" example:"1"`
	Notes             string                    `json:"notes" binding:"omitempty,max=500" example:"Restock downtown branch"`
	Items             []CreateTransferItemInput `json:"items" binding:"required,min=1,dive"`
}

// CreateTransferItemInput is one requested line on a new transfer
type CreateTransferItemInput struct {
	ProductID    string  `json:"product_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440002"`
	QtyRequested float64 `json:"qty_requested" binding:"required,gt=0" example:"10.0"`
	UnitCost     float64 `json:"unit_cost" binding:"omitempty,gte=0" example:"12.50"`
}

// ApprovalActionRequest carries optional notes for approve/reject actions
type ApprovalActionRequest struct {
	Notes string `json:"notes" binding:"omitempty,max=500" example:"Checked against demand forecast"`
}

// CancelTransferRequest carries the cancellation reason
type CancelTransferRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=500" example:"Duplicate request"`
}

// ShipTransferRequest carries shipment metadata
type ShipTransferRequest struct {
	Carrier        string `json:"carrier" binding:"omitempty,max=120" example:"DHL"`
	TrackingNumber string `json:"tracking_number" binding:"omitempty,max=120" example:"JD0149992"`
}

// ReceiveTransferRequest carries the per-line receipt counts
type ReceiveTransferRequest struct {
	Receipts []ReceiptLineInput `json:"receipts" binding:"required,min=1,dive"`
}

// ReceiptLineInput reports received and damaged quantity for one transfer line
type ReceiptLineInput struct {
	ItemID      string  `json:"item_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440003"`
	QtyReceived float64 `json:"qty_received" binding:"omitempty,gte=0" example:"9.0"`
	QtyDamaged  float64 `json:"qty_damaged" binding:"omitempty,gte=0" example:"1.0"`
}

// ===================== Lifecycle Handlers =====================

// Create godoc
// @ID           createTransfer
// @Summary      Create transfer draft
// @Description  Create a stock transfer in DRAFT with at least one item line
// @Tags         transfers
// @Accept       json
// @Produce      json
// @Param        request body CreateTransferRequest true "Transfer request"
// @Success      201 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /transfers [post]
func (h *TransferHandler) Create(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Actor identity required")
		return
	}

	var req CreateTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	fromWarehouseID, err := uuid.Parse(req.FromWarehouseID)
	if err != nil {
		h.BadRequest(c, "Invalid source warehouse ID format")
		return
	}
	toWarehouseID, err := uuid.Parse(req.ToWarehouseID)
	if err != nil {
		h.BadRequest(c, "Invalid destination warehouse ID format")
		return
	}

	appReq := transferapp.CreateTransferRequest{
		FromWarehouseID:   fromWarehouseID,
		ToWarehouseID:     toWarehouseID,
		RequestedBy:       actorID,
		RequiredApprovals: req.RequiredApprovals,
		Notes:             req.Notes,
		Items:             make([]transferapp.CreateTransferItem, 0, len(req.Items)),
	}
	for _, item := range req.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			h.BadRequest(c, "Invalid product ID format")
			return
		}
		appReq.Items = append(appReq.Items, transferapp.CreateTransferItem{
			ProductID:    productID,
			QtyRequested: decimal.NewFromFloat(item.QtyRequested),
			UnitCost:     decimal.NewFromFloat(item.UnitCost),
		})
	}

	view, err := h.transfers.Create(c.Request.Context(), appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, view)
}

// GetByID godoc
// @ID           getTransfer
// @Summary      Get transfer by ID
// @Tags         transfers
// @Produce      json
// @Param        id path string true "Transfer ID"
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /transfers/{id} [get]
func (h *TransferHandler) GetByID(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}

	view, err := h.transfers.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, view)
}

// GetByNumber godoc
// @ID           getTransferByNumber
// @Summary      Get transfer by document number
// @Tags         transfers
// @Produce      json
// @Param        transfer_number path string true "Transfer number"
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /transfers/number/{transfer_number} [get]
func (h *TransferHandler) GetByNumber(c *gin.Context) {
	transferNumber := c.Param("transfer_number")
	if transferNumber == "" {
		h.BadRequest(c, "Transfer number is required")
		return
	}

	view, err := h.transfers.GetByNumber(c.Request.Context(), transferNumber)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, view)
}

// List godoc
// @ID           listTransfers
// @Summary      List transfers
// @Description  List transfers with filtering by status and branch
// @Tags         transfers
// @Produce      json
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Param        order_by query string false "Sort field"
// @Param        order_dir query string false "Sort direction (asc/desc)"
// @Param        status query string false "Filter by status"
// @Param        from_branch_id query string false "Filter by source branch"
// @Param        to_branch_id query string false "Filter by destination branch"
// @Param        include_deleted query bool false "Include soft-deleted transfers"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Security     BearerAuth
// @Router       /transfers [get]
func (h *TransferHandler) List(c *gin.Context) {
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
		Filters:  map[string]interface{}{},
	}

	if status := c.Query("status"); status != "" {
		if !transfer.TransferStatus(status).IsValid() {
			h.BadRequest(c, "Invalid transfer status")
			return
		}
		filter.Filters["status"] = status
	}
	if fromBranch := c.Query("from_branch_id"); fromBranch != "" {
		id, err := uuid.Parse(fromBranch)
		if err != nil {
			h.BadRequest(c, "Invalid source branch ID format")
			return
		}
		filter.Filters["from_branch_id"] = id
	}
	if toBranch := c.Query("to_branch_id"); toBranch != "" {
		id, err := uuid.Parse(toBranch)
		if err != nil {
			h.BadRequest(c, "Invalid destination branch ID format")
			return
		}
		filter.Filters["to_branch_id"] = id
	}
	if c.Query("include_deleted") == "true" {
		filter.Filters["include_deleted"] = true
	}

	page, err := h.transfers.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// ===================== Transition Handlers =====================

// Submit godoc
// @ID           submitTransfer
// @Summary      Submit transfer for approval
// @Description  Move a DRAFT transfer to PENDING. Returns 409 when the current state does not permit submission.
// @Tags         transfers
// @Produce      json
// @Param        id path string true "Transfer ID"
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Security     BearerAuth
// @Router       /transfers/{id}/submit [post]
func (h *TransferHandler) Submit(c *gin.Context) {
	id, actorID, ok := h.bindTransition(c)
	if !ok {
		return
	}

	ok, err := h.transfers.Submit(c.Request.Context(), id, actorID)
	h.respondTransition(c, id, ok, err, "Transfer cannot be submitted in its current state")
}

// Approve godoc
// @ID           approveTransfer
// @Summary      Approve transfer
// @Description  Record one approval on a PENDING transfer; the transfer moves to APPROVED once the required approval count is reached
// @Tags         transfers
// @Accept       json
// @Produce      json
// @Param        id path string true "Transfer ID"
// @Param        request body ApprovalActionRequest false "Approval notes"
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Security     BearerAuth
// @Router       /transfers/{id}/approve [post]
func (h *TransferHandler) Approve(c *gin.Context) {
	id, actorID, ok := h.bindTransition(c)
	if !ok {
		return
	}

	var req ApprovalActionRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		h.BadRequest(c, err.Error())
		return
	}

	ok, err := h.transfers.Approve(c.Request.Context(), id, actorID, req.Notes)
	h.respondTransition(c, id, ok, err, "Transfer cannot be approved in its current state")
}

// Reject godoc
// @ID           rejectTransfer
// @Summary      Reject transfer
// @Description  Reject a PENDING transfer. Rejection is terminal.
// @Tags         transfers
// @Accept       json
// @Produce      json
// @Param        id path string true "Transfer ID"
// @Param        request body ApprovalActionRequest false "Rejection reason"
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Security     BearerAuth
// @Router       /transfers/{id}/reject [post]
func (h *TransferHandler) Reject(c *gin.Context) {
	id, actorID, ok := h.bindTransition(c)
	if !ok {
		return
	}

	var req ApprovalActionRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		h.BadRequest(c, err.Error())
		return
	}

	ok, err := h.transfers.Reject(c.Request.Context(), id, actorID, req.Notes)
	h.respondTransition(c, id, ok, err, "Transfer cannot be rejected in its current state")
}

// Cancel godoc
// @ID           cancelTransfer
// @Summary      Cancel transfer
// @Description  Cancel a DRAFT, PENDING or APPROVED transfer. Transfers already in transit cannot be cancelled.
// @Tags         transfers
// @Accept       json
// @Produce      json
// @Param        id path string true "Transfer ID"
// @Param        request body CancelTransferRequest false "Cancellation reason"
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Security     BearerAuth
// @Router       /transfers/{id}/cancel [post]
func (h *TransferHandler) Cancel(c *gin.Context) {
	id, actorID, ok := h.bindTransition(c)
	if !ok {
		return
	}

	var req CancelTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		h.BadRequest(c, err.Error())
		return
	}

	ok, err := h.transfers.Cancel(c.Request.Context(), id, actorID, req.Reason)
	h.respondTransition(c, id, ok, err, "Transfer cannot be cancelled in its current state")
}

// Ship godoc
// @ID           shipTransfer
// @Summary      Ship transfer
// @Description  Move an APPROVED transfer to IN_TRANSIT, debiting the source branch ledger and opening transit records
// @Tags         transfers
// @Accept       json
// @Produce      json
// @Param        id path string true "Transfer ID"
// @Param        request body ShipTransferRequest false "Shipment metadata"
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Security     BearerAuth
// @Router       /transfers/{id}/ship [post]
func (h *TransferHandler) Ship(c *gin.Context) {
	id, actorID, ok := h.bindTransition(c)
	if !ok {
		return
	}

	var req ShipTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		h.BadRequest(c, err.Error())
		return
	}

	ok, err := h.transfers.Ship(c.Request.Context(), id, transferapp.ShipRequest{
		ActorID:        actorID,
		Carrier:        req.Carrier,
		TrackingNumber: req.TrackingNumber,
	})
	h.respondTransition(c, id, ok, err, "Transfer cannot be shipped in its current state")
}

// Receive godoc
// @ID           receiveTransfer
// @Summary      Receive transfer
// @Description  Record per-line receipts on an IN_TRANSIT transfer, crediting the destination branch ledger with received quantities. Damaged quantities are written off against the transit record and never credit stock.
// @Tags         transfers
// @Accept       json
// @Produce      json
// @Param        id path string true "Transfer ID"
// @Param        request body ReceiveTransferRequest true "Receipt lines"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Security     BearerAuth
// @Router       /transfers/{id}/receive [post]
func (h *TransferHandler) Receive(c *gin.Context) {
	id, actorID, ok := h.bindTransition(c)
	if !ok {
		return
	}

	var req ReceiveTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	appReq := transferapp.ReceiveRequest{
		ActorID:  actorID,
		Receipts: make([]transferapp.ReceiptLine, 0, len(req.Receipts)),
	}
	for _, line := range req.Receipts {
		itemID, err := uuid.Parse(line.ItemID)
		if err != nil {
			h.BadRequest(c, "Invalid item ID format")
			return
		}
		appReq.Receipts = append(appReq.Receipts, transferapp.ReceiptLine{
			ItemID:      itemID,
			QtyReceived: decimal.NewFromFloat(line.QtyReceived),
			QtyDamaged:  decimal.NewFromFloat(line.QtyDamaged),
		})
	}

	ok, err := h.transfers.Receive(c.Request.Context(), id, appReq)
	h.respondTransition(c, id, ok, err, "Transfer cannot be received in its current state")
}

// Complete godoc
// @ID           completeTransfer
// @Summary      Complete transfer
// @Description  Close a RECEIVED transfer after every line reconciles: shipped quantity equals received plus damaged, with no open transit remainder
// @Tags         transfers
// @Produce      json
// @Param        id path string true "Transfer ID"
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Security     BearerAuth
// @Router       /transfers/{id}/complete [post]
func (h *TransferHandler) Complete(c *gin.Context) {
	id, actorID, ok := h.bindTransition(c)
	if !ok {
		return
	}

	ok, err := h.transfers.Complete(c.Request.Context(), id, actorID)
	h.respondTransition(c, id, ok, err, "Transfer cannot be completed in its current state")
}

// ===================== Tombstone Handlers =====================

// Delete godoc
// @ID           deleteTransfer
// @Summary      Soft-delete transfer
// @Description  Tombstone a transfer. The row is retained and excluded from default listings.
// @Tags         transfers
// @Produce      json
// @Param        id path string true "Transfer ID"
// @Success      204
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /transfers/{id} [delete]
func (h *TransferHandler) Delete(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}

	if err := h.transfers.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Restore godoc
// @ID           restoreTransfer
// @Summary      Restore a soft-deleted transfer
// @Description  Clear the tombstone and recompute the transfer's totals from its lines
// @Tags         transfers
// @Produce      json
// @Param        id path string true "Transfer ID"
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /transfers/{id}/restore [post]
func (h *TransferHandler) Restore(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}

	view, err := h.transfers.Restore(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, view)
}

// GetOpenTransit godoc
// @ID           getTransferOpenTransit
// @Summary      Get open in-transit quantity
// @Description  Sum the quantity still in transit for a transfer, i.e. shipped minus received minus damaged
// @Tags         transfers
// @Produce      json
// @Param        id path string true "Transfer ID"
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /transfers/{id}/transit [get]
func (h *TransferHandler) GetOpenTransit(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}

	open, err := h.transfers.OpenTransitQuantity(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"transfer_id": id, "open_quantity": open})
}

// ===================== Helpers =====================

func (h *TransferHandler) bindID(c *gin.Context) (uuid.UUID, bool) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "Invalid transfer ID format")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		h.BadRequest(c, "Invalid transfer ID format")
		return uuid.Nil, false
	}
	return id, true
}

func (h *TransferHandler) bindTransition(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	id, ok := h.bindID(c)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Actor identity required")
		return uuid.Nil, uuid.Nil, false
	}
	return id, actorID, true
}

// respondTransition maps the (ok, err) outcome of a workflow transition.
// ok=false with a nil error is the guard refusal path and stays a 409.
func (h *TransferHandler) respondTransition(c *gin.Context, id uuid.UUID, ok bool, err error, refusal string) {
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if !ok {
		h.NotPermitted(c, refusal)
		return
	}

	view, err := h.transfers.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}
