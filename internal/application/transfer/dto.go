package transfer

import (
	"time"

	"github.com/erp/stockcore/internal/domain/transfer"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateTransferRequest describes a new draft transfer
type CreateTransferRequest struct {
	FromWarehouseID   uuid.UUID
	ToWarehouseID     uuid.UUID
	RequestedBy       uuid.UUID
	RequiredApprovals int
	Notes             string
	Items             []CreateTransferItem
}

// CreateTransferItem is one requested line on a new transfer
type CreateTransferItem struct {
	ProductID    uuid.UUID
	QtyRequested decimal.Decimal
	UnitCost     decimal.Decimal
}

// ShipRequest carries the shipment metadata for the ship transition
type ShipRequest struct {
	ActorID        uuid.UUID
	Carrier        string
	TrackingNumber string
}

// ReceiptLine reports received and damaged quantity for one transfer line
type ReceiptLine struct {
	ItemID      uuid.UUID
	QtyReceived decimal.Decimal
	QtyDamaged  decimal.Decimal
}

// ReceiveRequest carries the per-line receipts for the receive transition
type ReceiveRequest struct {
	ActorID  uuid.UUID
	Receipts []ReceiptLine
}

// ItemView is the read projection of one transfer line
type ItemView struct {
	ID           uuid.UUID       `json:"id"`
	ProductID    uuid.UUID       `json:"product_id"`
	QtyRequested decimal.Decimal `json:"qty_requested"`
	QtyApproved  decimal.Decimal `json:"qty_approved"`
	QtyShipped   decimal.Decimal `json:"qty_shipped"`
	QtyReceived  decimal.Decimal `json:"qty_received"`
	QtyDamaged   decimal.Decimal `json:"qty_damaged"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
}

// ApprovalView is the read projection of one approval decision
type ApprovalView struct {
	Level      int       `json:"level"`
	ApproverID uuid.UUID `json:"approver_id"`
	Decision   string    `json:"decision"`
	Notes      string    `json:"notes,omitempty"`
	DecidedAt  time.Time `json:"decided_at"`
}

// HistoryView is the read projection of one status change
type HistoryView struct {
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	ActorID    uuid.UUID `json:"actor_id"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// TransferView is the read projection of a stock transfer
type TransferView struct {
	ID                uuid.UUID       `json:"id"`
	TransferNumber    string          `json:"transfer_number"`
	FromBranchID      uuid.UUID       `json:"from_branch_id"`
	ToBranchID        uuid.UUID       `json:"to_branch_id"`
	FromWarehouseID   uuid.UUID       `json:"from_warehouse_id"`
	ToWarehouseID     uuid.UUID       `json:"to_warehouse_id"`
	Status            string          `json:"status"`
	RequestedBy       uuid.UUID       `json:"requested_by"`
	RequiredApprovals int             `json:"required_approvals"`
	Carrier           string          `json:"carrier,omitempty"`
	TrackingNumber    string          `json:"tracking_number,omitempty"`
	Notes             string          `json:"notes,omitempty"`
	CancelReason      string          `json:"cancel_reason,omitempty"`
	TotalRequested    decimal.Decimal `json:"total_requested"`
	TotalShipped      decimal.Decimal `json:"total_shipped"`
	TotalReceived     decimal.Decimal `json:"total_received"`
	TotalDamaged      decimal.Decimal `json:"total_damaged"`
	SubmittedAt       *time.Time      `json:"submitted_at,omitempty"`
	ApprovedAt        *time.Time      `json:"approved_at,omitempty"`
	ShippedAt         *time.Time      `json:"shipped_at,omitempty"`
	ReceivedAt        *time.Time      `json:"received_at,omitempty"`
	CompletedAt       *time.Time      `json:"completed_at,omitempty"`
	CancelledAt       *time.Time      `json:"cancelled_at,omitempty"`
	DeletedAt         *time.Time      `json:"deleted_at,omitempty"`
	Items             []ItemView      `json:"items"`
	Approvals         []ApprovalView  `json:"approvals,omitempty"`
	History           []HistoryView   `json:"history,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// NewTransferView maps a transfer aggregate to its read projection
func NewTransferView(t *transfer.StockTransfer) TransferView {
	items := make([]ItemView, 0, len(t.Items))
	for idx := range t.Items {
		items = append(items, ItemView{
			ID:           t.Items[idx].ID,
			ProductID:    t.Items[idx].ProductID,
			QtyRequested: t.Items[idx].QtyRequested,
			QtyApproved:  t.Items[idx].QtyApproved,
			QtyShipped:   t.Items[idx].QtyShipped,
			QtyReceived:  t.Items[idx].QtyReceived,
			QtyDamaged:   t.Items[idx].QtyDamaged,
			UnitCost:     t.Items[idx].UnitCost,
		})
	}
	approvals := make([]ApprovalView, 0, len(t.Approvals))
	for _, a := range t.Approvals {
		approvals = append(approvals, ApprovalView{
			Level:      a.Level,
			ApproverID: a.ApproverID,
			Decision:   string(a.Decision),
			Notes:      a.Notes,
			DecidedAt:  a.DecidedAt,
		})
	}
	history := make([]HistoryView, 0, len(t.History))
	for _, h := range t.History {
		history = append(history, HistoryView{
			FromStatus: h.FromStatus.String(),
			ToStatus:   h.ToStatus.String(),
			ActorID:    h.ActorID,
			Notes:      h.Notes,
			CreatedAt:  h.CreatedAt,
		})
	}

	return TransferView{
		ID:                t.ID,
		TransferNumber:    t.TransferNumber,
		FromBranchID:      t.FromBranchID,
		ToBranchID:        t.ToBranchID,
		FromWarehouseID:   t.FromWarehouseID,
		ToWarehouseID:     t.ToWarehouseID,
		Status:            t.Status.String(),
		RequestedBy:       t.RequestedBy,
		RequiredApprovals: t.RequiredApprovals,
		Carrier:           t.Carrier,
		TrackingNumber:    t.TrackingNumber,
		Notes:             t.Notes,
		CancelReason:      t.CancelReason,
		TotalRequested:    t.TotalRequested,
		TotalShipped:      t.TotalShipped,
		TotalReceived:     t.TotalReceived,
		TotalDamaged:      t.TotalDamaged,
		SubmittedAt:       t.SubmittedAt,
		ApprovedAt:        t.ApprovedAt,
		ShippedAt:         t.ShippedAt,
		ReceivedAt:        t.ReceivedAt,
		CompletedAt:       t.CompletedAt,
		CancelledAt:       t.CancelledAt,
		DeletedAt:         t.DeletedAt,
		Items:             items,
		Approvals:         approvals,
		History:           history,
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
	}
}
