package inventory

import (
	"time"

	"github.com/erp/stockcore/internal/domain/inventory"
	"github.com/erp/stockcore/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MovementRequest describes one ledger write
type MovementRequest struct {
	ProductID    uuid.UUID
	WarehouseID  uuid.UUID
	MovementType inventory.MovementType
	// Quantity is signed: positive credits stock, negative debits it
	Quantity  decimal.Decimal
	UnitCost  decimal.Decimal
	Reference shared.DocumentRef
	BatchID   *uuid.UUID
	OperatorID *uuid.UUID
}

// MovementView is the read projection of a ledger entry
type MovementView struct {
	ID            uuid.UUID           `json:"id"`
	ProductID     uuid.UUID           `json:"product_id"`
	BranchID      uuid.UUID           `json:"branch_id"`
	WarehouseID   uuid.UUID           `json:"warehouse_id"`
	MovementType  string              `json:"movement_type"`
	Quantity      decimal.Decimal     `json:"quantity"`
	UnitCost      decimal.Decimal     `json:"unit_cost"`
	StockBefore   decimal.Decimal     `json:"stock_before"`
	StockAfter    decimal.Decimal     `json:"stock_after"`
	ReferenceKind shared.DocumentKind `json:"reference_kind,omitempty"`
	ReferenceID   string              `json:"reference_id,omitempty"`
	OccurredAt    time.Time           `json:"occurred_at"`
}

// NewMovementView maps a ledger entry to its read projection
func NewMovementView(m *inventory.StockMovement) MovementView {
	return MovementView{
		ID:            m.ID,
		ProductID:     m.ProductID,
		BranchID:      m.BranchID,
		WarehouseID:   m.WarehouseID,
		MovementType:  m.MovementType.String(),
		Quantity:      m.Quantity,
		UnitCost:      m.UnitCost,
		StockBefore:   m.StockBefore,
		StockAfter:    m.StockAfter,
		ReferenceKind: m.ReferenceKind,
		ReferenceID:   m.ReferenceID,
		OccurredAt:    m.OccurredAt,
	}
}

// StockView reports the current stock position for a product at a branch
type StockView struct {
	ProductID        uuid.UUID       `json:"product_id"`
	BranchID         uuid.UUID       `json:"branch_id"`
	StockQuantity    decimal.Decimal `json:"stock_quantity"`
	ReservedQuantity decimal.Decimal `json:"reserved_quantity"`
	Available        decimal.Decimal `json:"available"`
	AllowNegative    bool            `json:"allow_negative"`
}

// WarehouseStockView reports stock for a product at one warehouse
type WarehouseStockView struct {
	WarehouseID uuid.UUID       `json:"warehouse_id"`
	Quantity    decimal.Decimal `json:"quantity"`
}
