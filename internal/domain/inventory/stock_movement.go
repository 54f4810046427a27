package inventory

import (
	"time"

	"github.com/erp/stockcore/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MovementType represents the type of a stock movement
type MovementType string

const (
	// MovementTypePurchase represents stock received from a supplier
	MovementTypePurchase MovementType = "PURCHASE"
	// MovementTypeSale represents stock shipped to a customer
	MovementTypeSale MovementType = "SALE"
	// MovementTypeTransferIn represents stock arriving from another warehouse
	MovementTypeTransferIn MovementType = "TRANSFER_IN"
	// MovementTypeTransferOut represents stock leaving for another warehouse
	MovementTypeTransferOut MovementType = "TRANSFER_OUT"
	// MovementTypeAdjustment represents a manual stock correction
	MovementTypeAdjustment MovementType = "ADJUSTMENT"
	// MovementTypeReturn represents returned stock
	MovementTypeReturn MovementType = "RETURN"
	// MovementTypeInitial represents initial stock setup
	MovementTypeInitial MovementType = "INITIAL"
)

// String returns the string representation of MovementType
func (t MovementType) String() string {
	return string(t)
}

// IsValid returns true if the movement type is valid
func (t MovementType) IsValid() bool {
	switch t {
	case MovementTypePurchase,
		MovementTypeSale,
		MovementTypeTransferIn,
		MovementTypeTransferOut,
		MovementTypeAdjustment,
		MovementTypeReturn,
		MovementTypeInitial:
		return true
	}
	return false
}

// StockMovement is an immutable ledger entry recording one stock-affecting
// fact. The ledger is append-only: entries are created once and never updated
// or deleted, and the running sum of signed quantities for a (product, branch)
// pair is the single source of truth for stock on hand.
type StockMovement struct {
	shared.BaseEntity
	ProductID     uuid.UUID           `gorm:"type:uuid;not null;index:idx_stock_movements_product_branch,priority:1"`
	BranchID      uuid.UUID           `gorm:"type:uuid;not null;index:idx_stock_movements_product_branch,priority:2"`
	WarehouseID   uuid.UUID           `gorm:"type:uuid;not null;index:idx_stock_movements_warehouse"`
	BatchID       *uuid.UUID          `gorm:"type:uuid;index"`
	MovementType  MovementType        `gorm:"type:varchar(30);not null;index:idx_stock_movements_type"`
	Quantity      decimal.Decimal     `gorm:"type:decimal(18,4);not null"` // Signed: positive credits, negative debits
	UnitCost      decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	StockBefore   decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	StockAfter    decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	ReferenceKind shared.DocumentKind `gorm:"type:varchar(30);index:idx_stock_movements_ref,priority:1"`
	ReferenceID   string              `gorm:"type:varchar(50);index:idx_stock_movements_ref,priority:2"`
	OperatorID    *uuid.UUID          `gorm:"type:uuid"`
	OccurredAt    time.Time           `gorm:"type:timestamptz;not null;index"`
}

// TableName returns the table name for GORM
func (StockMovement) TableName() string {
	return "stock_movements"
}

// NewStockMovement creates a new ledger entry. StockAfter is derived from
// StockBefore and the signed quantity; callers cannot set it independently.
func NewStockMovement(
	productID, branchID, warehouseID uuid.UUID,
	movementType MovementType,
	quantity decimal.Decimal,
	unitCost decimal.Decimal,
	stockBefore decimal.Decimal,
	reference shared.DocumentRef,
) (*StockMovement, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if branchID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_BRANCH", "Branch ID cannot be empty")
	}
	if warehouseID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_WAREHOUSE", "Warehouse ID cannot be empty")
	}
	if !movementType.IsValid() {
		return nil, shared.NewDomainError("INVALID_MOVEMENT_TYPE", "Invalid movement type")
	}
	if quantity.IsZero() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity cannot be zero")
	}
	if unitCost.IsNegative() {
		return nil, shared.NewDomainError("INVALID_COST", "Unit cost cannot be negative")
	}
	if !reference.IsZero() && !reference.Kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_DOCUMENT_KIND", "Unknown reference document kind")
	}

	return &StockMovement{
		BaseEntity:    shared.NewBaseEntity(),
		ProductID:     productID,
		BranchID:      branchID,
		WarehouseID:   warehouseID,
		MovementType:  movementType,
		Quantity:      quantity,
		UnitCost:      unitCost,
		StockBefore:   stockBefore,
		StockAfter:    stockBefore.Add(quantity),
		ReferenceKind: reference.Kind,
		ReferenceID:   reference.ID,
		OccurredAt:    time.Now(),
	}, nil
}

// WithBatchID sets the batch the movement belongs to
func (m *StockMovement) WithBatchID(batchID uuid.UUID) *StockMovement {
	m.BatchID = &batchID
	return m
}

// WithOperatorID records the acting user
func (m *StockMovement) WithOperatorID(operatorID uuid.UUID) *StockMovement {
	m.OperatorID = &operatorID
	return m
}

// WithOccurredAt overrides the movement timestamp
func (m *StockMovement) WithOccurredAt(t time.Time) *StockMovement {
	m.OccurredAt = t
	return m
}

// Reference returns the originating document reference
func (m *StockMovement) Reference() shared.DocumentRef {
	return shared.DocumentRef{Kind: m.ReferenceKind, ID: m.ReferenceID}
}

// IsDebit returns true if the movement decreases stock
func (m *StockMovement) IsDebit() bool {
	return m.Quantity.IsNegative()
}

// IsCredit returns true if the movement increases stock
func (m *StockMovement) IsCredit() bool {
	return m.Quantity.IsPositive()
}

// TotalCost returns the absolute cost of the moved quantity
func (m *StockMovement) TotalCost() decimal.Decimal {
	return m.Quantity.Abs().Mul(m.UnitCost)
}
