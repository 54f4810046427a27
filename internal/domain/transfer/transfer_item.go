package transfer

import (
	"time"

	"github.com/erp/stockcore/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockTransferItem is one line of a stock transfer. Requested, approved,
// shipped, received and damaged quantities are tracked separately so the
// conservation invariant can be checked per line.
type StockTransferItem struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TransferID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID    uuid.UUID       `gorm:"type:uuid;not null"`
	QtyRequested decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	QtyApproved  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	QtyShipped   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	QtyReceived  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	QtyDamaged   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	UnitCost     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Remark       string          `gorm:"type:varchar(255)"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName returns the table name for GORM
func (StockTransferItem) TableName() string {
	return "stock_transfer_items"
}

// NewStockTransferItem creates a new transfer line
func NewStockTransferItem(transferID, productID uuid.UUID, qtyRequested, unitCost decimal.Decimal) (*StockTransferItem, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if qtyRequested.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Requested quantity must be positive")
	}
	if unitCost.IsNegative() {
		return nil, shared.NewDomainError("INVALID_COST", "Unit cost cannot be negative")
	}

	now := time.Now()
	return &StockTransferItem{
		ID:           uuid.New(),
		TransferID:   transferID,
		ProductID:    productID,
		QtyRequested: qtyRequested,
		QtyApproved:  decimal.Zero,
		QtyShipped:   decimal.Zero,
		QtyReceived:  decimal.Zero,
		QtyDamaged:   decimal.Zero,
		UnitCost:     unitCost,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// UpdateQuantity changes the requested quantity. Only meaningful while the
// parent transfer is still a draft; the aggregate enforces that.
func (i *StockTransferItem) UpdateQuantity(qty decimal.Decimal) error {
	if qty.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Requested quantity must be positive")
	}
	i.QtyRequested = qty
	i.UpdatedAt = time.Now()
	return nil
}

// UnresolvedQuantity returns shipped quantity not yet accounted for by
// receipt or damage.
func (i *StockTransferItem) UnresolvedQuantity() decimal.Decimal {
	return i.QtyShipped.Sub(i.QtyReceived).Sub(i.QtyDamaged)
}

// IsReconciled returns true when shipped equals received plus damaged
func (i *StockTransferItem) IsReconciled() bool {
	return i.UnresolvedQuantity().IsZero()
}
