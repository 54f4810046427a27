package inventory

import (
	"github.com/erp/stockcore/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductStock is the stock-relevant projection of a product at a branch.
// StockQuantity is a denormalized cache of the ledger sum and is written only
// through the ledger path; ReservedQuantity is a soft hold that never touches
// the ledger. The composite identifier is ProductID + BranchID.
type ProductStock struct {
	shared.BaseAggregateRoot
	ProductID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_product_stocks_product_branch,priority:1"`
	BranchID         uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_product_stocks_product_branch,priority:2"`
	StockQuantity    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // Cached ledger sum
	ReservedQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // Soft hold for pending sales
	AllowNegative    bool            `gorm:"not null;default:false"`                // Backorder policy
}

// TableName returns the table name for GORM
func (ProductStock) TableName() string {
	return "product_stocks"
}

// NewProductStock creates a stock record for a product-branch combination
func NewProductStock(productID, branchID uuid.UUID) (*ProductStock, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if branchID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_BRANCH", "Branch ID cannot be empty")
	}

	return &ProductStock{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ProductID:         productID,
		BranchID:          branchID,
		StockQuantity:     decimal.Zero,
		ReservedQuantity:  decimal.Zero,
	}, nil
}

// Available returns stock on hand minus the reserved quantity
func (p *ProductStock) Available() decimal.Decimal {
	return p.StockQuantity.Sub(p.ReservedQuantity)
}

// Reserve places a soft hold against the given current stock level. Products
// flagged AllowNegative skip the availability check but still accumulate the
// reserved quantity.
func (p *ProductStock) Reserve(quantity, currentStock decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Reservation quantity must be positive")
	}

	available := currentStock.Sub(p.ReservedQuantity)
	if !p.AllowNegative && quantity.GreaterThan(available) {
		return shared.ErrInsufficientStock
	}

	p.ReservedQuantity = p.ReservedQuantity.Add(quantity)
	p.Touch()
	p.IncrementVersion()

	p.AddDomainEvent(NewStockReservedEvent(p, quantity))
	return nil
}

// Release removes a soft hold. Over-release is floored at zero so releasing
// more than is held is safe and idempotent.
func (p *ProductStock) Release(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Release quantity must be positive")
	}

	released := decimal.Min(quantity, p.ReservedQuantity)
	p.ReservedQuantity = p.ReservedQuantity.Sub(released)
	if p.ReservedQuantity.IsNegative() {
		p.ReservedQuantity = decimal.Zero
	}
	p.Touch()
	p.IncrementVersion()

	p.AddDomainEvent(NewStockReleasedEvent(p, released))
	return nil
}

// SyncWithLedger updates the cached counter to the stock level the ledger
// just computed. Only the ledger write path may call this; every movement
// commits the new cached value in the same transaction as the ledger entry.
func (p *ProductStock) SyncWithLedger(stockAfter decimal.Decimal) {
	p.StockQuantity = stockAfter
	p.Touch()
	p.IncrementVersion()
}

// SetStockQuantity rejects direct writes to the cached counter. The method
// exists so that any code path reaching for a hand-maintained counter fails
// fast instead of silently diverging from the ledger.
func (p *ProductStock) SetStockQuantity(decimal.Decimal) error {
	return shared.ErrLedgerBypass
}

// SetAllowNegative updates the backorder policy
func (p *ProductStock) SetAllowNegative(allow bool) {
	p.AllowNegative = allow
	p.Touch()
	p.IncrementVersion()
}

// CanDebit returns true if debiting the given quantity is permitted by the
// negative-stock policy at the given current stock level.
func (p *ProductStock) CanDebit(quantity, currentStock decimal.Decimal) bool {
	if p.AllowNegative {
		return true
	}
	return currentStock.Sub(quantity).GreaterThanOrEqual(decimal.Zero)
}
