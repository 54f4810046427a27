package persistence

import (
	"context"

	"github.com/erp/stockcore/internal/domain/inventory"
	"github.com/erp/stockcore/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProductStockRepository implements ProductStockRepository using GORM.
// Save deliberately never touches stock_quantity; the cached counter moves
// only through SyncQuantity on the ledger write path.
type GormProductStockRepository struct {
	db *gorm.DB
}

// NewGormProductStockRepository creates a new GormProductStockRepository
func NewGormProductStockRepository(db *gorm.DB) *GormProductStockRepository {
	return &GormProductStockRepository{db: db}
}

// FindByProductAndBranch finds the stock record without locking
func (r *GormProductStockRepository) FindByProductAndBranch(ctx context.Context, productID, branchID uuid.UUID) (*inventory.ProductStock, error) {
	var stock inventory.ProductStock
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND branch_id = ?", productID, branchID).
		First(&stock).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &stock, nil
}

// FindForUpdate finds the stock record with an exclusive row lock. NOWAIT
// surfaces contention immediately so the service's bounded retry can decide
// whether to try again.
func (r *GormProductStockRepository) FindForUpdate(ctx context.Context, productID, branchID uuid.UUID) (*inventory.ProductStock, error) {
	var stock inventory.ProductStock
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "NOWAIT"}).
		Where("product_id = ? AND branch_id = ?", productID, branchID).
		First(&stock).Error; err != nil {
		if err = mapLockError(err); err == shared.ErrConcurrencyConflict {
			return nil, err
		}
		return nil, mapNotFound(err)
	}
	return &stock, nil
}

// GetOrCreate returns the stock record, creating a zero record on first use.
// The insert ignores conflicts so two concurrent first movements for the same
// (product, branch) both end up reading the single surviving row.
func (r *GormProductStockRepository) GetOrCreate(ctx context.Context, productID, branchID uuid.UUID) (*inventory.ProductStock, error) {
	stock, err := r.FindByProductAndBranch(ctx, productID, branchID)
	if err == nil {
		return stock, nil
	}
	if err != shared.ErrNotFound {
		return nil, err
	}

	fresh, err := inventory.NewProductStock(productID, branchID)
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}, {Name: "branch_id"}},
			DoNothing: true,
		}).
		Create(fresh).Error; err != nil {
		return nil, err
	}
	return r.FindByProductAndBranch(ctx, productID, branchID)
}

// Save persists reservation state and policy. The cached counter column is
// excluded from the update so no caller can write stock totals around the
// ledger.
func (r *GormProductStockRepository) Save(ctx context.Context, stock *inventory.ProductStock) error {
	result := r.db.WithContext(ctx).
		Model(stock).
		Where("id = ?", stock.ID).
		Updates(map[string]interface{}{
			"reserved_quantity": stock.ReservedQuantity,
			"allow_negative":    stock.AllowNegative,
			"updated_at":        stock.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SyncQuantity writes the cached counter after a ledger append. Reserved for
// the ledger write path, which holds the row lock when it calls this.
func (r *GormProductStockRepository) SyncQuantity(ctx context.Context, id uuid.UUID, stockAfter decimal.Decimal) error {
	result := r.db.WithContext(ctx).
		Model(&inventory.ProductStock{}).
		Where("id = ?", id).
		Update("stock_quantity", stockAfter)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ inventory.ProductStockRepository = (*GormProductStockRepository)(nil)
