package persistence

import (
	"context"
	"fmt"

	"github.com/erp/stockcore/internal/domain/inventory"
	"github.com/erp/stockcore/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormStockMovementRepository implements StockMovementRepository using GORM.
// The ledger table is append-only; this repository exposes no update or
// delete path.
type GormStockMovementRepository struct {
	db *gorm.DB
}

// NewGormStockMovementRepository creates a new GormStockMovementRepository
func NewGormStockMovementRepository(db *gorm.DB) *GormStockMovementRepository {
	return &GormStockMovementRepository{db: db}
}

// Append writes a new immutable ledger entry
func (r *GormStockMovementRepository) Append(ctx context.Context, movement *inventory.StockMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

// FindByID finds a ledger entry by ID
func (r *GormStockMovementRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.StockMovement, error) {
	var movement inventory.StockMovement
	if err := r.db.WithContext(ctx).First(&movement, "id = ?", id).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &movement, nil
}

// FindByProductAndBranch lists ledger entries for a product at a branch
func (r *GormStockMovementRepository) FindByProductAndBranch(ctx context.Context, productID, branchID uuid.UUID, filter shared.Filter) ([]inventory.StockMovement, error) {
	var movements []inventory.StockMovement
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&inventory.StockMovement{}).
			Where("product_id = ? AND branch_id = ?", productID, branchID),
		filter,
	)
	if err := query.Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

// CountByProductAndBranch counts ledger entries for a product at a branch
func (r *GormStockMovementRepository) CountByProductAndBranch(ctx context.Context, productID, branchID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&inventory.StockMovement{}).
		Where("product_id = ? AND branch_id = ?", productID, branchID)
	query = r.applyTypeFilter(query, filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SumByProductAndBranch sums signed quantities for a product across all
// warehouses owned by a branch. The join against warehouse ownership is the
// branch scope: a warehouse reassigned to another branch stops contributing
// without any ledger rewrite.
func (r *GormStockMovementRepository) SumByProductAndBranch(ctx context.Context, productID, branchID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&inventory.StockMovement{}).
		Select("COALESCE(SUM(stock_movements.quantity), 0) as total").
		Joins("JOIN warehouses ON warehouses.id = stock_movements.warehouse_id").
		Where("stock_movements.product_id = ? AND warehouses.branch_id = ?", productID, branchID).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// SumByProductAndWarehouse sums signed quantities for a product at one warehouse
func (r *GormStockMovementRepository) SumByProductAndWarehouse(ctx context.Context, productID, warehouseID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&inventory.StockMovement{}).
		Select("COALESCE(SUM(quantity), 0) as total").
		Where("product_id = ? AND warehouse_id = ?", productID, warehouseID).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// FindByReference lists ledger entries that point back at an originating document
func (r *GormStockMovementRepository) FindByReference(ctx context.Context, ref shared.DocumentRef) ([]inventory.StockMovement, error) {
	var movements []inventory.StockMovement
	if err := r.db.WithContext(ctx).
		Where("reference_kind = ? AND reference_id = ?", ref.Kind, ref.ID).
		Order("occurred_at ASC").
		Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

// applyFilter applies sorting and pagination with the column allow-list
func (r *GormStockMovementRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyTypeFilter(query, filter)

	sortField := ValidateSortField(filter.OrderBy, MovementSortFields, "occurred_at")
	sortOrder := ValidateSortOrder(filter.OrderDir)
	query = query.Order(fmt.Sprintf("%s %s", sortField, sortOrder))

	if filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		if offset < 0 {
			offset = 0
		}
		query = query.Offset(offset).Limit(filter.PageSize)
	}
	return query
}

// applyTypeFilter applies the optional movement type filter
func (r *GormStockMovementRepository) applyTypeFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if raw, ok := filter.Filters["movement_type"]; ok {
		if mt, ok := raw.(string); ok && mt != "" {
			query = query.Where("movement_type = ?", mt)
		}
	}
	return query
}

var _ inventory.StockMovementRepository = (*GormStockMovementRepository)(nil)
