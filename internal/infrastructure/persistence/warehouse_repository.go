package persistence

import (
	"context"

	"github.com/erp/stockcore/internal/domain/inventory"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormWarehouseRepository implements the read-only warehouse lookup using GORM
type GormWarehouseRepository struct {
	db *gorm.DB
}

// NewGormWarehouseRepository creates a new GormWarehouseRepository
func NewGormWarehouseRepository(db *gorm.DB) *GormWarehouseRepository {
	return &GormWarehouseRepository{db: db}
}

// FindByID finds a warehouse by ID
func (r *GormWarehouseRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Warehouse, error) {
	var warehouse inventory.Warehouse
	if err := r.db.WithContext(ctx).First(&warehouse, "id = ?", id).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &warehouse, nil
}

// FindByBranch lists warehouses owned by a branch
func (r *GormWarehouseRepository) FindByBranch(ctx context.Context, branchID uuid.UUID) ([]inventory.Warehouse, error) {
	var warehouses []inventory.Warehouse
	if err := r.db.WithContext(ctx).
		Where("branch_id = ?", branchID).
		Order("name ASC").
		Find(&warehouses).Error; err != nil {
		return nil, err
	}
	return warehouses, nil
}

// BranchOf returns the owning branch ID for a warehouse
func (r *GormWarehouseRepository) BranchOf(ctx context.Context, warehouseID uuid.UUID) (uuid.UUID, error) {
	warehouse, err := r.FindByID(ctx, warehouseID)
	if err != nil {
		return uuid.Nil, err
	}
	return warehouse.BranchID, nil
}

var _ inventory.WarehouseRepository = (*GormWarehouseRepository)(nil)
