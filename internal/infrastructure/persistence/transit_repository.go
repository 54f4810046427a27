package persistence

import (
	"context"

	"github.com/erp/stockcore/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormTransitRepository implements TransitRepository using GORM
type GormTransitRepository struct {
	db *gorm.DB
}

// NewGormTransitRepository creates a new GormTransitRepository
func NewGormTransitRepository(db *gorm.DB) *GormTransitRepository {
	return &GormTransitRepository{db: db}
}

// Create opens a new transit record
func (r *GormTransitRepository) Create(ctx context.Context, transit *inventory.InventoryTransit) error {
	return r.db.WithContext(ctx).Create(transit).Error
}

// FindByID finds a transit record by ID
func (r *GormTransitRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.InventoryTransit, error) {
	var transit inventory.InventoryTransit
	if err := r.db.WithContext(ctx).First(&transit, "id = ?", id).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &transit, nil
}

// FindByTransfer lists all transit records for a transfer
func (r *GormTransitRepository) FindByTransfer(ctx context.Context, transferID uuid.UUID) ([]inventory.InventoryTransit, error) {
	var transits []inventory.InventoryTransit
	if err := r.db.WithContext(ctx).
		Where("transfer_id = ?", transferID).
		Order("shipped_at ASC").
		Find(&transits).Error; err != nil {
		return nil, err
	}
	return transits, nil
}

// FindOpenByTransferItem finds the open record for one transfer line
func (r *GormTransitRepository) FindOpenByTransferItem(ctx context.Context, transferItemID uuid.UUID) (*inventory.InventoryTransit, error) {
	var transit inventory.InventoryTransit
	if err := r.db.WithContext(ctx).
		Where("transfer_item_id = ? AND status = ?", transferItemID, inventory.TransitStatusInTransit).
		First(&transit).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &transit, nil
}

// Save persists reconciliation state changes
func (r *GormTransitRepository) Save(ctx context.Context, transit *inventory.InventoryTransit) error {
	return r.db.WithContext(ctx).Save(transit).Error
}

// SumOpenQuantityByTransfer sums the unreconciled quantity across a transfer's
// open records. Completion is blocked while this is non-zero.
func (r *GormTransitRepository) SumOpenQuantityByTransfer(ctx context.Context, transferID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&inventory.InventoryTransit{}).
		Select("COALESCE(SUM(quantity - received_quantity - damaged_quantity), 0) as total").
		Where("transfer_id = ? AND status = ?", transferID, inventory.TransitStatusInTransit).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

var _ inventory.TransitRepository = (*GormTransitRepository)(nil)
