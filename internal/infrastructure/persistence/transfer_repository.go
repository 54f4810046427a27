package persistence

import (
	"context"
	"fmt"

	"github.com/erp/stockcore/internal/domain/shared"
	"github.com/erp/stockcore/internal/domain/transfer"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTransferRepository implements the transfer Repository using GORM.
// History rows are append-only: Save inserts new rows and never updates or
// deletes existing ones.
type GormTransferRepository struct {
	db *gorm.DB
}

// NewGormTransferRepository creates a new GormTransferRepository
func NewGormTransferRepository(db *gorm.DB) *GormTransferRepository {
	return &GormTransferRepository{db: db}
}

// Create persists a new transfer with its lines
func (r *GormTransferRepository) Create(ctx context.Context, t *transfer.StockTransfer) error {
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		return mapUniqueViolation(err)
	}
	return nil
}

// FindByID loads a transfer with items, approvals and history
func (r *GormTransferRepository) FindByID(ctx context.Context, id uuid.UUID) (*transfer.StockTransfer, error) {
	var t transfer.StockTransfer
	if err := r.preloaded(ctx).First(&t, "stock_transfers.id = ?", id).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &t, nil
}

// FindByIDForUpdate loads a transfer with an exclusive row lock on the
// header. Children are loaded after the lock is held, so concurrent
// transitions serialize on the header row.
func (r *GormTransferRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*transfer.StockTransfer, error) {
	var t transfer.StockTransfer
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "NOWAIT"}).
		First(&t, "id = ?", id).Error; err != nil {
		if err = mapLockError(err); err == shared.ErrConcurrencyConflict {
			return nil, err
		}
		return nil, mapNotFound(err)
	}
	if err := r.loadChildren(ctx, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// FindByNumber loads a transfer by its reference code
func (r *GormTransferRepository) FindByNumber(ctx context.Context, transferNumber string) (*transfer.StockTransfer, error) {
	var t transfer.StockTransfer
	if err := r.preloaded(ctx).First(&t, "transfer_number = ?", transferNumber).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &t, nil
}

// Save persists the aggregate and its children. Items are upserted, history
// and approvals are insert-only.
func (r *GormTransferRepository) Save(ctx context.Context, t *transfer.StockTransfer) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items", "Approvals", "History").Save(t).Error; err != nil {
			return err
		}
		for idx := range t.Items {
			if err := tx.Save(&t.Items[idx]).Error; err != nil {
				return err
			}
		}
		for idx := range t.Approvals {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&t.Approvals[idx]).Error; err != nil {
				return err
			}
		}
		for idx := range t.History {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&t.History[idx]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// List returns transfers matching the filter. Tombstoned transfers are
// excluded unless the filter carries include_deleted.
func (r *GormTransferRepository) List(ctx context.Context, filter shared.Filter) ([]transfer.StockTransfer, error) {
	var transfers []transfer.StockTransfer
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&transfer.StockTransfer{}).Preload("Items"),
		filter,
	)
	if err := query.Find(&transfers).Error; err != nil {
		return nil, err
	}
	return transfers, nil
}

// Count counts transfers matching the filter
func (r *GormTransferRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyConditions(r.db.WithContext(ctx).Model(&transfer.StockTransfer{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// preloaded returns a query with all child collections attached
func (r *GormTransferRepository) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Items").
		Preload("Approvals", func(db *gorm.DB) *gorm.DB {
			return db.Order("level ASC")
		}).
		Preload("History", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		})
}

// loadChildren populates child collections on an already-loaded header
func (r *GormTransferRepository) loadChildren(ctx context.Context, t *transfer.StockTransfer) error {
	if err := r.db.WithContext(ctx).
		Where("transfer_id = ?", t.ID).
		Find(&t.Items).Error; err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).
		Where("transfer_id = ?", t.ID).
		Order("level ASC").
		Find(&t.Approvals).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Where("transfer_id = ?", t.ID).
		Order("created_at ASC").
		Find(&t.History).Error
}

// applyConditions applies where clauses shared by List and Count
func (r *GormTransferRepository) applyConditions(query *gorm.DB, filter shared.Filter) *gorm.DB {
	includeDeleted := false
	if raw, ok := filter.Filters["include_deleted"]; ok {
		includeDeleted, _ = raw.(bool)
	}
	if !includeDeleted {
		query = query.Where("deleted_at IS NULL")
	}

	if raw, ok := filter.Filters["status"]; ok {
		if status, ok := raw.(string); ok && status != "" {
			query = query.Where("status = ?", status)
		}
	}
	if raw, ok := filter.Filters["from_branch_id"]; ok {
		if id, ok := raw.(uuid.UUID); ok && id != uuid.Nil {
			query = query.Where("from_branch_id = ?", id)
		}
	}
	if raw, ok := filter.Filters["to_branch_id"]; ok {
		if id, ok := raw.(uuid.UUID); ok && id != uuid.Nil {
			query = query.Where("to_branch_id = ?", id)
		}
	}
	return query
}

// applyFilter applies conditions, sorting and pagination
func (r *GormTransferRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyConditions(query, filter)

	sortField := ValidateSortField(filter.OrderBy, TransferSortFields, "created_at")
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

var _ transfer.Repository = (*GormTransferRepository)(nil)
