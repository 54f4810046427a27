package persistence

import (
	"context"

	appinv "github.com/erp/stockcore/internal/application/inventory"
	"github.com/erp/stockcore/internal/domain/inventory"
	"github.com/erp/stockcore/internal/domain/sequence"
	"github.com/erp/stockcore/internal/domain/transfer"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// All repositories handed to the scope function share one transaction, so a
// workflow step commits or rolls back as a unit.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appinv.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories provides access to all repositories within
// one transaction
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// ProductStocks returns the product stock repository scoped to the transaction
func (r *gormTransactionalRepositories) ProductStocks() inventory.ProductStockRepository {
	return NewGormProductStockRepository(r.tx)
}

// Movements returns the ledger repository scoped to the transaction
func (r *gormTransactionalRepositories) Movements() inventory.StockMovementRepository {
	return NewGormStockMovementRepository(r.tx)
}

// Transits returns the transit repository scoped to the transaction
func (r *gormTransactionalRepositories) Transits() inventory.TransitRepository {
	return NewGormTransitRepository(r.tx)
}

// Warehouses returns the warehouse lookup scoped to the transaction
func (r *gormTransactionalRepositories) Warehouses() inventory.WarehouseRepository {
	return NewGormWarehouseRepository(r.tx)
}

// Transfers returns the transfer repository scoped to the transaction
func (r *gormTransactionalRepositories) Transfers() transfer.Repository {
	return NewGormTransferRepository(r.tx)
}

// Sequences returns the document sequence repository scoped to the transaction
func (r *gormTransactionalRepositories) Sequences() sequence.Repository {
	return NewGormSequenceRepository(r.tx)
}

var _ appinv.TransactionScope = (*GormTransactionScope)(nil)
var _ appinv.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
