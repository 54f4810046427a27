package inventory

import (
	"context"

	"github.com/erp/stockcore/internal/domain/inventory"
	"github.com/erp/stockcore/internal/domain/sequence"
	"github.com/erp/stockcore/internal/domain/transfer"
)

// TransactionScope provides transactional access to the stock repositories.
// When a function is executed within a transaction scope, all repository
// operations are part of the same database transaction and commit or roll
// back atomically. Row locks taken inside the scope are held only until the
// scope returns, never across a whole request.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back;
	// otherwise it is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all repositories within one
// transaction. Ledger writes, reservation changes, transfer transitions and
// sequence allocation compose through this interface so that a workflow step
// such as "ship" debits stock, opens transit records and advances the
// transfer in a single atomic unit.
type TransactionalRepositories interface {
	// ProductStocks returns the product stock repository scoped to the transaction
	ProductStocks() inventory.ProductStockRepository
	// Movements returns the ledger repository scoped to the transaction
	Movements() inventory.StockMovementRepository
	// Transits returns the transit repository scoped to the transaction
	Transits() inventory.TransitRepository
	// Warehouses returns the warehouse lookup scoped to the transaction
	Warehouses() inventory.WarehouseRepository
	// Transfers returns the transfer repository scoped to the transaction
	Transfers() transfer.Repository
	// Sequences returns the document sequence repository scoped to the transaction
	Sequences() sequence.Repository
}

// NoOpTransactionScope runs scope functions without a real transaction.
// Used in tests and wherever transactional guarantees are provided elsewhere.
type NoOpTransactionScope struct {
	productStocks inventory.ProductStockRepository
	movements     inventory.StockMovementRepository
	transits      inventory.TransitRepository
	warehouses    inventory.WarehouseRepository
	transfers     transfer.Repository
	sequences     sequence.Repository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope over the given repositories
func NewNoOpTransactionScope(
	productStocks inventory.ProductStockRepository,
	movements inventory.StockMovementRepository,
	transits inventory.TransitRepository,
	warehouses inventory.WarehouseRepository,
	transfers transfer.Repository,
	sequences sequence.Repository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		productStocks: productStocks,
		movements:     movements,
		transits:      transits,
		warehouses:    warehouses,
		transfers:     transfers,
		sequences:     sequences,
	}
}

// Execute runs the function without a real transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// ProductStocks returns the product stock repository
func (s *NoOpTransactionScope) ProductStocks() inventory.ProductStockRepository {
	return s.productStocks
}

// Movements returns the ledger repository
func (s *NoOpTransactionScope) Movements() inventory.StockMovementRepository {
	return s.movements
}

// Transits returns the transit repository
func (s *NoOpTransactionScope) Transits() inventory.TransitRepository {
	return s.transits
}

// Warehouses returns the warehouse lookup
func (s *NoOpTransactionScope) Warehouses() inventory.WarehouseRepository {
	return s.warehouses
}

// Transfers returns the transfer repository
func (s *NoOpTransactionScope) Transfers() transfer.Repository {
	return s.transfers
}

// Sequences returns the document sequence repository
func (s *NoOpTransactionScope) Sequences() sequence.Repository {
	return s.sequences
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
