package inventory

import (
	"context"

	"github.com/erp/stockcore/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockMovementRepository persists the append-only movement ledger.
// There are deliberately no update or delete operations: corrections are made
// with new entries.
type StockMovementRepository interface {
	// Append writes a new immutable ledger entry
	Append(ctx context.Context, movement *StockMovement) error
	// FindByID finds a ledger entry by ID
	FindByID(ctx context.Context, id uuid.UUID) (*StockMovement, error)
	// FindByProductAndBranch lists entries for a product at a branch
	FindByProductAndBranch(ctx context.Context, productID, branchID uuid.UUID, filter shared.Filter) ([]StockMovement, error)
	// CountByProductAndBranch counts entries for a product at a branch
	CountByProductAndBranch(ctx context.Context, productID, branchID uuid.UUID, filter shared.Filter) (int64, error)
	// SumByProductAndBranch sums signed quantities for a product, scoped to a
	// branch through warehouse ownership. This is the stock aggregate.
	SumByProductAndBranch(ctx context.Context, productID, branchID uuid.UUID) (decimal.Decimal, error)
	// SumByProductAndWarehouse sums signed quantities for a product at one warehouse
	SumByProductAndWarehouse(ctx context.Context, productID, warehouseID uuid.UUID) (decimal.Decimal, error)
	// FindByReference lists entries that point back at an originating document
	FindByReference(ctx context.Context, ref shared.DocumentRef) ([]StockMovement, error)
}

// ProductStockRepository persists the cached counter and reservation state.
// Save never writes StockQuantity; the cached counter moves only through
// SyncQuantity, which the ledger invokes inside its own transaction.
type ProductStockRepository interface {
	// FindByProductAndBranch finds the stock record without locking
	FindByProductAndBranch(ctx context.Context, productID, branchID uuid.UUID) (*ProductStock, error)
	// FindForUpdate finds the stock record with an exclusive row lock.
	// Must be called inside a transaction scope.
	FindForUpdate(ctx context.Context, productID, branchID uuid.UUID) (*ProductStock, error)
	// GetOrCreate returns the stock record, creating a zero record on first use
	GetOrCreate(ctx context.Context, productID, branchID uuid.UUID) (*ProductStock, error)
	// Save persists reservation state and policy. Attempts to change the
	// cached stock counter through Save fail with ErrLedgerBypass.
	Save(ctx context.Context, stock *ProductStock) error
	// SyncQuantity writes the cached counter after a ledger append. Reserved
	// for the ledger write path.
	SyncQuantity(ctx context.Context, id uuid.UUID, stockAfter decimal.Decimal) error
}

// TransitRepository persists in-transit records. Records are closed by status
// flips; there is no delete.
type TransitRepository interface {
	// Create opens a new transit record
	Create(ctx context.Context, transit *InventoryTransit) error
	// FindByID finds a transit record by ID
	FindByID(ctx context.Context, id uuid.UUID) (*InventoryTransit, error)
	// FindByTransfer lists all transit records for a transfer
	FindByTransfer(ctx context.Context, transferID uuid.UUID) ([]InventoryTransit, error)
	// FindOpenByTransferItem finds the open record for one transfer line
	FindOpenByTransferItem(ctx context.Context, transferItemID uuid.UUID) (*InventoryTransit, error)
	// Save persists reconciliation state changes
	Save(ctx context.Context, transit *InventoryTransit) error
	// SumOpenQuantityByTransfer sums the unreconciled quantity across a
	// transfer's open records
	SumOpenQuantityByTransfer(ctx context.Context, transferID uuid.UUID) (decimal.Decimal, error)
}

// WarehouseRepository is the read-only lookup of warehouse and branch master
// data consumed by branch-scoped aggregation. Maintenance of this data is an
// external collaborator.
type WarehouseRepository interface {
	// FindByID finds a warehouse by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Warehouse, error)
	// FindByBranch lists warehouses owned by a branch
	FindByBranch(ctx context.Context, branchID uuid.UUID) ([]Warehouse, error)
	// BranchOf returns the owning branch ID for a warehouse
	BranchOf(ctx context.Context, warehouseID uuid.UUID) (uuid.UUID, error)
}
