package transfer

import (
	"context"

	"github.com/erp/stockcore/internal/domain/shared"
	"github.com/google/uuid"
)

// Repository persists StockTransfer aggregates with their items, approvals
// and history rows. History rows are append-only; persistence must never
// update or delete them.
type Repository interface {
	// Create persists a new transfer with its lines
	Create(ctx context.Context, transfer *StockTransfer) error
	// FindByID loads a transfer with items, approvals and history
	FindByID(ctx context.Context, id uuid.UUID) (*StockTransfer, error)
	// FindByIDForUpdate loads a transfer with an exclusive row lock on the
	// header. Must be called inside a transaction scope.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*StockTransfer, error)
	// FindByNumber loads a transfer by its reference code
	FindByNumber(ctx context.Context, transferNumber string) (*StockTransfer, error)
	// Save persists the aggregate and its children
	Save(ctx context.Context, transfer *StockTransfer) error
	// List returns transfers matching the filter. Tombstoned transfers are
	// excluded unless the filter explicitly asks for them.
	List(ctx context.Context, filter shared.Filter) ([]StockTransfer, error)
	// Count counts transfers matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}
