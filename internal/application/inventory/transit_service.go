package inventory

import (
	"context"

	"github.com/erp/stockcore/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TransitService tracks quantity that has left a source warehouse but not yet
// arrived at its destination. Transit rows live in their own ledger-adjacent
// table that the stock aggregator never counts, which is what keeps in-flight
// quantity out of both the source and destination aggregates.
type TransitService struct {
	scope       TransactionScope
	transitRepo inventory.TransitRepository
	logger      *zap.Logger
}

// NewTransitService creates a TransitService
func NewTransitService(scope TransactionScope, transitRepo inventory.TransitRepository, logger *zap.Logger) *TransitService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransitService{scope: scope, transitRepo: transitRepo, logger: logger}
}

// OpenTx opens a transit record for one transfer line inside an existing
// transaction. Called by the transfer workflow while it debits the source.
func (s *TransitService) OpenTx(
	ctx context.Context,
	repos TransactionalRepositories,
	productID, fromWarehouseID, toWarehouseID, transferID, transferItemID uuid.UUID,
	quantity, unitCost decimal.Decimal,
) (*inventory.InventoryTransit, error) {
	transit, err := inventory.NewInventoryTransit(
		productID, fromWarehouseID, toWarehouseID, transferID, transferItemID, quantity, unitCost,
	)
	if err != nil {
		return nil, err
	}
	if err := repos.Transits().Create(ctx, transit); err != nil {
		return nil, err
	}
	return transit, nil
}

// CloseTx reconciles the open transit record for a transfer line with the
// received and damaged quantities, inside an existing transaction.
func (s *TransitService) CloseTx(
	ctx context.Context,
	repos TransactionalRepositories,
	transferItemID uuid.UUID,
	receivedQty, damagedQty decimal.Decimal,
) (*inventory.InventoryTransit, error) {
	transit, err := repos.Transits().FindOpenByTransferItem(ctx, transferItemID)
	if err != nil {
		return nil, err
	}
	if err := transit.Close(receivedQty, damagedQty); err != nil {
		return nil, err
	}
	if err := repos.Transits().Save(ctx, transit); err != nil {
		return nil, err
	}
	return transit, nil
}

// CancelTx cancels the open transit record for a transfer line inside an
// existing transaction, returning the quantity to the source.
func (s *TransitService) CancelTx(ctx context.Context, repos TransactionalRepositories, transferItemID uuid.UUID) (*inventory.InventoryTransit, error) {
	transit, err := repos.Transits().FindOpenByTransferItem(ctx, transferItemID)
	if err != nil {
		return nil, err
	}
	if err := transit.Cancel(); err != nil {
		return nil, err
	}
	if err := repos.Transits().Save(ctx, transit); err != nil {
		return nil, err
	}
	return transit, nil
}

// ListByTransfer lists all transit records for a transfer
func (s *TransitService) ListByTransfer(ctx context.Context, transferID uuid.UUID) ([]inventory.InventoryTransit, error) {
	return s.transitRepo.FindByTransfer(ctx, transferID)
}

// OpenQuantity returns the unreconciled in-flight quantity for a transfer
func (s *TransitService) OpenQuantity(ctx context.Context, transferID uuid.UUID) (decimal.Decimal, error) {
	return s.transitRepo.SumOpenQuantityByTransfer(ctx, transferID)
}
