package inventory

import (
	"context"

	"github.com/erp/stockcore/internal/domain/inventory"
	"github.com/erp/stockcore/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StockCache is a read-through cache of stock levels. The ledger remains the
// source of truth; the cache only short-circuits hot dashboard reads and is
// invalidated after every committed movement.
type StockCache interface {
	// Get returns the cached level, or false if absent
	Get(ctx context.Context, productID, branchID uuid.UUID) (decimal.Decimal, bool, error)
	// Set stores the level computed from the ledger
	Set(ctx context.Context, productID, branchID uuid.UUID, level decimal.Decimal) error
	// Invalidate drops the cached level
	Invalidate(ctx context.Context, productID, branchID uuid.UUID) error
}

// LedgerService is the single legal writer of stock: every quantity change is
// an immutable StockMovement appended inside a transaction that also refreshes
// the cached counter on ProductStock. Reads aggregate the ledger directly.
type LedgerService struct {
	scope          TransactionScope
	warehouseRepo  inventory.WarehouseRepository
	movementRepo   inventory.StockMovementRepository
	stockRepo      inventory.ProductStockRepository
	cache          StockCache
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewLedgerService creates a LedgerService. The standalone repositories serve
// lock-free reads; all writes go through the transaction scope.
func NewLedgerService(
	scope TransactionScope,
	warehouseRepo inventory.WarehouseRepository,
	movementRepo inventory.StockMovementRepository,
	stockRepo inventory.ProductStockRepository,
	logger *zap.Logger,
) *LedgerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerService{
		scope:         scope,
		warehouseRepo: warehouseRepo,
		movementRepo:  movementRepo,
		stockRepo:     stockRepo,
		logger:        logger,
	}
}

// SetStockCache installs the optional read-through cache
func (s *LedgerService) SetStockCache(cache StockCache) {
	s.cache = cache
}

// SetEventPublisher installs the optional event publisher
func (s *LedgerService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// RecordMovement appends one ledger entry in its own transaction
func (s *LedgerService) RecordMovement(ctx context.Context, req MovementRequest) (*inventory.StockMovement, error) {
	var movement *inventory.StockMovement
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		movement, err = s.RecordMovementTx(ctx, repos, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, movement)
	return movement, nil
}

// RecordMovementTx appends one ledger entry inside an existing transaction
// scope. Workflows that must move stock and mutate other aggregates atomically
// (transfer ship/receive) compose through this method. The caller is
// responsible for invoking afterCommit semantics via PublishMovement once its
// own transaction has committed.
//
// The write path is:
//  1. lock the ProductStock row for the (product, branch) pair,
//  2. compute stockBefore as the committed ledger sum,
//  3. enforce the negative-stock policy,
//  4. append the immutable entry with stockAfter = stockBefore + quantity,
//  5. refresh the cached counter in the same transaction.
func (s *LedgerService) RecordMovementTx(ctx context.Context, repos TransactionalRepositories, req MovementRequest) (*inventory.StockMovement, error) {
	if req.Quantity.IsZero() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity cannot be zero")
	}

	branchID, err := repos.Warehouses().BranchOf(ctx, req.WarehouseID)
	if err != nil {
		return nil, err
	}

	stock, err := repos.ProductStocks().GetOrCreate(ctx, req.ProductID, branchID)
	if err != nil {
		return nil, err
	}
	stock, err = repos.ProductStocks().FindForUpdate(ctx, req.ProductID, branchID)
	if err != nil {
		return nil, err
	}

	stockBefore, err := repos.Movements().SumByProductAndBranch(ctx, req.ProductID, branchID)
	if err != nil {
		return nil, err
	}

	if req.Quantity.IsNegative() && !stock.CanDebit(req.Quantity.Neg(), stockBefore) {
		return nil, shared.ErrInsufficientStock
	}

	movement, err := inventory.NewStockMovement(
		req.ProductID, branchID, req.WarehouseID,
		req.MovementType, req.Quantity, req.UnitCost, stockBefore, req.Reference,
	)
	if err != nil {
		return nil, err
	}
	if req.BatchID != nil {
		movement.WithBatchID(*req.BatchID)
	}
	if req.OperatorID != nil {
		movement.WithOperatorID(*req.OperatorID)
	}

	if err := repos.Movements().Append(ctx, movement); err != nil {
		return nil, err
	}

	stock.SyncWithLedger(movement.StockAfter)
	if err := repos.ProductStocks().SyncQuantity(ctx, stock.ID, movement.StockAfter); err != nil {
		return nil, err
	}

	return movement, nil
}

// PublishMovement runs post-commit side effects for a movement recorded
// through RecordMovementTx: cache invalidation and event publication.
func (s *LedgerService) PublishMovement(ctx context.Context, movement *inventory.StockMovement) {
	s.afterCommit(ctx, movement)
}

func (s *LedgerService) afterCommit(ctx context.Context, movement *inventory.StockMovement) {
	if movement == nil {
		return
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, movement.ProductID, movement.BranchID); err != nil {
			s.logger.Warn("failed to invalidate stock cache",
				zap.String("product_id", movement.ProductID.String()),
				zap.String("branch_id", movement.BranchID.String()),
				zap.Error(err))
		}
	}
	if s.eventPublisher != nil {
		if err := s.eventPublisher.Publish(ctx, inventory.NewMovementRecordedEvent(movement)); err != nil {
			s.logger.Warn("failed to publish movement event", zap.Error(err))
		}
	}
}

// GetStock computes the current stock for a (product, branch) pair from the
// ledger. Lock-free: it observes the latest committed state and is safe under
// arbitrary concurrent writers because the ledger is append-only.
func (s *LedgerService) GetStock(ctx context.Context, productID, branchID uuid.UUID) (decimal.Decimal, error) {
	if s.cache != nil {
		level, ok, err := s.cache.Get(ctx, productID, branchID)
		if err != nil {
			s.logger.Debug("failed to read stock cache", zap.Error(err))
		} else if ok {
			return level, nil
		}
	}

	level, err := s.movementRepo.SumByProductAndBranch(ctx, productID, branchID)
	if err != nil {
		return decimal.Zero, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, productID, branchID, level); err != nil {
			s.logger.Debug("failed to prime stock cache", zap.Error(err))
		}
	}
	return level, nil
}

// GetStockView returns the stock position including the reservation state
func (s *LedgerService) GetStockView(ctx context.Context, productID, branchID uuid.UUID) (*StockView, error) {
	level, err := s.movementRepo.SumByProductAndBranch(ctx, productID, branchID)
	if err != nil {
		return nil, err
	}

	view := &StockView{
		ProductID:     productID,
		BranchID:      branchID,
		StockQuantity: level,
		Available:     level,
	}

	stock, err := s.stockRepo.FindByProductAndBranch(ctx, productID, branchID)
	if err != nil {
		if err == shared.ErrNotFound {
			return view, nil
		}
		return nil, err
	}

	view.ReservedQuantity = stock.ReservedQuantity
	view.Available = level.Sub(stock.ReservedQuantity)
	view.AllowNegative = stock.AllowNegative
	return view, nil
}

// GetStockBreakdown returns per-warehouse stock for a product at a branch
func (s *LedgerService) GetStockBreakdown(ctx context.Context, productID, branchID uuid.UUID) ([]WarehouseStockView, error) {
	warehouses, err := s.warehouseRepo.FindByBranch(ctx, branchID)
	if err != nil {
		return nil, err
	}

	breakdown := make([]WarehouseStockView, 0, len(warehouses))
	for _, w := range warehouses {
		qty, err := s.movementRepo.SumByProductAndWarehouse(ctx, productID, w.ID)
		if err != nil {
			return nil, err
		}
		breakdown = append(breakdown, WarehouseStockView{WarehouseID: w.ID, Quantity: qty})
	}
	return breakdown, nil
}

// ListMovements lists ledger entries for a product at a branch
func (s *LedgerService) ListMovements(ctx context.Context, productID, branchID uuid.UUID, filter shared.Filter) (*shared.Paginated[MovementView], error) {
	movements, err := s.movementRepo.FindByProductAndBranch(ctx, productID, branchID, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.movementRepo.CountByProductAndBranch(ctx, productID, branchID, filter)
	if err != nil {
		return nil, err
	}

	views := make([]MovementView, 0, len(movements))
	for idx := range movements {
		views = append(views, NewMovementView(&movements[idx]))
	}
	page := shared.NewPaginated(views, total, filter.Page, filter.PageSize)
	return &page, nil
}
