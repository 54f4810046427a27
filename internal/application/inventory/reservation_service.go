package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/erp/stockcore/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	// maxLockAttempts bounds retries when the product stock row is contended
	maxLockAttempts = 3
	// lockRetryDelay is the pause between lock attempts
	lockRetryDelay = 10 * time.Millisecond
)

// ReservationService maintains the soft reserved quantity per product so
// concurrent sales cannot over-commit available stock. The check-then-act in
// Reserve is atomic relative to other reservers: the product stock row is
// locked, availability is recomputed from the ledger under that lock, and the
// increment commits in the same transaction.
type ReservationService struct {
	scope  TransactionScope
	logger *zap.Logger
}

// NewReservationService creates a ReservationService
func NewReservationService(scope TransactionScope, logger *zap.Logger) *ReservationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReservationService{scope: scope, logger: logger}
}

// Reserve places a soft hold on available stock. On lock contention the
// operation is retried up to maxLockAttempts; after exhaustion the caller
// receives ErrConcurrencyConflict rather than blocking indefinitely.
func (s *ReservationService) Reserve(ctx context.Context, productID, branchID uuid.UUID, quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Reservation quantity must be positive")
	}

	return s.withLockRetry(ctx, "reserve", func() error {
		return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			stock, err := repos.ProductStocks().GetOrCreate(ctx, productID, branchID)
			if err != nil {
				return err
			}
			stock, err = repos.ProductStocks().FindForUpdate(ctx, productID, branchID)
			if err != nil {
				return err
			}

			currentStock, err := repos.Movements().SumByProductAndBranch(ctx, productID, branchID)
			if err != nil {
				return err
			}

			if err := stock.Reserve(quantity, currentStock); err != nil {
				return err
			}
			return repos.ProductStocks().Save(ctx, stock)
		})
	})
}

// Release removes a soft hold. The decrement is floored at zero, so releasing
// more than is held is safe. The row lock only serializes against concurrent
// reservers; there is no availability check to race on.
func (s *ReservationService) Release(ctx context.Context, productID, branchID uuid.UUID, quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Release quantity must be positive")
	}

	return s.withLockRetry(ctx, "release", func() error {
		return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			stock, err := repos.ProductStocks().FindForUpdate(ctx, productID, branchID)
			if err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					// Nothing reserved for this product yet; release is a no-op.
					return nil
				}
				return err
			}
			if err := stock.Release(quantity); err != nil {
				return err
			}
			return repos.ProductStocks().Save(ctx, stock)
		})
	})
}

// withLockRetry runs fn up to maxLockAttempts times, retrying only on lock
// contention. Any other error aborts immediately.
func (s *ReservationService) withLockRetry(ctx context.Context, op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxLockAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil || !errors.Is(lastErr, shared.ErrConcurrencyConflict) {
			return lastErr
		}

		s.logger.Debug("lock contention, retrying",
			zap.String("operation", op),
			zap.Int("attempt", attempt))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(lockRetryDelay):
		}
	}
	return shared.ErrConcurrencyConflict
}
