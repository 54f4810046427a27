package transfer

import (
	"context"
	"errors"
	"time"

	inventoryapp "github.com/erp/stockcore/internal/application/inventory"
	sequenceapp "github.com/erp/stockcore/internal/application/sequence"
	"github.com/erp/stockcore/internal/domain/inventory"
	"github.com/erp/stockcore/internal/domain/shared"
	"github.com/erp/stockcore/internal/domain/transfer"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service orchestrates the transfer workflow. Every transition runs inside a
// single transaction scope: the aggregate is loaded under an exclusive row
// lock, its guard methods decide whether the transition is allowed, and the
// stock-moving transitions compose ledger writes and transit records into the
// same transaction.
//
// Transition methods return ok=false with a nil error when the transfer is in
// a state that does not permit the transition. Validation failures and
// infrastructure errors are returned as errors.
type Service struct {
	scope     inventoryapp.TransactionScope
	ledger    *inventoryapp.LedgerService
	transits  *inventoryapp.TransitService
	sequences *sequenceapp.Generator
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewService creates a transfer workflow service
func NewService(
	scope inventoryapp.TransactionScope,
	ledger *inventoryapp.LedgerService,
	transits *inventoryapp.TransitService,
	sequences *sequenceapp.Generator,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		scope:     scope,
		ledger:    ledger,
		transits:  transits,
		sequences: sequences,
		logger:    logger,
	}
}

// SetEventPublisher wires an event publisher for post-commit notifications
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

// Create creates a draft transfer. The reference code is allocated from the
// daily sequence in the same transaction, so an error anywhere leaves neither
// a transfer nor a consumed number behind.
func (s *Service) Create(ctx context.Context, req CreateTransferRequest) (*TransferView, error) {
	if len(req.Items) == 0 {
		return nil, shared.NewDomainError("NO_ITEMS", "A transfer requires at least one item")
	}

	var created *transfer.StockTransfer
	err := s.scope.Execute(ctx, func(repos inventoryapp.TransactionalRepositories) error {
		fromBranchID, err := repos.Warehouses().BranchOf(ctx, req.FromWarehouseID)
		if err != nil {
			return err
		}
		toBranchID, err := repos.Warehouses().BranchOf(ctx, req.ToWarehouseID)
		if err != nil {
			return err
		}

		number, err := s.sequences.NextTx(ctx, repos, shared.DocumentKindStockTransfer, time.Now())
		if err != nil {
			return err
		}

		t, err := transfer.NewStockTransfer(
			number, fromBranchID, toBranchID,
			req.FromWarehouseID, req.ToWarehouseID, req.RequestedBy,
		)
		if err != nil {
			return err
		}
		t.Notes = req.Notes
		if req.RequiredApprovals > 0 {
			if err := t.SetRequiredApprovals(req.RequiredApprovals); err != nil {
				return err
			}
		}
		for _, line := range req.Items {
			if _, err := t.AddItem(line.ProductID, line.QtyRequested, line.UnitCost); err != nil {
				return err
			}
		}

		if err := repos.Transfers().Create(ctx, t); err != nil {
			return err
		}
		created = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("transfer created",
		zap.String("transfer_id", created.ID.String()),
		zap.String("transfer_number", created.TransferNumber))
	s.publishEvents(ctx, created)

	view := NewTransferView(created)
	return &view, nil
}

// Get loads a transfer by ID
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*TransferView, error) {
	var view TransferView
	err := s.scope.Execute(ctx, func(repos inventoryapp.TransactionalRepositories) error {
		t, err := repos.Transfers().FindByID(ctx, id)
		if err != nil {
			return err
		}
		view = NewTransferView(t)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// GetByNumber loads a transfer by its reference code
func (s *Service) GetByNumber(ctx context.Context, transferNumber string) (*TransferView, error) {
	var view TransferView
	err := s.scope.Execute(ctx, func(repos inventoryapp.TransactionalRepositories) error {
		t, err := repos.Transfers().FindByNumber(ctx, transferNumber)
		if err != nil {
			return err
		}
		view = NewTransferView(t)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// List returns transfers matching the filter, tombstoned ones excluded
func (s *Service) List(ctx context.Context, filter shared.Filter) (*shared.Paginated[TransferView], error) {
	var page shared.Paginated[TransferView]
	err := s.scope.Execute(ctx, func(repos inventoryapp.TransactionalRepositories) error {
		transfers, err := repos.Transfers().List(ctx, filter)
		if err != nil {
			return err
		}
		total, err := repos.Transfers().Count(ctx, filter)
		if err != nil {
			return err
		}
		views := make([]TransferView, 0, len(transfers))
		for idx := range transfers {
			views = append(views, NewTransferView(&transfers[idx]))
		}
		page = shared.NewPaginated(views, total, filter.Page, filter.PageSize)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// Submit moves a draft transfer into PENDING approval
func (s *Service) Submit(ctx context.Context, id, actorID uuid.UUID) (bool, error) {
	return s.transition(ctx, id, func(t *transfer.StockTransfer) error {
		return t.Submit(actorID)
	})
}

// Approve records one approval level. The transfer advances to APPROVED once
// the required number of levels have signed off.
func (s *Service) Approve(ctx context.Context, id, approverID uuid.UUID, notes string) (bool, error) {
	return s.transition(ctx, id, func(t *transfer.StockTransfer) error {
		return t.Approve(approverID, notes)
	})
}

// Reject rejects a pending transfer
func (s *Service) Reject(ctx context.Context, id, approverID uuid.UUID, reason string) (bool, error) {
	return s.transition(ctx, id, func(t *transfer.StockTransfer) error {
		return t.Reject(approverID, reason)
	})
}

// Cancel cancels a transfer that has not shipped. Transfers in transit cannot
// be cancelled and return ok=false.
func (s *Service) Cancel(ctx context.Context, id, actorID uuid.UUID, reason string) (bool, error) {
	return s.transition(ctx, id, func(t *transfer.StockTransfer) error {
		return t.Cancel(actorID, reason)
	})
}

// Ship moves an approved transfer into transit. In one transaction it locks
// the transfer, debits the source warehouse per line through the ledger and
// opens a transit record per line. Shipped stock belongs to neither branch
// until it is received.
func (s *Service) Ship(ctx context.Context, id uuid.UUID, req ShipRequest) (bool, error) {
	var shipped *transfer.StockTransfer
	var movements []*inventory.StockMovement

	err := s.scope.Execute(ctx, func(repos inventoryapp.TransactionalRepositories) error {
		t, err := repos.Transfers().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}

		if err := t.Ship(req.ActorID, req.Carrier, req.TrackingNumber); err != nil {
			return err
		}

		docRef, err := shared.NewDocumentRef(shared.DocumentKindStockTransfer, t.ID.String())
		if err != nil {
			return err
		}

		for idx := range t.Items {
			item := &t.Items[idx]
			if item.QtyShipped.IsZero() {
				continue
			}

			movement, err := s.ledger.RecordMovementTx(ctx, repos, inventoryapp.MovementRequest{
				ProductID:    item.ProductID,
				WarehouseID:  t.FromWarehouseID,
				MovementType: inventory.MovementTypeTransferOut,
				Quantity:     item.QtyShipped.Neg(),
				UnitCost:     item.UnitCost,
				Reference:    docRef,
				OperatorID:   &req.ActorID,
			})
			if err != nil {
				return err
			}
			movements = append(movements, movement)

			if _, err := s.transits.OpenTx(
				ctx, repos,
				item.ProductID, t.FromWarehouseID, t.ToWarehouseID, t.ID, item.ID,
				item.QtyShipped, item.UnitCost,
			); err != nil {
				return err
			}
		}

		if err := repos.Transfers().Save(ctx, t); err != nil {
			return err
		}
		shipped = t
		return nil
	})
	if err != nil {
		if errors.Is(err, shared.ErrInvalidTransition) {
			return false, nil
		}
		return false, err
	}

	for _, m := range movements {
		s.ledger.PublishMovement(ctx, m)
	}
	s.logger.Info("transfer shipped",
		zap.String("transfer_id", shipped.ID.String()),
		zap.String("carrier", req.Carrier))
	s.publishEvents(ctx, shipped)
	return true, nil
}

// Receive records destination receipt per line. In one transaction it locks
// the transfer, credits the destination warehouse with the received quantity
// net of damage and closes the matching transit records. Damaged quantity is
// accounted on the transit record and never enters the destination ledger.
func (s *Service) Receive(ctx context.Context, id uuid.UUID, req ReceiveRequest) (bool, error) {
	var received *transfer.StockTransfer
	var movements []*inventory.StockMovement

	err := s.scope.Execute(ctx, func(repos inventoryapp.TransactionalRepositories) error {
		t, err := repos.Transfers().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}

		receipts := make([]transfer.ItemReceipt, 0, len(req.Receipts))
		for _, line := range req.Receipts {
			receipts = append(receipts, transfer.ItemReceipt{
				ItemID:      line.ItemID,
				QtyReceived: line.QtyReceived,
				QtyDamaged:  line.QtyDamaged,
			})
		}
		if err := t.Receive(req.ActorID, receipts); err != nil {
			return err
		}

		docRef, err := shared.NewDocumentRef(shared.DocumentKindStockTransfer, t.ID.String())
		if err != nil {
			return err
		}

		for _, line := range req.Receipts {
			item := t.FindItem(line.ItemID)
			if item == nil {
				return shared.NewDomainError("ITEM_NOT_FOUND", "Receipt references an unknown transfer item")
			}
			if line.QtyReceived.IsZero() && line.QtyDamaged.IsZero() {
				continue
			}

			if _, err := s.transits.CloseTx(ctx, repos, item.ID, line.QtyReceived, line.QtyDamaged); err != nil {
				return err
			}

			if line.QtyReceived.IsPositive() {
				movement, err := s.ledger.RecordMovementTx(ctx, repos, inventoryapp.MovementRequest{
					ProductID:    item.ProductID,
					WarehouseID:  t.ToWarehouseID,
					MovementType: inventory.MovementTypeTransferIn,
					Quantity:     line.QtyReceived,
					UnitCost:     item.UnitCost,
					Reference:    docRef,
					OperatorID:   &req.ActorID,
				})
				if err != nil {
					return err
				}
				movements = append(movements, movement)
			}
		}

		if err := repos.Transfers().Save(ctx, t); err != nil {
			return err
		}
		received = t
		return nil
	})
	if err != nil {
		if errors.Is(err, shared.ErrInvalidTransition) {
			return false, nil
		}
		return false, err
	}

	for _, m := range movements {
		s.ledger.PublishMovement(ctx, m)
	}
	s.logger.Info("transfer received", zap.String("transfer_id", received.ID.String()))
	s.publishEvents(ctx, received)
	return true, nil
}

// Complete finalizes a received transfer. Completion is refused with
// ErrConservationViolation while any shipped quantity remains unaccounted,
// either on a line or on an open transit record.
func (s *Service) Complete(ctx context.Context, id, actorID uuid.UUID) (bool, error) {
	var completed *transfer.StockTransfer

	err := s.scope.Execute(ctx, func(repos inventoryapp.TransactionalRepositories) error {
		t, err := repos.Transfers().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}

		if err := t.Complete(actorID); err != nil {
			return err
		}

		open, err := repos.Transits().SumOpenQuantityByTransfer(ctx, t.ID)
		if err != nil {
			return err
		}
		if !open.IsZero() {
			return shared.ErrConservationViolation
		}

		if err := repos.Transfers().Save(ctx, t); err != nil {
			return err
		}
		completed = t
		return nil
	})
	if err != nil {
		if errors.Is(err, shared.ErrInvalidTransition) {
			return false, nil
		}
		return false, err
	}

	s.logger.Info("transfer completed", zap.String("transfer_id", completed.ID.String()))
	s.publishEvents(ctx, completed)
	return true, nil
}

// Delete sets the tombstone on a transfer. Transfers with stock in transit
// cannot be deleted.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.scope.Execute(ctx, func(repos inventoryapp.TransactionalRepositories) error {
		t, err := repos.Transfers().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := t.MarkDeleted(); err != nil {
			return err
		}
		return repos.Transfers().Save(ctx, t)
	})
}

// Restore clears the tombstone and recomputes the header totals from the
// lines before the transfer reappears in listings.
func (s *Service) Restore(ctx context.Context, id uuid.UUID) (*TransferView, error) {
	var view TransferView
	err := s.scope.Execute(ctx, func(repos inventoryapp.TransactionalRepositories) error {
		t, err := repos.Transfers().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := t.Restore(); err != nil {
			return err
		}
		if err := repos.Transfers().Save(ctx, t); err != nil {
			return err
		}
		view = NewTransferView(t)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// OpenTransitQuantity reports shipped quantity not yet received or damaged
// across a transfer's transit records.
func (s *Service) OpenTransitQuantity(ctx context.Context, id uuid.UUID) (decimal.Decimal, error) {
	return s.transits.OpenQuantity(ctx, id)
}

// transition runs a pure status transition under the row lock. A guard
// failure inside fn surfaces as ok=false with no error and no state change.
func (s *Service) transition(ctx context.Context, id uuid.UUID, fn func(t *transfer.StockTransfer) error) (bool, error) {
	var changed *transfer.StockTransfer
	err := s.scope.Execute(ctx, func(repos inventoryapp.TransactionalRepositories) error {
		t, err := repos.Transfers().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(t); err != nil {
			return err
		}
		if err := repos.Transfers().Save(ctx, t); err != nil {
			return err
		}
		changed = t
		return nil
	})
	if err != nil {
		if errors.Is(err, shared.ErrInvalidTransition) {
			return false, nil
		}
		return false, err
	}

	s.publishEvents(ctx, changed)
	return true, nil
}

// publishEvents publishes the aggregate's pending domain events after commit
func (s *Service) publishEvents(ctx context.Context, t *transfer.StockTransfer) {
	if t == nil {
		return
	}
	events := t.GetDomainEvents()
	t.ClearDomainEvents()
	if s.publisher == nil {
		return
	}
	for _, event := range events {
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish transfer event",
				zap.String("event_type", event.EventType()),
				zap.Error(err))
		}
	}
}
