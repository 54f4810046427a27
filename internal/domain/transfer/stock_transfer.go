package transfer

import (
	"fmt"
	"time"

	"github.com/erp/stockcore/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransferStatus represents the status of a stock transfer
type TransferStatus string

const (
	TransferStatusDraft     TransferStatus = "DRAFT"
	TransferStatusPending   TransferStatus = "PENDING"
	TransferStatusApproved  TransferStatus = "APPROVED"
	TransferStatusInTransit TransferStatus = "IN_TRANSIT"
	TransferStatusReceived  TransferStatus = "RECEIVED"
	TransferStatusCompleted TransferStatus = "COMPLETED"
	TransferStatusRejected  TransferStatus = "REJECTED"
	TransferStatusCancelled TransferStatus = "CANCELLED"
)

// IsValid checks if the status is a valid TransferStatus
func (s TransferStatus) IsValid() bool {
	switch s {
	case TransferStatusDraft, TransferStatusPending, TransferStatusApproved,
		TransferStatusInTransit, TransferStatusReceived, TransferStatusCompleted,
		TransferStatusRejected, TransferStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of TransferStatus
func (s TransferStatus) String() string {
	return string(s)
}

// IsTerminal returns true for states with no outgoing transitions
func (s TransferStatus) IsTerminal() bool {
	switch s {
	case TransferStatusCompleted, TransferStatusRejected, TransferStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo checks if the status can transition to the target status.
// There is deliberately no transition from IN_TRANSIT to CANCELLED: shipped
// quantity must be received first and reversed through a separate return flow.
func (s TransferStatus) CanTransitionTo(target TransferStatus) bool {
	switch s {
	case TransferStatusDraft:
		return target == TransferStatusPending || target == TransferStatusCancelled
	case TransferStatusPending:
		return target == TransferStatusApproved || target == TransferStatusRejected || target == TransferStatusCancelled
	case TransferStatusApproved:
		return target == TransferStatusInTransit || target == TransferStatusCancelled
	case TransferStatusInTransit:
		return target == TransferStatusReceived
	case TransferStatusReceived:
		return target == TransferStatusCompleted
	}
	return false
}

// ApprovalDecision is the outcome of one approval level
type ApprovalDecision string

const (
	ApprovalDecisionApproved ApprovalDecision = "APPROVED"
	ApprovalDecisionRejected ApprovalDecision = "REJECTED"
)

// StockTransferApproval records one approver's decision at one level
type StockTransferApproval struct {
	ID         uuid.UUID        `gorm:"type:uuid;primaryKey"`
	TransferID uuid.UUID        `gorm:"type:uuid;not null;index"`
	Level      int              `gorm:"not null"`
	ApproverID uuid.UUID        `gorm:"type:uuid;not null"`
	Decision   ApprovalDecision `gorm:"type:varchar(20);not null"`
	Notes      string           `gorm:"type:varchar(255)"`
	DecidedAt  time.Time        `gorm:"type:timestamptz;not null"`
}

// TableName returns the table name for GORM
func (StockTransferApproval) TableName() string {
	return "stock_transfer_approvals"
}

// StockTransferHistory is an append-only audit row for one status change
type StockTransferHistory struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey"`
	TransferID uuid.UUID      `gorm:"type:uuid;not null;index"`
	FromStatus TransferStatus `gorm:"type:varchar(20);not null"`
	ToStatus   TransferStatus `gorm:"type:varchar(20);not null"`
	ActorID    uuid.UUID      `gorm:"type:uuid;not null"`
	Notes      string         `gorm:"type:varchar(255)"`
	CreatedAt  time.Time      `gorm:"type:timestamptz;not null"`
}

// TableName returns the table name for GORM
func (StockTransferHistory) TableName() string {
	return "stock_transfer_history"
}

// StockTransfer is the aggregate root for a multi-stage stock transfer between
// warehouses. All lifecycle changes go through the transition methods; a
// transition whose guard fails returns shared.ErrInvalidTransition and leaves
// the aggregate untouched.
type StockTransfer struct {
	shared.BaseAggregateRoot
	TransferNumber    string         `gorm:"type:varchar(50);not null;uniqueIndex"`
	FromBranchID      uuid.UUID      `gorm:"type:uuid;not null;index"`
	ToBranchID        uuid.UUID      `gorm:"type:uuid;not null;index"`
	FromWarehouseID   uuid.UUID      `gorm:"type:uuid;not null"`
	ToWarehouseID     uuid.UUID      `gorm:"type:uuid;not null"`
	Status            TransferStatus `gorm:"type:varchar(20);not null;index"`
	RequestedBy       uuid.UUID      `gorm:"type:uuid;not null"`
	RequiredApprovals int            `gorm:"not null;default:1"`
	Carrier           string         `gorm:"type:varchar(100)"`
	TrackingNumber    string         `gorm:"type:varchar(100)"`
	Notes             string         `gorm:"type:varchar(255)"`
	CancelReason      string         `gorm:"type:varchar(255)"`

	TotalRequested decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalShipped   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalReceived  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalDamaged   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`

	SubmittedAt *time.Time `gorm:"type:timestamptz"`
	ApprovedAt  *time.Time `gorm:"type:timestamptz"`
	ShippedAt   *time.Time `gorm:"type:timestamptz"`
	ReceivedAt  *time.Time `gorm:"type:timestamptz"`
	CompletedAt *time.Time `gorm:"type:timestamptz"`
	CancelledAt *time.Time `gorm:"type:timestamptz"`

	// DeletedAt is an explicit tombstone: deleted transfers are hidden from
	// listings and can be restored, which recomputes dependent totals.
	DeletedAt *time.Time `gorm:"type:timestamptz;index"`

	Items     []StockTransferItem     `gorm:"foreignKey:TransferID;references:ID"`
	Approvals []StockTransferApproval `gorm:"foreignKey:TransferID;references:ID"`
	History   []StockTransferHistory  `gorm:"foreignKey:TransferID;references:ID"`
}

// TableName returns the table name for GORM
func (StockTransfer) TableName() string {
	return "stock_transfers"
}

// NewStockTransfer creates a transfer in DRAFT status
func NewStockTransfer(
	transferNumber string,
	fromBranchID, toBranchID, fromWarehouseID, toWarehouseID, requestedBy uuid.UUID,
) (*StockTransfer, error) {
	if transferNumber == "" {
		return nil, shared.NewDomainError("INVALID_TRANSFER_NUMBER", "Transfer number cannot be empty")
	}
	if fromBranchID == uuid.Nil || toBranchID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_BRANCH", "Branch IDs cannot be empty")
	}
	if fromWarehouseID == uuid.Nil || toWarehouseID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_WAREHOUSE", "Warehouse IDs cannot be empty")
	}
	if fromWarehouseID == toWarehouseID {
		return nil, shared.NewDomainError("INVALID_WAREHOUSE", "Source and destination warehouses must differ")
	}
	if requestedBy == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ACTOR", "Requesting user ID cannot be empty")
	}

	t := &StockTransfer{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		TransferNumber:    transferNumber,
		FromBranchID:      fromBranchID,
		ToBranchID:        toBranchID,
		FromWarehouseID:   fromWarehouseID,
		ToWarehouseID:     toWarehouseID,
		Status:            TransferStatusDraft,
		RequestedBy:       requestedBy,
		RequiredApprovals: 1,
		TotalRequested:    decimal.Zero,
		TotalShipped:      decimal.Zero,
		TotalReceived:     decimal.Zero,
		TotalDamaged:      decimal.Zero,
		Items:             make([]StockTransferItem, 0),
		Approvals:         make([]StockTransferApproval, 0),
		History:           make([]StockTransferHistory, 0),
	}

	t.AddDomainEvent(NewTransferCreatedEvent(t))
	return t, nil
}

// SetRequiredApprovals sets how many approval levels must sign off.
// Only allowed while the transfer is a draft.
func (t *StockTransfer) SetRequiredApprovals(levels int) error {
	if t.Status != TransferStatusDraft {
		return shared.ErrInvalidTransition
	}
	if levels < 1 {
		return shared.NewDomainError("INVALID_APPROVAL_LEVELS", "At least one approval level is required")
	}
	t.RequiredApprovals = levels
	t.Touch()
	return nil
}

// AddItem adds a line to the transfer. Only allowed in DRAFT status.
func (t *StockTransfer) AddItem(productID uuid.UUID, qtyRequested, unitCost decimal.Decimal) (*StockTransferItem, error) {
	if t.Status != TransferStatusDraft {
		return nil, shared.ErrInvalidTransition
	}
	for _, item := range t.Items {
		if item.ProductID == productID {
			return nil, shared.NewDomainError("DUPLICATE_PRODUCT", "Product already on the transfer, update quantity instead")
		}
	}

	item, err := NewStockTransferItem(t.ID, productID, qtyRequested, unitCost)
	if err != nil {
		return nil, err
	}

	t.Items = append(t.Items, *item)
	t.recalculateTotals()
	t.Touch()
	return item, nil
}

// UpdateItemQuantity changes a line's requested quantity. DRAFT only.
func (t *StockTransfer) UpdateItemQuantity(itemID uuid.UUID, qty decimal.Decimal) error {
	if t.Status != TransferStatusDraft {
		return shared.ErrInvalidTransition
	}
	for idx := range t.Items {
		if t.Items[idx].ID == itemID {
			if err := t.Items[idx].UpdateQuantity(qty); err != nil {
				return err
			}
			t.recalculateTotals()
			t.Touch()
			return nil
		}
	}
	return shared.NewDomainError("ITEM_NOT_FOUND", "Transfer item not found")
}

// RemoveItem removes a line. DRAFT only.
func (t *StockTransfer) RemoveItem(itemID uuid.UUID) error {
	if t.Status != TransferStatusDraft {
		return shared.ErrInvalidTransition
	}
	for idx, item := range t.Items {
		if item.ID == itemID {
			t.Items = append(t.Items[:idx], t.Items[idx+1:]...)
			t.recalculateTotals()
			t.Touch()
			return nil
		}
	}
	return shared.NewDomainError("ITEM_NOT_FOUND", "Transfer item not found")
}

// Submit moves the transfer from DRAFT to PENDING approval
func (t *StockTransfer) Submit(actorID uuid.UUID) error {
	if !t.Status.CanTransitionTo(TransferStatusPending) {
		return shared.ErrInvalidTransition
	}
	if len(t.Items) == 0 {
		return shared.NewDomainError("NO_ITEMS", "Cannot submit a transfer without items")
	}

	now := time.Now()
	t.recordHistory(t.Status, TransferStatusPending, actorID, "")
	t.Status = TransferStatusPending
	t.SubmittedAt = &now
	t.Touch()
	t.IncrementVersion()

	t.AddDomainEvent(NewTransferSubmittedEvent(t, actorID))
	return nil
}

// Approve records one approval level. The transfer moves to APPROVED once
// the required number of levels have signed off; earlier approvals leave it
// PENDING.
func (t *StockTransfer) Approve(approverID uuid.UUID, notes string) error {
	if !t.Status.CanTransitionTo(TransferStatusApproved) {
		return shared.ErrInvalidTransition
	}
	if approverID == uuid.Nil {
		return shared.NewDomainError("INVALID_ACTOR", "Approver ID cannot be empty")
	}
	for _, a := range t.Approvals {
		if a.ApproverID == approverID && a.Decision == ApprovalDecisionApproved {
			return shared.NewDomainError("DUPLICATE_APPROVAL", "Approver has already signed off")
		}
	}

	now := time.Now()
	level := t.approvedLevels() + 1
	t.Approvals = append(t.Approvals, StockTransferApproval{
		ID:         uuid.New(),
		TransferID: t.ID,
		Level:      level,
		ApproverID: approverID,
		Decision:   ApprovalDecisionApproved,
		Notes:      notes,
		DecidedAt:  now,
	})

	if t.approvedLevels() < t.RequiredApprovals {
		t.Touch()
		return nil
	}

	// Final level: lock in approved quantities and advance.
	for idx := range t.Items {
		t.Items[idx].QtyApproved = t.Items[idx].QtyRequested
		t.Items[idx].UpdatedAt = now
	}
	t.recordHistory(t.Status, TransferStatusApproved, approverID, notes)
	t.Status = TransferStatusApproved
	t.ApprovedAt = &now
	t.Touch()
	t.IncrementVersion()

	t.AddDomainEvent(NewTransferApprovedEvent(t, approverID))
	return nil
}

// Reject rejects a pending transfer. Terminal.
func (t *StockTransfer) Reject(approverID uuid.UUID, reason string) error {
	if !t.Status.CanTransitionTo(TransferStatusRejected) {
		return shared.ErrInvalidTransition
	}
	if approverID == uuid.Nil {
		return shared.NewDomainError("INVALID_ACTOR", "Approver ID cannot be empty")
	}

	now := time.Now()
	t.Approvals = append(t.Approvals, StockTransferApproval{
		ID:         uuid.New(),
		TransferID: t.ID,
		Level:      t.approvedLevels() + 1,
		ApproverID: approverID,
		Decision:   ApprovalDecisionRejected,
		Notes:      reason,
		DecidedAt:  now,
	})
	t.recordHistory(t.Status, TransferStatusRejected, approverID, reason)
	t.Status = TransferStatusRejected
	t.Touch()
	t.IncrementVersion()

	t.AddDomainEvent(NewTransferRejectedEvent(t, approverID, reason))
	return nil
}

// Ship marks the transfer in transit and locks in shipped quantities.
// The caller debits the source warehouse and opens transit records in the
// same transaction.
func (t *StockTransfer) Ship(actorID uuid.UUID, carrier, trackingNumber string) error {
	if !t.Status.CanTransitionTo(TransferStatusInTransit) {
		return shared.ErrInvalidTransition
	}
	if len(t.Items) == 0 {
		return shared.NewDomainError("NO_ITEMS", "Cannot ship a transfer without items")
	}

	now := time.Now()
	for idx := range t.Items {
		t.Items[idx].QtyShipped = t.Items[idx].QtyApproved
		t.Items[idx].UpdatedAt = now
	}
	t.Carrier = carrier
	t.TrackingNumber = trackingNumber
	t.recordHistory(t.Status, TransferStatusInTransit, actorID, fmt.Sprintf("Shipped via %s", carrier))
	t.Status = TransferStatusInTransit
	t.ShippedAt = &now
	t.recalculateTotals()
	t.Touch()
	t.IncrementVersion()

	t.AddDomainEvent(NewTransferShippedEvent(t, actorID))
	return nil
}

// ItemReceipt reports the received and damaged quantity for one line
type ItemReceipt struct {
	ItemID      uuid.UUID
	QtyReceived decimal.Decimal
	QtyDamaged  decimal.Decimal
}

// Receive records destination receipt per line. Received plus damaged may not
// exceed the shipped quantity of any line. The caller credits the destination
// warehouse and closes transit records in the same transaction.
func (t *StockTransfer) Receive(actorID uuid.UUID, receipts []ItemReceipt) error {
	if !t.Status.CanTransitionTo(TransferStatusReceived) {
		return shared.ErrInvalidTransition
	}
	if len(receipts) == 0 {
		return shared.NewDomainError("NO_RECEIPTS", "At least one line receipt is required")
	}

	byItem := make(map[uuid.UUID]ItemReceipt, len(receipts))
	for _, r := range receipts {
		if r.QtyReceived.IsNegative() || r.QtyDamaged.IsNegative() {
			return shared.NewDomainError("INVALID_QUANTITY", "Received and damaged quantities cannot be negative")
		}
		byItem[r.ItemID] = r
	}

	// Validate every receipt against its line before mutating anything.
	for idx := range t.Items {
		r, ok := byItem[t.Items[idx].ID]
		if !ok {
			continue
		}
		total := t.Items[idx].QtyReceived.Add(t.Items[idx].QtyDamaged).Add(r.QtyReceived).Add(r.QtyDamaged)
		if total.GreaterThan(t.Items[idx].QtyShipped) {
			return shared.NewDomainError("INVALID_QUANTITY",
				fmt.Sprintf("Received plus damaged exceeds shipped quantity for item %s", t.Items[idx].ID))
		}
	}

	now := time.Now()
	for idx := range t.Items {
		r, ok := byItem[t.Items[idx].ID]
		if !ok {
			continue
		}
		t.Items[idx].QtyReceived = t.Items[idx].QtyReceived.Add(r.QtyReceived)
		t.Items[idx].QtyDamaged = t.Items[idx].QtyDamaged.Add(r.QtyDamaged)
		t.Items[idx].UpdatedAt = now
	}

	t.recordHistory(t.Status, TransferStatusReceived, actorID, "")
	t.Status = TransferStatusReceived
	t.ReceivedAt = &now
	t.recalculateTotals()
	t.Touch()
	t.IncrementVersion()

	t.AddDomainEvent(NewTransferReceivedEvent(t, actorID))
	return nil
}

// Complete finalizes the transfer. Completion is refused while any line has
// shipped quantity that is neither received nor damaged; that remainder is
// still in transit.
func (t *StockTransfer) Complete(actorID uuid.UUID) error {
	if !t.Status.CanTransitionTo(TransferStatusCompleted) {
		return shared.ErrInvalidTransition
	}
	for idx := range t.Items {
		if !t.Items[idx].IsReconciled() {
			return shared.ErrConservationViolation
		}
	}

	now := time.Now()
	t.recalculateTotals()
	t.recordHistory(t.Status, TransferStatusCompleted, actorID, "")
	t.Status = TransferStatusCompleted
	t.CompletedAt = &now
	t.Touch()
	t.IncrementVersion()

	t.AddDomainEvent(NewTransferCompletedEvent(t, actorID))
	return nil
}

// Cancel cancels a transfer before it ships. IN_TRANSIT transfers cannot be
// cancelled; shipped stock must be received and reversed through a return.
func (t *StockTransfer) Cancel(actorID uuid.UUID, reason string) error {
	if !t.Status.CanTransitionTo(TransferStatusCancelled) {
		return shared.ErrInvalidTransition
	}

	now := time.Now()
	t.recordHistory(t.Status, TransferStatusCancelled, actorID, reason)
	t.Status = TransferStatusCancelled
	t.CancelReason = reason
	t.CancelledAt = &now
	t.Touch()
	t.IncrementVersion()

	t.AddDomainEvent(NewTransferCancelledEvent(t, actorID, reason))
	return nil
}

// MarkDeleted sets the tombstone. Transfers with stock in flight cannot be
// hidden.
func (t *StockTransfer) MarkDeleted() error {
	if t.Status == TransferStatusInTransit {
		return shared.NewDomainError("INVALID_STATE", "Cannot delete a transfer with stock in transit")
	}
	if t.DeletedAt != nil {
		return shared.NewDomainError("ALREADY_DELETED", "Transfer is already deleted")
	}
	now := time.Now()
	t.DeletedAt = &now
	t.Touch()
	return nil
}

// Restore clears the tombstone and recomputes dependent totals
func (t *StockTransfer) Restore() error {
	if t.DeletedAt == nil {
		return shared.NewDomainError("NOT_DELETED", "Transfer is not deleted")
	}
	t.DeletedAt = nil
	t.recalculateTotals()
	t.Touch()
	return nil
}

// IsDeleted returns true if the tombstone is set
func (t *StockTransfer) IsDeleted() bool {
	return t.DeletedAt != nil
}

// FindItem returns the line with the given ID, or nil
func (t *StockTransfer) FindItem(itemID uuid.UUID) *StockTransferItem {
	for idx := range t.Items {
		if t.Items[idx].ID == itemID {
			return &t.Items[idx]
		}
	}
	return nil
}

// approvedLevels counts approvals with an approved decision
func (t *StockTransfer) approvedLevels() int {
	count := 0
	for _, a := range t.Approvals {
		if a.Decision == ApprovalDecisionApproved {
			count++
		}
	}
	return count
}

// recalculateTotals recomputes header totals from the lines
func (t *StockTransfer) recalculateTotals() {
	requested, shipped, received, damaged := decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero
	for idx := range t.Items {
		requested = requested.Add(t.Items[idx].QtyRequested)
		shipped = shipped.Add(t.Items[idx].QtyShipped)
		received = received.Add(t.Items[idx].QtyReceived)
		damaged = damaged.Add(t.Items[idx].QtyDamaged)
	}
	t.TotalRequested = requested
	t.TotalShipped = shipped
	t.TotalReceived = received
	t.TotalDamaged = damaged
}

// recordHistory appends an audit row for a status change
func (t *StockTransfer) recordHistory(from, to TransferStatus, actorID uuid.UUID, notes string) {
	t.History = append(t.History, StockTransferHistory{
		ID:         uuid.New(),
		TransferID: t.ID,
		FromStatus: from,
		ToStatus:   to,
		ActorID:    actorID,
		Notes:      notes,
		CreatedAt:  time.Now(),
	})
}
