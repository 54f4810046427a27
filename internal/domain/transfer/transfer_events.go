package transfer

import (
	"github.com/erp/stockcore/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event type constants
const (
	EventTypeTransferCreated   = "transfer.created"
	EventTypeTransferSubmitted = "transfer.submitted"
	EventTypeTransferApproved  = "transfer.approved"
	EventTypeTransferRejected  = "transfer.rejected"
	EventTypeTransferShipped   = "transfer.shipped"
	EventTypeTransferReceived  = "transfer.received"
	EventTypeTransferCompleted = "transfer.completed"
	EventTypeTransferCancelled = "transfer.cancelled"
)

// TransferEvent carries the fields shared by all transfer lifecycle events
type TransferEvent struct {
	shared.BaseDomainEvent
	TransferNumber  string         `json:"transfer_number"`
	FromWarehouseID uuid.UUID      `json:"from_warehouse_id"`
	ToWarehouseID   uuid.UUID      `json:"to_warehouse_id"`
	Status          TransferStatus `json:"status"`
	ActorID         uuid.UUID      `json:"actor_id"`
}

func newTransferEvent(eventType string, t *StockTransfer, actorID uuid.UUID) TransferEvent {
	return TransferEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "StockTransfer", t.ID),
		TransferNumber:  t.TransferNumber,
		FromWarehouseID: t.FromWarehouseID,
		ToWarehouseID:   t.ToWarehouseID,
		Status:          t.Status,
		ActorID:         actorID,
	}
}

// TransferCreatedEvent is emitted when a transfer draft is created
type TransferCreatedEvent struct {
	TransferEvent
}

// NewTransferCreatedEvent creates a TransferCreatedEvent
func NewTransferCreatedEvent(t *StockTransfer) *TransferCreatedEvent {
	return &TransferCreatedEvent{newTransferEvent(EventTypeTransferCreated, t, t.RequestedBy)}
}

// TransferSubmittedEvent is emitted when a draft is submitted for approval
type TransferSubmittedEvent struct {
	TransferEvent
}

// NewTransferSubmittedEvent creates a TransferSubmittedEvent
func NewTransferSubmittedEvent(t *StockTransfer, actorID uuid.UUID) *TransferSubmittedEvent {
	return &TransferSubmittedEvent{newTransferEvent(EventTypeTransferSubmitted, t, actorID)}
}

// TransferApprovedEvent is emitted when the final approval level signs off
type TransferApprovedEvent struct {
	TransferEvent
}

// NewTransferApprovedEvent creates a TransferApprovedEvent
func NewTransferApprovedEvent(t *StockTransfer, actorID uuid.UUID) *TransferApprovedEvent {
	return &TransferApprovedEvent{newTransferEvent(EventTypeTransferApproved, t, actorID)}
}

// TransferRejectedEvent is emitted when a pending transfer is rejected
type TransferRejectedEvent struct {
	TransferEvent
	Reason string `json:"reason"`
}

// NewTransferRejectedEvent creates a TransferRejectedEvent
func NewTransferRejectedEvent(t *StockTransfer, actorID uuid.UUID, reason string) *TransferRejectedEvent {
	return &TransferRejectedEvent{
		TransferEvent: newTransferEvent(EventTypeTransferRejected, t, actorID),
		Reason:        reason,
	}
}

// TransferShippedEvent is emitted when stock leaves the source warehouse
type TransferShippedEvent struct {
	TransferEvent
	TotalShipped decimal.Decimal `json:"total_shipped"`
	Carrier      string          `json:"carrier"`
}

// NewTransferShippedEvent creates a TransferShippedEvent
func NewTransferShippedEvent(t *StockTransfer, actorID uuid.UUID) *TransferShippedEvent {
	return &TransferShippedEvent{
		TransferEvent: newTransferEvent(EventTypeTransferShipped, t, actorID),
		TotalShipped:  t.TotalShipped,
		Carrier:       t.Carrier,
	}
}

// TransferReceivedEvent is emitted when the destination records receipt
type TransferReceivedEvent struct {
	TransferEvent
	TotalReceived decimal.Decimal `json:"total_received"`
	TotalDamaged  decimal.Decimal `json:"total_damaged"`
}

// NewTransferReceivedEvent creates a TransferReceivedEvent
func NewTransferReceivedEvent(t *StockTransfer, actorID uuid.UUID) *TransferReceivedEvent {
	return &TransferReceivedEvent{
		TransferEvent: newTransferEvent(EventTypeTransferReceived, t, actorID),
		TotalReceived: t.TotalReceived,
		TotalDamaged:  t.TotalDamaged,
	}
}

// TransferCompletedEvent is emitted when the transfer reconciles and completes
type TransferCompletedEvent struct {
	TransferEvent
}

// NewTransferCompletedEvent creates a TransferCompletedEvent
func NewTransferCompletedEvent(t *StockTransfer, actorID uuid.UUID) *TransferCompletedEvent {
	return &TransferCompletedEvent{newTransferEvent(EventTypeTransferCompleted, t, actorID)}
}

// TransferCancelledEvent is emitted when a transfer is cancelled before shipping
type TransferCancelledEvent struct {
	TransferEvent
	Reason string `json:"reason"`
}

// NewTransferCancelledEvent creates a TransferCancelledEvent
func NewTransferCancelledEvent(t *StockTransfer, actorID uuid.UUID, reason string) *TransferCancelledEvent {
	return &TransferCancelledEvent{
		TransferEvent: newTransferEvent(EventTypeTransferCancelled, t, actorID),
		Reason:        reason,
	}
}
