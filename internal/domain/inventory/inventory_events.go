package inventory

import (
	"github.com/erp/stockcore/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event type constants
const (
	EventTypeMovementRecorded = "inventory.movement_recorded"
	EventTypeStockReserved    = "inventory.stock_reserved"
	EventTypeStockReleased    = "inventory.stock_released"
	EventTypeTransitOpened    = "inventory.transit_opened"
	EventTypeTransitClosed    = "inventory.transit_closed"
	EventTypeTransitCancelled = "inventory.transit_cancelled"
)

// MovementRecordedEvent is emitted after a ledger entry is committed.
// Downstream audit and notification sinks subscribe to it.
type MovementRecordedEvent struct {
	shared.BaseDomainEvent
	ProductID    uuid.UUID           `json:"product_id"`
	BranchID     uuid.UUID           `json:"branch_id"`
	WarehouseID  uuid.UUID           `json:"warehouse_id"`
	MovementType MovementType        `json:"movement_type"`
	Quantity     decimal.Decimal     `json:"quantity"`
	StockAfter   decimal.Decimal     `json:"stock_after"`
	Reference    shared.DocumentRef  `json:"reference"`
}

// NewMovementRecordedEvent creates a MovementRecordedEvent from a ledger entry
func NewMovementRecordedEvent(m *StockMovement) *MovementRecordedEvent {
	return &MovementRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeMovementRecorded, "StockMovement", m.ID),
		ProductID:       m.ProductID,
		BranchID:        m.BranchID,
		WarehouseID:     m.WarehouseID,
		MovementType:    m.MovementType,
		Quantity:        m.Quantity,
		StockAfter:      m.StockAfter,
		Reference:       m.Reference(),
	}
}

// StockReservedEvent is emitted when a soft hold is placed
type StockReservedEvent struct {
	shared.BaseDomainEvent
	ProductID     uuid.UUID       `json:"product_id"`
	BranchID      uuid.UUID       `json:"branch_id"`
	Quantity      decimal.Decimal `json:"quantity"`
	TotalReserved decimal.Decimal `json:"total_reserved"`
}

// NewStockReservedEvent creates a StockReservedEvent
func NewStockReservedEvent(p *ProductStock, quantity decimal.Decimal) *StockReservedEvent {
	return &StockReservedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockReserved, "ProductStock", p.ID),
		ProductID:       p.ProductID,
		BranchID:        p.BranchID,
		Quantity:        quantity,
		TotalReserved:   p.ReservedQuantity,
	}
}

// StockReleasedEvent is emitted when a soft hold is released
type StockReleasedEvent struct {
	shared.BaseDomainEvent
	ProductID     uuid.UUID       `json:"product_id"`
	BranchID      uuid.UUID       `json:"branch_id"`
	Quantity      decimal.Decimal `json:"quantity"`
	TotalReserved decimal.Decimal `json:"total_reserved"`
}

// NewStockReleasedEvent creates a StockReleasedEvent
func NewStockReleasedEvent(p *ProductStock, quantity decimal.Decimal) *StockReleasedEvent {
	return &StockReleasedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockReleased, "ProductStock", p.ID),
		ProductID:       p.ProductID,
		BranchID:        p.BranchID,
		Quantity:        quantity,
		TotalReserved:   p.ReservedQuantity,
	}
}

// TransitOpenedEvent is emitted when a transfer ships a line into transit
type TransitOpenedEvent struct {
	shared.BaseDomainEvent
	TransferID      uuid.UUID       `json:"transfer_id"`
	ProductID       uuid.UUID       `json:"product_id"`
	FromWarehouseID uuid.UUID       `json:"from_warehouse_id"`
	ToWarehouseID   uuid.UUID       `json:"to_warehouse_id"`
	Quantity        decimal.Decimal `json:"quantity"`
}

// NewTransitOpenedEvent creates a TransitOpenedEvent
func NewTransitOpenedEvent(t *InventoryTransit) *TransitOpenedEvent {
	return &TransitOpenedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTransitOpened, "InventoryTransit", t.ID),
		TransferID:      t.TransferID,
		ProductID:       t.ProductID,
		FromWarehouseID: t.FromWarehouseID,
		ToWarehouseID:   t.ToWarehouseID,
		Quantity:        t.Quantity,
	}
}

// TransitClosedEvent is emitted when a transit record fully reconciles
type TransitClosedEvent struct {
	shared.BaseDomainEvent
	TransferID       uuid.UUID       `json:"transfer_id"`
	ProductID        uuid.UUID       `json:"product_id"`
	ReceivedQuantity decimal.Decimal `json:"received_quantity"`
	DamagedQuantity  decimal.Decimal `json:"damaged_quantity"`
}

// NewTransitClosedEvent creates a TransitClosedEvent
func NewTransitClosedEvent(t *InventoryTransit) *TransitClosedEvent {
	return &TransitClosedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeTransitClosed, "InventoryTransit", t.ID),
		TransferID:       t.TransferID,
		ProductID:        t.ProductID,
		ReceivedQuantity: t.ReceivedQuantity,
		DamagedQuantity:  t.DamagedQuantity,
	}
}

// TransitCancelledEvent is emitted when a transit record is cancelled
type TransitCancelledEvent struct {
	shared.BaseDomainEvent
	TransferID uuid.UUID       `json:"transfer_id"`
	ProductID  uuid.UUID       `json:"product_id"`
	Quantity   decimal.Decimal `json:"quantity"`
}

// NewTransitCancelledEvent creates a TransitCancelledEvent
func NewTransitCancelledEvent(t *InventoryTransit) *TransitCancelledEvent {
	return &TransitCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTransitCancelled, "InventoryTransit", t.ID),
		TransferID:      t.TransferID,
		ProductID:       t.ProductID,
		Quantity:        t.Quantity,
	}
}
