package inventory

import (
	"time"

	"github.com/erp/stockcore/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransitStatus represents the state of an in-transit record
type TransitStatus string

const (
	// TransitStatusInTransit means the quantity has left the source but has not arrived
	TransitStatusInTransit TransitStatus = "IN_TRANSIT"
	// TransitStatusReceived means the quantity has been reconciled at the destination
	TransitStatusReceived TransitStatus = "RECEIVED"
	// TransitStatusCancelled means the shipment was cancelled and returned to source
	TransitStatusCancelled TransitStatus = "CANCELLED"
)

// IsValid returns true if the transit status is valid
func (s TransitStatus) IsValid() bool {
	switch s {
	case TransitStatusInTransit, TransitStatusReceived, TransitStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of TransitStatus
func (s TransitStatus) String() string {
	return string(s)
}

// InventoryTransit records quantity that has left a source warehouse but not
// yet arrived at a destination. While a record is open its quantity is counted
// in neither the source nor the destination aggregate: the ledger has already
// debited the source, and the destination is credited only on receipt. Records
// are closed by a status flip, never deleted.
type InventoryTransit struct {
	shared.BaseEntity
	ProductID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	FromWarehouseID  uuid.UUID       `gorm:"type:uuid;not null"`
	ToWarehouseID    uuid.UUID       `gorm:"type:uuid;not null"`
	TransferID       uuid.UUID       `gorm:"type:uuid;not null;index:idx_inventory_transits_transfer"`
	TransferItemID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity         decimal.Decimal `gorm:"type:decimal(18,4);not null"` // Quantity shipped into transit
	UnitCost         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ReceivedQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	DamagedQuantity  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Status           TransitStatus   `gorm:"type:varchar(20);not null;index"`
	ShippedAt        time.Time       `gorm:"type:timestamptz;not null"`
	ClosedAt         *time.Time      `gorm:"type:timestamptz"`
}

// TableName returns the table name for GORM
func (InventoryTransit) TableName() string {
	return "inventory_transits"
}

// NewInventoryTransit opens a transit record for one transfer line
func NewInventoryTransit(
	productID, fromWarehouseID, toWarehouseID, transferID, transferItemID uuid.UUID,
	quantity, unitCost decimal.Decimal,
) (*InventoryTransit, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if fromWarehouseID == uuid.Nil || toWarehouseID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_WAREHOUSE", "Warehouse IDs cannot be empty")
	}
	if fromWarehouseID == toWarehouseID {
		return nil, shared.NewDomainError("INVALID_WAREHOUSE", "Source and destination warehouses must differ")
	}
	if transferID == uuid.Nil || transferItemID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TRANSFER", "Transfer and transfer item IDs cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Transit quantity must be positive")
	}
	if unitCost.IsNegative() {
		return nil, shared.NewDomainError("INVALID_COST", "Unit cost cannot be negative")
	}

	return &InventoryTransit{
		BaseEntity:       shared.NewBaseEntity(),
		ProductID:        productID,
		FromWarehouseID:  fromWarehouseID,
		ToWarehouseID:    toWarehouseID,
		TransferID:       transferID,
		TransferItemID:   transferItemID,
		Quantity:         quantity,
		UnitCost:         unitCost,
		ReceivedQuantity: decimal.Zero,
		DamagedQuantity:  decimal.Zero,
		Status:           TransitStatusInTransit,
		ShippedAt:        time.Now(),
	}, nil
}

// IsOpen returns true while the record still holds unreconciled quantity
func (t *InventoryTransit) IsOpen() bool {
	return t.Status == TransitStatusInTransit
}

// OpenQuantity returns the quantity still unaccounted for
func (t *InventoryTransit) OpenQuantity() decimal.Decimal {
	if !t.IsOpen() {
		return decimal.Zero
	}
	return t.Quantity.Sub(t.ReceivedQuantity).Sub(t.DamagedQuantity)
}

// Close reconciles the record with the received and damaged quantities.
// The record flips to RECEIVED only when the full shipped quantity is
// accounted for; a partial receipt leaves the remainder in transit.
func (t *InventoryTransit) Close(receivedQty, damagedQty decimal.Decimal) error {
	if !t.IsOpen() {
		return shared.NewDomainError("TRANSIT_CLOSED", "Transit record is already closed")
	}
	if receivedQty.IsNegative() || damagedQty.IsNegative() {
		return shared.NewDomainError("INVALID_QUANTITY", "Received and damaged quantities cannot be negative")
	}

	accounted := t.ReceivedQuantity.Add(t.DamagedQuantity).Add(receivedQty).Add(damagedQty)
	if accounted.GreaterThan(t.Quantity) {
		return shared.NewDomainError("INVALID_QUANTITY", "Received plus damaged exceeds shipped quantity")
	}

	t.ReceivedQuantity = t.ReceivedQuantity.Add(receivedQty)
	t.DamagedQuantity = t.DamagedQuantity.Add(damagedQty)
	t.Touch()

	if accounted.Equal(t.Quantity) {
		now := time.Now()
		t.Status = TransitStatusReceived
		t.ClosedAt = &now
	}
	return nil
}

// Cancel closes the record with the full quantity returned to the source.
// Only open records can be cancelled.
func (t *InventoryTransit) Cancel() error {
	if !t.IsOpen() {
		return shared.NewDomainError("TRANSIT_CLOSED", "Transit record is already closed")
	}
	now := time.Now()
	t.Status = TransitStatusCancelled
	t.ClosedAt = &now
	t.Touch()
	return nil
}
