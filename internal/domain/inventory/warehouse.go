package inventory

import (
	"github.com/erp/stockcore/internal/domain/shared"
	"github.com/google/uuid"
)

// Branch is a read model of branch master data. Branches are the scoping
// dimension for all stock aggregation; master-data maintenance lives outside
// this core.
type Branch struct {
	shared.BaseEntity
	Code string `gorm:"type:varchar(30);not null;uniqueIndex"`
	Name string `gorm:"type:varchar(100);not null"`
}

// TableName returns the table name for GORM
func (Branch) TableName() string {
	return "branches"
}

// Warehouse is a read model of warehouse master data. Every warehouse belongs
// to exactly one branch; the aggregator joins through this ownership rather
// than trusting a flat branch column on the ledger, so stock cannot leak
// across branches when a warehouse is reassigned.
type Warehouse struct {
	shared.BaseEntity
	BranchID uuid.UUID `gorm:"type:uuid;not null;index"`
	Code     string    `gorm:"type:varchar(30);not null;uniqueIndex"`
	Name     string    `gorm:"type:varchar(100);not null"`
}

// TableName returns the table name for GORM
func (Warehouse) TableName() string {
	return "warehouses"
}
