package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against an allow-list of
// column names. Sort fields arrive from query strings, so anything not on
// the list falls back to the default column instead of reaching the SQL.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// MovementSortFields contains allowed sort columns for ledger entries
var MovementSortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"occurred_at":   true,
	"product_id":    true,
	"warehouse_id":  true,
	"movement_type": true,
	"quantity":      true,
	"stock_after":   true,
}

// TransferSortFields contains allowed sort columns for stock transfers
var TransferSortFields = map[string]bool{
	"id":              true,
	"created_at":      true,
	"updated_at":      true,
	"transfer_number": true,
	"status":          true,
	"from_branch_id":  true,
	"to_branch_id":    true,
	"total_requested": true,
	"total_shipped":   true,
	"submitted_at":    true,
	"shipped_at":      true,
	"completed_at":    true,
}

// TransitSortFields contains allowed sort columns for transit records
var TransitSortFields = map[string]bool{
	"id":          true,
	"created_at":  true,
	"shipped_at":  true,
	"closed_at":   true,
	"product_id":  true,
	"transfer_id": true,
	"status":      true,
	"quantity":    true,
}
