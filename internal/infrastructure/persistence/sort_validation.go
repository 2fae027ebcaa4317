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

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
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

// CommissionSortFields contains allowed sort fields for commissions
var CommissionSortFields = map[string]bool{
	"id":                true,
	"created_at":        true,
	"updated_at":        true,
	"commission_number": true,
	"order_id":          true,
	"vendor_id":         true,
	"order_amount":      true,
	"rate":              true,
	"commission_amount": true,
	"vendor_amount":     true,
	"status":            true,
	"type":              true,
	"calculated_at":     true,
	"approved_at":       true,
	"paid_at":           true,
}

// TransactionSortFields contains allowed sort fields for settlement transactions
var TransactionSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"updated_at":     true,
	"reference":      true,
	"amount":         true,
	"payment_method": true,
	"status":         true,
	"type":           true,
	"buyer_id":       true,
	"vendor_id":      true,
	"vendor_amount":  true,
}
