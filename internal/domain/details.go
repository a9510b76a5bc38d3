package domain

import "github.com/shopspring/decimal"

// OrderSummary aggregates the ledger lines of one order id.
type OrderSummary struct {
	OrderID   string          `json:"order_id"`
	Amount    decimal.Decimal `json:"amount"`
	FirstDate string          `json:"first_date"`
	LineCount int             `json:"line_count"`
}

// DuplicatePattern is an (item, quantity, unit price) combination seen more than once.
type DuplicatePattern struct {
	ItemName    string              `json:"item_name"`
	Quantity    decimal.NullDecimal `json:"quantity"`
	UnitPrice   decimal.NullDecimal `json:"unit_price"`
	Occurrences int                 `json:"occurrences"`
}

// VendorDetail is the line-level breakdown of a mismatched vendor's ledger rows.
type VendorDetail struct {
	Vendor                string             `json:"vendor"`
	LedgerVendor          string             `json:"ledger_vendor"`
	TotalRows             int                `json:"total_rows"`
	TotalAmount           decimal.Decimal    `json:"total_amount"`
	OrderCount            int                `json:"order_count"`
	TopOrders             []OrderSummary     `json:"top_orders"`
	LargeItemCount        int                `json:"large_item_count"`
	LargeItems            []LedgerRow        `json:"large_items"`
	NegativeItems         []LedgerRow        `json:"negative_items"`
	DuplicatePatternCount int                `json:"duplicate_pattern_count"`
	DuplicatePatterns     []DuplicatePattern `json:"duplicate_patterns"`
}
