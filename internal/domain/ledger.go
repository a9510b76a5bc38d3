package domain

import "github.com/shopspring/decimal"

// LedgerRow is one purchase-transaction line from the purchase ledger.
// Numeric fields are nullable: a cell that cannot be coerced to a number is
// kept as an invalid NullDecimal and counts as zero in sums.
type LedgerRow struct {
	Line      int                 `json:"line"` // 1-based source line, header included
	Vendor    string              `json:"vendor"`
	OrderID   string              `json:"order_id"`
	ItemName  string              `json:"item_name"`
	Quantity  decimal.NullDecimal `json:"quantity"`
	UnitPrice decimal.NullDecimal `json:"unit_price"`
	Amount    decimal.NullDecimal `json:"amount"`
	Date      string              `json:"date"`
}

// EffectiveAmount returns the row amount, or zero when it failed coercion.
func (r LedgerRow) EffectiveAmount() decimal.Decimal {
	if !r.Amount.Valid {
		return decimal.Zero
	}
	return r.Amount.Decimal
}

// VendorTotal is the ledger total for one raw vendor string.
type VendorTotal struct {
	Vendor      string          `json:"vendor"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	RowCount    int             `json:"row_count"`
}

// AggregateStats carries diagnostic counts produced while aggregating the ledger.
type AggregateStats struct {
	RowCount          int `json:"row_count"`
	DistinctVendors   int `json:"distinct_vendors"`
	InvalidAmountRows int `json:"invalid_amount_rows"`
	BlankVendorRows   int `json:"blank_vendor_rows"`
}

// LedgerTotals is the aggregated ledger: one VendorTotal per distinct vendor.
// Vendors lists every key of Totals in match order: total amount descending,
// ties broken by vendor name ascending.
type LedgerTotals struct {
	Totals  map[string]VendorTotal
	Vendors []string
	Stats   AggregateStats
}

// Amount returns the total for vendor, or zero when the vendor is unknown.
func (t LedgerTotals) Amount(vendor string) decimal.Decimal {
	if vt, ok := t.Totals[vendor]; ok {
		return vt.TotalAmount
	}
	return decimal.Zero
}

// LedgerSnapshot is the ledger as loaded from its source. MalformedRows
// counts source lines with more fields than the header; they are not part
// of Rows.
type LedgerSnapshot struct {
	Source        string
	Encoding      string
	Rows          []LedgerRow
	MalformedRows int
}
