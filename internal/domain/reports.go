package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Outcome is the reconciliation bucket a vendor is classified into.
type Outcome string

const (
	OutcomeMatched      Outcome = "matched"
	OutcomeMismatched   Outcome = "mismatched"
	OutcomeInvoiceOnly  Outcome = "invoice_only"
	OutcomePurchaseOnly Outcome = "purchase_only"
)

// Outcomes lists every outcome in report order.
var Outcomes = []Outcome{OutcomeMatched, OutcomeMismatched, OutcomeInvoiceOnly, OutcomePurchaseOnly}

// Cause tags attached to mismatched entries.
const (
	CauseLargeDiscrepancy = "large discrepancy (possible duplicate or missing charge)"
	CauseLargeVariance    = "large absolute variance — requires manual review"
	CauseMultipleInvoices = "multiple invoices aggregated — verify grouping"
)

// ReconciliationEntry is the classification result for one vendor.
type ReconciliationEntry struct {
	Vendor        string              `json:"vendor"`
	MatchedVendor *string             `json:"matched_vendor"`
	InvoiceAmount decimal.NullDecimal `json:"invoice_amount"`
	LedgerAmount  decimal.NullDecimal `json:"ledger_amount"`
	Difference    decimal.NullDecimal `json:"difference"`
	Outcome       Outcome             `json:"outcome"`
	Causes        []string            `json:"causes"`
	Invoices      []InvoiceRecord     `json:"invoices,omitempty"`
}

// AbsDifference returns |difference|, zero when there is none.
func (e ReconciliationEntry) AbsDifference() decimal.Decimal {
	if !e.Difference.Valid {
		return decimal.Zero
	}
	return e.Difference.Decimal.Abs()
}

// RunMetadata identifies a single reconciliation run.
type RunMetadata struct {
	RunID         string    `json:"run_id"`
	Period        string    `json:"period,omitempty"`
	GeneratedAt   time.Time `json:"generated_at"`
	LedgerSource  string    `json:"ledger_source"`
	InvoiceSource string    `json:"invoice_source"`
}

// Summary provides per-outcome counts over the full, untruncated buckets.
type Summary struct {
	TotalInvoices       int `json:"total_invoices"`
	MatchedVendors      int `json:"matched_vendors"`
	MismatchedVendors   int `json:"mismatched_vendors"`
	InvoiceOnlyVendors  int `json:"invoice_only_vendors"`
	PurchaseOnlyVendors int `json:"purchase_only_vendors"`
}

// Diagnostics reports the parse-skip counts of both input feeds.
type Diagnostics struct {
	LedgerRows          int      `json:"ledger_rows"`
	LedgerVendors       int      `json:"ledger_vendors"`
	InvalidAmountRows   int      `json:"invalid_amount_rows"`
	BlankVendorRows     int      `json:"blank_vendor_rows"`
	MalformedRows       int      `json:"malformed_rows"`
	InvoiceFiles        int      `json:"invoice_files"`
	SkippedInvoiceFiles int      `json:"skipped_invoice_files"`
	SkippedInvoiceNames []string `json:"skipped_invoice_names,omitempty"`
}

// Report is the structured reconciliation result.
type Report struct {
	Metadata           RunMetadata           `json:"metadata"`
	Summary            Summary               `json:"summary"`
	Diagnostics        Diagnostics           `json:"diagnostics"`
	Matched            []ReconciliationEntry `json:"matched"`
	Mismatched         []ReconciliationEntry `json:"mismatched"`
	InvoiceOnly        []ReconciliationEntry `json:"invoice_only"`
	PurchaseOnly       []ReconciliationEntry `json:"purchase_only"`
	VendorDetails      []VendorDetail        `json:"vendor_details,omitempty"`
	RecommendedActions []RecommendedAction   `json:"recommended_actions"`
}

// RecommendedAction is a follow-up triggered by a non-empty outcome bucket.
type RecommendedAction struct {
	Outcome Outcome  `json:"outcome"`
	Summary string   `json:"summary"`
	Steps   []string `json:"steps"`
}
