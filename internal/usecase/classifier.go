package usecase

import (
	"github.com/shopspring/decimal"

	"invoice-reconciliation/internal/config"
	"invoice-reconciliation/internal/domain"
)

// Classifier assigns every vendor on either side exactly one outcome.
type Classifier struct {
	thresholds config.Thresholds
	canonical  bool
}

// NewClassifier creates a classifier using the given thresholds. canonical
// switches the vendor matcher to canonicalized comparison.
func NewClassifier(thresholds config.Thresholds, canonical bool) *Classifier {
	return &Classifier{thresholds: thresholds, canonical: canonical}
}

// Classify reconciles invoice groups against ledger totals. Invoice-side
// entries come first in group order, followed by purchase-only entries in
// ledger match order. It never fails: missing amounts count as zero.
func (c *Classifier) Classify(groups []domain.InvoiceGroup, totals domain.LedgerTotals) []domain.ReconciliationEntry {
	matcher := NewVendorMatcher(totals.Vendors, c.canonical)
	entries := make([]domain.ReconciliationEntry, 0, len(groups))

	for _, g := range groups {
		invoiceAmount := decimal.NewFromInt(g.TotalAmount)
		entry := domain.ReconciliationEntry{
			Vendor:        g.Vendor,
			InvoiceAmount: decimal.NewNullDecimal(invoiceAmount),
			Causes:        []string{},
			Invoices:      g.Records,
		}

		matched, ok := matcher.Resolve(g.Vendor)
		if !ok {
			entry.Outcome = domain.OutcomeInvoiceOnly
			entries = append(entries, entry)
			continue
		}

		ledgerAmount := totals.Amount(matched)
		diff := invoiceAmount.Sub(ledgerAmount)
		entry.MatchedVendor = &matched
		entry.LedgerAmount = decimal.NewNullDecimal(ledgerAmount)
		entry.Difference = decimal.NewNullDecimal(diff)

		if diff.Abs().LessThan(c.thresholds.Tolerance) {
			entry.Outcome = domain.OutcomeMatched
		} else {
			entry.Outcome = domain.OutcomeMismatched
			entry.Causes = c.causes(diff, ledgerAmount, len(g.Records))
		}
		entries = append(entries, entry)
	}

	for _, v := range totals.Vendors {
		amount := totals.Amount(v)
		if !amount.IsPositive() || claimed(matcher, groups, v) {
			continue
		}
		entries = append(entries, domain.ReconciliationEntry{
			Vendor:       v,
			LedgerAmount: decimal.NewNullDecimal(amount),
			Outcome:      domain.OutcomePurchaseOnly,
			Causes:       []string{},
		})
	}
	return entries
}

// causes evaluates every heuristic in order and keeps all that apply.
func (c *Classifier) causes(diff, ledgerAmount decimal.Decimal, invoiceCount int) []string {
	abs := diff.Abs()
	causes := []string{}
	if abs.GreaterThan(c.thresholds.LargeRatio.Mul(ledgerAmount)) {
		causes = append(causes, domain.CauseLargeDiscrepancy)
	}
	if abs.GreaterThan(c.thresholds.LargeAbsolute) {
		causes = append(causes, domain.CauseLargeVariance)
	}
	if invoiceCount > 1 {
		causes = append(causes, domain.CauseMultipleInvoices)
	}
	return causes
}

// claimed reports whether any invoice vendor relates to ledgerVendor under
// the matcher's exact-or-containment rule.
func claimed(m *VendorMatcher, groups []domain.InvoiceGroup, ledgerVendor string) bool {
	for _, g := range groups {
		if m.Related(g.Vendor, ledgerVendor) {
			return true
		}
	}
	return false
}
