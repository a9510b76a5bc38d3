package usecase

import (
	"sort"

	"github.com/shopspring/decimal"

	"invoice-reconciliation/internal/config"
	"invoice-reconciliation/internal/domain"
)

// DetailAnalyzer breaks a vendor's ledger rows down to order and line level
// so a mismatch can be traced to specific orders, returns or duplicates.
type DetailAnalyzer struct {
	largeThreshold decimal.Decimal
	topOrders      int
	topLarge       int
	topDuplicates  int
}

// NewDetailAnalyzer creates an analyzer with the configured thresholds and list sizes.
func NewDetailAnalyzer(cfg config.DetailConfig) *DetailAnalyzer {
	return &DetailAnalyzer{
		largeThreshold: decimal.NewFromFloat(cfg.LargeItemThreshold),
		topOrders:      cfg.TopOrders,
		topLarge:       cfg.TopLargeItems,
		topDuplicates:  cfg.TopDuplicates,
	}
}

// Analyze summarizes rows, which must all belong to ledgerVendor. vendor is
// the invoice-side name the detail is reported under.
func (a *DetailAnalyzer) Analyze(vendor, ledgerVendor string, rows []domain.LedgerRow) domain.VendorDetail {
	detail := domain.VendorDetail{
		Vendor:            vendor,
		LedgerVendor:      ledgerVendor,
		TotalRows:         len(rows),
		TotalAmount:       decimal.Zero,
		TopOrders:         []domain.OrderSummary{},
		LargeItems:        []domain.LedgerRow{},
		NegativeItems:     []domain.LedgerRow{},
		DuplicatePatterns: []domain.DuplicatePattern{},
	}

	orders := a.orderSummaries(rows)
	detail.OrderCount = len(orders)
	detail.TopOrders = limit(orders, a.topOrders)

	var large []domain.LedgerRow
	for _, row := range rows {
		detail.TotalAmount = detail.TotalAmount.Add(row.EffectiveAmount())
		if !row.Amount.Valid {
			continue
		}
		if row.Amount.Decimal.GreaterThanOrEqual(a.largeThreshold) {
			large = append(large, row)
		}
		if row.Amount.Decimal.IsNegative() {
			detail.NegativeItems = append(detail.NegativeItems, row)
		}
	}
	sort.SliceStable(large, func(i, j int) bool {
		return large[i].Amount.Decimal.GreaterThan(large[j].Amount.Decimal)
	})
	detail.LargeItemCount = len(large)
	detail.LargeItems = limit(large, a.topLarge)

	dups := duplicatePatterns(rows)
	detail.DuplicatePatternCount = len(dups)
	detail.DuplicatePatterns = limit(dups, a.topDuplicates)

	return detail
}

// orderSummaries totals rows per order id. Rows without an order id belong
// to no order.
func (a *DetailAnalyzer) orderSummaries(rows []domain.LedgerRow) []domain.OrderSummary {
	index := make(map[string]int)
	var orders []domain.OrderSummary
	for _, row := range rows {
		if row.OrderID == "" {
			continue
		}
		i, ok := index[row.OrderID]
		if !ok {
			i = len(orders)
			index[row.OrderID] = i
			orders = append(orders, domain.OrderSummary{OrderID: row.OrderID, FirstDate: row.Date})
		}
		orders[i].Amount = orders[i].Amount.Add(row.EffectiveAmount())
		orders[i].LineCount++
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].Amount.GreaterThan(orders[j].Amount)
	})
	return orders
}

type duplicateKey struct {
	item, qty, price string
}

// duplicatePatterns finds (item, quantity, unit price) combinations that
// occur more than once, most frequent first. Rows missing any of the three
// are not compared.
func duplicatePatterns(rows []domain.LedgerRow) []domain.DuplicatePattern {
	index := make(map[duplicateKey]int)
	var patterns []domain.DuplicatePattern
	for _, row := range rows {
		if row.ItemName == "" || !row.Quantity.Valid || !row.UnitPrice.Valid {
			continue
		}
		k := duplicateKey{row.ItemName, row.Quantity.Decimal.String(), row.UnitPrice.Decimal.String()}
		i, ok := index[k]
		if !ok {
			i = len(patterns)
			index[k] = i
			patterns = append(patterns, domain.DuplicatePattern{
				ItemName:  row.ItemName,
				Quantity:  row.Quantity,
				UnitPrice: row.UnitPrice,
			})
		}
		patterns[i].Occurrences++
	}

	dups := make([]domain.DuplicatePattern, 0, len(patterns))
	for _, p := range patterns {
		if p.Occurrences > 1 {
			dups = append(dups, p)
		}
	}
	sort.SliceStable(dups, func(i, j int) bool {
		return dups[i].Occurrences > dups[j].Occurrences
	})
	return dups
}

// limit returns at most n leading elements; n <= 0 keeps everything. The
// result is never nil.
func limit[T any](s []T, n int) []T {
	if n > 0 && len(s) > n {
		s = s[:n]
	}
	if s == nil {
		return []T{}
	}
	return s
}
