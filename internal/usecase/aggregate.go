package usecase

import (
	"sort"

	"github.com/shopspring/decimal"

	"invoice-reconciliation/internal/domain"
)

type vendorAccumulator struct {
	total decimal.Decimal
	rows  int
}

// AggregateLedger folds ledger rows into one total per distinct vendor string.
// Vendors are grouped by exact string equality. A row whose amount failed
// coercion still belongs to its vendor but adds nothing to the total. Rows
// with an empty vendor cell are not grouped and are only counted.
func AggregateLedger(rows []domain.LedgerRow) domain.LedgerTotals {
	acc := make(map[string]vendorAccumulator)
	stats := domain.AggregateStats{RowCount: len(rows)}

	for _, row := range rows {
		if !row.Amount.Valid {
			stats.InvalidAmountRows++
		}
		if row.Vendor == "" {
			stats.BlankVendorRows++
			continue
		}
		a := acc[row.Vendor]
		acc[row.Vendor] = vendorAccumulator{
			total: a.total.Add(row.EffectiveAmount()),
			rows:  a.rows + 1,
		}
	}

	totals := make(map[string]domain.VendorTotal, len(acc))
	vendors := make([]string, 0, len(acc))
	for vendor, a := range acc {
		totals[vendor] = domain.VendorTotal{Vendor: vendor, TotalAmount: a.total, RowCount: a.rows}
		vendors = append(vendors, vendor)
	}
	sortMatchOrder(vendors, totals)
	stats.DistinctVendors = len(vendors)

	return domain.LedgerTotals{Totals: totals, Vendors: vendors, Stats: stats}
}

// sortMatchOrder fixes the order the matcher scans ledger vendors in:
// largest total first, ties by vendor name.
func sortMatchOrder(vendors []string, totals map[string]domain.VendorTotal) {
	sort.SliceStable(vendors, func(i, j int) bool {
		ti, tj := totals[vendors[i]].TotalAmount, totals[vendors[j]].TotalAmount
		if c := ti.Cmp(tj); c != 0 {
			return c > 0
		}
		return vendors[i] < vendors[j]
	})
}
