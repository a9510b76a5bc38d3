package usecase_test

import (
	"github.com/shopspring/decimal"

	"invoice-reconciliation/internal/config"
	"invoice-reconciliation/internal/domain"
)

func amount(s string) decimal.NullDecimal {
	if s == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

func ledgerRow(vendor, amt string) domain.LedgerRow {
	return domain.LedgerRow{Vendor: vendor, Amount: amount(amt)}
}

func descriptor(name string) domain.InvoiceDescriptor {
	return domain.InvoiceDescriptor{Name: name, Path: "/invoices/2025.12/" + name}
}

func nullString(d decimal.NullDecimal) string {
	if !d.Valid {
		return "null"
	}
	return d.Decimal.String()
}

func defaultThresholds() config.Thresholds {
	return config.Default().Matching.Thresholds()
}
