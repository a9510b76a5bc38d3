package usecase

import (
	"context"

	"invoice-reconciliation/internal/domain"
)

// LedgerRepository loads the purchase ledger snapshot.
// The usecase layer depends on this interface, not on a concrete implementation.
//
//go:generate mockgen -destination=mocks/mock_repository.go -source=interface.go
type LedgerRepository interface {
	GetLedgerRows(ctx context.Context, path string) (*domain.LedgerSnapshot, error)
}

// InvoiceRepository enumerates invoice descriptors.
type InvoiceRepository interface {
	ListInvoices(ctx context.Context, dir string) ([]domain.InvoiceDescriptor, error)
}
