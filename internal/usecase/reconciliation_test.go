package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoice-reconciliation/internal/config"
	"invoice-reconciliation/internal/domain"
	"invoice-reconciliation/internal/usecase"
	mock_usecase "invoice-reconciliation/internal/usecase/mocks"
)

const (
	ledgerPath = "/data/2025.12/仕入明細.csv"
	invoiceDir = "/data/2025.12/請求書"
)

func sampleSnapshot() *domain.LedgerSnapshot {
	return &domain.LedgerSnapshot{
		Source:   ledgerPath,
		Encoding: config.EncodingShiftJIS,
		Rows: []domain.LedgerRow{
			ledgerRow("新明電材", "500000"),
			ledgerRow("丸紅", "400000"),
			ledgerRow("丸紅", "200000"),
			ledgerRow("鶴田電機", "50000"),
			ledgerRow("木谷電器", "50000"),
			ledgerRow("", "1200"),
			ledgerRow("ﾕｱｻ商事", "abc"),
		},
		MalformedRows: 1,
	}
}

func sampleDescriptors() []domain.InvoiceDescriptor {
	return []domain.InvoiceDescriptor{
		descriptor("20251205_請求書_新明電材_500000.pdf"),
		descriptor("20251210_請求書_丸紅_480000.pdf"),
		descriptor("20251205_請求書_ｲｸﾞｱｽ商事_77000.pdf"),
		descriptor("20251201_請求書_木谷電器_30000.pdf"),
		descriptor("20251215_請求書_木谷電器_20000.pdf"),
		descriptor("見積書.pdf"),
	}
}

func TestReconciliationUseCase_Reconcile(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	generatedAt := time.Date(2026, 1, 5, 9, 30, 0, 0, time.UTC)
	cfg := config.Default()
	cfg.Period = "2025-12"

	tests := []struct {
		name           string
		snapshot       *domain.LedgerSnapshot
		descriptors    []domain.InvoiceDescriptor
		ledgerErr      error
		invoiceErr     error
		skipInvoices   bool
		wantErrIs      error
		wantSummary    domain.Summary
		wantMismatched []string
	}{
		{
			name:        "successful reconciliation with every outcome",
			snapshot:    sampleSnapshot(),
			descriptors: sampleDescriptors(),
			wantSummary: domain.Summary{
				TotalInvoices:       5,
				MatchedVendors:      2,
				MismatchedVendors:   1,
				InvoiceOnlyVendors:  1,
				PurchaseOnlyVendors: 1,
			},
			wantMismatched: []string{"丸紅"},
		},
		{
			name:         "ledger unreadable",
			ledgerErr:    domain.NewInputError(ledgerPath, domain.ErrLedgerUnreadable, "permission denied"),
			skipInvoices: true,
			wantErrIs:    domain.ErrLedgerUnreadable,
		},
		{
			name:       "invoice directory unreadable",
			snapshot:   sampleSnapshot(),
			invoiceErr: domain.NewInputError(invoiceDir, domain.ErrInvoiceDirUnreadable, "no such file or directory"),
			wantErrIs:  domain.ErrInvoiceDirUnreadable,
		},
		{
			name:        "no invoice files",
			snapshot:    sampleSnapshot(),
			descriptors: []domain.InvoiceDescriptor{},
			wantErrIs:   domain.ErrNoInvoices,
		},
		{
			name:        "only unparseable invoice names",
			snapshot:    sampleSnapshot(),
			descriptors: []domain.InvoiceDescriptor{descriptor("scan001.pdf")},
			wantSummary: domain.Summary{
				PurchaseOnlyVendors: 4,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledgerRepo := mock_usecase.NewMockLedgerRepository(ctrl)
			invoiceRepo := mock_usecase.NewMockInvoiceRepository(ctrl)

			ledgerRepo.EXPECT().
				GetLedgerRows(gomock.Any(), ledgerPath).
				Return(tt.snapshot, tt.ledgerErr)
			if !tt.skipInvoices {
				invoiceRepo.EXPECT().
					ListInvoices(gomock.Any(), invoiceDir).
					Return(tt.descriptors, tt.invoiceErr)
			}

			uc := usecase.NewReconciliationUseCase(ledgerRepo, invoiceRepo, cfg,
				usecase.WithClock(func() time.Time { return generatedAt }),
				usecase.WithRunID(func() string { return "run-0001" }),
			)
			got, err := uc.Reconcile(context.Background(), ledgerPath, invoiceDir)

			if tt.wantErrIs != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErrIs)
				var inputErr *domain.InputError
				assert.True(t, errors.As(err, &inputErr))
				assert.Nil(t, got)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, tt.wantSummary, got.Report.Summary)

			var mismatched []string
			for _, e := range got.Report.Mismatched {
				mismatched = append(mismatched, e.Vendor)
			}
			assert.Equal(t, tt.wantMismatched, mismatched)

			assert.Equal(t, "run-0001", got.Report.Metadata.RunID)
			assert.Equal(t, "2025-12", got.Report.Metadata.Period)
			assert.Equal(t, generatedAt, got.Report.Metadata.GeneratedAt)
			assert.Equal(t, ledgerPath, got.Report.Metadata.LedgerSource)
			assert.Equal(t, invoiceDir, got.Report.Metadata.InvoiceSource)
			assert.Contains(t, got.Text, "実行ID: run-0001")
		})
	}
}

func TestReconciliationUseCase_Diagnostics(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ledgerRepo := mock_usecase.NewMockLedgerRepository(ctrl)
	invoiceRepo := mock_usecase.NewMockInvoiceRepository(ctrl)
	ledgerRepo.EXPECT().GetLedgerRows(gomock.Any(), ledgerPath).Return(sampleSnapshot(), nil)
	invoiceRepo.EXPECT().ListInvoices(gomock.Any(), invoiceDir).Return(sampleDescriptors(), nil)

	uc := usecase.NewReconciliationUseCase(ledgerRepo, invoiceRepo, config.Default())
	got, err := uc.Reconcile(context.Background(), ledgerPath, invoiceDir)
	require.NoError(t, err)

	assert.Equal(t, domain.Diagnostics{
		LedgerRows:          7,
		LedgerVendors:       5,
		InvalidAmountRows:   1,
		BlankVendorRows:     1,
		MalformedRows:       1,
		InvoiceFiles:        6,
		SkippedInvoiceFiles: 1,
		SkippedInvoiceNames: []string{"見積書.pdf"},
	}, got.Report.Diagnostics)
	assert.NotEmpty(t, got.Report.Metadata.RunID)
	assert.False(t, got.Report.Metadata.GeneratedAt.IsZero())

	// entries come back in classification order, one per vendor
	require.Len(t, got.Entries, 5)
	assert.Equal(t, "新明電材", got.Entries[0].Vendor)
	assert.Equal(t, domain.OutcomePurchaseOnly, got.Entries[4].Outcome)
	assert.Equal(t, "鶴田電機", got.Entries[4].Vendor)
}

func TestReconciliationUseCase_VendorDetails(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	newUseCase := func(cfg config.Config) *usecase.ReconciliationUseCase {
		ledgerRepo := mock_usecase.NewMockLedgerRepository(ctrl)
		invoiceRepo := mock_usecase.NewMockInvoiceRepository(ctrl)
		ledgerRepo.EXPECT().GetLedgerRows(gomock.Any(), gomock.Any()).Return(sampleSnapshot(), nil)
		invoiceRepo.EXPECT().ListInvoices(gomock.Any(), gomock.Any()).Return(sampleDescriptors(), nil)
		return usecase.NewReconciliationUseCase(ledgerRepo, invoiceRepo, cfg)
	}

	t.Run("enabled", func(t *testing.T) {
		got, err := newUseCase(config.Default()).Reconcile(context.Background(), ledgerPath, invoiceDir)
		require.NoError(t, err)

		require.Len(t, got.Report.VendorDetails, 1)
		d := got.Report.VendorDetails[0]
		assert.Equal(t, "丸紅", d.Vendor)
		assert.Equal(t, 2, d.TotalRows)
		assert.Equal(t, "600000", d.TotalAmount.String())
		assert.Contains(t, got.Text, "【不一致業者 詳細分析】")
	})

	t.Run("disabled", func(t *testing.T) {
		cfg := config.Default()
		cfg.Detail.Enabled = false
		got, err := newUseCase(cfg).Reconcile(context.Background(), ledgerPath, invoiceDir)
		require.NoError(t, err)

		assert.Empty(t, got.Report.VendorDetails)
		assert.NotContains(t, got.Text, "【不一致業者 詳細分析】")
	})
}

func TestReconciliationUseCase_ContextCancelled(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ledgerRepo := mock_usecase.NewMockLedgerRepository(ctrl)
	invoiceRepo := mock_usecase.NewMockInvoiceRepository(ctrl)
	ledgerRepo.EXPECT().GetLedgerRows(ctx, ledgerPath).Return(nil, ctx.Err())

	uc := usecase.NewReconciliationUseCase(ledgerRepo, invoiceRepo, config.Default())
	_, err := uc.Reconcile(ctx, ledgerPath, invoiceDir)
	assert.ErrorIs(t, err, context.Canceled)
}
