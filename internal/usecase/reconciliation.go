package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"invoice-reconciliation/internal/config"
	"invoice-reconciliation/internal/domain"
	"invoice-reconciliation/internal/logger"
	"invoice-reconciliation/internal/report"
)

// Result is the outcome of one reconciliation run.
type Result struct {
	Entries []domain.ReconciliationEntry
	Report  *domain.Report
	Text    string
}

// ReconciliationUseCase orchestrates the reconciliation process.
type ReconciliationUseCase struct {
	ledgerRepo  LedgerRepository
	invoiceRepo InvoiceRepository
	classifier  *Classifier
	analyzer    *DetailAnalyzer
	builder     *report.Builder
	period      string
	now         func() time.Time
	newID       func() string
}

// Option customizes a ReconciliationUseCase.
type Option func(*ReconciliationUseCase)

// WithClock overrides the clock used to stamp reports.
func WithClock(now func() time.Time) Option {
	return func(uc *ReconciliationUseCase) { uc.now = now }
}

// WithRunID overrides the run id generator.
func WithRunID(newID func() string) Option {
	return func(uc *ReconciliationUseCase) { uc.newID = newID }
}

// NewReconciliationUseCase creates a new instance of the usecase.
func NewReconciliationUseCase(ledgerRepo LedgerRepository, invoiceRepo InvoiceRepository, cfg config.Config, opts ...Option) *ReconciliationUseCase {
	uc := &ReconciliationUseCase{
		ledgerRepo:  ledgerRepo,
		invoiceRepo: invoiceRepo,
		classifier:  NewClassifier(cfg.Matching.Thresholds(), cfg.Matching.CanonicalizeVendors),
		builder:     report.NewBuilder(report.Options{PurchaseOnlyLimit: cfg.Report.PurchaseOnlyLimit}),
		period:      cfg.Period,
		now:         time.Now,
		newID:       func() string { return uuid.New().String() },
	}
	if cfg.Detail.Enabled {
		uc.analyzer = NewDetailAnalyzer(cfg.Detail)
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Reconcile loads both feeds, classifies every vendor and renders the report.
// Input errors abort the run before anything is classified.
func (uc *ReconciliationUseCase) Reconcile(ctx context.Context, ledgerPath, invoiceDir string) (*Result, error) {
	log := logger.FromContext(ctx)

	// Step 1: Data Ingestion
	snapshot, err := uc.ledgerRepo.GetLedgerRows(ctx, ledgerPath)
	if err != nil {
		return nil, fmt.Errorf("could not get ledger rows: %w", err)
	}
	descriptors, err := uc.invoiceRepo.ListInvoices(ctx, invoiceDir)
	if err != nil {
		return nil, fmt.Errorf("could not list invoices: %w", err)
	}
	if len(descriptors) == 0 {
		return nil, domain.NewInputError(invoiceDir, domain.ErrNoInvoices, "")
	}

	// Step 2: Aggregation
	totals := AggregateLedger(snapshot.Rows)
	log.Info().
		Str("source", snapshot.Source).
		Str("encoding", snapshot.Encoding).
		Int("rows", totals.Stats.RowCount).
		Int("vendors", totals.Stats.DistinctVendors).
		Int("invalid_amount_rows", totals.Stats.InvalidAmountRows).
		Msg("ledger aggregated")

	invoices := CollectInvoices(descriptors)
	for _, name := range invoices.SkippedNames {
		log.Debug().Str("file", name).Msg("invoice file name not parseable, skipped")
	}
	log.Info().
		Int("files", len(descriptors)).
		Int("parsed", invoices.Parsed).
		Int("skipped", invoices.Skipped).
		Int("vendors", len(invoices.Groups)).
		Msg("invoices collected")

	// Step 3: Classification
	entries := uc.classifier.Classify(invoices.Groups, totals)
	details := uc.analyze(entries, snapshot.Rows)

	// Step 4: Report
	text, rep := uc.builder.Render(report.Input{
		Entries: entries,
		Details: details,
		Metadata: domain.RunMetadata{
			RunID:         uc.newID(),
			Period:        uc.period,
			GeneratedAt:   uc.now(),
			LedgerSource:  snapshot.Source,
			InvoiceSource: invoiceDir,
		},
		Diagnostics: domain.Diagnostics{
			LedgerRows:          totals.Stats.RowCount,
			LedgerVendors:       totals.Stats.DistinctVendors,
			InvalidAmountRows:   totals.Stats.InvalidAmountRows,
			BlankVendorRows:     totals.Stats.BlankVendorRows,
			MalformedRows:       snapshot.MalformedRows,
			InvoiceFiles:        len(descriptors),
			SkippedInvoiceFiles: invoices.Skipped,
			SkippedInvoiceNames: invoices.SkippedNames,
		},
		InvoiceCount: invoices.RecordCount(),
	})
	log.Info().
		Int("matched", rep.Summary.MatchedVendors).
		Int("mismatched", rep.Summary.MismatchedVendors).
		Int("invoice_only", rep.Summary.InvoiceOnlyVendors).
		Int("purchase_only", rep.Summary.PurchaseOnlyVendors).
		Msg("reconciliation complete")

	return &Result{Entries: entries, Report: rep, Text: text}, nil
}

// analyze runs the detail analysis for every mismatched entry.
func (uc *ReconciliationUseCase) analyze(entries []domain.ReconciliationEntry, rows []domain.LedgerRow) []domain.VendorDetail {
	if uc.analyzer == nil {
		return nil
	}
	byVendor := make(map[string][]domain.LedgerRow)
	for _, row := range rows {
		byVendor[row.Vendor] = append(byVendor[row.Vendor], row)
	}

	var details []domain.VendorDetail
	for _, e := range entries {
		if e.Outcome != domain.OutcomeMismatched || e.MatchedVendor == nil {
			continue
		}
		details = append(details, uc.analyzer.Analyze(e.Vendor, *e.MatchedVendor, byVendor[*e.MatchedVendor]))
	}
	return details
}
