package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"invoice-reconciliation/internal/config"
	"invoice-reconciliation/internal/domain"
)

// FileReportWriter persists a rendered report as text, JSON and optionally XLSX.
type FileReportWriter struct {
	dir      string
	textFile string
	jsonFile string
	xlsxFile string
}

// NewFileReportWriter creates a writer; an empty file name disables that output.
func NewFileReportWriter(cfg config.ReportConfig) *FileReportWriter {
	return &FileReportWriter{
		dir:      cfg.OutputDir,
		textFile: cfg.TextFile,
		jsonFile: cfg.JSONFile,
		xlsxFile: cfg.XLSXFile,
	}
}

// WriteReport writes every enabled output and returns the paths written.
func (w *FileReportWriter) WriteReport(ctx context.Context, rep *domain.Report, text string) ([]string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", w.dir, err)
	}

	var written []string
	if w.textFile != "" {
		path := filepath.Join(w.dir, w.textFile)
		if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
			return written, fmt.Errorf("failed to write text report %s: %w", path, err)
		}
		written = append(written, path)
	}
	if err := ctx.Err(); err != nil {
		return written, err
	}
	if w.jsonFile != "" {
		path := filepath.Join(w.dir, w.jsonFile)
		if err := writeJSON(path, rep); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	if err := ctx.Err(); err != nil {
		return written, err
	}
	if w.xlsxFile != "" {
		path := filepath.Join(w.dir, w.xlsxFile)
		if err := writeWorkbook(path, rep); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

func writeJSON(path string, rep *domain.Report) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create json report %s: %w", path, err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("failed to encode json report %s: %w", path, err)
	}
	return file.Close()
}

const summarySheet = "Summary"

var bucketSheets = []struct {
	name    string
	outcome domain.Outcome
}{
	{"Matched", domain.OutcomeMatched},
	{"Mismatched", domain.OutcomeMismatched},
	{"InvoiceOnly", domain.OutcomeInvoiceOnly},
	{"PurchaseOnly", domain.OutcomePurchaseOnly},
}

func writeWorkbook(path string, rep *domain.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), summarySheet); err != nil {
		return fmt.Errorf("failed to name summary sheet: %w", err)
	}
	summary := [][]interface{}{
		{"run_id", rep.Metadata.RunID},
		{"period", rep.Metadata.Period},
		{"total_invoices", rep.Summary.TotalInvoices},
		{"matched_vendors", rep.Summary.MatchedVendors},
		{"mismatched_vendors", rep.Summary.MismatchedVendors},
		{"invoice_only_vendors", rep.Summary.InvoiceOnlyVendors},
		{"purchase_only_vendors", rep.Summary.PurchaseOnlyVendors},
		{"invalid_amount_rows", rep.Diagnostics.InvalidAmountRows},
		{"skipped_invoice_files", rep.Diagnostics.SkippedInvoiceFiles},
	}
	if err := setRows(f, summarySheet, summary); err != nil {
		return err
	}

	buckets := map[domain.Outcome][]domain.ReconciliationEntry{
		domain.OutcomeMatched:      rep.Matched,
		domain.OutcomeMismatched:   rep.Mismatched,
		domain.OutcomeInvoiceOnly:  rep.InvoiceOnly,
		domain.OutcomePurchaseOnly: rep.PurchaseOnly,
	}
	for _, bs := range bucketSheets {
		if _, err := f.NewSheet(bs.name); err != nil {
			return fmt.Errorf("failed to add sheet %s: %w", bs.name, err)
		}
		rows := [][]interface{}{{"vendor", "matched_vendor", "invoice_amount", "ledger_amount", "difference", "causes"}}
		for _, e := range buckets[bs.outcome] {
			matched := ""
			if e.MatchedVendor != nil {
				matched = *e.MatchedVendor
			}
			rows = append(rows, []interface{}{
				e.Vendor, matched,
				cellValue(e.InvoiceAmount), cellValue(e.LedgerAmount), cellValue(e.Difference),
				strings.Join(e.Causes, "; "),
			})
		}
		if err := setRows(f, bs.name, rows); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

func setRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}

// cellValue leaves null amounts as empty cells.
func cellValue(d decimal.NullDecimal) interface{} {
	if !d.Valid {
		return nil
	}
	return d.Decimal.InexactFloat64()
}
