package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"invoice-reconciliation/internal/config"
	"invoice-reconciliation/internal/domain"
	"invoice-reconciliation/internal/gateway"
	"invoice-reconciliation/internal/logger"
	"invoice-reconciliation/internal/usecase"
)

func main() {
	// Define command-line flags
	configFile := flag.String("config", "", "Path to the YAML configuration file")
	ledgerFile := flag.String("ledger", "", "Path to the purchase ledger (CSV or XLSX)")
	invoiceDir := flag.String("invoices", "", "Directory containing invoice files")
	outputDir := flag.String("out", "", "Directory the reports are written to")
	period := flag.String("period", "", "Reconciliation period label, e.g. 2025-12")
	quiet := flag.Bool("quiet", false, "Do not print the text report to stdout")
	flag.Parse()

	// Load .env for local runs
	_ = godotenv.Load()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if *ledgerFile != "" {
		cfg.Ledger.Path = *ledgerFile
	}
	if *invoiceDir != "" {
		cfg.Invoices.Dir = *invoiceDir
	}
	if *outputDir != "" {
		cfg.Report.OutputDir = *outputDir
	}
	if *period != "" {
		cfg.Period = *period
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		flag.Usage()
		os.Exit(2)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	ctx := logger.WithContext(context.Background(), log)
	decimal.MarshalJSONWithoutQuotes = true

	// Wire the application
	ledgerRepo := gateway.NewLedgerRepository(cfg.Ledger)
	invoiceRepo := gateway.NewInvoiceDirectoryRepository(cfg.Invoices)
	writer := gateway.NewFileReportWriter(cfg.Report)
	reconciliationUseCase := usecase.NewReconciliationUseCase(ledgerRepo, invoiceRepo, cfg)

	result, err := reconciliationUseCase.Reconcile(ctx, cfg.Ledger.Path, cfg.Invoices.Dir)
	if err != nil {
		var inputErr *domain.InputError
		if errors.As(err, &inputErr) {
			log.Error().Err(err).Str("input", inputErr.Input).Msg("reconciliation aborted: input is missing or malformed")
		} else {
			log.Error().Err(err).Msg("reconciliation failed")
		}
		os.Exit(1)
	}

	paths, err := writer.WriteReport(ctx, result.Report, result.Text)
	if err != nil {
		log.Error().Err(err).Msg("failed to write reports")
		os.Exit(1)
	}
	for _, p := range paths {
		log.Info().Str("path", p).Msg("report written")
	}

	if !*quiet {
		fmt.Print(result.Text)
	}
}
