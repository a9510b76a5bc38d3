package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"invoice-reconciliation/internal/domain"
)

// Defaults and supported ledger encodings.
const (
	DefaultTolerance          = 10
	DefaultLargeRatio         = 0.5
	DefaultLargeAbsolute      = 100000
	DefaultPurchaseOnlyLimit  = 20
	DefaultLargeItemThreshold = 100000
	DefaultTopOrders          = 10
	DefaultTopLargeItems      = 20
	DefaultTopDuplicates      = 10

	EncodingAuto     = "auto"
	EncodingUTF8     = "utf-8"
	EncodingShiftJIS = "shift_jis"
	EncodingUTF16    = "utf-16"
)

// Config is the full reconciliation configuration.
type Config struct {
	Period   string         `yaml:"period"`
	Ledger   LedgerConfig   `yaml:"ledger"`
	Invoices InvoiceConfig  `yaml:"invoices"`
	Matching MatchingConfig `yaml:"matching"`
	Report   ReportConfig   `yaml:"report"`
	Detail   DetailConfig   `yaml:"detail"`
	Log      LogConfig      `yaml:"log"`
}

// Column locates a ledger column by header name, falling back to a
// zero-based position when the header is absent.
type Column struct {
	Header string `yaml:"header"`
	Index  *int   `yaml:"index,omitempty"`
}

// Columns is the ledger schema.
type Columns struct {
	Vendor    Column `yaml:"vendor"`
	OrderID   Column `yaml:"order_id"`
	ItemName  Column `yaml:"item_name"`
	Quantity  Column `yaml:"quantity"`
	UnitPrice Column `yaml:"unit_price"`
	Amount    Column `yaml:"amount"`
	Date      Column `yaml:"date"`
}

// LedgerConfig locates the purchase ledger and describes its layout.
type LedgerConfig struct {
	Path     string  `yaml:"path"`
	Encoding string  `yaml:"encoding"`
	Sheet    string  `yaml:"sheet"`
	Columns  Columns `yaml:"columns"`
}

// InvoiceConfig controls which files under Dir are read as invoices.
type InvoiceConfig struct {
	Dir                string   `yaml:"dir"`
	Extensions         []string `yaml:"extensions"`
	ExcludeDirKeywords []string `yaml:"exclude_dir_keywords"`
}

// MatchingConfig holds the reconciliation tolerance and cause thresholds.
type MatchingConfig struct {
	Tolerance           float64 `yaml:"tolerance"`
	LargeRatio          float64 `yaml:"large_ratio"`
	LargeAbsolute       float64 `yaml:"large_absolute"`
	CanonicalizeVendors bool    `yaml:"canonicalize_vendors"`
}

// ReportConfig names the report outputs; an empty file name disables one.
type ReportConfig struct {
	OutputDir         string `yaml:"output_dir"`
	TextFile          string `yaml:"text_file"`
	JSONFile          string `yaml:"json_file"`
	XLSXFile          string `yaml:"xlsx_file"`
	PurchaseOnlyLimit int    `yaml:"purchase_only_limit"`
}

// DetailConfig controls the line-level analysis of mismatched vendors.
type DetailConfig struct {
	Enabled            bool    `yaml:"enabled"`
	LargeItemThreshold float64 `yaml:"large_item_threshold"`
	TopOrders          int     `yaml:"top_orders"`
	TopLargeItems      int     `yaml:"top_large_items"`
	TopDuplicates      int     `yaml:"top_duplicates"`
}

// LogConfig selects the log level and output format (console or json).
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func index(i int) *int { return &i }

// Default returns the configuration used when no file is given. Column
// headers follow the purchase-detail export; indexes are the positions the
// same export has always used.
func Default() Config {
	return Config{
		Ledger: LedgerConfig{
			Encoding: EncodingAuto,
			Columns: Columns{
				Vendor:    Column{Header: "仕入業者名", Index: index(3)},
				OrderID:   Column{Header: "注文番号", Index: index(8)},
				ItemName:  Column{Header: "品名", Index: index(35)},
				Quantity:  Column{Header: "数量", Index: index(17)},
				UnitPrice: Column{Header: "単価", Index: index(21)},
				Amount:    Column{Header: "仕入金額", Index: index(22)},
				Date:      Column{Header: "注文日", Index: index(1)},
			},
		},
		Invoices: InvoiceConfig{
			Extensions:         []string{".pdf"},
			ExcludeDirKeywords: []string{"工事", "支払査定"},
		},
		Matching: MatchingConfig{
			Tolerance:     DefaultTolerance,
			LargeRatio:    DefaultLargeRatio,
			LargeAbsolute: DefaultLargeAbsolute,
		},
		Report: ReportConfig{
			OutputDir:         ".",
			TextFile:          "reconciliation_report.txt",
			JSONFile:          "reconciliation_report.json",
			PurchaseOnlyLimit: DefaultPurchaseOnlyLimit,
		},
		Detail: DetailConfig{
			Enabled:            true,
			LargeItemThreshold: DefaultLargeItemThreshold,
			TopOrders:          DefaultTopOrders,
			TopLargeItems:      DefaultTopLargeItems,
			TopDuplicates:      DefaultTopDuplicates,
		},
		Log: LogConfig{Level: "info", Format: "console"},
	}
}

// Load reads the YAML file at path over the defaults and then applies
// environment overrides. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, domain.NewInputError(path, domain.ErrInvalidConfig, err.Error())
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("RECON_LEDGER_PATH"); ok && v != "" {
		c.Ledger.Path = v
	}
	if v, ok := lookup("RECON_INVOICE_DIR"); ok && v != "" {
		c.Invoices.Dir = v
	}
	if v, ok := lookup("RECON_OUTPUT_DIR"); ok && v != "" {
		c.Report.OutputDir = v
	}
	if v, ok := lookup("RECON_PERIOD"); ok && v != "" {
		c.Period = v
	}
	if v, ok := lookup("RECON_LOG_LEVEL"); ok && v != "" {
		c.Log.Level = v
	}
	if v, ok := lookup("RECON_TOLERANCE"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return domain.NewInputError("RECON_TOLERANCE", domain.ErrInvalidConfig, err.Error())
		}
		c.Matching.Tolerance = f
	}
	return nil
}

// Validate checks the configuration is complete enough to run.
func (c Config) Validate() error {
	var problems []string
	if c.Ledger.Path == "" {
		problems = append(problems, "ledger path is required")
	}
	if c.Invoices.Dir == "" {
		problems = append(problems, "invoice directory is required")
	}
	if len(c.Invoices.Extensions) == 0 {
		problems = append(problems, "at least one invoice extension is required")
	}
	switch strings.ToLower(c.Ledger.Encoding) {
	case "", EncodingAuto, EncodingUTF8, EncodingShiftJIS, EncodingUTF16:
	default:
		problems = append(problems, fmt.Sprintf("unknown ledger encoding %q", c.Ledger.Encoding))
	}
	if c.Ledger.Columns.Vendor.Header == "" && c.Ledger.Columns.Vendor.Index == nil {
		problems = append(problems, "vendor column needs a header or an index")
	}
	if c.Ledger.Columns.Amount.Header == "" && c.Ledger.Columns.Amount.Index == nil {
		problems = append(problems, "amount column needs a header or an index")
	}
	if c.Matching.Tolerance < 0 || c.Matching.LargeRatio < 0 || c.Matching.LargeAbsolute < 0 {
		problems = append(problems, "matching thresholds must not be negative")
	}
	if c.Detail.LargeItemThreshold < 0 {
		problems = append(problems, "detail large item threshold must not be negative")
	}
	if c.Report.TextFile == "" && c.Report.JSONFile == "" && c.Report.XLSXFile == "" {
		problems = append(problems, "at least one report output file is required")
	}
	if len(problems) > 0 {
		return domain.NewInputError("config", domain.ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// Thresholds is the decimal form of the matching configuration.
type Thresholds struct {
	Tolerance     decimal.Decimal
	LargeRatio    decimal.Decimal
	LargeAbsolute decimal.Decimal
}

// Thresholds converts the matching configuration to decimals.
func (m MatchingConfig) Thresholds() Thresholds {
	return Thresholds{
		Tolerance:     decimal.NewFromFloat(m.Tolerance),
		LargeRatio:    decimal.NewFromFloat(m.LargeRatio),
		LargeAbsolute: decimal.NewFromFloat(m.LargeAbsolute),
	}
}
