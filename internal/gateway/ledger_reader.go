package gateway

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/extrame/xls"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"invoice-reconciliation/internal/config"
	"invoice-reconciliation/internal/domain"
	"invoice-reconciliation/internal/logger"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// LedgerRepository reads the purchase ledger from a CSV, XLSX or legacy XLS file.
type LedgerRepository struct {
	encoding string
	sheet    string
	columns  config.Columns
}

// NewLedgerRepository creates a new repository instance.
func NewLedgerRepository(cfg config.LedgerConfig) *LedgerRepository {
	return &LedgerRepository{
		encoding: strings.ToLower(cfg.Encoding),
		sheet:    cfg.Sheet,
		columns:  cfg.Columns,
	}
}

// schema holds resolved zero-based column positions; -1 means absent.
type schema struct {
	vendor, orderID, itemName, quantity, unitPrice, amount, date int
}

// GetLedgerRows reads and parses the ledger file at path.
func (r *LedgerRepository) GetLedgerRows(ctx context.Context, path string) (*domain.LedgerSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.NewInputError(path, domain.ErrLedgerUnreadable, err.Error())
	}

	var (
		records  [][]string
		values   [][]string // unformatted cells, workbooks only
		encoding string
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		records, values, err = r.readWorkbook(data)
		encoding = "xlsx"
	case ".xls":
		records, err = r.readLegacyWorkbook(data)
		encoding = "xls"
	default:
		records, encoding, err = r.readCSV(data)
	}
	if err != nil {
		return nil, domain.NewInputError(path, domain.ErrLedgerUnreadable, err.Error())
	}
	if len(records) == 0 {
		return nil, domain.NewInputError(path, domain.ErrEmptyLedger, "no header row")
	}

	header := records[0]
	s, err := r.resolveSchema(ctx, path, header)
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, domain.NewInputError(path, domain.ErrEmptyLedger, "header only")
	}

	snapshot := &domain.LedgerSnapshot{Source: path, Encoding: encoding}
	for i, record := range records[1:] {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		// Lines with more fields than the header cannot be aligned to it.
		if len(record) > len(header) {
			snapshot.MalformedRows++
			continue
		}
		var raw []string
		if i+1 < len(values) {
			raw = values[i+1]
		}
		snapshot.Rows = append(snapshot.Rows, s.row(record, raw, i+2))
	}
	return snapshot, nil
}

func (r *LedgerRepository) readCSV(data []byte) ([][]string, string, error) {
	text, encoding, err := decodeText(data, r.encoding)
	if err != nil {
		return nil, "", err
	}
	reader := csv.NewReader(bytes.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, "", fmt.Errorf("error reading csv record: %w", err)
		}
		records = append(records, record)
	}
	return records, encoding, nil
}

// readWorkbook returns the sheet twice: as displayed, for text and date
// columns, and as stored, for numeric columns. Display strings carry the
// cell's number format, e.g. "(1,234)" or "12.50%".
func (r *LedgerRepository) readWorkbook(data []byte) ([][]string, [][]string, error) {
	xl, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer xl.Close()

	sheet := r.sheet
	if sheet == "" {
		sheet = xl.GetSheetName(0)
	}
	rows, err := xl.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get rows from sheet %q: %w", sheet, err)
	}
	values, err := xl.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get raw values from sheet %q: %w", sheet, err)
	}
	return rows, values, nil
}

// readLegacyWorkbook reads a BIFF (.xls) export. Blank rows are dropped the
// same way the CSV reader drops blank lines.
func (r *LedgerRepository) readLegacyWorkbook(data []byte) (records [][]string, err error) {
	// extrame/xls panics on some malformed files.
	defer func() {
		if p := recover(); p != nil {
			records, err = nil, fmt.Errorf("failed to parse xls workbook: %v", p)
		}
	}()

	book, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("failed to open xls workbook: %w", err)
	}

	var sheet *xls.WorkSheet
	for i := 0; i < book.NumSheets(); i++ {
		ws := book.GetSheet(i)
		if ws == nil {
			continue
		}
		if r.sheet == "" || ws.Name == r.sheet {
			sheet = ws
			break
		}
	}
	if sheet == nil {
		return nil, fmt.Errorf("sheet %q not found in xls workbook", r.sheet)
	}

	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			continue
		}
		record := make([]string, row.LastCol())
		blank := true
		for j := range record {
			record[j] = row.Col(j)
			if strings.TrimSpace(record[j]) != "" {
				blank = false
			}
		}
		if !blank {
			records = append(records, record)
		}
	}
	return records, nil
}

// decodeText converts ledger bytes to UTF-8. In auto mode a BOM decides
// first, then valid UTF-8 is taken as is, and anything else is read as
// Shift-JIS (code page 932), the encoding of most domestic accounting exports.
func decodeText(data []byte, encoding string) ([]byte, string, error) {
	switch encoding {
	case config.EncodingUTF8:
		return bytes.TrimPrefix(data, utf8BOM), config.EncodingUTF8, nil
	case config.EncodingShiftJIS:
		out, _, err := transform.Bytes(japanese.ShiftJIS.NewDecoder(), data)
		return out, config.EncodingShiftJIS, err
	case config.EncodingUTF16:
		out, _, err := transform.Bytes(unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder(), data)
		return out, config.EncodingUTF16, err
	}

	switch {
	case bytes.HasPrefix(data, utf8BOM):
		return data[len(utf8BOM):], config.EncodingUTF8, nil
	case bytes.HasPrefix(data, []byte{0xFF, 0xFE}), bytes.HasPrefix(data, []byte{0xFE, 0xFF}):
		return decodeText(data, config.EncodingUTF16)
	case utf8.Valid(data):
		return data, config.EncodingUTF8, nil
	default:
		return decodeText(data, config.EncodingShiftJIS)
	}
}

// resolveSchema maps every configured column to a position, preferring the
// header name and falling back to the configured index. Vendor and amount
// are required.
func (r *LedgerRepository) resolveSchema(ctx context.Context, path string, header []string) (schema, error) {
	log := logger.FromContext(ctx)
	names := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := names[h]; !dup {
			names[h] = i
		}
	}

	var errs []error
	resolve := func(name string, col config.Column, required bool) int {
		if i, ok := names[col.Header]; ok && col.Header != "" {
			return i
		}
		if col.Index != nil && *col.Index >= 0 && *col.Index < len(header) {
			log.Warn().
				Str("column", name).
				Str("header", col.Header).
				Int("index", *col.Index).
				Msg("ledger header not found, using positional fallback")
			return *col.Index
		}
		if required {
			errs = append(errs, domain.NewInputError(path, domain.ErrMissingColumn, fmt.Sprintf("column %s (header %q)", name, col.Header)))
		}
		return -1
	}

	s := schema{
		vendor:    resolve("vendor", r.columns.Vendor, true),
		orderID:   resolve("order_id", r.columns.OrderID, false),
		itemName:  resolve("item_name", r.columns.ItemName, false),
		quantity:  resolve("quantity", r.columns.Quantity, false),
		unitPrice: resolve("unit_price", r.columns.UnitPrice, false),
		amount:    resolve("amount", r.columns.Amount, true),
		date:      resolve("date", r.columns.Date, false),
	}
	if len(errs) > 0 {
		return schema{}, errors.Join(errs...)
	}
	return s, nil
}

// row maps a record onto the schema. When raw is non-nil numeric columns
// are parsed from it instead of the displayed record.
func (s schema) row(record, raw []string, line int) domain.LedgerRow {
	cell := func(r []string, i int) string {
		if i < 0 || i >= len(r) {
			return ""
		}
		return r[i]
	}
	text := func(i int) string { return cell(record, i) }
	number := func(i int) decimal.NullDecimal {
		if raw != nil {
			return parseNumber(cell(raw, i))
		}
		return parseNumber(cell(record, i))
	}
	return domain.LedgerRow{
		Line:      line,
		Vendor:    text(s.vendor),
		OrderID:   strings.TrimSpace(text(s.orderID)),
		ItemName:  text(s.itemName),
		Quantity:  number(s.quantity),
		UnitPrice: number(s.unitPrice),
		Amount:    number(s.amount),
		Date:      strings.TrimSpace(text(s.date)),
	}
}

// parseNumber coerces a cell to a decimal, tolerating surrounding spaces,
// thousands separators and a leading yen sign. Accounting negatives, written
// "(1,234)" or with a leading △/▲, are negated. Anything else is null.
func parseNumber(raw string) decimal.NullDecimal {
	s := strings.TrimSpace(raw)
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s, negative = strings.TrimSpace(s[1:len(s)-1]), true
	} else if t := strings.TrimLeft(s, "△▲"); t != s {
		s, negative = strings.TrimSpace(t), true
	}
	s = strings.TrimLeft(s, "¥￥")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	if negative {
		d = d.Neg()
	}
	return decimal.NewNullDecimal(d)
}
