package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"invoice-reconciliation/internal/domain"
)

const (
	heavyRule = "================================================================================"
	lightRule = "--------------------------------------------------------------------------------"
)

// Options controls report size.
type Options struct {
	// PurchaseOnlyLimit caps the listed purchase-only vendors; <= 0 lists all.
	PurchaseOnlyLimit int
}

// Input is everything the builder renders.
type Input struct {
	Entries      []domain.ReconciliationEntry
	Details      []domain.VendorDetail
	Metadata     domain.RunMetadata
	Diagnostics  domain.Diagnostics
	InvoiceCount int
}

// Builder renders classified entries into the text and structured reports.
type Builder struct {
	opts    Options
	printer *message.Printer
}

// NewBuilder creates a builder that formats amounts for Japanese readers.
func NewBuilder(opts Options) *Builder {
	return &Builder{opts: opts, printer: message.NewPrinter(language.Japanese)}
}

// Render buckets and orders the entries and renders both report forms. It
// performs no I/O and does not modify in.
func (b *Builder) Render(in Input) (string, *domain.Report) {
	buckets := Bucket(in.Entries)
	purchaseOnly := buckets[domain.OutcomePurchaseOnly]

	rep := &domain.Report{
		Metadata:    in.Metadata,
		Diagnostics: in.Diagnostics,
		Summary: domain.Summary{
			TotalInvoices:       in.InvoiceCount,
			MatchedVendors:      len(buckets[domain.OutcomeMatched]),
			MismatchedVendors:   len(buckets[domain.OutcomeMismatched]),
			InvoiceOnlyVendors:  len(buckets[domain.OutcomeInvoiceOnly]),
			PurchaseOnlyVendors: len(purchaseOnly),
		},
		Matched:       buckets[domain.OutcomeMatched],
		Mismatched:    buckets[domain.OutcomeMismatched],
		InvoiceOnly:   buckets[domain.OutcomeInvoiceOnly],
		PurchaseOnly:  truncate(purchaseOnly, b.opts.PurchaseOnlyLimit),
		VendorDetails: orderDetails(in.Details, buckets[domain.OutcomeMismatched]),
	}
	rep.RecommendedActions = Actions(rep.Summary)

	return b.text(rep), rep
}

// Bucket groups entries by outcome and sorts each bucket: mismatched by
// |difference| descending, matched and invoice-only by invoice amount
// descending, purchase-only by ledger amount descending. Ties are broken by
// vendor name. Every bucket is non-nil.
func Bucket(entries []domain.ReconciliationEntry) map[domain.Outcome][]domain.ReconciliationEntry {
	buckets := make(map[domain.Outcome][]domain.ReconciliationEntry, len(domain.Outcomes))
	for _, o := range domain.Outcomes {
		buckets[o] = []domain.ReconciliationEntry{}
	}
	for _, e := range entries {
		buckets[e.Outcome] = append(buckets[e.Outcome], e)
	}

	sortBy(buckets[domain.OutcomeMatched], invoiceAmount)
	sortBy(buckets[domain.OutcomeMismatched], domain.ReconciliationEntry.AbsDifference)
	sortBy(buckets[domain.OutcomeInvoiceOnly], invoiceAmount)
	sortBy(buckets[domain.OutcomePurchaseOnly], ledgerAmount)
	return buckets
}

func invoiceAmount(e domain.ReconciliationEntry) decimal.Decimal { return orZero(e.InvoiceAmount) }
func ledgerAmount(e domain.ReconciliationEntry) decimal.Decimal  { return orZero(e.LedgerAmount) }

func orZero(d decimal.NullDecimal) decimal.Decimal {
	if !d.Valid {
		return decimal.Zero
	}
	return d.Decimal
}

func sortBy(entries []domain.ReconciliationEntry, key func(domain.ReconciliationEntry) decimal.Decimal) {
	sort.SliceStable(entries, func(i, j int) bool {
		if c := key(entries[i]).Cmp(key(entries[j])); c != 0 {
			return c > 0
		}
		return entries[i].Vendor < entries[j].Vendor
	})
}

func truncate(entries []domain.ReconciliationEntry, n int) []domain.ReconciliationEntry {
	if n > 0 && len(entries) > n {
		return entries[:n]
	}
	return entries
}

// orderDetails lines vendor details up with the sorted mismatched bucket.
func orderDetails(details []domain.VendorDetail, mismatched []domain.ReconciliationEntry) []domain.VendorDetail {
	if len(details) == 0 {
		return nil
	}
	rank := make(map[string]int, len(mismatched))
	for i, e := range mismatched {
		rank[e.Vendor] = i
	}
	ordered := append([]domain.VendorDetail(nil), details...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return rank[ordered[i].Vendor] < rank[ordered[j].Vendor]
	})
	return ordered
}

// Actions derives the recommended follow-ups from which buckets are non-empty.
func Actions(s domain.Summary) []domain.RecommendedAction {
	actions := []domain.RecommendedAction{}
	if s.MismatchedVendors > 0 {
		actions = append(actions, domain.RecommendedAction{
			Outcome: domain.OutcomeMismatched,
			Summary: fmt.Sprintf("金額不一致の%d業者について、詳細照合を実施", s.MismatchedVendors),
			Steps: []string{
				"請求書の明細と仕入明細を1行ずつ照合",
				"注文番号をキーとして紐付け確認",
			},
		})
	}
	if s.InvoiceOnlyVendors > 0 {
		actions = append(actions, domain.RecommendedAction{
			Outcome: domain.OutcomeInvoiceOnly,
			Summary: fmt.Sprintf("請求書のみの%d業者について業者名の確認", s.InvoiceOnlyVendors),
			Steps: []string{
				"仕入明細の業者名と請求書の業者名の表記揺れをチェック",
			},
		})
	}
	if s.PurchaseOnlyVendors > 0 {
		actions = append(actions, domain.RecommendedAction{
			Outcome: domain.OutcomePurchaseOnly,
			Summary: fmt.Sprintf("仕入明細のみの%d業者について請求書の確認", s.PurchaseOnlyVendors),
			Steps: []string{
				"請求書が未着か確認",
				"前月請求や翌月請求の可能性を確認",
			},
		})
	}
	return actions
}

// yen formats an amount rounded to whole yen with thousands separators.
func (b *Builder) yen(d decimal.Decimal) string {
	return b.printer.Sprintf("¥%d", d.Round(0).IntPart())
}

func (b *Builder) nullYen(d decimal.NullDecimal) string {
	if !d.Valid {
		return "-"
	}
	return b.yen(d.Decimal)
}

func (b *Builder) text(rep *domain.Report) string {
	var w strings.Builder
	line := func(format string, args ...any) {
		w.WriteString(b.printer.Sprintf(format, args...))
		w.WriteByte('\n')
	}
	section := func(rule, title string) {
		line("%s", rule)
		line("%s", title)
		line("%s", rule)
	}

	section(heavyRule, "【照合結果サマリー】")
	if rep.Metadata.RunID != "" {
		line("実行ID: %s", rep.Metadata.RunID)
	}
	if rep.Metadata.Period != "" {
		line("対象期間: %s", rep.Metadata.Period)
	}
	if !rep.Metadata.GeneratedAt.IsZero() {
		line("作成日時: %s", rep.Metadata.GeneratedAt.Format("2006-01-02 15:04:05"))
	}
	line("請求書総数: %d件", rep.Summary.TotalInvoices)
	line("金額一致: %d業者", rep.Summary.MatchedVendors)
	line("金額不一致: %d業者", rep.Summary.MismatchedVendors)
	line("請求書のみ: %d業者", rep.Summary.InvoiceOnlyVendors)
	line("仕入明細のみ: %d業者", rep.Summary.PurchaseOnlyVendors)
	b.diagnostics(line, rep.Diagnostics)
	line("")

	if len(rep.Matched) > 0 {
		section(lightRule, fmt.Sprintf("【金額一致】 %d業者", len(rep.Matched)))
		for _, e := range rep.Matched {
			b.amounts(line, e)
			line("")
		}
	}

	if len(rep.Mismatched) > 0 {
		section(lightRule, fmt.Sprintf("【金額不一致】 %d業者 [要確認]", len(rep.Mismatched)))
		for _, e := range rep.Mismatched {
			b.amounts(line, e)
			line("  請求書ファイル:")
			for _, inv := range e.Invoices {
				line("    - %s (%s)", inv.FileName, b.yen(decimal.NewFromInt(inv.Amount)))
			}
			if len(e.Causes) > 0 {
				line("  推定原因: %s", strings.Join(e.Causes, ", "))
			}
			line("")
		}
	}

	if len(rep.InvoiceOnly) > 0 {
		section(lightRule, fmt.Sprintf("【請求書のみ（仕入明細なし）】 %d業者 [要確認]", len(rep.InvoiceOnly)))
		for _, e := range rep.InvoiceOnly {
			line("業者名: %s", e.Vendor)
			line("  請求書金額: %s", b.nullYen(e.InvoiceAmount))
			line("  推定原因: 仕入明細未入力、業者名不一致、または工事関連")
			line("")
		}
	}

	if len(rep.PurchaseOnly) > 0 {
		title := fmt.Sprintf("【仕入明細のみ（請求書なし）】 %d業者 [要確認]", rep.Summary.PurchaseOnlyVendors)
		if len(rep.PurchaseOnly) < rep.Summary.PurchaseOnlyVendors {
			title += fmt.Sprintf(" 上位%d業者を表示", len(rep.PurchaseOnly))
		}
		section(lightRule, title)
		for _, e := range rep.PurchaseOnly {
			line("業者名: %s", e.Vendor)
			line("  仕入明細金額: %s", b.nullYen(e.LedgerAmount))
			line("  推定原因: 請求書未着、または業者名不一致")
			line("")
		}
	}

	if len(rep.VendorDetails) > 0 {
		section(lightRule, "【不一致業者 詳細分析】")
		for _, d := range rep.VendorDetails {
			b.detail(line, d)
			line("")
		}
	}

	section(heavyRule, "【推奨アクション】")
	for i, a := range rep.RecommendedActions {
		line("%d. %s", i+1, a.Summary)
		for _, step := range a.Steps {
			line("   - %s", step)
		}
	}
	line("")
	line("%s", heavyRule)

	return w.String()
}

func (b *Builder) diagnostics(line func(string, ...any), d domain.Diagnostics) {
	if d.InvalidAmountRows > 0 {
		line("金額不正のため0円として集計した行: %d行", d.InvalidAmountRows)
	}
	if d.BlankVendorRows > 0 {
		line("業者名が空のため除外した行: %d行", d.BlankVendorRows)
	}
	if d.MalformedRows > 0 {
		line("列数が見出しより多いため除外した行: %d行", d.MalformedRows)
	}
	if d.SkippedInvoiceFiles > 0 {
		line("ファイル名を解析できず除外した請求書: %d件", d.SkippedInvoiceFiles)
	}
}

func (b *Builder) amounts(line func(string, ...any), e domain.ReconciliationEntry) {
	line("業者名: %s", e.Vendor)
	if e.MatchedVendor != nil && *e.MatchedVendor != e.Vendor {
		line("  照合先（仕入明細）: %s", *e.MatchedVendor)
	}
	line("  請求書金額: %s", b.nullYen(e.InvoiceAmount))
	line("  仕入明細金額: %s", b.nullYen(e.LedgerAmount))
	line("  差額: %s", b.nullYen(e.Difference))
}

func (b *Builder) detail(line func(string, ...any), d domain.VendorDetail) {
	line("業者名: %s", d.Vendor)
	if d.LedgerVendor != d.Vendor {
		line("  照合先（仕入明細）: %s", d.LedgerVendor)
	}
	line("  明細行数: %d行", d.TotalRows)
	line("  仕入金額合計: %s", b.yen(d.TotalAmount))
	line("  注文番号数: %d件", d.OrderCount)
	for i, o := range d.TopOrders {
		line("  %d. 注文番号: %s 金額: %s 日付: %s 明細行数: %d行", i+1, o.OrderID, b.yen(o.Amount), o.FirstDate, o.LineCount)
	}
	if d.LargeItemCount > 0 {
		line("  高額明細: %d件", d.LargeItemCount)
		for _, r := range d.LargeItems {
			line("    - %s 数量: %s 単価: %s 金額: %s 注文番号: %s", r.ItemName, quantity(r.Quantity), b.nullYen(r.UnitPrice), b.nullYen(r.Amount), r.OrderID)
		}
	}
	if len(d.NegativeItems) > 0 {
		line("  マイナス金額明細（返品等）: %d件", len(d.NegativeItems))
		for _, r := range d.NegativeItems {
			line("    - %s 数量: %s 単価: %s 金額: %s 注文番号: %s", r.ItemName, quantity(r.Quantity), b.nullYen(r.UnitPrice), b.nullYen(r.Amount), r.OrderID)
		}
	}
	if d.DuplicatePatternCount > 0 {
		line("  同一品名・数量・単価の重複: %dパターン", d.DuplicatePatternCount)
		for _, p := range d.DuplicatePatterns {
			line("    - %s 数量: %s 単価: %s => %d回出現", p.ItemName, quantity(p.Quantity), b.nullYen(p.UnitPrice), p.Occurrences)
		}
	}
}

func quantity(d decimal.NullDecimal) string {
	if !d.Valid {
		return "-"
	}
	return d.Decimal.String()
}
