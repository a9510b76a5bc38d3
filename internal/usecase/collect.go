package usecase

import (
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/width"

	"invoice-reconciliation/internal/domain"
)

// minDescriptorSegments is date + label + vendor + amount.
const minDescriptorSegments = 4

// ParseDescriptor decodes an invoice file name of the form
// <date>_<label>_<vendor segments...>_<amount>.<ext>. The amount is the last
// underscore-delimited segment and may be negative for credit memos.
func ParseDescriptor(d domain.InvoiceDescriptor) (domain.InvoiceRecord, bool) {
	name := descriptorName(d)
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	parts := strings.Split(stem, "_")
	if len(parts) < minDescriptorSegments {
		return domain.InvoiceRecord{}, false
	}

	last, ok := amountSegment(parts[len(parts)-1])
	if !ok {
		return domain.InvoiceRecord{}, false
	}
	amount, err := strconv.ParseInt(last, 10, 64)
	if err != nil {
		return domain.InvoiceRecord{}, false
	}

	vendor := strings.Join(parts[2:len(parts)-1], "_")
	if vendor == "" {
		return domain.InvoiceRecord{}, false
	}

	ref := d.Path
	if ref == "" {
		ref = name
	}
	return domain.InvoiceRecord{Vendor: vendor, Amount: amount, FileName: name, SourceRef: ref}, true
}

func descriptorName(d domain.InvoiceDescriptor) string {
	if d.Name != "" {
		return d.Name
	}
	return filepath.Base(d.Path)
}

// amountSegment validates an amount segment: an optional ASCII minus and
// digits, full-width digits included. It returns the segment in ASCII.
func amountSegment(seg string) (string, bool) {
	sign := ""
	if strings.HasPrefix(seg, "-") {
		sign, seg = "-", seg[1:]
	}
	digits := width.Narrow.String(seg)
	if digits == "" {
		return "", false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return sign + digits, true
}

// CollectInvoices parses every descriptor and groups the records by raw
// vendor string. Descriptors that do not follow the naming convention are
// dropped and reported in the collection's skip counters.
func CollectInvoices(descriptors []domain.InvoiceDescriptor) domain.InvoiceCollection {
	var c domain.InvoiceCollection
	index := make(map[string]int)

	for _, d := range descriptors {
		rec, ok := ParseDescriptor(d)
		if !ok {
			c.Skipped++
			c.SkippedNames = append(c.SkippedNames, descriptorName(d))
			continue
		}
		c.Parsed++

		i, seen := index[rec.Vendor]
		if !seen {
			i = len(c.Groups)
			index[rec.Vendor] = i
			c.Groups = append(c.Groups, domain.InvoiceGroup{Vendor: rec.Vendor})
		}
		c.Groups[i].TotalAmount += rec.Amount
		c.Groups[i].Records = append(c.Groups[i].Records, rec)
	}
	return c
}
