package usecase

import (
	"strings"

	"invoice-reconciliation/internal/domain"
)

// VendorMatcher resolves invoice-side vendor names to ledger-side names.
//
// Resolution tries an exact match first and then the first ledger vendor, in
// the matcher's fixed order, whose name contains or is contained in the
// invoice vendor. The first containment hit wins even when a longer, closer
// ledger name exists further down the order.
type VendorMatcher struct {
	vendors   []string
	keys      []string
	exact     map[string]string
	canonical bool
}

// NewVendorMatcher builds a matcher over ledger vendors in the order given.
// With canonical set, names on both sides are compared through
// domain.CanonicalVendor; the resolved name is always the raw ledger name.
func NewVendorMatcher(vendors []string, canonical bool) *VendorMatcher {
	m := &VendorMatcher{
		vendors:   vendors,
		keys:      make([]string, len(vendors)),
		exact:     make(map[string]string, len(vendors)),
		canonical: canonical,
	}
	for i, v := range vendors {
		k := m.key(v)
		m.keys[i] = k
		if _, dup := m.exact[k]; !dup {
			m.exact[k] = v
		}
	}
	return m
}

func (m *VendorMatcher) key(name string) string {
	if m.canonical {
		return domain.CanonicalVendor(name)
	}
	return name
}

// Resolve returns the ledger vendor invoiceVendor maps to.
func (m *VendorMatcher) Resolve(invoiceVendor string) (string, bool) {
	k := m.key(invoiceVendor)
	if v, ok := m.exact[k]; ok {
		return v, true
	}
	if k == "" {
		return "", false
	}
	for i, lk := range m.keys {
		if related(k, lk) {
			return m.vendors[i], true
		}
	}
	return "", false
}

// Related reports whether invoiceVendor and ledgerVendor would match each
// other on their own: equal, or one contained in the other.
func (m *VendorMatcher) Related(invoiceVendor, ledgerVendor string) bool {
	a, b := m.key(invoiceVendor), m.key(ledgerVendor)
	if a == b {
		return true
	}
	return a != "" && related(a, b)
}

func related(a, b string) bool {
	if b == "" {
		return false
	}
	return strings.Contains(b, a) || strings.Contains(a, b)
}
