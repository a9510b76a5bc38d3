package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// CanonicalVendor folds a vendor name for comparison: surrounding whitespace
// (including the ideographic space) is trimmed, full-width ASCII becomes
// half-width and half-width katakana becomes full-width with voiced marks
// composed, so "ｲｸﾞｱｽ" and "イグアス" compare equal.
func CanonicalVendor(name string) string {
	folded := width.Fold.String(strings.TrimFunc(name, unicode.IsSpace))
	return norm.NFC.String(folded)
}
