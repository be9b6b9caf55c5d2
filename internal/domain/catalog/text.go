package catalog

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var folder = cases.Fold()

// CleanName collapses whitespace and applies NFC so visually equal names
// are stored identically
func CleanName(s string) string {
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}

// SearchKey is the case-folded NFKC form used for name lookups
func SearchKey(s string) string {
	return folder.String(norm.NFKC.String(CleanName(s)))
}
