package normalize

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Name upper-cases a person name and collapses whitespace runs into single
// spaces. Input is NFC-composed first so "Й" survives OCR decompositions.
func Name(raw string) string {
	composed := norm.NFC.String(raw)
	// a Caser keeps state between calls and cannot be shared across goroutines
	upper := cases.Upper(language.Russian)
	return strings.Join(strings.Fields(upper.String(composed)), " ")
}
