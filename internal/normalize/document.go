package normalize

import (
	"regexp"
	"strings"
)

// DocumentLength is the digit count of passport and license numbers.
const DocumentLength = 10

var alphanumeric = regexp.MustCompile(`^[A-Za-z0-9]+$`)

// DocumentNumber keeps the digits of raw and accepts them only when exactly
// ten remain: "99 24 621263" becomes "9924621263".
func DocumentNumber(raw string) (string, bool) {
	digits := Digits(raw)
	if len(digits) != DocumentLength {
		return "", false
	}
	return digits, true
}

// PatentNumber parses "<primary>/<secondary>" and returns the trimmed primary
// part. wellFormed requires exactly one slash, an all-digit secondary part and
// an alphanumeric primary part; callers only warn when it is false.
func PatentNumber(raw string) (primary string, wellFormed bool) {
	raw = strings.TrimSpace(raw)
	before, after, found := strings.Cut(raw, "/")
	primary = strings.TrimSpace(before)
	if !found || strings.Contains(after, "/") {
		return primary, false
	}
	secondary := strings.TrimSpace(after)
	if secondary == "" || Digits(secondary) != secondary {
		return primary, false
	}
	return primary, alphanumeric.MatchString(primary)
}
