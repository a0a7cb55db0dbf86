package normalize

import (
	"regexp"
	"strings"
)

// PhoneLength is the length of a national number without the country or trunk prefix.
const PhoneLength = 10

var (
	nonDigit  = regexp.MustCompile(`\D`)
	tenDigits = regexp.MustCompile(`\d{10}`)

	// Punctuation-tolerant shapes of a Russian number, tried in order on the raw text.
	phonePatterns = []*regexp.Regexp{
		// 8(901)547-78-37
		regexp.MustCompile(`[78][\s(]*(\d{3})[\s)]*(\d{3})[\s-]*(\d{2})[\s-]*(\d{2})`),
		// 8901-547-78-37
		regexp.MustCompile(`[78]?(\d{3})[\s-]*(\d{3})[\s-]*(\d{2})[\s-]*(\d{2})`),
		// 8 901 547 78 37
		regexp.MustCompile(`[78]?\s*(\d{3})\s*(\d{3})\s*(\d{2})\s*(\d{2})`),
	}
)

// Digits drops every character that is not an ASCII digit.
func Digits(s string) string {
	return nonDigit.ReplaceAllString(s, "")
}

// Phone reduces free text to a 10-digit national number. The second result
// is false when no such number can be derived; the first is then empty.
func Phone(raw string) (string, bool) {
	if strings.TrimSpace(raw) == "" {
		return "", false
	}

	digits := Digits(raw)
	switch {
	case len(digits) == PhoneLength:
		return digits, true
	case len(digits) == 11 && (digits[0] == '7' || digits[0] == '8'):
		return digits[1:], true
	case len(digits) == 12 && digits[0] == '7':
		return digits[2:], true
	}

	if m := tenDigits.FindString(digits); m != "" {
		return m, true
	}

	for _, re := range phonePatterns {
		groups := re.FindStringSubmatch(raw)
		if len(groups) != 5 {
			continue
		}
		if number := strings.Join(groups[1:], ""); len(number) == PhoneLength {
			return number, true
		}
	}

	if m := tenDigits.FindString(raw); m != "" {
		return m, true
	}
	return "", false
}

// IsPhone reports whether s already is a normalized phone number.
func IsPhone(s string) bool {
	if len(s) != PhoneLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
