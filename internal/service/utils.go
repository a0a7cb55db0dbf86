package service

import "strings"

// cleanText drops invalid UTF-8 and NUL bytes from recognized text. Both
// end up in the prompt and in the JSON envelope.
func cleanText(s string) string {
	s = strings.ToValidUTF8(s, "")
	return strings.TrimSpace(strings.ReplaceAll(s, "\x00", ""))
}
