package normalize

import "strings"

// Localized "not specified" markers. Masculine and neuter forms are used by
// different document fields.
const (
	NotSpecified     = "не указано"
	NotSpecifiedMasc = "не указан"
	Unknown          = "неизвестно"
)

// IsAbsent reports whether a model-supplied value means "nothing found".
func IsAbsent(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "null", "none", "nil", NotSpecified, NotSpecifiedMasc, Unknown:
		return true
	}
	return false
}
