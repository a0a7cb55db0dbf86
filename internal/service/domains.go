package service

import (
	"fmt"
	"strings"

	"doc-recognizer/internal/normalize"
	"doc-recognizer/internal/payload"
)

// Domain names. They double as route segments and function names.
const (
	DomainAudio    = "audio"
	DomainLicense  = "license"
	DomainPassport = "passport"
	DomainPatent   = "patent"
)

// Normalizer canonicalizes one field. ok is false when nothing usable remains.
type Normalizer func(raw string) (value string, ok bool)

// FieldSpec describes one output field of a domain.
type FieldSpec struct {
	Name string
	// Label names the field in user-facing messages.
	Label     string
	Normalize Normalizer
	// Fallback re-derives the field from the recognized text when the model
	// value is absent or fails Normalize.
	Fallback Normalizer
	// Check is a soft validation; a non-empty result is only logged.
	Check func(raw string) string
	// Absent is emitted when no value survives: nil or a localized marker.
	Absent *string
}

// RequiredRule selects how many fields must survive normalization.
type RequiredRule int

const (
	RequireNone RequiredRule = iota
	RequireAny
	RequireAll
)

// Domain parameterizes the recognition pipeline for one document type.
type Domain struct {
	Name   string
	Source payload.Kind
	Fields []FieldSpec
	// Strict domains fail on extraction errors; lenient ones degrade to defaults.
	Strict   bool
	Required RequiredRule
	// MissingCategory and MissingDataKey shape the RequiredFieldMissing envelope.
	MissingCategory string
	MissingDataKey  string
	// ExposeRawText adds the recognized text and processing info to the response.
	ExposeRawText bool
}

func (d *Domain) FieldNames() []string {
	names := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		names[i] = f.Name
	}
	return names
}

// missingMessage explains which required fields could not be extracted.
func (d *Domain) missingMessage(missing []FieldSpec) string {
	if d.Required == RequireAny {
		labels := make([]string, len(missing))
		for i, f := range missing {
			labels[i] = f.Label
		}
		return "Не удалось извлечь ни " + strings.Join(labels, ", ни ")
	}
	names := make([]string, len(missing))
	for i, f := range missing {
		names[i] = f.Name
	}
	return "Не удалось извлечь: " + strings.Join(names, ", ")
}

func marker(s string) *string { return &s }

func trimmed(raw string) (string, bool) {
	v := strings.Join(strings.Fields(raw), " ")
	return v, v != ""
}

func personName(raw string) (string, bool) {
	v := normalize.Name(raw)
	return v, v != ""
}

func modelPhone(raw string) (string, bool) {
	digits := normalize.Digits(raw)
	return digits, normalize.IsPhone(digits)
}

func patentPrimary(raw string) (string, bool) {
	primary, _ := normalize.PatentNumber(raw)
	return primary, primary != ""
}

func patentCheck(raw string) string {
	if _, ok := normalize.PatentNumber(raw); !ok {
		return fmt.Sprintf("document number %q is not <alphanumeric>/<digits>", raw)
	}
	return ""
}

// Domains returns the four supported document types.
func Domains() []*Domain {
	return []*Domain{
		{
			Name:   DomainAudio,
			Source: payload.KindAudio,
			Fields: []FieldSpec{
				{Name: "bank_name", Label: "название банка", Normalize: trimmed, Absent: marker(normalize.NotSpecified)},
				{Name: "phone_number", Label: "номер телефона", Normalize: modelPhone, Fallback: normalize.Phone},
			},
			Strict:        false,
			Required:      RequireNone,
			ExposeRawText: true,
		},
		{
			Name:   DomainLicense,
			Source: payload.KindImage,
			Fields: []FieldSpec{
				{Name: "full_name", Label: "ФИО", Normalize: personName, Absent: marker(normalize.NotSpecified)},
				{Name: "license_number", Label: "номер прав", Normalize: normalize.DocumentNumber, Absent: marker(normalize.NotSpecifiedMasc)},
			},
			Strict:          true,
			Required:        RequireAny,
			MissingCategory: "Data Extraction Failed",
			MissingDataKey:  "raw_data",
		},
		{
			Name:   DomainPassport,
			Source: payload.KindImage,
			Fields: []FieldSpec{
				{Name: "last_name", Label: "фамилию", Normalize: personName, Absent: marker(normalize.NotSpecifiedMasc)},
				{Name: "first_name", Label: "имя", Normalize: personName, Absent: marker(normalize.NotSpecifiedMasc)},
				{Name: "middle_name", Label: "отчество", Normalize: personName, Absent: marker(normalize.NotSpecifiedMasc)},
				{Name: "birth_date", Label: "дату рождения", Normalize: trimmed, Absent: marker(normalize.NotSpecifiedMasc)},
				{Name: "birth_place", Label: "место рождения", Normalize: trimmed, Absent: marker(normalize.NotSpecifiedMasc)},
				{Name: "passport_number", Label: "номер паспорта", Normalize: normalize.DocumentNumber, Absent: marker(normalize.NotSpecifiedMasc)},
				{Name: "citizenship", Label: "гражданство", Normalize: trimmed, Absent: marker(normalize.NotSpecifiedMasc)},
			},
			Strict:   true,
			Required: RequireNone,
		},
		{
			Name:   DomainPatent,
			Source: payload.KindImage,
			Fields: []FieldSpec{
				{Name: "full_name", Label: "ФИО", Normalize: trimmed, Absent: marker(normalize.NotSpecifiedMasc)},
				{Name: "citizenship", Label: "гражданство", Normalize: trimmed, Absent: marker(normalize.NotSpecifiedMasc)},
				{Name: "document_number", Label: "номер документа", Normalize: patentPrimary, Check: patentCheck, Absent: marker(normalize.NotSpecifiedMasc)},
			},
			Strict:          true,
			Required:        RequireAll,
			MissingCategory: "Missing required fields",
			MissingDataKey:  "extracted_data",
		},
	}
}

// DomainByName looks a domain up among Domains().
func DomainByName(n string) (*Domain, bool) {
	for _, d := range Domains() {
		if d.Name == n {
			return d, true
		}
	}
	return nil, false
}
