package service

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure. The HTTP layer maps each kind to a status.
type Kind string

const (
	KindInput                Kind = "InputError"
	KindUnsupportedFormat    Kind = "UnsupportedFormat"
	KindConfiguration        Kind = "ConfigurationError"
	KindRecognitionService   Kind = "RecognitionServiceError"
	KindNoTextDetected       Kind = "NoTextDetected"
	KindCompletionService    Kind = "CompletionServiceError"
	KindStructuredExtraction Kind = "StructuredExtractionError"
	KindRequiredFieldMissing Kind = "RequiredFieldMissing"
)

// Error is returned by every pipeline stage. Category and Message become the
// "error" and "message" members of the response envelope; Extra is merged in.
type Error struct {
	Kind     Kind
	Category string
	Message  string
	Extra    map[string]any
	Err      error
}

func (e *Error) Error() string {
	msg := e.Category
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, category, message string, cause error) *Error {
	return &Error{Kind: kind, Category: category, Message: message, Err: cause}
}

func (e *Error) with(key string, value any) *Error {
	if e.Extra == nil {
		e.Extra = make(map[string]any)
	}
	e.Extra[key] = value
	return e
}

// KindOf returns the kind of err, or "" when err is not a pipeline error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func inputError(category, format string, args ...any) *Error {
	return newError(KindInput, category, fmt.Sprintf(format, args...), nil)
}
