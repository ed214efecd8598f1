// Package errors provides the storefront's typed application errors and their
// HTTP status mapping.
package errors

import (
	stderrors "errors"
	"net/http"
	"net/mail"
	"strconv"
	"strings"
)

// Kind classifies application failures for consistent transport mapping.
type Kind string

const (
	KindUnknown         Kind = "unknown"
	KindInvalidInput    Kind = "invalid_input"
	KindNotFound        Kind = "not_found"
	KindConfiguration   Kind = "configuration"
	KindExternalService Kind = "external_service"
	KindAuthorization   Kind = "authorization"
)

// FieldError describes one failing input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is a typed application failure.
type Error struct {
	Kind    Kind         // Machine-readable classification
	Message string       // Internal message (for logs)
	Fields  []FieldError // Every failing field for KindInvalidInput
	Cause   error        // Wrapped underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// New creates a simple typed error.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates a typed error that wraps an underlying cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Invalid creates a validation error carrying every failing field.
func Invalid(message string, fields []FieldError) *Error {
	return &Error{Kind: KindInvalidInput, Message: message, Fields: fields}
}

// NotFound creates a missing-entity error.
func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

// Configuration creates a missing-credential error.
func Configuration(message string) *Error {
	return New(KindConfiguration, message)
}

// KindOf returns the kind of the first typed error in err's chain.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var appErr *Error
	if !stderrors.As(err, &appErr) {
		return KindUnknown
	}
	return appErr.Kind
}

// FieldsOf returns the field failures of the first typed error in err's chain.
func FieldsOf(err error) []FieldError {
	var appErr *Error
	if !stderrors.As(err, &appErr) {
		return nil
	}
	return appErr.Fields
}

// HTTPStatus maps an error to an HTTP status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case "":
		return http.StatusOK
	case KindInvalidInput, KindAuthorization:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Validator accumulates field failures so callers report every problem at once.
type Validator struct {
	fields []FieldError
}

// Add records one failing field.
func (v *Validator) Add(field, message string) {
	v.fields = append(v.fields, FieldError{Field: field, Message: message})
}

// Check records a failing field when ok is false.
func (v *Validator) Check(ok bool, field, message string) {
	if !ok {
		v.Add(field, message)
	}
}

// MinLength records a failure when value has fewer than n characters after
// trimming surrounding whitespace.
func (v *Validator) MinLength(field, value string, n int) {
	if len([]rune(strings.TrimSpace(value))) < n {
		v.Add(field, minLengthMessage(field, n))
	}
}

// Required records a failure when value is blank.
func (v *Validator) Required(field, value string) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, field+" is required")
	}
}

// Email records a failure when value is not a bare email address with a dotted
// domain.
func (v *Validator) Email(field, value string) {
	if !ValidEmail(value) {
		v.Add(field, field+" must be a valid email address")
	}
}

// Err returns a validation error when any field failed, otherwise nil.
func (v *Validator) Err(message string) error {
	if len(v.fields) == 0 {
		return nil
	}
	fields := make([]FieldError, len(v.fields))
	copy(fields, v.fields)
	return Invalid(message, fields)
}

func minLengthMessage(field string, n int) string {
	if n == 1 {
		return field + " is required"
	}
	return field + " must be at least " + strconv.Itoa(n) + " characters"
}

// ValidEmail reports whether value is a bare address such as "a@b.io". Display
// names and angle brackets are rejected.
func ValidEmail(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		return false
	}
	at := strings.LastIndex(value, "@")
	domain := value[at+1:]
	return strings.Contains(domain, ".") && !strings.HasPrefix(domain, ".") && !strings.HasSuffix(domain, ".")
}
