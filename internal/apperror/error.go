package apperror

import (
	"errors"
	"strings"
)

// Kinds. Package level sentinels wrap one of these so the HTTP layer can map
// any domain error to a status code with errors.Is.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("conflict")
	ErrUnavailable  = errors.New("temporarily unavailable")
)

// kindError carries a client facing message and unwraps to its kind.
type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

// New returns an error with message msg that matches kind under errors.Is.
func New(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

// PgUniqueViolation is the Postgres SQLSTATE for unique_violation.
const PgUniqueViolation = "23505"

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every offending field of a request.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Add records a field error. It returns the receiver so calls can be chained.
func (e *ValidationError) Add(field, message string) *ValidationError {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
	return e
}

func (e *ValidationError) HasErrors() bool { return len(e.Fields) > 0 }

// OrNil returns nil when no field failed, so callers can write
// `return v.OrNil()` without leaking a typed nil into an error interface.
func (e *ValidationError) OrNil() error {
	if e == nil || !e.HasErrors() {
		return nil
	}
	return e
}

// NewValidation builds a single-field validation error.
func NewValidation(field, message string) error {
	return (&ValidationError{}).Add(field, message)
}

// Is reports whether err belongs to kind. It is a thin wrapper so handlers
// do not need to import errors alongside this package.
func Is(err, kind error) bool {
	return errors.Is(err, kind)
}
