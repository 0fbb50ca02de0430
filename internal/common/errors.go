package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Extraction error taxonomy.
var (
	ErrNoTextExtracted          = errors.New("no text extracted")
	ErrNoProductsFound          = errors.New("no products found")
	ErrMalformedMachineResponse = errors.New("malformed machine response")
	ErrSchemaViolation          = errors.New("schema violation")
	ErrRelationshipViolation    = errors.New("relationship violation")
	ErrUnsupportedInput         = errors.New("unsupported input")
	ErrInvalidInput             = errors.New("invalid input")
)

// Stable codes, used in logs, metrics labels and the journal.
const (
	CodeNoTextExtracted          = "NO_TEXT_EXTRACTED"
	CodeNoProductsFound          = "NO_PRODUCTS_FOUND"
	CodeMalformedMachineResponse = "MALFORMED_MACHINE_RESPONSE"
	CodeSchemaViolation          = "SCHEMA_VIOLATION"
	CodeRelationshipViolation    = "RELATIONSHIP_VIOLATION"
	CodeUnsupportedInput         = "UNSUPPORTED_INPUT"
	CodeInvalidInput             = "INVALID_INPUT"
	CodeInternal                 = "INTERNAL"
)

var kinds = []struct {
	err  error
	code string
}{
	{ErrNoTextExtracted, CodeNoTextExtracted},
	{ErrNoProductsFound, CodeNoProductsFound},
	{ErrMalformedMachineResponse, CodeMalformedMachineResponse},
	{ErrSchemaViolation, CodeSchemaViolation},
	{ErrRelationshipViolation, CodeRelationshipViolation},
	{ErrUnsupportedInput, CodeUnsupportedInput},
	{ErrInvalidInput, CodeInvalidInput},
}

// ErrorKind returns the taxonomy code for err, CodeInternal when it is outside
// the taxonomy and "" for nil.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code != "" {
		return appErr.Code
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.code
		}
	}
	return CodeInternal
}

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// NoTextExtracted reports an upstream text source that produced nothing usable.
func NoTextExtracted(source string) error {
	return NewAppError(CodeNoTextExtracted, "no text extracted from "+source, ErrNoTextExtracted)
}

// NoProductsFound reports a document without a parseable line-item section.
func NoProductsFound(reason string) error {
	return NewAppError(CodeNoProductsFound, reason, ErrNoProductsFound)
}

const maxSnippet = 200

// MalformedResponseError is returned when a machine response cannot be parsed,
// even after repair.
type MalformedResponseError struct {
	Snippet string
	Err     error
}

func NewMalformedResponseError(raw string, err error) *MalformedResponseError {
	snippet := raw
	if len(snippet) > maxSnippet {
		snippet = snippet[:maxSnippet] + "..."
	}
	return &MalformedResponseError{Snippet: snippet, Err: err}
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v (snippet: %q)", ErrMalformedMachineResponse, e.Err, e.Snippet)
	}
	return fmt.Sprintf("%s (snippet: %q)", ErrMalformedMachineResponse, e.Snippet)
}

func (e *MalformedResponseError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMalformedMachineResponse}
	}
	return []error{ErrMalformedMachineResponse, e.Err}
}

// SchemaViolationError names the offending section, item index and field.
type SchemaViolationError struct {
	Section string
	Field   string
	Index   int
	Reason  string
}

func (e *SchemaViolationError) Error() string {
	if e.Reason == "" || e.Reason == "missing" {
		return fmt.Sprintf("Missing required field '%s' in %s at index %d", e.Field, e.Section, e.Index)
	}
	return fmt.Sprintf("Invalid field '%s' in %s at index %d: %s", e.Field, e.Section, e.Index, e.Reason)
}

func (e *SchemaViolationError) Unwrap() error { return ErrSchemaViolation }

// RelationshipViolationError reports an invoice reference that does not resolve.
type RelationshipViolationError struct {
	InvoiceID string
	Section   string // "customers" | "products"
	MissingID string
}

func (e *RelationshipViolationError) Error() string {
	return fmt.Sprintf("invoice %s references %s id %q that is not present", e.InvoiceID, e.Section, e.MissingID)
}

func (e *RelationshipViolationError) Unwrap() error { return ErrRelationshipViolation }
