package entity

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors for domain layer operations.
// Handlers map these onto HTTP status codes; lower layers wrap them with %w.
var (
	// ErrNotFound indicates that a requested entity was not found
	ErrNotFound = errors.New("entry not found")

	// ErrForbidden indicates that the caller does not own the entry
	ErrForbidden = errors.New("not the owner of this entry")

	// ErrDuplicateEntry indicates that an entry already exists for the payment intent
	ErrDuplicateEntry = errors.New("entry already exists for this payment intent")

	// ErrInvalidCategory indicates that the category is not in the fee table
	ErrInvalidCategory = errors.New("invalid category")

	// ErrUnsupportedFileType indicates that the declared MIME type is not allowed
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrFileTooLarge indicates that the upload exceeds the configured size limit
	ErrFileTooLarge = errors.New("file too large")

	// ErrPaymentNotCompleted indicates that the payment intent has not succeeded
	ErrPaymentNotCompleted = errors.New("payment not completed")

	// ErrSignatureInvalid indicates that a gateway notification failed verification
	ErrSignatureInvalid = errors.New("invalid webhook signature")

	// ErrDependencyUnavailable indicates that the database, payment gateway or
	// file storage could not be reached. Clients may retry.
	ErrDependencyUnavailable = errors.New("service temporarily unavailable")
)

// ValidationError represents a validation error with detailed field information.
// It implements the error interface and provides context about which field failed validation.
type ValidationError struct {
	Field   string
	Message string
	// Err optionally links the failure to a sentinel such as ErrInvalidCategory.
	Err error
}

// Error returns a formatted error message for the validation error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// Unwrap returns the linked sentinel error, if any.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ValidationErrors collects every field failure found in one validation pass.
type ValidationErrors []*ValidationError

// Add appends a field failure.
func (v *ValidationErrors) Add(field, message string) {
	*v = append(*v, &ValidationError{Field: field, Message: message})
}

// Error joins all field failures into a single message.
func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, e := range v {
		msgs = append(msgs, e.Field+": "+e.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Fields returns the failures keyed by field name. When a field failed more
// than once the first message wins.
func (v ValidationErrors) Fields() map[string]string {
	fields := make(map[string]string, len(v))
	for _, e := range v {
		if _, ok := fields[e.Field]; !ok {
			fields[e.Field] = e.Message
		}
	}
	return fields
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (v ValidationErrors) Unwrap() []error {
	errs := make([]error, 0, len(v))
	for _, e := range v {
		errs = append(errs, e)
	}
	return errs
}

// OrNil returns nil when no failure was recorded, so callers can write
// `return errs.OrNil()` without tripping over a typed nil.
func (v ValidationErrors) OrNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// FieldMessages extracts field-level messages from any validation error.
// It returns nil when err carries no field information.
func FieldMessages(err error) map[string]string {
	var many ValidationErrors
	if errors.As(err, &many) {
		return many.Fields()
	}
	var one *ValidationError
	if errors.As(err, &one) {
		return map[string]string{one.Field: one.Message}
	}
	return nil
}

// SortedFields returns the names of the failed fields in lexical order.
func (v ValidationErrors) SortedFields() []string {
	names := make([]string, 0, len(v))
	for name := range v.Fields() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
