// Package entry provides the contest entry use cases: the submission
// workflow that turns a paid payment intent into a stored entry, the owner
// query and delete operations, file retrieval, and review status changes.
package entry

import (
	"errors"
	"fmt"
)

// Rejection reasons reported when a submission stops before it is persisted.
const (
	ReasonMissingFields     = "missing-fields"
	ReasonFileInvalid       = "file-invalid"
	ReasonPaymentIncomplete = "payment-incomplete"
	ReasonInvalidContent    = "invalid-content"
)

// RejectedError is returned by Submit when the workflow ends in the rejected
// state. Err carries the underlying cause, which decides the HTTP status.
type RejectedError struct {
	Reason string
	Err    error
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("submission rejected (%s): %v", e.Reason, e.Err)
}

func (e *RejectedError) Unwrap() error {
	return e.Err
}

// RejectReason exposes the reason to the HTTP layer without an import.
func (e *RejectedError) RejectReason() string {
	return e.Reason
}

// RejectionReason returns the reason of a RejectedError anywhere in err's chain.
func RejectionReason(err error) string {
	var rej *RejectedError
	if errors.As(err, &rej) {
		return rej.Reason
	}
	return ""
}
