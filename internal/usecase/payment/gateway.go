package payment

import (
	"context"
)

// IntentStatus is the gateway's view of a payment intent.
type IntentStatus string

// Intent statuses reported by the gateway. Only IntentSucceeded means the
// entrant has paid.
const (
	IntentRequiresPaymentMethod IntentStatus = "requires_payment_method"
	IntentRequiresConfirmation  IntentStatus = "requires_confirmation"
	IntentRequiresAction        IntentStatus = "requires_action"
	IntentProcessing            IntentStatus = "processing"
	IntentRequiresCapture       IntentStatus = "requires_capture"
	IntentCanceled              IntentStatus = "canceled"
	IntentSucceeded             IntentStatus = "succeeded"
)

// Intent is a payment intent as returned by the gateway.
type Intent struct {
	ID           string
	ClientSecret string
	Status       IntentStatus
	Amount       int64 // minor units
	Currency     string
	Metadata     map[string]string
}

// Event types the service reacts to.
const (
	EventPaymentFailed    = "payment_intent.payment_failed"
	EventPaymentSucceeded = "payment_intent.succeeded"
)

// Event is a verified gateway notification.
// IntentID is set for payment_intent.* events.
type Event struct {
	ID       string
	Type     string
	IntentID string
}

// CreateIntentInput describes the charge to open.
type CreateIntentInput struct {
	AmountMinor int64
	Currency    string
	Metadata    map[string]string
}

// Gateway is the payment processor capability used by the use cases.
//
// CreateIntent and RetrieveIntent return ErrIntentNotFound or
// ErrGatewayUnavailable on failure. VerifyNotification returns
// ErrSignatureInvalid for any payload whose signature does not check out.
type Gateway interface {
	CreateIntent(ctx context.Context, in CreateIntentInput) (*Intent, error)
	RetrieveIntent(ctx context.Context, intentID string) (*Intent, error)
	VerifyNotification(payload []byte, signatureHeader string) (*Event, error)
	// Ready reports whether the client was initialised with credentials.
	Ready() bool
}
