// Package payment provides use cases for opening payment intents and applying
// payment gateway notifications to stored entries.
// The Gateway interface is implemented by the infrastructure layer.
package payment

import (
	"errors"
	"fmt"

	"contest-api/internal/domain/entity"
)

// Sentinel errors for payment use case operations.
var (
	// ErrIntentNotFound indicates the gateway has no intent with the given id.
	ErrIntentNotFound = errors.New("payment intent not found")

	// ErrGatewayUnavailable indicates the gateway could not be reached or failed.
	// It wraps entity.ErrDependencyUnavailable so it renders as 503.
	ErrGatewayUnavailable = fmt.Errorf("payment gateway unavailable: %w", entity.ErrDependencyUnavailable)

	// ErrSignatureInvalid indicates a notification failed verification.
	ErrSignatureInvalid = fmt.Errorf("payment notification rejected: %w", entity.ErrSignatureInvalid)

	// ErrInvalidMetadata indicates an intent whose metadata cannot be trusted
	// to recompute fees.
	ErrInvalidMetadata = errors.New("payment intent metadata is incomplete")
)
