package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"contest-api/internal/domain/entity"
	"contest-api/internal/observability/logging"
	"contest-api/internal/observability/metrics"
	"contest-api/internal/observability/tracing"
	"contest-api/internal/repository"
	"contest-api/internal/usecase/validate"
)

// CreateIntentRequest is the request to open a payment intent for an entry.
type CreateIntentRequest struct {
	Category  string `json:"category" validate:"required"`
	EntryType string `json:"entryType" validate:"required"`
}

// CreatedIntent is returned to the client so it can confirm the payment.
type CreatedIntent struct {
	IntentID     string
	ClientSecret string
	Fees         entity.Fees
}

// Service provides payment use cases.
type Service struct {
	Gateway Gateway
	Entries repository.EntryRepository
	// Fees defaults to entity.DefaultFeeTable when nil.
	Fees entity.FeeTable
}

func (s *Service) feeTable() entity.FeeTable {
	if s.Fees == nil {
		return entity.DefaultFeeTable
	}
	return s.Fees
}

// CreateIntent prices the category and opens an intent for the total.
// Unknown categories and entry types are validation errors; the gateway is
// not contacted for them.
func (s *Service) CreateIntent(ctx context.Context, req CreateIntentRequest) (_ *CreatedIntent, err error) {
	req.Category = strings.TrimSpace(req.Category)
	req.EntryType = strings.TrimSpace(req.EntryType)
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	entryType := entity.EntryType(req.EntryType)
	if !entryType.IsValid() {
		return nil, &entity.ValidationError{Field: "entryType", Message: "must be one of text, pitch-deck, video"}
	}
	category := entity.Category(req.Category)
	fees, err := s.feeTable().Calculate(category)
	if err != nil {
		return nil, err
	}

	ctx, span := tracing.StartSpan(ctx, "payment.create_intent",
		attribute.String("category", string(category)),
		attribute.Int64("amount_minor", fees.MinorUnits()))
	defer func() { tracing.EndSpan(span, err) }()

	quote := Quote{Category: category, EntryType: entryType, Fees: fees}
	intent, err := s.Gateway.CreateIntent(ctx, CreateIntentInput{
		AmountMinor: fees.MinorUnits(),
		Currency:    Currency,
		Metadata:    quote.Metadata(),
	})
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}

	metrics.RecordPaymentIntentCreated(string(category))
	logging.FromContext(ctx).Info("payment intent created",
		slog.String("payment_intent_id", intent.ID),
		slog.String("category", string(category)),
		slog.Int64("total", fees.Total))

	return &CreatedIntent{
		IntentID:     intent.ID,
		ClientSecret: intent.ClientSecret,
		Fees:         fees,
	}, nil
}

// HandleNotification verifies a raw gateway notification and applies it.
//
// A payment_intent.payment_failed event moves the matching entry to failed.
// The update is conditional on the entry being pending or succeeded, so a
// redelivered event changes nothing. An event for an intent with no entry is
// acknowledged and logged. Every other verified event is acknowledged untouched.
func (s *Service) HandleNotification(ctx context.Context, payload []byte, signature string) (*Event, error) {
	logger := logging.FromContext(ctx)

	event, err := s.Gateway.VerifyNotification(payload, signature)
	if err != nil {
		metrics.RecordWebhook("", metrics.WebhookInvalidSignature)
		logger.Warn("payment notification rejected", slog.Any("error", err))
		if errors.Is(err, ErrSignatureInvalid) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrSignatureInvalid, err)
	}

	if event.Type != EventPaymentFailed {
		metrics.RecordWebhook(event.Type, metrics.WebhookIgnored)
		logger.Debug("payment notification ignored",
			slog.String("event_id", event.ID),
			slog.String("event_type", event.Type))
		return event, nil
	}

	result, err := s.markFailed(ctx, event.IntentID)
	if err != nil {
		metrics.RecordWebhook(event.Type, metrics.WebhookError)
		return nil, fmt.Errorf("apply %s: %w", event.Type, err)
	}
	metrics.RecordWebhook(event.Type, result)

	logger.Info("payment notification processed",
		slog.String("event_id", event.ID),
		slog.String("event_type", event.Type),
		slog.String("payment_intent_id", event.IntentID),
		slog.String("result", result))
	return event, nil
}

func (s *Service) markFailed(ctx context.Context, intentID string) (string, error) {
	if intentID == "" {
		return metrics.WebhookUnknownIntent, nil
	}

	changed, err := s.Entries.UpdatePaymentStatus(ctx, intentID, entity.PaymentStatusFailed,
		entity.PaymentStatusPending, entity.PaymentStatusSucceeded)
	if err != nil {
		return "", err
	}
	if changed {
		return metrics.WebhookApplied, nil
	}

	// 変更なし: 未登録の intent か、すでに failed
	_, err = s.Entries.FindByPaymentIntent(ctx, intentID)
	switch {
	case errors.Is(err, entity.ErrNotFound):
		return metrics.WebhookUnknownIntent, nil
	case err != nil:
		return "", err
	}
	return metrics.WebhookIgnored, nil
}
