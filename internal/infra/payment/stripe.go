// Package payment implements the payment gateway on top of the Stripe API.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"

	"contest-api/internal/observability/metrics"
	"contest-api/internal/resilience/circuitbreaker"
	paymentUC "contest-api/internal/usecase/payment"
)

// DefaultTimeout bounds every Stripe round-trip when Config.Timeout is zero.
const DefaultTimeout = 10 * time.Second

// Config holds the Stripe credentials.
type Config struct {
	SecretKey     string
	WebhookSecret string
	Timeout       time.Duration
}

// intentClient is the subset of the Stripe payment intent client the gateway uses.
type intentClient interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Get(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

// StripeGateway implements paymentUC.Gateway.
type StripeGateway struct {
	intents       intentClient
	webhookSecret string
	timeout       time.Duration
	cb            *circuitbreaker.CircuitBreaker
	ready         bool
}

// NewStripeGateway creates a gateway with its own HTTP client. Retries inside
// the SDK are disabled; a failed call surfaces immediately as unavailable.
func NewStripeGateway(cfg Config) *StripeGateway {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	backends := stripe.NewBackendsWithConfig(&stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: cfg.Timeout},
		MaxNetworkRetries: stripe.Int64(0),
	})
	sc := client.New(cfg.SecretKey, backends)
	return newGateway(sc.PaymentIntents, cfg)
}

func newGateway(intents intentClient, cfg Config) *StripeGateway {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	cbCfg := circuitbreaker.PaymentGatewayConfig()
	cbCfg.IsSuccessful = func(err error) bool {
		return errors.Is(err, paymentUC.ErrIntentNotFound)
	}
	return &StripeGateway{
		intents:       intents,
		webhookSecret: cfg.WebhookSecret,
		timeout:       cfg.Timeout,
		cb:            circuitbreaker.New(cbCfg),
		ready:         cfg.SecretKey != "",
	}
}

// Ready reports whether a secret key was configured.
func (g *StripeGateway) Ready() bool {
	return g.ready
}

// CreateIntent opens a payment intent with automatic payment methods.
func (g *StripeGateway) CreateIntent(ctx context.Context, in paymentUC.CreateIntentInput) (*paymentUC.Intent, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(in.AmountMinor),
		Currency: stripe.String(strings.ToLower(in.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range in.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := g.call("create_intent", func() (*stripe.PaymentIntent, error) {
		return g.intents.New(params)
	})
	if err != nil {
		return nil, err
	}
	return toIntent(pi), nil
}

// RetrieveIntent fetches the current state of an intent.
func (g *StripeGateway) RetrieveIntent(ctx context.Context, intentID string) (*paymentUC.Intent, error) {
	if strings.TrimSpace(intentID) == "" {
		return nil, paymentUC.ErrIntentNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := g.call("retrieve_intent", func() (*stripe.PaymentIntent, error) {
		return g.intents.Get(intentID, params)
	})
	if err != nil {
		return nil, err
	}
	return toIntent(pi), nil
}

// VerifyNotification checks the Stripe-Signature header against the webhook
// secret and decodes the event. The payload is never inspected before the
// signature has been verified.
func (g *StripeGateway) VerifyNotification(payload []byte, signatureHeader string) (*paymentUC.Event, error) {
	if g.webhookSecret == "" || signatureHeader == "" {
		return nil, paymentUC.ErrSignatureInvalid
	}
	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", paymentUC.ErrSignatureInvalid, err)
	}

	out := &paymentUC.Event{ID: event.ID, Type: string(event.Type)}
	if strings.HasPrefix(out.Type, "payment_intent.") && event.Data != nil {
		var obj struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(event.Data.Raw, &obj); err != nil {
			return nil, fmt.Errorf("decode %s object: %w", out.Type, err)
		}
		out.IntentID = obj.ID
	}
	return out, nil
}

// call runs fn through the breaker and maps Stripe errors onto the use case sentinels.
func (g *StripeGateway) call(op string, fn func() (*stripe.PaymentIntent, error)) (*stripe.PaymentIntent, error) {
	start := time.Now()
	pi, err := circuitbreaker.Do(g.cb, func() (*stripe.PaymentIntent, error) {
		pi, err := fn()
		if err != nil {
			return nil, classify(err)
		}
		return pi, nil
	})
	metrics.RecordGatewayRequest(op, time.Since(start), err == nil)

	switch {
	case err == nil:
		return pi, nil
	case circuitbreaker.IsRejected(err):
		return nil, fmt.Errorf("%w: %w", paymentUC.ErrGatewayUnavailable, err)
	default:
		return nil, err
	}
}

func classify(err error) error {
	var se *stripe.Error
	if errors.As(err, &se) && se.Code == stripe.ErrorCodeResourceMissing {
		return fmt.Errorf("%w: %s", paymentUC.ErrIntentNotFound, se.Msg)
	}
	return fmt.Errorf("%w: %w", paymentUC.ErrGatewayUnavailable, err)
}

func toIntent(pi *stripe.PaymentIntent) *paymentUC.Intent {
	md := make(map[string]string, len(pi.Metadata))
	for k, v := range pi.Metadata {
		md[k] = v
	}
	return &paymentUC.Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       paymentUC.IntentStatus(pi.Status),
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Metadata:     md,
	}
}
