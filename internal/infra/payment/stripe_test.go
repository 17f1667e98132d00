package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"

	"contest-api/internal/domain/entity"
	paymentUC "contest-api/internal/usecase/payment"
)

/* ───────── ヘルパ ───────── */

const testWebhookSecret = "whsec_test_secret"

type fakeIntents struct {
	newParams *stripe.PaymentIntentParams
	getID     string
	intent    *stripe.PaymentIntent
	err       error
	calls     int
}

func (f *fakeIntents) New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	f.calls++
	f.newParams = params
	if f.err != nil {
		return nil, f.err
	}
	return f.intent, nil
}

func (f *fakeIntents) Get(id string, _ *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	f.calls++
	f.getID = id
	if f.err != nil {
		return nil, f.err
	}
	return f.intent, nil
}

func newTestGateway(f *fakeIntents) *StripeGateway {
	return newGateway(f, Config{SecretKey: "sk_test_123", WebhookSecret: testWebhookSecret, Timeout: time.Second})
}

// sign builds a Stripe-Signature header the same way Stripe does.
func sign(payload []byte, secret string, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = fmt.Fprintf(mac, "%d.%s", ts.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

/* ───────── intents ───────── */

func TestStripeGateway_CreateIntent(t *testing.T) {
	f := &fakeIntents{intent: &stripe.PaymentIntent{
		ID:           "pi_1",
		ClientSecret: "pi_1_secret_x",
		Status:       stripe.PaymentIntentStatusRequiresPaymentMethod,
		Amount:       5100,
		Currency:     stripe.CurrencyUSD,
		Metadata:     map[string]string{"category": "business-plan"},
	}}
	g := newTestGateway(f)

	got, err := g.CreateIntent(context.Background(), paymentUC.CreateIntentInput{
		AmountMinor: 5100,
		Currency:    "USD",
		Metadata:    map[string]string{"category": "business-plan", "entryType": "text"},
	})
	require.NoError(t, err)

	assert.Equal(t, "pi_1", got.ID)
	assert.Equal(t, "pi_1_secret_x", got.ClientSecret)
	assert.Equal(t, paymentUC.IntentRequiresPaymentMethod, got.Status)
	assert.Equal(t, int64(5100), got.Amount)

	require.NotNil(t, f.newParams)
	assert.Equal(t, int64(5100), *f.newParams.Amount)
	assert.Equal(t, "usd", *f.newParams.Currency)
	assert.True(t, *f.newParams.AutomaticPaymentMethods.Enabled)
	assert.Equal(t, "text", f.newParams.Metadata["entryType"])
	assert.NotNil(t, f.newParams.Context)
}

func TestStripeGateway_RetrieveIntent(t *testing.T) {
	f := &fakeIntents{intent: &stripe.PaymentIntent{
		ID:       "pi_9",
		Status:   stripe.PaymentIntentStatusSucceeded,
		Amount:   10300,
		Metadata: map[string]string{"entryFee": "99"},
	}}
	g := newTestGateway(f)

	got, err := g.RetrieveIntent(context.Background(), "pi_9")
	require.NoError(t, err)
	assert.Equal(t, "pi_9", f.getID)
	assert.Equal(t, paymentUC.IntentSucceeded, got.Status)
	assert.Equal(t, "99", got.Metadata["entryFee"])
}

func TestStripeGateway_RetrieveIntent_Errors(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantIs    error
		notWantIs error
	}{
		{
			name:      "resource missing",
			err:       &stripe.Error{Code: stripe.ErrorCodeResourceMissing, Msg: "No such payment_intent: 'pi_x'", HTTPStatusCode: 404},
			wantIs:    paymentUC.ErrIntentNotFound,
			notWantIs: entity.ErrDependencyUnavailable,
		},
		{
			name:   "api error",
			err:    &stripe.Error{Type: stripe.ErrorTypeAPI, HTTPStatusCode: 500, Msg: "internal"},
			wantIs: paymentUC.ErrGatewayUnavailable,
		},
		{
			name:   "network",
			err:    errors.New("dial tcp: i/o timeout"),
			wantIs: entity.ErrDependencyUnavailable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGateway(&fakeIntents{err: tt.err})

			_, err := g.RetrieveIntent(context.Background(), "pi_x")
			assert.ErrorIs(t, err, tt.wantIs)
			if tt.notWantIs != nil {
				assert.NotErrorIs(t, err, tt.notWantIs)
			}
		})
	}
}

func TestStripeGateway_RetrieveIntent_EmptyID(t *testing.T) {
	f := &fakeIntents{}
	g := newTestGateway(f)

	_, err := g.RetrieveIntent(context.Background(), " ")
	assert.ErrorIs(t, err, paymentUC.ErrIntentNotFound)
	assert.Zero(t, f.calls)
}

func TestStripeGateway_BreakerOpens(t *testing.T) {
	f := &fakeIntents{err: errors.New("connection reset")}
	g := newTestGateway(f)

	for i := 0; i < 5; i++ {
		_, _ = g.RetrieveIntent(context.Background(), "pi_1")
	}
	calls := f.calls

	_, err := g.RetrieveIntent(context.Background(), "pi_1")
	assert.ErrorIs(t, err, paymentUC.ErrGatewayUnavailable)
	assert.Equal(t, calls, f.calls, "open breaker must not reach Stripe")
}

func TestStripeGateway_NotFoundDoesNotOpenBreaker(t *testing.T) {
	f := &fakeIntents{err: &stripe.Error{Code: stripe.ErrorCodeResourceMissing}}
	g := newTestGateway(f)

	for i := 0; i < 10; i++ {
		_, err := g.RetrieveIntent(context.Background(), "pi_1")
		require.ErrorIs(t, err, paymentUC.ErrIntentNotFound)
	}
	assert.Equal(t, 10, f.calls)
}

/* ───────── webhook ───────── */

func TestStripeGateway_VerifyNotification(t *testing.T) {
	g := newTestGateway(&fakeIntents{})
	payload := []byte(`{"id":"evt_1","object":"event","type":"payment_intent.payment_failed","data":{"object":{"id":"pi_1","object":"payment_intent","status":"requires_payment_method"}}}`)

	ev, err := g.VerifyNotification(payload, sign(payload, testWebhookSecret, time.Now()))
	require.NoError(t, err)
	assert.Equal(t, "evt_1", ev.ID)
	assert.Equal(t, paymentUC.EventPaymentFailed, ev.Type)
	assert.Equal(t, "pi_1", ev.IntentID)
}

func TestStripeGateway_VerifyNotification_NonIntentEvent(t *testing.T) {
	g := newTestGateway(&fakeIntents{})
	payload := []byte(`{"id":"evt_2","object":"event","type":"charge.refunded","data":{"object":{"id":"ch_1","object":"charge"}}}`)

	ev, err := g.VerifyNotification(payload, sign(payload, testWebhookSecret, time.Now()))
	require.NoError(t, err)
	assert.Equal(t, "charge.refunded", ev.Type)
	assert.Empty(t, ev.IntentID)
}

func TestStripeGateway_VerifyNotification_Rejects(t *testing.T) {
	payload := []byte(`{"id":"evt_1","object":"event","type":"payment_intent.payment_failed","data":{"object":{"id":"pi_1"}}}`)
	tampered := []byte(`{"id":"evt_1","object":"event","type":"payment_intent.payment_failed","data":{"object":{"id":"pi_2"}}}`)

	tests := []struct {
		name    string
		payload []byte
		header  string
		secret  string
	}{
		{name: "wrong secret", payload: payload, header: sign(payload, "whsec_other", time.Now()), secret: testWebhookSecret},
		{name: "tampered body", payload: tampered, header: sign(payload, testWebhookSecret, time.Now()), secret: testWebhookSecret},
		{name: "stale timestamp", payload: payload, header: sign(payload, testWebhookSecret, time.Now().Add(-time.Hour)), secret: testWebhookSecret},
		{name: "missing header", payload: payload, header: "", secret: testWebhookSecret},
		{name: "garbage header", payload: payload, header: "not-a-signature", secret: testWebhookSecret},
		{name: "no secret configured", payload: payload, header: sign(payload, "", time.Now()), secret: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGateway(&fakeIntents{}, Config{SecretKey: "sk_test", WebhookSecret: tt.secret})

			ev, err := g.VerifyNotification(tt.payload, tt.header)
			assert.Nil(t, ev)
			assert.ErrorIs(t, err, paymentUC.ErrSignatureInvalid)
		})
	}
}

func TestStripeGateway_Ready(t *testing.T) {
	assert.True(t, newTestGateway(&fakeIntents{}).Ready())
	assert.False(t, newGateway(&fakeIntents{}, Config{}).Ready())
}

func TestNewStripeGateway(t *testing.T) {
	g := NewStripeGateway(Config{SecretKey: "sk_test_123", WebhookSecret: testWebhookSecret})
	assert.True(t, g.Ready())
	assert.Equal(t, DefaultTimeout, g.timeout)
}
