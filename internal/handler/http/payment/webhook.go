package payment

import (
	"io"
	"net/http"

	"contest-api/internal/handler/http/respond"
	paymentUC "contest-api/internal/usecase/payment"
)

// MaxWebhookBodyBytes caps the notification payload.
const MaxWebhookBodyBytes = 64 << 10

// SignatureHeader carries the gateway's HMAC signature.
const SignatureHeader = "Stripe-Signature"

// WebhookHandler verifies and applies gateway notifications.
// The raw body is passed through untouched since the signature covers it byte for byte.
type WebhookHandler struct {
	Svc *paymentUC.Service
}

func (h WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxWebhookBodyBytes))
	if err != nil {
		respond.FromError(w, r, err)
		return
	}

	if _, err := h.Svc.HandleNotification(r.Context(), payload, r.Header.Get(SignatureHeader)); err != nil {
		respond.FromError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, WebhookResponse{Received: true})
}
