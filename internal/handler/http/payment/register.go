package payment

import (
	"net/http"

	paymentUC "contest-api/internal/usecase/payment"
)

// Register registers the payment routes with the given mux.
// limit wraps intent creation; pass nil to leave it unlimited. The webhook is
// never rate limited since the gateway retries on 429.
func Register(mux *http.ServeMux, svc *paymentUC.Service, limit func(http.Handler) http.Handler) {
	var create http.Handler = CreateIntentHandler{Svc: svc}
	if limit != nil {
		create = limit(create)
	}

	mux.Handle("POST   /payment-intents", create)
	mux.Handle("POST   /webhook", WebhookHandler{Svc: svc})
}
