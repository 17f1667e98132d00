package payment

import (
	"encoding/json"
	"errors"
	"net/http"

	"contest-api/internal/handler/http/respond"
	paymentUC "contest-api/internal/usecase/payment"
)

const createIntentBodyLimit = 4 << 10

// CreateIntentHandler prices an entry and opens a payment intent for it.
type CreateIntentHandler struct {
	Svc *paymentUC.Service
}

// ServeHTTP 決済インテント作成
func (h CreateIntentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req paymentUC.CreateIntentRequest
	r.Body = http.MaxBytesReader(w, r.Body, createIntentBodyLimit)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			respond.FromError(w, r, err)
			return
		}
		respond.Error(w, http.StatusBadRequest, "malformed request body")
		return
	}

	created, err := h.Svc.CreateIntent(r.Context(), req)
	if err != nil {
		respond.FromError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, CreateIntentResponse{
		ClientSecret:    created.ClientSecret,
		PaymentIntentID: created.IntentID,
		EntryFee:        created.Fees.EntryFee,
		Surcharge:       created.Fees.Surcharge,
		TotalAmount:     created.Fees.Total,
	})
}
