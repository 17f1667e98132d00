// Package payment provides HTTP handlers for opening payment intents and
// receiving payment gateway webhooks.
package payment

// CreateIntentResponse is returned to the client so it can confirm the payment.
// Amounts are whole dollars.
type CreateIntentResponse struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
	EntryFee        int64  `json:"entryFee"`
	Surcharge       int64  `json:"surcharge"`
	TotalAmount     int64  `json:"totalAmount"`
}

// WebhookResponse acknowledges a verified notification.
type WebhookResponse struct {
	Received bool `json:"received"`
}
