package models

// PaymentIntentResponse is returned to the client to confirm payment on device.
type PaymentIntentResponse struct {
	PaymentIntentID string `json:"paymentIntentId"`
	ClientSecret    string `json:"clientSecret"`
	AmountCents     int64  `json:"amountCents"`
	Currency        string `json:"currency"`
}
