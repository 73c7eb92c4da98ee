package payment

import (
	"encoding/json"
	"strings"
)

// TransactionResponse is a created transaction. OrderID is the Naboopay
// transaction id, echoed back later in webhooks.
type TransactionResponse struct {
	CheckoutURL string
	OrderID     string
}

type naboopayResponse struct {
	CheckoutURL *string         `json:"checkout_url"`
	OrderID     json.RawMessage `json:"order_id"`
	Message     string          `json:"message"`
}

// transactionID accepts the id as either a JSON string or number.
func transactionID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(string(raw))
}
