package webhook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	StatusPaid     = "paid"
	StatusCancel   = "cancel"
	StatusPending  = "pending"
	StatusPartPaid = "part_paid"
)

type Event struct {
	OrderID           string `json:"order_id"`
	TransactionStatus string `json:"transaction_status"`
}

// ParseEvent decodes a webhook body. Both fields must be present and
// non-null; numbers are accepted and kept in their textual form.
func ParseEvent(body []byte) (Event, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	orderID, err := field(fields, "order_id")
	if err != nil {
		return Event{}, err
	}
	status, err := field(fields, "transaction_status")
	if err != nil {
		return Event{}, err
	}

	return Event{
		OrderID:           strings.TrimSpace(orderID),
		TransactionStatus: strings.TrimSpace(status),
	}, nil
}

func field(fields map[string]json.RawMessage, name string) (string, error) {
	raw := bytes.TrimSpace(fields[name])
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", fmt.Errorf("%w: %s missing", ErrMalformedPayload, name)
	}
	v, ok := scalar(raw)
	if !ok {
		return "", fmt.Errorf("%w: %s not a string or number", ErrMalformedPayload, name)
	}
	return v, nil
}

func scalar(raw json.RawMessage) (string, bool) {

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), true
	}
	return "", false
}
