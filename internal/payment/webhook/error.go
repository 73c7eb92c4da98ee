package webhook

import "errors"

var (
	ErrConfiguration    = errors.New("webhook secret not configured")
	ErrMissingSignature = errors.New("missing signature header")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrMalformedPayload = errors.New("malformed payload")
	ErrOrderNotFound    = errors.New("no order for naboopay order id")
)
