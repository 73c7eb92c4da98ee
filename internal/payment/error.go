package payment

import (
	"errors"
	"fmt"
)

var (
	ErrNetwork         = errors.New("naboopay: network error")
	ErrServer          = errors.New("naboopay: server error")
	ErrInvalidResponse = errors.New("naboopay: invalid response")
)

type ErrorKind int

const (
	KindNetwork ErrorKind = iota + 1
	KindServer
	KindInvalidResponse
)

func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network_error"
	case KindServer:
		return "server_error"
	case KindInvalidResponse:
		return "invalid_response"
	}
	return "unknown"
}

// TransactionError describes why a transaction could not be created.
// StatusCode and Body are only set for KindServer.
type TransactionError struct {
	Kind       ErrorKind
	StatusCode int
	Body       string
	Detail     string
	Err        error
}

func (e *TransactionError) Error() string {
	switch e.Kind {
	case KindServer:
		return fmt.Sprintf("naboopay: server returned HTTP %d: %s", e.StatusCode, e.Body)
	case KindNetwork:
		return fmt.Sprintf("naboopay: network error: %s", e.Detail)
	default:
		return fmt.Sprintf("naboopay: invalid response: %s", e.Detail)
	}
}

func (e *TransactionError) Unwrap() error {
	return e.Err
}

// Is lets callers match on the kind with errors.Is(err, ErrServer).
func (e *TransactionError) Is(target error) bool {
	switch target {
	case ErrNetwork:
		return e.Kind == KindNetwork
	case ErrServer:
		return e.Kind == KindServer
	case ErrInvalidResponse:
		return e.Kind == KindInvalidResponse
	}
	return false
}

// ShopperMessage is the text shown on the checkout page. The provider body
// never reaches the shopper; it is logged by the gateway.
func (e *TransactionError) ShopperMessage() string {
	switch e.Kind {
	case KindNetwork:
		return "Erreur réseau : " + e.Detail
	case KindServer:
		return fmt.Sprintf("Erreur serveur (HTTP %d)", e.StatusCode)
	default:
		if e.Detail == detailMissingCheckoutURL {
			return "URL de paiement non fournie par l'API"
		}
		return "Réponse invalide de l'API"
	}
}
