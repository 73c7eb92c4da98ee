package payment

import (
	"context"

	"naboopay-gateway/internal/order"
)

type Gateway interface {
	CreateTransaction(
		ctx context.Context,
		req TransactionRequest,
		customer order.Contact,
	) (*TransactionResponse, error)
}
