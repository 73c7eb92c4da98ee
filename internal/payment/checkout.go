package payment

import (
	"context"
	"errors"
	"fmt"

	"naboopay-gateway/internal/logger"
	"naboopay-gateway/internal/order"

	"go.uber.org/zap"
)

// CheckoutSettings are the merchant settings used to build a transaction.
type CheckoutSettings struct {
	Decimals         int32
	Methods          []string
	FeesCustomerSide bool
	OrderReceivedURL func(orderID int64) string
	CheckoutURL      string
}

type CheckoutService interface {
	// ProcessPayment creates the Naboopay transaction for the order and
	// returns the URL the shopper must be redirected to.
	ProcessPayment(ctx context.Context, orderID int64) (string, error)
}

type checkoutService struct {
	orders   order.Service
	gateway  Gateway
	settings CheckoutSettings
}

func NewCheckoutService(orders order.Service, gateway Gateway, settings CheckoutSettings) CheckoutService {
	return &checkoutService{
		orders:   orders,
		gateway:  gateway,
		settings: settings,
	}
}

func (s *checkoutService) ProcessPayment(ctx context.Context, orderID int64) (string, error) {
	log := logger.FromCtx(ctx).With(zap.Int64("order_id", orderID))

	o, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		log.Warn("checkout for unknown order", zap.Error(err))
		return "", err
	}

	req := s.BuildRequest(o)
	for _, li := range req.Products {
		if li.Category == CategoryAdjustment {
			log.Info("order total adjusted",
				zap.String("adjustment", FromMinorUnits(li.Amount, s.settings.Decimals).StringFixed(s.settings.Decimals)),
			)
		}
	}

	resp, err := s.gateway.CreateTransaction(ctx, req, o.Billing())
	if err != nil {
		return "", err
	}

	if resp.OrderID != "" {
		if err := s.orders.AttachTransaction(ctx, orderID, resp.OrderID); err != nil {
			log.Error("failed to store naboopay order id",
				zap.String("naboopay_order_id", resp.OrderID),
				zap.Error(err),
			)
			return "", fmt.Errorf("attach transaction: %w", err)
		}
	}

	log.Info("redirecting shopper to naboopay checkout",
		zap.String("naboopay_order_id", resp.OrderID),
	)
	return resp.CheckoutURL, nil
}

// BuildRequest runs the line-item builder, the reconciliation and the
// request assembly for o.
func (s *checkoutService) BuildRequest(o order.Order) TransactionRequest {
	items, sum := BuildLineItems(o, s.settings.Decimals)
	items, _ = Reconcile(items, sum, o.Total(), s.settings.Decimals)

	var successURL string
	if s.settings.OrderReceivedURL != nil {
		successURL = s.settings.OrderReceivedURL(o.ID())
	}

	return NewTransactionRequest(items, RequestOptions{
		Methods:          s.settings.Methods,
		FeesCustomerSide: s.settings.FeesCustomerSide,
		OrderReceivedURL: successURL,
		CheckoutURL:      s.settings.CheckoutURL,
	})
}

// ShopperMessage is the failure notice shown on the checkout page for err.
func ShopperMessage(err error) string {
	var txErr *TransactionError
	switch {
	case errors.Is(err, order.ErrOrderNotFound):
		return "Commande introuvable"
	case errors.As(err, &txErr):
		return "Erreur de paiement : " + txErr.ShopperMessage()
	default:
		return "Erreur de paiement : Erreur inconnue lors de la création de la transaction"
	}
}
