package webhook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"naboopay-gateway/internal/logger"
	"naboopay-gateway/internal/metrics"
	"naboopay-gateway/internal/order"
	"naboopay-gateway/internal/utils"

	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

const (
	notePaid     = "Paiement complété via Naboopay."
	noteCancel   = "Paiement annulé via Naboopay."
	notePending  = "Paiement en attente via Naboopay."
	notePartPaid = "Paiement partiellement payé via Naboopay."
)

type Settings struct {
	Secret             string
	StatusAfterPayment order.Status
}

// Handler serves POST /naboopay/v1/webhook.
type Handler struct {
	orders   order.Service
	settings Settings
	metrics  *metrics.Metrics
}

func NewHandler(orders order.Service, settings Settings, m *metrics.Metrics) *Handler {
	if settings.StatusAfterPayment == "" {
		settings.StatusAfterPayment = order.StatusCompleted
	}
	return &Handler{
		orders:   orders,
		settings: settings,
		metrics:  m,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := logger.FromCtx(r.Context()).With(zap.String("source", "naboopay"))

	if h.settings.Secret == "" {
		log.Error("Webhook secret key not configured")
		h.reply(w, "config_error", http.StatusInternalServerError, "Clé secrète du webhook non configurée")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		log.Warn("Failed to read webhook body", zap.Error(err))
		h.reply(w, "malformed", http.StatusBadRequest, "Corps de requête illisible")
		return
	}
	defer r.Body.Close()

	if err := Verify(h.settings.Secret, signatureFrom(r.Header), body); err != nil {
		switch {
		case errors.Is(err, ErrMissingSignature):
			log.Warn("Webhook missing X-Signature header")
			h.reply(w, "missing_signature", http.StatusBadRequest, "En-tête X-Signature manquant")
		default:
			log.Warn("Invalid webhook signature")
			h.reply(w, "invalid_signature", http.StatusForbidden, "Signature invalide")
		}
		return
	}

	event, err := ParseEvent(body)
	if err != nil {
		log.Warn("Webhook missing required fields", zap.Error(err), zap.ByteString("payload", body))
		h.reply(w, "malformed", http.StatusBadRequest, "Paramètres requis manquants")
		return
	}

	if err := h.Dispatch(r.Context(), event); err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			log.Warn("Order not found for naboopay_order_id", zap.String("naboopay_order_id", event.OrderID))
			h.reply(w, "order_not_found", http.StatusNotFound, "Commande non trouvée")
			return
		}
		log.Error("Failed to apply webhook", zap.String("naboopay_order_id", event.OrderID), zap.Error(err))
		h.reply(w, "failed", http.StatusInternalServerError, "Erreur lors du traitement du webhook")
		return
	}

	h.reply(w, "processed", http.StatusOK, "Webhook reçu")
}

func (h *Handler) reply(w http.ResponseWriter, outcome string, code int, message string) {
	h.metrics.ObserveWebhook(outcome)
	utils.WriteJSON(w, code, message)
}

// Dispatch applies event to every order carrying its Naboopay order id.
// Replaying an event leaves the orders unchanged.
func (h *Handler) Dispatch(ctx context.Context, event Event) error {
	log := logger.FromCtx(ctx).With(
		zap.String("source", "naboopay"),
		zap.String("naboopay_order_id", event.OrderID),
		zap.String("transaction_status", event.TransactionStatus),
	)

	ids, err := h.orders.FindByTransaction(ctx, event.OrderID)
	if err != nil {
		return fmt.Errorf("find orders: %w", err)
	}
	if len(ids) == 0 {
		return ErrOrderNotFound
	}

	var errs []error
	for _, id := range ids {
		err := h.apply(ctx, log, id, event.TransactionStatus)
		if errors.Is(err, order.ErrOrderNotFound) {
			log.Warn("Order vanished before update", zap.Int64("order_id", id))
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("order %d: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

func (h *Handler) apply(ctx context.Context, log *zap.Logger, orderID int64, status string) error {
	switch status {
	case StatusPaid:
		return h.orders.MarkAsPaid(ctx, orderID, h.settings.StatusAfterPayment, notePaid)
	case StatusCancel:
		return h.orders.UpdateStatus(ctx, orderID, order.StatusCancelled, noteCancel)
	case StatusPending:
		return h.orders.UpdateStatus(ctx, orderID, order.StatusPending, notePending)
	case StatusPartPaid:
		return h.orders.UpdateStatus(ctx, orderID, order.StatusOnHold, notePartPaid)
	default:
		log.Info("Webhook received unknown transaction_status", zap.Int64("order_id", orderID))
		return nil
	}
}
