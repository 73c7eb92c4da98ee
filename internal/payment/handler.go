package payment

import (
	"errors"
	"net/http"
	"strconv"

	"naboopay-gateway/internal/order"
	"naboopay-gateway/internal/utils"
)

type CheckoutResult struct {
	Result   string `json:"result"`
	Redirect string `json:"redirect,omitempty"`
	Message  string `json:"message,omitempty"`
}

type Handler struct {
	Checkout CheckoutService
}

func NewHandler(checkout CheckoutService) *Handler {
	return &Handler{Checkout: checkout}
}

// CheckoutHandler serves POST /naboopay/v1/checkout/{orderID}.
func (h *Handler) CheckoutHandler(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(r.PathValue("orderID"), 10, 64)
	if err != nil || orderID <= 0 {
		utils.WriteJSON(w, http.StatusBadRequest, CheckoutResult{Result: "failure", Message: "Commande introuvable"})
		return
	}

	redirect, err := h.Checkout.ProcessPayment(r.Context(), orderID)
	if err != nil {
		utils.WriteJSON(w, statusFor(err), CheckoutResult{Result: "failure", Message: ShopperMessage(err)})
		return
	}

	utils.WriteJSON(w, http.StatusOK, CheckoutResult{Result: "success", Redirect: redirect})
}

func statusFor(err error) int {
	var txErr *TransactionError
	switch {
	case errors.Is(err, order.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.As(err, &txErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
