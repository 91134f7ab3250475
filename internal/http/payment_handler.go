package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/bellafarina/ordering-service/internal/order"
	"github.com/bellafarina/ordering-service/internal/payment"
)

type PaymentHandler struct {
	orders     order.Repository
	reconciler *payment.Reconciler
}

func NewPaymentHandler(orders order.Repository, rec *payment.Reconciler) *PaymentHandler {
	return &PaymentHandler{orders: orders, reconciler: rec}
}

// Webhook receives payment-status notifications from the processor. A
// 400 tells the processor the notification is bad for good; a 500 tells
// it to retry.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	var n payment.Notification
	if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	// Verification calls out to the processor, so this gets a longer
	// timeout than the local handlers.
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	err := h.reconciler.Process(ctx, n)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
	case errors.Is(err, payment.ErrBadNotification), errors.Is(err, payment.ErrUnknownOrder):
		writeError(w, http.StatusBadRequest, "missing required parameters")
	case errors.Is(err, payment.ErrVerificationFailed):
		writeError(w, http.StatusBadRequest, "payment verification failed")
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (h *PaymentHandler) PaymentStatus(w http.ResponseWriter, r *http.Request) {
	orderID := r.URL.Query().Get("orderId")
	if orderID == "" {
		writeError(w, http.StatusBadRequest, "orderId is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.orders.GetByID(ctx, orderID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load order")
		return
	}
	if o == nil {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"orderId":       o.ID,
		"status":        string(o.Status),
		"paymentStatus": string(o.Payment.Status),
	})
}
