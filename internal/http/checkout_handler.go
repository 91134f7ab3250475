package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/bellafarina/ordering-service/internal/cart"
	"github.com/bellafarina/ordering-service/internal/catalog"
	"github.com/bellafarina/ordering-service/internal/order"
	"github.com/bellafarina/ordering-service/internal/payment"
)

// PaymentInitiator opens a payment session; satisfied by *payment.Client.
type PaymentInitiator interface {
	Register(ctx context.Context, o *order.Order) (*payment.RegisterResult, error)
}

type CheckoutHandler struct {
	carts       cart.Repository
	orders      order.Repository
	catalog     *catalog.Catalog
	hours       catalog.OpeningHours
	gateway     PaymentInitiator
	publisher   payment.PaidPublisher
	deliveryFee decimal.Decimal
	currency    string
	logger      *log.Logger
}

func NewCheckoutHandler(carts cart.Repository, orders order.Repository, cat *catalog.Catalog, hours catalog.OpeningHours, gateway PaymentInitiator, publisher payment.PaidPublisher, deliveryFee decimal.Decimal, currency string, logger *log.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		carts:       carts,
		orders:      orders,
		catalog:     cat,
		hours:       hours,
		gateway:     gateway,
		publisher:   publisher,
		deliveryFee: deliveryFee,
		currency:    currency,
		logger:      logger,
	}
}

func (h *CheckoutHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var in order.CheckoutInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if in.SessionID == "" {
		writeError(w, http.StatusBadRequest, "missing sessionId")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	c, err := h.carts.Get(ctx, in.SessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load cart")
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "cart not found")
		return
	}

	o, err := order.Assemble(c, h.catalog, in, h.deliveryFee, h.currency, time.Now())
	if err != nil {
		var verr *order.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, verr.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to build order")
		return
	}

	// Orders are only taken inside opening hours; scheduled orders are
	// checked against their handover time instead of now.
	if o.Delivery.When == order.WhenScheduled && o.Delivery.ScheduledAt != nil {
		if !h.hours.OpenAt(*o.Delivery.ScheduledAt) {
			writeError(w, http.StatusBadRequest, "scheduled time is outside opening hours")
			return
		}
	} else if !h.hours.OpenAt(time.Now()) {
		writeError(w, http.StatusConflict, "the store is closed right now")
		return
	}

	if err := h.orders.Create(ctx, o); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save order")
		return
	}

	resp := map[string]any{
		"orderId": o.ID,
		"total":   o.Total.StringFixed(2),
		"status":  o.Status,
	}

	if o.Payment.Method == order.MethodPrzelewy24 {
		reg, err := h.gateway.Register(ctx, o)
		if err != nil {
			// The order stays pending; the customer can retry payment.
			// Distinguish "provider said no" from "provider unreachable".
			if errors.Is(err, payment.ErrGatewayRejected) {
				h.logger.Printf("order %s: payment rejected: %v", o.ID, err)
				writeError(w, http.StatusBadGateway, "payment provider rejected the request, try a different payment method")
				return
			}
			h.logger.Printf("order %s: payment init failed: %v", o.ID, err)
			writeError(w, http.StatusBadGateway, "could not reach the payment provider, please retry")
			return
		}
		resp["redirectUrl"] = reg.RedirectURL
		resp["token"] = reg.Token
	} else {
		// Offline payment at handover: the order is final, hand it to
		// fulfillment right away.
		if err := h.publisher.PublishOrderPaid(ctx, o); err != nil {
			h.logger.Printf("order %s: fulfillment publish failed: %v", o.ID, err)
		}
	}

	// The cart is spent once the order exists.
	if err := h.carts.Clear(ctx, in.SessionID); err != nil {
		h.logger.Printf("order %s: clear cart %s: %v", o.ID, in.SessionID, err)
	}

	writeJSON(w, http.StatusCreated, resp)
}

func (h *CheckoutHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	if orderID == "" {
		writeError(w, http.StatusBadRequest, "missing orderId")
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

	writeJSON(w, http.StatusOK, o)
}
