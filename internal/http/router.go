package http

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/bellafarina/ordering-service/internal/cart"
	"github.com/bellafarina/ordering-service/internal/catalog"
	"github.com/bellafarina/ordering-service/internal/order"
	"github.com/bellafarina/ordering-service/internal/payment"
	"github.com/shopspring/decimal"
)

type Deps struct {
	Logger *log.Logger

	Catalog    *catalog.Catalog
	Hours      catalog.OpeningHours
	Carts      cart.Repository
	Orders     order.Repository
	Gateway    PaymentInitiator
	Reconciler *payment.Reconciler
	Publisher  payment.PaidPublisher

	DeliveryFee decimal.Decimal
	Currency    string
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	r.Get("/health", healthHandler)

	products := NewCatalogHandler(d.Catalog, d.Hours)
	r.Get("/api/products", products.ListProducts)
	r.Get("/api/store/hours", products.Hours)

	carts := NewCartHandler(d.Carts, d.Catalog)
	r.Route("/api/carts/{sessionId}", func(r chi.Router) {
		r.Get("/", carts.GetCart)
		r.Delete("/", carts.ClearCart)
		r.Post("/items", carts.AddItem)
		r.Put("/items/{productId}", carts.SetQuantity)
		r.Delete("/items/{productId}", carts.RemoveItem)
	})

	checkout := NewCheckoutHandler(d.Carts, d.Orders, d.Catalog, d.Hours, d.Gateway, d.Publisher, d.DeliveryFee, d.Currency, d.Logger)
	r.Post("/api/orders", checkout.CreateOrder)
	r.Get("/api/orders/{orderId}", checkout.GetOrder)

	payments := NewPaymentHandler(d.Orders, d.Reconciler)
	r.Post("/api/payments/status", payments.Webhook)
	r.Get("/api/payments/status", payments.PaymentStatus)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "ordering-service",
	})
}
