package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/bellafarina/ordering-service/internal/cart"
	"github.com/bellafarina/ordering-service/internal/catalog"
)

type CartHandler struct {
	repo    cart.Repository
	catalog *catalog.Catalog
}

func NewCartHandler(repo cart.Repository, cat *catalog.Catalog) *CartHandler {
	return &CartHandler{repo: repo, catalog: cat}
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "missing sessionId")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c, err := h.repo.Get(ctx, sessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load cart")
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "cart not found")
		return
	}

	writeJSON(w, http.StatusOK, cartResponse(c))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "missing sessionId")
		return
	}

	var body struct {
		ProductID string `json:"productId"`
		Quantity  int    `json:"quantity"`
		Note      string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if body.ProductID == "" {
		writeError(w, http.StatusBadRequest, "missing productId")
		return
	}

	// Prices come from the catalog, not the request.
	p, err := h.catalog.Get(body.ProductID)
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown product")
		return
	}
	if !p.Available {
		writeError(w, http.StatusConflict, p.Name+" is not available")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c, err := h.repo.Get(ctx, sessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load cart")
		return
	}
	if c == nil {
		c = &cart.Cart{
			ID:        uuid.NewString(),
			SessionID: sessionID,
			UpdatedAt: time.Now(),
		}
	}

	c.Add(p.ID, body.Quantity, p.Price, body.Note)

	if err := h.repo.Upsert(ctx, c); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save cart")
		return
	}

	writeJSON(w, http.StatusOK, cartResponse(c))
}

func (h *CartHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	productID := chi.URLParam(r, "productId")
	if sessionID == "" || productID == "" {
		writeError(w, http.StatusBadRequest, "missing sessionId or productId")
		return
	}

	var body struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c, err := h.repo.Get(ctx, sessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load cart")
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "cart not found")
		return
	}

	c.SetQuantity(productID, body.Quantity)

	if err := h.repo.Upsert(ctx, c); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save cart")
		return
	}

	writeJSON(w, http.StatusOK, cartResponse(c))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	productID := chi.URLParam(r, "productId")
	if sessionID == "" || productID == "" {
		writeError(w, http.StatusBadRequest, "missing sessionId or productId")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c, err := h.repo.Get(ctx, sessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load cart")
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "cart not found")
		return
	}

	c.Remove(productID)

	if err := h.repo.Upsert(ctx, c); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save cart")
		return
	}

	writeJSON(w, http.StatusOK, cartResponse(c))
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "missing sessionId")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.repo.Clear(ctx, sessionID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to clear cart")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func cartResponse(c *cart.Cart) map[string]any {
	return map[string]any{
		"cartId":     c.ID,
		"sessionId":  c.SessionID,
		"lines":      c.Lines,
		"totalItems": c.TotalItems(),
		"totalPrice": c.TotalPrice().StringFixed(2),
		"updatedAt":  c.UpdatedAt,
	}
}
