package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/bellafarina/ordering-service/internal/catalog"
)

type CatalogHandler struct {
	catalog *catalog.Catalog
	hours   catalog.OpeningHours
}

func NewCatalogHandler(c *catalog.Catalog, hours catalog.OpeningHours) *CatalogHandler {
	return &CatalogHandler{catalog: c, hours: hours}
}

// productView is a Product plus display fields the menu page consumes
// directly.
type productView struct {
	catalog.Product
	PreparationLabel string `json:"preparationLabel"`
}

func productViews(products []catalog.Product) []productView {
	out := make([]productView, 0, len(products))
	for _, p := range products {
		out = append(out, productView{
			Product:          p,
			PreparationLabel: catalog.FormatPreparationTime(p.PreparationMins),
		})
	}
	return out
}

func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	if cat := r.URL.Query().Get("category"); cat != "" {
		if !catalog.ValidCategory(catalog.Category(cat)) {
			writeError(w, http.StatusBadRequest, "unknown category")
			return
		}
		writeJSON(w, http.StatusOK, productViews(h.catalog.ListByCategory(catalog.Category(cat))))
		return
	}

	writeJSON(w, http.StatusOK, productViews(h.catalog.List()))
}

// Hours exposes the ordering windows so the site can tell customers
// when checkout opens again.
func (h *CatalogHandler) Hours(w http.ResponseWriter, r *http.Request) {
	week := make(map[string]catalog.DayHours, len(h.hours))
	for day, window := range h.hours {
		week[strings.ToLower(day.String())] = window
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"openingHours": week,
		"openNow":      h.hours.OpenAt(time.Now()),
	})
}
