package catalog

import (
	"errors"
	"sync"
)

var ErrNotFound = errors.New("product not found")

// Catalog is an in-process, read-mostly view of the menu. It is seeded at
// startup and can be replaced wholesale by a POS pull.
type Catalog struct {
	mu       sync.RWMutex
	order    []string
	products map[string]Product
}

func New(products []Product) *Catalog {
	c := &Catalog{products: make(map[string]Product, len(products))}
	for _, p := range products {
		if _, ok := c.products[p.ID]; ok {
			continue
		}
		c.order = append(c.order, p.ID)
		c.products[p.ID] = p
	}
	return c
}

func (c *Catalog) Get(productID string) (Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.products[productID]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (c *Catalog) List() []Product {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Product, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.products[id])
	}
	return out
}

func (c *Catalog) ListByCategory(cat Category) []Product {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []Product
	for _, id := range c.order {
		if p := c.products[id]; p.Category == cat {
			out = append(out, p)
		}
	}
	return out
}

// Replace swaps the whole catalog, keeping insertion order of the new set.
// Used by the POS pull sync; an empty set is ignored so a failed pull never
// wipes the menu.
func (c *Catalog) Replace(products []Product) {
	if len(products) == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.order = c.order[:0]
	c.products = make(map[string]Product, len(products))
	for _, p := range products {
		if _, ok := c.products[p.ID]; ok {
			continue
		}
		c.order = append(c.order, p.ID)
		c.products[p.ID] = p
	}
}
