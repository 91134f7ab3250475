package cart

import (
	"time"

	"github.com/shopspring/decimal"
)

// maxLineQuantity bounds a single line. Out-of-range quantities are
// clamped, never rejected.
const maxLineQuantity = 50

type Line struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Note      string          `json:"note,omitempty"`
}

// Cart is the session-scoped seed for an order. One line per product id.
type Cart struct {
	ID        string    `json:"cartId"`
	SessionID string    `json:"sessionId"`
	Lines     []Line    `json:"lines"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Add merges into an existing line when the product is already present,
// otherwise appends a new line. A non-empty note replaces the line note.
func (c *Cart) Add(productID string, quantity int, unitPrice decimal.Decimal, note string) {
	quantity = clampQuantity(quantity)

	for i := range c.Lines {
		if c.Lines[i].ProductID != productID {
			continue
		}
		c.Lines[i].Quantity = clampQuantity(c.Lines[i].Quantity + quantity)
		c.Lines[i].UnitPrice = unitPrice
		if note != "" {
			c.Lines[i].Note = note
		}
		return
	}

	c.Lines = append(c.Lines, Line{
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		Note:      note,
	})
}

// SetQuantity sets the quantity of an existing line. Zero or negative
// removes the line.
func (c *Cart) SetQuantity(productID string, quantity int) {
	if quantity <= 0 {
		c.Remove(productID)
		return
	}

	quantity = clampQuantity(quantity)
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			c.Lines[i].Quantity = quantity
			return
		}
	}
}

func (c *Cart) Remove(productID string) {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return
		}
	}
}

func (c *Cart) ClearLines() {
	c.Lines = nil
}

func (c *Cart) TotalItems() int {
	total := 0
	for _, l := range c.Lines {
		total += l.Quantity
	}
	return total
}

func (c *Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}

func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

func clampQuantity(q int) int {
	if q < 1 {
		return 1
	}
	if q > maxLineQuantity {
		return maxLineQuantity
	}
	return q
}
