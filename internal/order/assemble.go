package order

import (
	"fmt"
	"regexp"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bellafarina/ordering-service/internal/cart"
	"github.com/bellafarina/ordering-service/internal/catalog"
	"github.com/bellafarina/ordering-service/internal/money"
)

// ValidationError marks user-correctable input problems; handlers map it
// to a 400.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^(\+48)?\d{9}$`)
)

// CheckoutInput is the customer-supplied part of a submission. Totals are
// never taken from it.
type CheckoutInput struct {
	SessionID string        `json:"sessionId"`
	Customer  Customer      `json:"customer"`
	Delivery  Delivery      `json:"delivery"`
	Method    PaymentMethod `json:"paymentMethod"`
}

// Assemble turns a cart plus checkout input into an Order. Lines are
// snapshotted with catalog prices and the total is recomputed here; this
// is also the single place the payable amount is converted to minor units.
func Assemble(c *cart.Cart, cat *catalog.Catalog, in CheckoutInput, deliveryFee decimal.Decimal, currency string, now time.Time) (*Order, error) {
	if c == nil || c.IsEmpty() {
		return nil, &ValidationError{Field: "cart", Reason: "cart is empty"}
	}
	if err := validateCustomer(in.Customer); err != nil {
		return nil, err
	}
	if err := validateDelivery(in.Delivery, now); err != nil {
		return nil, err
	}
	switch in.Method {
	case MethodPrzelewy24, MethodCash, MethodCard:
	default:
		return nil, &ValidationError{Field: "paymentMethod", Reason: "unknown method"}
	}

	o := &Order{
		ID:        NewID(),
		SessionID: in.SessionID,
		Customer:  in.Customer,
		Delivery:  in.Delivery,
		Payment:   Payment{Method: in.Method, Status: PaymentPending},
		Status:    StatusPending,
		Currency:  currency,
		CreatedAt: now.UTC(),
	}

	total := decimal.Zero
	for _, l := range c.Lines {
		p, err := cat.Get(l.ProductID)
		if err != nil {
			return nil, &ValidationError{Field: "cart", Reason: "unknown product " + l.ProductID}
		}
		if !p.Available {
			return nil, &ValidationError{Field: "cart", Reason: p.Name + " is not available"}
		}

		o.Lines = append(o.Lines, Line{
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  l.Quantity,
			UnitPrice: p.Price,
			Note:      l.Note,
		})
		total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}

	if in.Delivery.Type == DeliveryDelivery {
		total = total.Add(deliveryFee)
	}

	o.Total = total
	o.TotalMinor = money.ToMinorUnits(total)
	return o, nil
}

func validateCustomer(c Customer) error {
	if c.FirstName == "" {
		return &ValidationError{Field: "customer.firstName", Reason: "required"}
	}
	if c.LastName == "" {
		return &ValidationError{Field: "customer.lastName", Reason: "required"}
	}
	if !emailPattern.MatchString(c.Email) {
		return &ValidationError{Field: "customer.email", Reason: "invalid email"}
	}
	if !phonePattern.MatchString(stripSpaces(c.Phone)) {
		return &ValidationError{Field: "customer.phone", Reason: "invalid phone"}
	}
	return nil
}

func validateDelivery(d Delivery, now time.Time) error {
	switch d.Type {
	case DeliveryPickup:
	case DeliveryDelivery:
		if d.Address == nil || d.Address.Street == "" || d.Address.City == "" || d.Address.PostalCode == "" {
			return &ValidationError{Field: "delivery.address", Reason: "address required for delivery"}
		}
	default:
		return &ValidationError{Field: "delivery.type", Reason: "unknown delivery type"}
	}

	switch d.When {
	case WhenASAP:
	case WhenScheduled:
		if d.ScheduledAt == nil || d.ScheduledAt.Before(now) {
			return &ValidationError{Field: "delivery.scheduledAt", Reason: "scheduled time must be in the future"}
		}
	default:
		return &ValidationError{Field: "delivery.when", Reason: "unknown delivery time"}
	}
	return nil
}

func stripSpaces(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != ' ' && s[i] != '-' {
			out = append(out, s[i])
		}
	}
	return string(out)
}
