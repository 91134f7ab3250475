package order

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// PaymentStatus gates the pending -> confirmed transition.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

type PaymentMethod string

const (
	MethodPrzelewy24 PaymentMethod = "przelewy24"
	MethodCash       PaymentMethod = "cash"
	MethodCard       PaymentMethod = "card"
)

type DeliveryType string

const (
	DeliveryPickup   DeliveryType = "pickup"
	DeliveryDelivery DeliveryType = "delivery"
)

type DeliveryWhen string

const (
	WhenASAP      DeliveryWhen = "asap"
	WhenScheduled DeliveryWhen = "scheduled"
)

type Customer struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Apartment  string `json:"apartment,omitempty"`
}

type Delivery struct {
	Type        DeliveryType `json:"type"`
	Address     *Address     `json:"address,omitempty"`
	When        DeliveryWhen `json:"when"`
	ScheduledAt *time.Time   `json:"scheduledAt,omitempty"`
	Note        string       `json:"note,omitempty"`
}

type Payment struct {
	Method        PaymentMethod `json:"method"`
	Status        PaymentStatus `json:"status"`
	TransactionID string        `json:"transactionId,omitempty"`
}

// Line is a snapshot of a cart line at submission time, priced from the
// catalog rather than from client input.
type Line struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Note      string          `json:"note,omitempty"`
}

type Order struct {
	ID        string   `json:"orderId"`
	SessionID string   `json:"sessionId"`
	Lines     []Line   `json:"lines"`
	Customer  Customer `json:"customer"`
	Delivery  Delivery `json:"delivery"`
	Payment   Payment  `json:"payment"`
	Status    Status   `json:"status"`

	// Total is the recomputed major-unit amount; TotalMinor is the same
	// amount in minor units as exchanged with the payment processor.
	Total      decimal.Decimal `json:"total"`
	TotalMinor int64           `json:"totalMinor"`
	Currency   string          `json:"currency"`

	VerifyAttempts int       `json:"-"`
	POSRef         string    `json:"posRef,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}
