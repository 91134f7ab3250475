package order

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bellafarina/ordering-service/internal/cart"
	"github.com/bellafarina/ordering-service/internal/catalog"
)

func testCatalog() *catalog.Catalog {
	return catalog.New([]catalog.Product{
		{ID: "pizza-1", Name: "Margherita", Price: decimal.RequireFromString("32.00"), Category: catalog.CategoryPizza, Available: true},
		{ID: "bread-1", Name: "Rye loaf", Price: decimal.RequireFromString("12.00"), Category: catalog.CategoryBread, Available: true},
		{ID: "cake-86", Name: "Sold out cake", Price: decimal.RequireFromString("18.00"), Category: catalog.CategoryCake, Available: false},
	})
}

func testCart() *cart.Cart {
	c := &cart.Cart{SessionID: "sess-1"}
	c.Add("pizza-1", 2, decimal.RequireFromString("32.00"), "")
	c.Add("bread-1", 1, decimal.RequireFromString("12.00"), "sliced")
	return c
}

func validInput() CheckoutInput {
	return CheckoutInput{
		SessionID: "sess-1",
		Customer: Customer{
			FirstName: "Jan",
			LastName:  "Kowalski",
			Email:     "jan@example.com",
			Phone:     "+48123456789",
		},
		Delivery: Delivery{
			Type: DeliveryDelivery,
			Address: &Address{
				Street:     "Polna 1",
				City:       "Warszawa",
				PostalCode: "00-001",
			},
			When: WhenASAP,
		},
		Method: MethodPrzelewy24,
	}
}

var fee = decimal.RequireFromString("8.00")

func TestAssemble_DeliveryTotal(t *testing.T) {
	o, err := Assemble(testCart(), testCatalog(), validInput(), fee, "PLN", time.Now())
	require.NoError(t, err)

	// 2x32.00 + 12.00 + 8.00 delivery fee
	assert.True(t, o.Total.Equal(decimal.RequireFromString("108.00")), "got %s", o.Total)
	assert.Equal(t, int64(10800), o.TotalMinor)
	assert.Equal(t, "PLN", o.Currency)
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, PaymentPending, o.Payment.Status)
}

func TestAssemble_PickupSkipsFee(t *testing.T) {
	in := validInput()
	in.Delivery = Delivery{Type: DeliveryPickup, When: WhenASAP}

	o, err := Assemble(testCart(), testCatalog(), in, fee, "PLN", time.Now())
	require.NoError(t, err)

	assert.True(t, o.Total.Equal(decimal.RequireFromString("76.00")), "got %s", o.Total)
	assert.Equal(t, int64(7600), o.TotalMinor)
}

func TestAssemble_PricesComeFromCatalog(t *testing.T) {
	c := &cart.Cart{SessionID: "sess-1"}
	// Client claims the pizza costs one grosz.
	c.Add("pizza-1", 2, decimal.RequireFromString("0.01"), "")

	in := validInput()
	in.Delivery = Delivery{Type: DeliveryPickup, When: WhenASAP}

	o, err := Assemble(c, testCatalog(), in, fee, "PLN", time.Now())
	require.NoError(t, err)

	assert.True(t, o.Total.Equal(decimal.RequireFromString("64.00")), "got %s", o.Total)
	require.Len(t, o.Lines, 1)
	assert.True(t, o.Lines[0].UnitPrice.Equal(decimal.RequireFromString("32.00")))
	assert.Equal(t, "Margherita", o.Lines[0].Name)
}

func TestAssemble_SnapshotsNotes(t *testing.T) {
	o, err := Assemble(testCart(), testCatalog(), validInput(), fee, "PLN", time.Now())
	require.NoError(t, err)

	require.Len(t, o.Lines, 2)
	assert.Equal(t, "sliced", o.Lines[1].Note)
}

func TestAssemble_GeneratesOrderID(t *testing.T) {
	o, err := Assemble(testCart(), testCatalog(), validInput(), fee, "PLN", time.Now())
	require.NoError(t, err)
	o2, err := Assemble(testCart(), testCatalog(), validInput(), fee, "PLN", time.Now())
	require.NoError(t, err)

	assert.Regexp(t, `^BF-[0-9A-Z]+-[0-9A-F]{6}$`, o.ID)
	assert.NotEqual(t, o.ID, o2.ID)
}

func TestAssemble_EmptyCart(t *testing.T) {
	_, err := Assemble(&cart.Cart{}, testCatalog(), validInput(), fee, "PLN", time.Now())

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "cart", verr.Field)
}

func TestAssemble_UnknownProduct(t *testing.T) {
	c := &cart.Cart{SessionID: "sess-1"}
	c.Add("ghost", 1, decimal.NewFromInt(1), "")

	_, err := Assemble(c, testCatalog(), validInput(), fee, "PLN", time.Now())

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestAssemble_UnavailableProduct(t *testing.T) {
	c := &cart.Cart{SessionID: "sess-1"}
	c.Add("cake-86", 1, decimal.NewFromInt(18), "")

	_, err := Assemble(c, testCatalog(), validInput(), fee, "PLN", time.Now())

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestAssemble_ValidationErrors(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)

	cases := []struct {
		name   string
		mutate func(*CheckoutInput)
		field  string
	}{
		{"missing first name", func(in *CheckoutInput) { in.Customer.FirstName = "" }, "customer.firstName"},
		{"missing last name", func(in *CheckoutInput) { in.Customer.LastName = "" }, "customer.lastName"},
		{"bad email", func(in *CheckoutInput) { in.Customer.Email = "not-an-email" }, "customer.email"},
		{"bad phone", func(in *CheckoutInput) { in.Customer.Phone = "12" }, "customer.phone"},
		{"delivery without address", func(in *CheckoutInput) { in.Delivery.Address = nil }, "delivery.address"},
		{"unknown delivery type", func(in *CheckoutInput) { in.Delivery.Type = "drone" }, "delivery.type"},
		{"scheduled without time", func(in *CheckoutInput) { in.Delivery.When = WhenScheduled }, "delivery.scheduledAt"},
		{"scheduled in the past", func(in *CheckoutInput) {
			in.Delivery.When = WhenScheduled
			in.Delivery.ScheduledAt = &past
		}, "delivery.scheduledAt"},
		{"unknown payment method", func(in *CheckoutInput) { in.Method = "barter" }, "paymentMethod"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)

			_, err := Assemble(testCart(), testCatalog(), in, fee, "PLN", now)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestAssemble_PhoneFormats(t *testing.T) {
	for _, phone := range []string{"123456789", "+48123456789", "123 456 789", "+48 123 456 789"} {
		in := validInput()
		in.Customer.Phone = phone

		_, err := Assemble(testCart(), testCatalog(), in, fee, "PLN", time.Now())
		assert.NoError(t, err, "phone %q", phone)
	}
}
