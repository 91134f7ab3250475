// Package pos integrates with the GoPOS point-of-sale system: one-way
// push of finalized orders and optional pull of catalog data.
package pos

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bellafarina/ordering-service/internal/catalog"
	"github.com/bellafarina/ordering-service/internal/order"
)

// ErrSyncFailed wraps any POS transport or protocol failure. Sync
// failures are logged and retried out-of-band; they never block the
// customer-facing flow.
var ErrSyncFailed = errors.New("pos sync failed")

const defaultPreparationMins = 15

type ClientConfig struct {
	BaseURL string
	APIKey  string
	StoreID string
	Timeout time.Duration
}

type Client struct {
	cfg  ClientConfig
	http *http.Client
}

func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
	}
}

// RemoteProduct is the POS-side product shape.
type RemoteProduct struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Category string  `json:"category"`
	Stock    int     `json:"stock"`
}

// Products pulls the POS catalog mapped into local products.
func (c *Client) Products(ctx context.Context) ([]catalog.Product, error) {
	var remote []RemoteProduct
	if err := c.do(ctx, http.MethodGet, "/api/v1/products", nil, &remote); err != nil {
		return nil, err
	}

	products := make([]catalog.Product, 0, len(remote))
	for _, rp := range remote {
		products = append(products, MapProduct(rp))
	}
	return products, nil
}

// MapProduct converts a POS product into the local shape. Unrecognized
// categories fall back to pizza rather than failing the sync.
func MapProduct(rp RemoteProduct) catalog.Product {
	return catalog.Product{
		ID:              rp.ID,
		Name:            rp.Name,
		Price:           decimal.NewFromFloat(rp.Price),
		Category:        mapCategory(rp.Category),
		Available:       rp.Stock > 0,
		PreparationMins: defaultPreparationMins,
	}
}

func mapCategory(remote string) catalog.Category {
	switch strings.ToLower(remote) {
	case "pizza":
		return catalog.CategoryPizza
	case "bread", "bakery":
		return catalog.CategoryBread
	case "cakes", "desserts":
		return catalog.CategoryCake
	case "drinks", "beverages":
		return catalog.CategoryBeverage
	default:
		return catalog.CategoryPizza
	}
}

// PushResult is the POS-side record of a pushed order.
type PushResult struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// CreateOrder pushes a finalized order to the POS.
func (c *Client) CreateOrder(ctx context.Context, o *order.Order) (*PushResult, error) {
	type item struct {
		ProductID string  `json:"productId"`
		Quantity  int     `json:"quantity"`
		Price     float64 `json:"price"`
	}

	items := make([]item, 0, len(o.Lines))
	for _, l := range o.Lines {
		price, _ := l.UnitPrice.Float64()
		items = append(items, item{ProductID: l.ProductID, Quantity: l.Quantity, Price: price})
	}

	total, _ := o.Total.Float64()
	body := map[string]any{
		"items": items,
		"customerInfo": map[string]string{
			"name":  o.Customer.FirstName + " " + o.Customer.LastName,
			"email": o.Customer.Email,
			"phone": o.Customer.Phone,
		},
		"orderType":   string(o.Delivery.Type),
		"totalAmount": total,
		"source":      "website",
		"storeId":     c.cfg.StoreID,
	}

	var res PushResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/orders", body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// UpdateStock sets the POS-side stock level for a product.
func (c *Client) UpdateStock(ctx context.Context, productID string, quantity int) error {
	return c.do(ctx, http.MethodPut, "/api/v1/products/"+productID+"/stock",
		map[string]int{"quantity": quantity}, nil)
}

// OrderStatus fetches the POS-side status of a pushed order.
func (c *Client) OrderStatus(ctx context.Context, posRef string) (string, error) {
	var res PushResult
	if err := c.do(ctx, http.MethodGet, "/api/v1/orders/"+posRef, nil, &res); err != nil {
		return "", err
	}
	return res.Status, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Store-ID", c.cfg.StoreID)

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSyncFailed, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("%w: status %d", ErrSyncFailed, res.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrSyncFailed, err)
	}
	return nil
}
