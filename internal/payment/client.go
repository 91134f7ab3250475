// Package payment talks to the Przelewy24 payment processor and
// reconciles its asynchronous status notifications against local orders.
package payment

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bellafarina/ordering-service/internal/order"
)

var (
	// ErrGatewayUnavailable means we could not get a usable answer from
	// the processor. It says nothing about whether the payment
	// succeeded.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")

	// ErrGatewayRejected means the processor answered and refused the
	// request.
	ErrGatewayRejected = errors.New("payment gateway rejected request")
)

const (
	SandboxBaseURL    = "https://sandbox.przelewy24.pl"
	ProductionBaseURL = "https://secure.przelewy24.pl"
)

type ClientConfig struct {
	MerchantID string
	POSID      string
	CRCKey     string
	APIKey     string
	BaseURL    string
	ReturnURL  string
	StatusURL  string
	Timeout    time.Duration
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

// Sign computes the CRC signature over posId|sessionId|amount|currency|crc.
// Amount is in minor units.
func (c *Client) Sign(sessionID string, amountMinor int64, currency string) string {
	payload := fmt.Sprintf("%s|%s|%d|%s|%s", c.cfg.POSID, sessionID, amountMinor, currency, c.cfg.CRCKey)
	sum := md5.Sum([]byte(payload))
	return hex.EncodeToString(sum[:])
}

type RegisterResult struct {
	Token       string
	RedirectURL string
}

// Register opens a payment session for the order and returns the URL the
// customer's browser is redirected to.
func (c *Client) Register(ctx context.Context, o *order.Order) (*RegisterResult, error) {
	body := map[string]any{
		"merchantId":  c.cfg.MerchantID,
		"posId":       c.cfg.POSID,
		"sessionId":   o.ID,
		"amount":      o.TotalMinor,
		"currency":    o.Currency,
		"description": "Order " + o.ID,
		"email":       o.Customer.Email,
		"country":     "PL",
		"language":    "pl",
		"urlReturn":   c.cfg.ReturnURL + "?orderId=" + o.ID,
		"urlStatus":   c.cfg.StatusURL,
		"sign":        c.Sign(o.ID, o.TotalMinor, o.Currency),
		"encoding":    "UTF-8",
		"method":      0,
		"p24_name":    o.Customer.FirstName,
		"p24_surname": o.Customer.LastName,
		"p24_email":   o.Customer.Email,
		"p24_phone":   o.Customer.Phone,
	}

	var resp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
		Error string `json:"error"`
	}
	if err := c.post(ctx, "/api/v1/transaction/register", body, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrGatewayRejected, resp.Error)
	}
	if resp.Data.Token == "" {
		return nil, fmt.Errorf("%w: empty token", ErrGatewayRejected)
	}

	return &RegisterResult{
		Token:       resp.Data.Token,
		RedirectURL: c.cfg.BaseURL + "/trnRequest/" + resp.Data.Token,
	}, nil
}

// Verify asks the processor whether the payment for the session actually
// succeeded. The processor is the source of truth; our signature only
// proves the verification request is legitimate. A transport or protocol
// failure returns (false, err) so the caller can distinguish "denied"
// from "unknown".
func (c *Client) Verify(ctx context.Context, sessionID string, amountMinor int64, currency string) (bool, error) {
	body := map[string]any{
		"merchantId": c.cfg.MerchantID,
		"posId":      c.cfg.POSID,
		"sessionId":  sessionID,
		"amount":     amountMinor,
		"currency":   currency,
		"sign":       c.Sign(sessionID, amountMinor, currency),
	}

	var resp struct {
		Data struct {
			Status string `json:"status"`
		} `json:"data"`
		Error string `json:"error"`
	}
	if err := c.post(ctx, "/api/v1/transaction/verify", body, &resp); err != nil {
		return false, err
	}
	if resp.Error != "" {
		return false, fmt.Errorf("%w: %s", ErrGatewayRejected, resp.Error)
	}

	return resp.Data.Status == "success", nil
}

// TransactionStatus reports the processor-side status for a session id.
func (c *Client) TransactionStatus(ctx context.Context, sessionID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.cfg.BaseURL+"/api/v1/transaction/by/sessionId/"+sessionID, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.SetBasicAuth(c.cfg.POSID, c.cfg.APIKey)

	res, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return "", fmt.Errorf("%w: status %d", ErrGatewayUnavailable, res.StatusCode)
	}

	var resp struct {
		Data struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrGatewayUnavailable, err)
	}
	if resp.Data.Status == "" {
		return "unknown", nil
	}
	return resp.Data.Status, nil
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.cfg.POSID, c.cfg.APIKey)

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("%w: status %d", ErrGatewayUnavailable, res.StatusCode)
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrGatewayUnavailable, err)
	}
	return nil
}
