// Package gateway is the REST client for the external payment gateway.
// The gateway owns the order / payment-link / callback protocol; this
// client only creates orders and polls their status.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"rental-service/internal/util"
)

// Order is a gateway-side order handle.
type Order struct {
	ID          string `json:"id"`
	AmountMinor int64  `json:"amount"`
	Currency    string `json:"currency"`
	Receipt     string `json:"receipt"`
	Status      string `json:"status"`
}

// PaymentLink is a hosted checkout URL for an order.
type PaymentLink struct {
	ID       string `json:"id"`
	ShortURL string `json:"short_url"`
}

// Payment is one gateway-side payment attempt against an order.
type Payment struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type Client struct {
	baseURL     string
	keyID       string
	keySecret   string
	currency    string
	callbackURL string
	httpClient  *http.Client
}

// NewClient creates a payment gateway client
func NewClient(baseURL, keyID, keySecret, currency, callbackURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:     baseURL,
		keyID:       keyID,
		keySecret:   keySecret,
		currency:    currency,
		callbackURL: callbackURL,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	start := time.Now()
	defer func() {
		util.GatewayRequestLatency.Observe(time.Since(start).Seconds())
	}()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("gateway returned %d: %s", resp.StatusCode, raw)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode gateway response: %w", err)
		}
	}
	return nil
}

// CreateOrder creates a gateway order for the given amount in minor
// units. The receipt carries the application transaction id.
func (c *Client) CreateOrder(ctx context.Context, amountMinor int64, receipt string) (*Order, error) {
	req := map[string]interface{}{
		"amount":          amountMinor,
		"currency":        c.currency,
		"receipt":         receipt,
		"payment_capture": 1,
	}

	var order Order
	if err := c.do(ctx, http.MethodPost, "/orders", req, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// CreatePaymentLink creates a hosted payment link that redirects to the
// configured callback URL after checkout.
func (c *Client) CreatePaymentLink(ctx context.Context, amountMinor int64, orderID string) (*PaymentLink, error) {
	req := map[string]interface{}{
		"amount":          amountMinor,
		"currency":        c.currency,
		"description":     "Apartment booking payment",
		"reference_id":    orderID,
		"callback_url":    c.callbackURL,
		"callback_method": "get",
	}

	var link PaymentLink
	if err := c.do(ctx, http.MethodPost, "/payment_links", req, &link); err != nil {
		return nil, err
	}
	return &link, nil
}

// FetchOrder polls the gateway for an order's current status.
func (c *Client) FetchOrder(ctx context.Context, orderID string) (*Order, error) {
	var order Order
	if err := c.do(ctx, http.MethodGet, "/orders/"+orderID, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// FetchOrderPayments lists the payment attempts made against an order.
func (c *Client) FetchOrderPayments(ctx context.Context, orderID string) ([]Payment, error) {
	var out struct {
		Items []Payment `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/orders/"+orderID+"/payments", nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}
