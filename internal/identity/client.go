// Package identity is the REST client for the external identity
// provider. The provider owns credentials; this service only stores the
// stable uid it returns.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates an identity provider client
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

type signUpResponse struct {
	UID string `json:"uid"`
}

type verifyRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyResponse struct {
	UID string `json:"uid"`
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("identity request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("identity provider returned %d: %s", resp.StatusCode, raw)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// SignUp registers credentials with the provider and returns the stable
// uid used as the local correlate.
func (c *Client) SignUp(ctx context.Context, email, password, phone string) (string, error) {
	var resp signUpResponse
	if err := c.post(ctx, "/accounts", signUpRequest{Email: email, Password: password, Phone: phone}, &resp); err != nil {
		return "", err
	}
	return resp.UID, nil
}

// VerifyPassword checks credentials with the provider and returns the
// uid on success.
func (c *Client) VerifyPassword(ctx context.Context, email, password string) (string, error) {
	var resp verifyResponse
	if err := c.post(ctx, "/accounts/verify", verifyRequest{Email: email, Password: password}, &resp); err != nil {
		return "", err
	}
	return resp.UID, nil
}
