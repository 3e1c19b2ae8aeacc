// Package shopify is a thin client for the Shopify Admin REST API:
// recurring application charges, the OAuth token exchange, and the order
// and product listings the reports are built from.
package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client issues Admin API requests. It is stateless: the shop domain and
// access token are passed per call, because one process serves many stores.
type Client struct {
	apiKey     string
	apiSecret  string
	apiVersion string
	test       bool
	httpClient *http.Client
	// baseURL overrides https://{shop} in tests.
	baseURL string
}

// NewClient creates an Admin API client with the app credentials.
func NewClient(apiKey, apiSecret, apiVersion string, testCharges bool) *Client {
	return &Client{
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		apiVersion: apiVersion,
		test:       testCharges,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// RemoteError is returned for every failed Admin API call: non-2xx
// responses, network errors and timeouts alike. Callers must not assume
// partial success.
type RemoteError struct {
	Op     string
	Status int
	Err    error
}

func (e *RemoteError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

func (c *Client) shopURL(shop, path string) string {
	if c.baseURL != "" {
		return c.baseURL + "/admin/api/" + c.apiVersion + path
	}
	return "https://" + shop + "/admin/api/" + c.apiVersion + path
}

func (c *Client) newRequest(ctx context.Context, method, shop, token, path string, body any) (*http.Request, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.shopURL(shop, path), &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Shopify-Access-Token", token)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// doJSON runs the request and decodes a 2xx body into out (when non-nil).
func (c *Client) doJSON(op string, req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &RemoteError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RemoteError{Op: op, Status: resp.StatusCode}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &RemoteError{Op: op, Err: err}
	}
	return nil
}
