package shopify

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const reportCallTimeout = 15 * time.Second

// ListOpenOrders returns the store's unfulfilled open orders, newest first.
func (c *Client) ListOpenOrders(ctx context.Context, shop, token string, limit int) ([]Order, error) {
	const op = "shopify.ListOpenOrders"
	q := url.Values{}
	q.Set("status", "open")
	q.Set("limit", itoa(limit))
	return c.listOrders(ctx, op, shop, token, q)
}

// ListOrdersSince returns paid orders created at or after since, for the
// revenue report.
func (c *Client) ListOrdersSince(ctx context.Context, shop, token string, since time.Time, limit int) ([]Order, error) {
	const op = "shopify.ListOrdersSince"
	q := url.Values{}
	q.Set("status", "any")
	q.Set("financial_status", "paid")
	q.Set("created_at_min", since.UTC().Format(time.RFC3339))
	q.Set("limit", itoa(limit))
	return c.listOrders(ctx, op, shop, token, q)
}

func (c *Client) listOrders(ctx context.Context, op, shop, token string, q url.Values) ([]Order, error) {
	ctx, cancel := context.WithTimeout(ctx, reportCallTimeout)
	defer cancel()

	httpReq, err := c.newRequest(ctx, http.MethodGet, shop, token, "/orders.json?"+q.Encode(), nil)
	if err != nil {
		return nil, &RemoteError{Op: op, Err: err}
	}
	var out ordersEnvelope
	if err := c.doJSON(op, httpReq, &out); err != nil {
		return nil, err
	}
	return out.Orders, nil
}

// ListProducts returns the store's products with per-variant inventory
// quantities.
func (c *Client) ListProducts(ctx context.Context, shop, token string, limit int) ([]Product, error) {
	const op = "shopify.ListProducts"
	ctx, cancel := context.WithTimeout(ctx, reportCallTimeout)
	defer cancel()

	q := url.Values{}
	q.Set("limit", itoa(limit))
	httpReq, err := c.newRequest(ctx, http.MethodGet, shop, token, "/products.json?"+q.Encode(), nil)
	if err != nil {
		return nil, &RemoteError{Op: op, Err: err}
	}
	var out productsEnvelope
	if err := c.doJSON(op, httpReq, &out); err != nil {
		return nil, err
	}
	return out.Products, nil
}

func itoa(n int) string {
	if n <= 0 {
		n = 50
	}
	return strconv.Itoa(n)
}
