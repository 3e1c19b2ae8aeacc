package shopify

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Per-call deadlines. Status reads are cheaper than the mutating calls.
const (
	createChargeTimeout   = 15 * time.Second
	chargeStatusTimeout   = 10 * time.Second
	activateChargeTimeout = 15 * time.Second
)

// CreateRecurringCharge creates a pending recurring application charge.
// The merchant approves or declines it on the returned ConfirmationURL.
func (c *Client) CreateRecurringCharge(ctx context.Context, shop, token string, req CreateChargeRequest) (*RecurringCharge, error) {
	const op = "shopify.CreateRecurringCharge"
	ctx, cancel := context.WithTimeout(ctx, createChargeTimeout)
	defer cancel()

	body := recurringChargeEnvelope{RecurringApplicationCharge: RecurringCharge{
		Name:      req.Name,
		Price:     fmt.Sprintf("%.2f", req.PriceUSD),
		TrialDays: req.TrialDays,
		ReturnURL: req.ReturnURL,
	}}
	if req.Test || c.test {
		t := true
		body.RecurringApplicationCharge.Test = &t
	}

	httpReq, err := c.newRequest(ctx, http.MethodPost, shop, token, "/recurring_application_charges.json", body)
	if err != nil {
		return nil, &RemoteError{Op: op, Err: err}
	}
	var out recurringChargeEnvelope
	if err := c.doJSON(op, httpReq, &out); err != nil {
		return nil, err
	}
	return &out.RecurringApplicationCharge, nil
}

// GetRecurringCharge fetches the current state of a charge. The stored
// charge id is only a hint for which charge to query; this call is the
// sole source of truth for its status.
func (c *Client) GetRecurringCharge(ctx context.Context, shop, token string, chargeID int64) (*RecurringCharge, error) {
	const op = "shopify.GetRecurringCharge"
	ctx, cancel := context.WithTimeout(ctx, chargeStatusTimeout)
	defer cancel()

	path := fmt.Sprintf("/recurring_application_charges/%d.json", chargeID)
	httpReq, err := c.newRequest(ctx, http.MethodGet, shop, token, path, nil)
	if err != nil {
		return nil, &RemoteError{Op: op, Err: err}
	}
	var out recurringChargeEnvelope
	if err := c.doJSON(op, httpReq, &out); err != nil {
		return nil, err
	}
	return &out.RecurringApplicationCharge, nil
}

// ActivateRecurringCharge activates an accepted charge. Billing begins on
// success; Shopify rejects a second activation of the same charge.
func (c *Client) ActivateRecurringCharge(ctx context.Context, shop, token string, chargeID int64) (*RecurringCharge, error) {
	const op = "shopify.ActivateRecurringCharge"
	ctx, cancel := context.WithTimeout(ctx, activateChargeTimeout)
	defer cancel()

	path := fmt.Sprintf("/recurring_application_charges/%d/activate.json", chargeID)
	httpReq, err := c.newRequest(ctx, http.MethodPost, shop, token, path, nil)
	if err != nil {
		return nil, &RemoteError{Op: op, Err: err}
	}
	var out recurringChargeEnvelope
	if err := c.doJSON(op, httpReq, &out); err != nil {
		return nil, err
	}
	return &out.RecurringApplicationCharge, nil
}

// CancelRecurringCharge deletes a charge. 404 counts as success: the
// charge is already gone, which is the state cancellation wants.
func (c *Client) CancelRecurringCharge(ctx context.Context, shop, token string, chargeID int64) error {
	const op = "shopify.CancelRecurringCharge"
	ctx, cancel := context.WithTimeout(ctx, activateChargeTimeout)
	defer cancel()

	path := fmt.Sprintf("/recurring_application_charges/%d.json", chargeID)
	httpReq, err := c.newRequest(ctx, http.MethodDelete, shop, token, path, nil)
	if err != nil {
		return &RemoteError{Op: op, Err: err}
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return &RemoteError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RemoteError{Op: op, Status: resp.StatusCode}
	}
	return nil
}
