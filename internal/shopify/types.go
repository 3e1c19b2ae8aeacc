package shopify

import "time"

// Recurring application charge statuses as reported by the Admin API.
const (
	ChargeStatusPending  = "pending"
	ChargeStatusAccepted = "accepted"
	ChargeStatusDeclined = "declined"
	ChargeStatusActive   = "active"
	ChargeStatusExpired  = "expired"
)

// RecurringCharge mirrors Shopify's recurring_application_charge resource.
type RecurringCharge struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	Price           string     `json:"price"`
	Status          string     `json:"status"`
	ReturnURL       string     `json:"return_url"`
	ConfirmationURL string     `json:"confirmation_url"`
	TrialDays       int        `json:"trial_days"`
	Test            *bool      `json:"test,omitempty"`
	ActivatedOn     *string    `json:"activated_on,omitempty"`
	BillingOn       *string    `json:"billing_on,omitempty"`
	CreatedAt       *time.Time `json:"created_at,omitempty"`
}

type recurringChargeEnvelope struct {
	RecurringApplicationCharge RecurringCharge `json:"recurring_application_charge"`
}

// CreateChargeRequest carries the parameters of a new recurring charge.
type CreateChargeRequest struct {
	Name      string
	PriceUSD  float64
	TrialDays int
	ReturnURL string
	Test      bool
}

// AccessTokenResponse is the OAuth code-exchange response.
type AccessTokenResponse struct {
	AccessToken string `json:"access_token"`
	Scope       string `json:"scope"`
}

// Order is the subset of the orders resource the reports need.
type Order struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	TotalPrice string    `json:"total_price"`
	Currency   string    `json:"currency"`
	CreatedAt  time.Time `json:"created_at"`
	Customer   *struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	} `json:"customer,omitempty"`
}

type ordersEnvelope struct {
	Orders []Order `json:"orders"`
}

// Product is the subset of the products resource the inventory report needs.
type Product struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Variants []struct {
		SKU               string `json:"sku"`
		InventoryQuantity int    `json:"inventory_quantity"`
	} `json:"variants"`
}

type productsEnvelope struct {
	Products []Product `json:"products"`
}
