package shopify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient("api-key", "api-secret", "2024-01", false)
	c.baseURL = srv.URL
	return c
}

func TestClient_CreateRecurringCharge(t *testing.T) {
	var gotReq recurringChargeEnvelope
	var gotToken, gotPath string

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Shopify-Access-Token")
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(recurringChargeEnvelope{RecurringApplicationCharge: RecurringCharge{
			ID:              1029266948,
			Name:            gotReq.RecurringApplicationCharge.Name,
			Price:           gotReq.RecurringApplicationCharge.Price,
			Status:          ChargeStatusPending,
			ConfirmationURL: "https://example.myshopify.com/admin/charges/1029266948/confirm",
		}})
	})

	charge, err := client.CreateRecurringCharge(context.Background(), "example.myshopify.com", "shpat_token", CreateChargeRequest{
		Name:      "Employee Suite pro",
		PriceUSD:  19.99,
		TrialDays: 7,
		ReturnURL: "https://suite.example.com/billing/confirm?shop=example.myshopify.com&plan=pro",
		Test:      true,
	})
	require.NoError(t, err)

	assert.Equal(t, "shpat_token", gotToken)
	assert.Equal(t, "/admin/api/2024-01/recurring_application_charges.json", gotPath)
	assert.Equal(t, "19.99", gotReq.RecurringApplicationCharge.Price)
	assert.Equal(t, 7, gotReq.RecurringApplicationCharge.TrialDays)
	require.NotNil(t, gotReq.RecurringApplicationCharge.Test)
	assert.True(t, *gotReq.RecurringApplicationCharge.Test)

	assert.Equal(t, int64(1029266948), charge.ID)
	assert.Equal(t, ChargeStatusPending, charge.Status)
	assert.Equal(t, "https://example.myshopify.com/admin/charges/1029266948/confirm", charge.ConfirmationURL)
}

func TestClient_CreateRecurringCharge_RemoteFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	})

	_, err := client.CreateRecurringCharge(context.Background(), "example.myshopify.com", "shpat_token", CreateChargeRequest{
		Name: "Employee Suite starter", PriceUSD: 9.99,
	})

	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, http.StatusUnprocessableEntity, remoteErr.Status)
}

func TestClient_GetRecurringCharge(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/admin/api/2024-01/recurring_application_charges/455696195.json", r.URL.Path)

		json.NewEncoder(w).Encode(recurringChargeEnvelope{RecurringApplicationCharge: RecurringCharge{
			ID:     455696195,
			Status: ChargeStatusAccepted,
		}})
	})

	charge, err := client.GetRecurringCharge(context.Background(), "example.myshopify.com", "shpat_token", 455696195)
	require.NoError(t, err)
	assert.Equal(t, ChargeStatusAccepted, charge.Status)
}

func TestClient_ActivateRecurringCharge(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/admin/api/2024-01/recurring_application_charges/455696195/activate.json", r.URL.Path)

		json.NewEncoder(w).Encode(recurringChargeEnvelope{RecurringApplicationCharge: RecurringCharge{
			ID:     455696195,
			Status: ChargeStatusActive,
		}})
	})

	charge, err := client.ActivateRecurringCharge(context.Background(), "example.myshopify.com", "shpat_token", 455696195)
	require.NoError(t, err)
	assert.Equal(t, ChargeStatusActive, charge.Status)
}

func TestClient_CancelRecurringCharge(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{name: "deleted", status: http.StatusOK},
		{name: "already gone counts as success", status: http.StatusNotFound},
		{name: "server error", status: http.StatusInternalServerError, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodDelete, r.Method)
				w.WriteHeader(tt.status)
			})

			err := client.CancelRecurringCharge(context.Background(), "example.myshopify.com", "shpat_token", 455696195)
			if tt.wantErr {
				var remoteErr *RemoteError
				require.ErrorAs(t, err, &remoteErr)
				assert.Equal(t, tt.status, remoteErr.Status)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
