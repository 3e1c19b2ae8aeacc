package confirm

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/employee-suite/employee-suite/internal/http/middlewarectx"
	"github.com/employee-suite/employee-suite/internal/services/billing"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) ConfirmCharge(ctx context.Context, userUID, shopDomain, tier string, chargeID int64) error {
	args := m.Called(ctx, userUID, shopDomain, tier, chargeID)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

const appURL = "https://suite.example.com"

func TestConfirmHandler(t *testing.T) {
	tests := []struct {
		name         string
		url          string
		serviceErr   error
		skipService  bool
		wantRedirect string
	}{
		{
			name:         "success redirects to the dashboard",
			url:          "/billing/confirm?shop=example.myshopify.com&plan=pro&charge_id=12345",
			wantRedirect: appURL + "/?shop=example.myshopify.com\\u0026message=subscription+active",
		},
		{
			name:         "declined charge goes back to the plan picker",
			url:          "/billing/confirm?shop=example.myshopify.com&plan=pro&charge_id=12345",
			serviceErr:   billing.ErrChargeDeclined,
			wantRedirect: "the+charge+was+declined",
		},
		{
			name:         "unverifiable charge",
			url:          "/billing/confirm?shop=example.myshopify.com&plan=pro&charge_id=12345",
			serviceErr:   billing.ErrChargeUnverifiable,
			wantRedirect: "we+could+not+verify+your+purchase%2C+please+try+again",
		},
		{
			name:         "store not connected",
			url:          "/billing/confirm?shop=example.myshopify.com&plan=pro&charge_id=12345",
			serviceErr:   billing.ErrStoreNotConnected,
			wantRedirect: "connect+your+store+first",
		},
		{
			name:         "unknown tier",
			url:          "/billing/confirm?shop=example.myshopify.com&plan=platinum&charge_id=12345",
			serviceErr:   billing.ErrUnknownTier,
			wantRedirect: "unknown+plan",
		},
		{
			name:         "internal failure",
			url:          "/billing/confirm?shop=example.myshopify.com&plan=pro&charge_id=12345",
			serviceErr:   errors.New("db down"),
			wantRedirect: "billing+is+temporarily+unavailable%2C+please+try+again",
		},
		{
			name:         "missing charge_id never reaches the service",
			url:          "/billing/confirm?shop=example.myshopify.com&plan=pro",
			skipService:  true,
			wantRedirect: "we+could+not+verify+your+purchase%2C+please+try+again",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(MockService)
			if !tt.skipService {
				service.On("ConfirmCharge", mock.Anything, "uid-123", "example.myshopify.com",
					mock.AnythingOfType("string"), int64(12345)).Return(tt.serviceErr).Once()
			}

			handler := New(newNoopLogger(), service, appURL)

			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			ctx := context.WithValue(req.Context(), middlewarectx.UserUID, "uid-123")
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req.WithContext(ctx))

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
			assert.Contains(t, rec.Body.String(), "window.top.location")
			assert.Contains(t, rec.Body.String(), tt.wantRedirect)

			service.AssertExpectations(t)
		})
	}
}

func TestConfirmHandler_NoPrincipal(t *testing.T) {
	service := new(MockService)
	handler := New(newNoopLogger(), service, appURL)

	req := httptest.NewRequest(http.MethodGet, "/billing/confirm?shop=x.myshopify.com&plan=pro&charge_id=1", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	service.AssertNotCalled(t, "ConfirmCharge")
}
