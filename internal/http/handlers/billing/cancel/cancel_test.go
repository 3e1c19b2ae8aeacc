package cancel

import (
	"bytes"
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
)

type MockService struct {
	mock.Mock
}

func (m *MockService) CancelSubscription(ctx context.Context, userUID, shopDomain string) error {
	args := m.Called(ctx, userUID, shopDomain)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestCancelHandler(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		principal   string
		serviceErr  error
		skipService bool
		wantStatus  int
		wantBody    string
	}{
		{
			name:       "success",
			body:       `{"shop": "example.myshopify.com"}`,
			principal:  "uid-123",
			wantStatus: http.StatusOK,
			wantBody:   `"cancelled":true`,
		},
		{
			name:        "invalid json",
			body:        `{shop}`,
			principal:   "uid-123",
			skipService: true,
			wantStatus:  http.StatusBadRequest,
			wantBody:    "invalid request body",
		},
		{
			name:        "missing shop",
			body:        `{}`,
			principal:   "uid-123",
			skipService: true,
			wantStatus:  http.StatusUnprocessableEntity,
			wantBody:    "field Shop is a required field",
		},
		{
			name:        "no principal",
			body:        `{"shop": "example.myshopify.com"}`,
			skipService: true,
			wantStatus:  http.StatusUnauthorized,
			wantBody:    "authentication required",
		},
		{
			name:       "service failure",
			body:       `{"shop": "example.myshopify.com"}`,
			principal:  "uid-123",
			serviceErr: errors.New("remote unavailable"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   "could not cancel subscription",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(MockService)
			if !tt.skipService {
				service.On("CancelSubscription", mock.Anything, tt.principal, "example.myshopify.com").
					Return(tt.serviceErr).Once()
			}

			handler := New(newNoopLogger(), service)

			req := httptest.NewRequest(http.MethodPost, "/billing/cancel", bytes.NewBufferString(tt.body))
			if tt.principal != "" {
				req = req.WithContext(context.WithValue(req.Context(), middlewarectx.UserUID, tt.principal))
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)

			service.AssertExpectations(t)
		})
	}
}
