package billing

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/employee-suite/employee-suite/internal/models"
	"github.com/employee-suite/employee-suite/internal/shopify"
	"github.com/employee-suite/employee-suite/internal/storage/repository"
)

type MockRepository struct {
	mock.Mock

	lockedStore *models.Store
	activation  *repository.PlanActivation
	committed   bool
}

func (m *MockRepository) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockRepository) GetStoreByUserAndShop(ctx context.Context, userUID, shopDomain string) (*models.Store, error) {
	args := m.Called(ctx, userUID, shopDomain)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Store), args.Error(1)
}

func (m *MockRepository) SetCharge(ctx context.Context, storeID int, charge models.ChargeRef) error {
	args := m.Called(ctx, storeID, charge)
	return args.Error(0)
}

// ActivateSubscription mimics the transactional contract: the callback
// runs against the locked row, its error aborts everything, and a nil
// activation commits without changes.
func (m *MockRepository) ActivateSubscription(ctx context.Context, userUID, shopDomain string,
	fn func(ctx context.Context, locked *models.Store) (*repository.PlanActivation, error)) error {
	args := m.Called(ctx, userUID, shopDomain)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	activation, err := fn(ctx, m.lockedStore)
	if err != nil {
		return err
	}
	m.activation = activation
	m.committed = true
	return nil
}

func (m *MockRepository) GetActivePlan(ctx context.Context, userUID string) (*models.Plan, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}

func (m *MockRepository) CancelActivePlan(ctx context.Context, userUID string) error {
	args := m.Called(ctx, userUID)
	return args.Error(0)
}

func (m *MockRepository) SetSubscribed(ctx context.Context, userUID string, subscribed bool) error {
	args := m.Called(ctx, userUID, subscribed)
	return args.Error(0)
}

type MockBillingClient struct {
	mock.Mock
}

func (m *MockBillingClient) CreateRecurringCharge(ctx context.Context, shop, token string, req shopify.CreateChargeRequest) (*shopify.RecurringCharge, error) {
	args := m.Called(ctx, shop, token, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shopify.RecurringCharge), args.Error(1)
}

func (m *MockBillingClient) GetRecurringCharge(ctx context.Context, shop, token string, chargeID int64) (*shopify.RecurringCharge, error) {
	args := m.Called(ctx, shop, token, chargeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shopify.RecurringCharge), args.Error(1)
}

func (m *MockBillingClient) ActivateRecurringCharge(ctx context.Context, shop, token string, chargeID int64) (*shopify.RecurringCharge, error) {
	args := m.Called(ctx, shop, token, chargeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shopify.RecurringCharge), args.Error(1)
}

func (m *MockBillingClient) CancelRecurringCharge(ctx context.Context, shop, token string, chargeID int64) error {
	args := m.Called(ctx, shop, token, chargeID)
	return args.Error(0)
}

type MockCrypter struct {
	mock.Mock
}

func (m *MockCrypter) Decrypt(encoded string) (string, error) {
	args := m.Called(encoded)
	return args.String(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

const (
	testShop    = "example.myshopify.com"
	testUserUID = "550e8400-e29b-41d4-a716-446655440000"
	testAppURL  = "https://suite.example.com"
)

func trialUser() *models.User {
	return &models.User{
		UID:         testUserUID,
		Username:    "merchant",
		TrialEndsAt: time.Now().Add(3 * 24 * time.Hour),
	}
}

func connectedStore() *models.Store {
	return &models.Store{
		ID:             1,
		UserUID:        testUserUID,
		ShopDomain:     testShop,
		AccessTokenEnc: "enc-token",
		Charge:         models.NoCharge(),
		IsActive:       true,
	}
}

func newTestService(repo *MockRepository, client *MockBillingClient, crypter *MockCrypter) *Service {
	return New(repo, client, crypter, newNoopLogger(), testAppURL, true)
}

func TestService_StartSubscription(t *testing.T) {
	tests := []struct {
		name       string
		tier       string
		setupMocks func(*MockRepository, *MockBillingClient, *MockCrypter)
		wantURL    string
		wantErr    error
	}{
		{
			name: "success - charge created and pending id recorded",
			tier: "pro",
			setupMocks: func(r *MockRepository, c *MockBillingClient, cr *MockCrypter) {
				r.On("GetUser", mock.Anything, testUserUID).Return(trialUser(), nil).Once()
				r.On("GetStoreByUserAndShop", mock.Anything, testUserUID, testShop).
					Return(connectedStore(), nil).Once()
				cr.On("Decrypt", "enc-token").Return("shpat_token", nil).Once()
				c.On("CreateRecurringCharge", mock.Anything, testShop, "shpat_token",
					mock.MatchedBy(func(req shopify.CreateChargeRequest) bool {
						return req.PriceUSD == 19.99 && req.Test
					})).
					Return(&shopify.RecurringCharge{
						ID:              12345,
						Status:          shopify.ChargeStatusPending,
						ConfirmationURL: "https://example.myshopify.com/admin/charges/12345/confirm",
					}, nil).Once()
				r.On("SetCharge", mock.Anything, 1, models.PendingCharge("12345")).Return(nil).Once()
			},
			wantURL: "https://example.myshopify.com/admin/charges/12345/confirm",
		},
		{
			name:       "unknown tier",
			tier:       "platinum",
			setupMocks: func(_ *MockRepository, _ *MockBillingClient, _ *MockCrypter) {},
			wantErr:    ErrUnknownTier,
		},
		{
			name: "already subscribed to same tier",
			tier: "pro",
			setupMocks: func(r *MockRepository, _ *MockBillingClient, _ *MockCrypter) {
				u := trialUser()
				u.Subscribed = true
				r.On("GetUser", mock.Anything, testUserUID).Return(u, nil).Once()
				r.On("GetActivePlan", mock.Anything, testUserUID).
					Return(&models.Plan{Tier: "pro", Status: models.PlanStatusActive}, nil).Once()
			},
			wantErr: ErrAlreadySubscribed,
		},
		{
			name: "store not connected",
			tier: "starter",
			setupMocks: func(r *MockRepository, _ *MockBillingClient, _ *MockCrypter) {
				r.On("GetUser", mock.Anything, testUserUID).Return(trialUser(), nil).Once()
				r.On("GetStoreByUserAndShop", mock.Anything, testUserUID, testShop).
					Return(nil, repository.ErrStoreNotFound).Once()
			},
			wantErr: ErrStoreNotConnected,
		},
		{
			name: "remote create fails - no local writes",
			tier: "pro",
			setupMocks: func(r *MockRepository, c *MockBillingClient, cr *MockCrypter) {
				r.On("GetUser", mock.Anything, testUserUID).Return(trialUser(), nil).Once()
				r.On("GetStoreByUserAndShop", mock.Anything, testUserUID, testShop).
					Return(connectedStore(), nil).Once()
				cr.On("Decrypt", "enc-token").Return("shpat_token", nil).Once()
				c.On("CreateRecurringCharge", mock.Anything, testShop, "shpat_token", mock.Anything).
					Return(nil, &shopify.RemoteError{Op: "shopify.CreateRecurringCharge", Status: 500}).Once()
			},
			wantErr: nil, // wrapped remote error, checked below
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			client := new(MockBillingClient)
			crypter := new(MockCrypter)
			tt.setupMocks(repo, client, crypter)

			svc := newTestService(repo, client, crypter)
			got, err := svc.StartSubscription(context.Background(), testUserUID, testShop, tt.tier)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else if tt.wantURL != "" {
				require.NoError(t, err)
				assert.Equal(t, tt.wantURL, got)
			} else {
				var remoteErr *shopify.RemoteError
				require.ErrorAs(t, err, &remoteErr)
			}

			repo.AssertExpectations(t)
			client.AssertExpectations(t)
			crypter.AssertExpectations(t)
		})
	}
}

func TestService_StartSubscription_TrialNeverExtended(t *testing.T) {
	repo := new(MockRepository)
	client := new(MockBillingClient)
	crypter := new(MockCrypter)

	expired := trialUser()
	expired.TrialEndsAt = time.Now().Add(-24 * time.Hour)

	repo.On("GetUser", mock.Anything, testUserUID).Return(expired, nil).Once()
	repo.On("GetStoreByUserAndShop", mock.Anything, testUserUID, testShop).
		Return(connectedStore(), nil).Once()
	crypter.On("Decrypt", "enc-token").Return("shpat_token", nil).Once()
	client.On("CreateRecurringCharge", mock.Anything, testShop, "shpat_token",
		mock.MatchedBy(func(req shopify.CreateChargeRequest) bool {
			return req.TrialDays == 0
		})).
		Return(&shopify.RecurringCharge{ID: 1, ConfirmationURL: "https://x"}, nil).Once()
	repo.On("SetCharge", mock.Anything, 1, models.PendingCharge("1")).Return(nil).Once()

	svc := newTestService(repo, client, crypter)
	_, err := svc.StartSubscription(context.Background(), testUserUID, testShop, "starter")
	require.NoError(t, err)

	client.AssertExpectations(t)
}

func TestService_ConfirmCharge(t *testing.T) {
	tests := []struct {
		name           string
		setupMocks     func(*MockRepository, *MockBillingClient, *MockCrypter)
		wantErr        error
		wantActivation bool
	}{
		{
			name: "accepted charge is activated and plan recorded",
			setupMocks: func(r *MockRepository, c *MockBillingClient, cr *MockCrypter) {
				r.lockedStore = connectedStore()
				r.On("ActivateSubscription", mock.Anything, testUserUID, testShop).Return(nil).Once()
				cr.On("Decrypt", "enc-token").Return("shpat_token", nil).Once()
				c.On("GetRecurringCharge", mock.Anything, testShop, "shpat_token", int64(12345)).
					Return(&shopify.RecurringCharge{ID: 12345, Status: shopify.ChargeStatusAccepted}, nil).Once()
				c.On("ActivateRecurringCharge", mock.Anything, testShop, "shpat_token", int64(12345)).
					Return(&shopify.RecurringCharge{ID: 12345, Status: shopify.ChargeStatusActive}, nil).Once()
			},
			wantActivation: true,
		},
		{
			name: "declined charge",
			setupMocks: func(r *MockRepository, c *MockBillingClient, cr *MockCrypter) {
				r.lockedStore = connectedStore()
				r.On("ActivateSubscription", mock.Anything, testUserUID, testShop).Return(nil).Once()
				cr.On("Decrypt", "enc-token").Return("shpat_token", nil).Once()
				c.On("GetRecurringCharge", mock.Anything, testShop, "shpat_token", int64(12345)).
					Return(&shopify.RecurringCharge{ID: 12345, Status: shopify.ChargeStatusDeclined}, nil).Once()
			},
			wantErr: ErrChargeDeclined,
		},
		{
			name: "already active charge is a no-op",
			setupMocks: func(r *MockRepository, c *MockBillingClient, cr *MockCrypter) {
				r.lockedStore = connectedStore()
				r.On("ActivateSubscription", mock.Anything, testUserUID, testShop).Return(nil).Once()
				cr.On("Decrypt", "enc-token").Return("shpat_token", nil).Once()
				c.On("GetRecurringCharge", mock.Anything, testShop, "shpat_token", int64(12345)).
					Return(&shopify.RecurringCharge{ID: 12345, Status: shopify.ChargeStatusActive}, nil).Once()
			},
			wantActivation: false,
		},
		{
			name: "unfetchable charge clears the stored id",
			setupMocks: func(r *MockRepository, c *MockBillingClient, cr *MockCrypter) {
				r.lockedStore = connectedStore()
				r.On("ActivateSubscription", mock.Anything, testUserUID, testShop).Return(nil).Once()
				cr.On("Decrypt", "enc-token").Return("shpat_token", nil).Once()
				c.On("GetRecurringCharge", mock.Anything, testShop, "shpat_token", int64(12345)).
					Return(nil, &shopify.RemoteError{Op: "shopify.GetRecurringCharge", Status: 404}).Once()
				r.On("SetCharge", mock.Anything, 1, models.NoCharge()).Return(nil).Once()
			},
			wantErr: ErrChargeUnverifiable,
		},
		{
			name: "expired charge clears the stale pending id",
			setupMocks: func(r *MockRepository, c *MockBillingClient, cr *MockCrypter) {
				st := connectedStore()
				st.Charge = models.PendingCharge("12345")
				r.lockedStore = st
				r.On("ActivateSubscription", mock.Anything, testUserUID, testShop).Return(nil).Once()
				cr.On("Decrypt", "enc-token").Return("shpat_token", nil).Once()
				c.On("GetRecurringCharge", mock.Anything, testShop, "shpat_token", int64(12345)).
					Return(&shopify.RecurringCharge{ID: 12345, Status: shopify.ChargeStatusExpired}, nil).Once()
				r.On("SetCharge", mock.Anything, 1, models.NoCharge()).Return(nil).Once()
			},
			wantErr: ErrChargeUnverifiable,
		},
		{
			name: "remote activation failure aborts the transaction",
			setupMocks: func(r *MockRepository, c *MockBillingClient, cr *MockCrypter) {
				r.lockedStore = connectedStore()
				r.On("ActivateSubscription", mock.Anything, testUserUID, testShop).Return(nil).Once()
				cr.On("Decrypt", "enc-token").Return("shpat_token", nil).Once()
				c.On("GetRecurringCharge", mock.Anything, testShop, "shpat_token", int64(12345)).
					Return(&shopify.RecurringCharge{ID: 12345, Status: shopify.ChargeStatusAccepted}, nil).Once()
				c.On("ActivateRecurringCharge", mock.Anything, testShop, "shpat_token", int64(12345)).
					Return(nil, &shopify.RemoteError{Op: "shopify.ActivateRecurringCharge", Status: 500}).Once()
			},
		},
		{
			name: "store row missing",
			setupMocks: func(r *MockRepository, _ *MockBillingClient, _ *MockCrypter) {
				r.On("ActivateSubscription", mock.Anything, testUserUID, testShop).
					Return(repository.ErrStoreNotFound).Once()
			},
			wantErr: ErrStoreNotConnected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			client := new(MockBillingClient)
			crypter := new(MockCrypter)
			tt.setupMocks(repo, client, crypter)

			svc := newTestService(repo, client, crypter)
			err := svc.ConfirmCharge(context.Background(), testUserUID, testShop, "pro", 12345)

			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, repo.activation)
			case tt.wantActivation:
				require.NoError(t, err)
				require.NotNil(t, repo.activation)
				assert.Equal(t, "pro", repo.activation.Tier)
				assert.Equal(t, 19.99, repo.activation.PriceUSD)
				assert.Equal(t, "12345", repo.activation.ChargeID)
				assert.True(t, repo.committed)
			default:
				if err == nil {
					// the no-op commit case
					assert.Nil(t, repo.activation)
					assert.True(t, repo.committed)
				} else {
					assert.Nil(t, repo.activation)
					assert.False(t, repo.committed)
				}
			}

			repo.AssertExpectations(t)
			client.AssertExpectations(t)
			crypter.AssertExpectations(t)
		})
	}
}

func TestService_ConfirmCharge_ActivatesAtMostOnce(t *testing.T) {
	repo := new(MockRepository)
	client := new(MockBillingClient)
	crypter := new(MockCrypter)

	repo.lockedStore = connectedStore()
	repo.On("ActivateSubscription", mock.Anything, testUserUID, testShop).Return(nil).Twice()
	crypter.On("Decrypt", "enc-token").Return("shpat_token", nil).Twice()

	// The first confirmation sees the accepted charge and activates it;
	// the second, serialized behind the row lock, sees it already active.
	client.On("GetRecurringCharge", mock.Anything, testShop, "shpat_token", int64(777)).
		Return(&shopify.RecurringCharge{ID: 777, Status: shopify.ChargeStatusAccepted}, nil).Once()
	client.On("ActivateRecurringCharge", mock.Anything, testShop, "shpat_token", int64(777)).
		Return(&shopify.RecurringCharge{ID: 777, Status: shopify.ChargeStatusActive}, nil).Once()
	client.On("GetRecurringCharge", mock.Anything, testShop, "shpat_token", int64(777)).
		Return(&shopify.RecurringCharge{ID: 777, Status: shopify.ChargeStatusActive}, nil).Once()

	svc := newTestService(repo, client, crypter)
	require.NoError(t, svc.ConfirmCharge(context.Background(), testUserUID, testShop, "starter", 777))
	require.NoError(t, svc.ConfirmCharge(context.Background(), testUserUID, testShop, "starter", 777))

	client.AssertNumberOfCalls(t, "ActivateRecurringCharge", 1)
}

func TestService_CancelSubscription(t *testing.T) {
	activePlan := &models.Plan{
		UserUID:  testUserUID,
		Tier:     "pro",
		Status:   models.PlanStatusActive,
		ChargeID: "12345",
	}

	tests := []struct {
		name       string
		setupMocks func(*MockRepository, *MockBillingClient, *MockCrypter)
		wantErr    bool
	}{
		{
			name: "cancels remote charge and local state",
			setupMocks: func(r *MockRepository, c *MockBillingClient, cr *MockCrypter) {
				r.On("GetActivePlan", mock.Anything, testUserUID).Return(activePlan, nil).Once()
				r.On("GetStoreByUserAndShop", mock.Anything, testUserUID, testShop).
					Return(connectedStore(), nil).Once()
				cr.On("Decrypt", "enc-token").Return("shpat_token", nil).Once()
				c.On("CancelRecurringCharge", mock.Anything, testShop, "shpat_token", int64(12345)).
					Return(nil).Once()
				r.On("CancelActivePlan", mock.Anything, testUserUID).Return(nil).Once()
				r.On("SetSubscribed", mock.Anything, testUserUID, false).Return(nil).Once()
				r.On("SetCharge", mock.Anything, 1, models.NoCharge()).Return(nil).Once()
			},
		},
		{
			name: "no active plan is success",
			setupMocks: func(r *MockRepository, _ *MockBillingClient, _ *MockCrypter) {
				r.On("GetActivePlan", mock.Anything, testUserUID).
					Return(nil, repository.ErrNoActivePlan).Once()
			},
		},
		{
			name: "store already gone still clears local state",
			setupMocks: func(r *MockRepository, _ *MockBillingClient, _ *MockCrypter) {
				r.On("GetActivePlan", mock.Anything, testUserUID).Return(activePlan, nil).Once()
				r.On("GetStoreByUserAndShop", mock.Anything, testUserUID, testShop).
					Return(nil, repository.ErrStoreNotFound).Once()
				r.On("CancelActivePlan", mock.Anything, testUserUID).Return(nil).Once()
				r.On("SetSubscribed", mock.Anything, testUserUID, false).Return(nil).Once()
			},
		},
		{
			name: "remote cancel failure is returned",
			setupMocks: func(r *MockRepository, c *MockBillingClient, cr *MockCrypter) {
				r.On("GetActivePlan", mock.Anything, testUserUID).Return(activePlan, nil).Once()
				r.On("GetStoreByUserAndShop", mock.Anything, testUserUID, testShop).
					Return(connectedStore(), nil).Once()
				cr.On("Decrypt", "enc-token").Return("shpat_token", nil).Once()
				c.On("CancelRecurringCharge", mock.Anything, testShop, "shpat_token", int64(12345)).
					Return(errors.New("network down")).Once()
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			client := new(MockBillingClient)
			crypter := new(MockCrypter)
			tt.setupMocks(repo, client, crypter)

			svc := newTestService(repo, client, crypter)
			err := svc.CancelSubscription(context.Background(), testUserUID, testShop)

			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}

			repo.AssertExpectations(t)
			client.AssertExpectations(t)
			crypter.AssertExpectations(t)
		})
	}
}
