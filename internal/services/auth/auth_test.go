package auth

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	libjwt "github.com/employee-suite/employee-suite/internal/lib/jwt"
	"github.com/employee-suite/employee-suite/internal/lib/password"
	"github.com/employee-suite/employee-suite/internal/models"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) RegisterUser(ctx context.Context, user models.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}

func (m *MockUserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func newTestService(users UserRepository) *Service {
	return New(users, libjwt.NewJWTMaker("test-secret", time.Hour), 7)
}

func TestService_Register(t *testing.T) {
	users := new(MockUserRepository)

	var saved models.User
	users.On("RegisterUser", mock.Anything, mock.AnythingOfType("models.User")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(models.User) }).
		Return("uid-123", nil).Once()

	svc := newTestService(users)

	uid, err := svc.Register(context.Background(), "owner@example.com", "merchant", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "uid-123", uid)

	assert.Equal(t, "user", saved.Role)
	assert.NotEqual(t, "s3cret", saved.PasswordHash)
	require.NoError(t, password.CompareHash(saved.PasswordHash, "s3cret"))

	// trial ends one trial window out, fixed at registration
	wantEnd := time.Now().UTC().AddDate(0, 0, 7)
	assert.WithinDuration(t, wantEnd, saved.TrialEndsAt, time.Minute)
}

func TestService_Login(t *testing.T) {
	hash, err := password.GetHash("s3cret")
	require.NoError(t, err)

	stored := &models.User{
		UID:          "uid-123",
		Username:     "merchant",
		PasswordHash: hash,
		Role:         "user",
	}

	t.Run("valid credentials", func(t *testing.T) {
		users := new(MockUserRepository)
		users.On("GetUserByUsername", mock.Anything, "merchant").Return(stored, nil).Once()

		svc := newTestService(users)
		token, role, err := svc.Login(context.Background(), "merchant", "s3cret")
		require.NoError(t, err)
		assert.Equal(t, "user", role)

		claims, err := svc.ValidateToken(context.Background(), token)
		require.NoError(t, err)
		assert.Equal(t, "uid-123", claims.UserUID)
	})

	t.Run("wrong password", func(t *testing.T) {
		users := new(MockUserRepository)
		users.On("GetUserByUsername", mock.Anything, "merchant").Return(stored, nil).Once()

		svc := newTestService(users)
		_, _, err := svc.Login(context.Background(), "merchant", "wrong")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown user maps to the same error", func(t *testing.T) {
		users := new(MockUserRepository)
		users.On("GetUserByUsername", mock.Anything, "ghost").
			Return(nil, sql.ErrNoRows).Once()

		svc := newTestService(users)
		_, _, err := svc.Login(context.Background(), "ghost", "s3cret")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})
}
