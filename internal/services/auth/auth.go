// Package auth contains registration, login and token validation.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/employee-suite/employee-suite/internal/lib/jwt"
	"github.com/employee-suite/employee-suite/internal/lib/password"
	"github.com/employee-suite/employee-suite/internal/models"
)

// ErrInvalidCredentials is returned when the username/password pair
// does not match a stored account.
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserRepository is the storage contract for accounts.
type UserRepository interface {
	RegisterUser(ctx context.Context, user models.User) (string, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// Service handles registration, login and JWT validation.
type Service struct {
	users     UserRepository
	jwtMaker  jwt.Maker
	trialDays int
}

func New(users UserRepository, jwtMaker jwt.Maker, trialDays int) *Service {
	return &Service{
		users:     users,
		jwtMaker:  jwtMaker,
		trialDays: trialDays,
	}
}

// Register creates an account with a hashed password and the default
// "user" role. The trial window is fixed here, at registration; nothing
// later moves it.
func (s *Service) Register(ctx context.Context, email, username, rawPassword string) (string, error) {
	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return "", err
	}
	user := models.User{
		Email:        email,
		Username:     username,
		PasswordHash: hashed,
		Role:         "user",
		TrialEndsAt:  time.Now().UTC().AddDate(0, 0, s.trialDays),
	}
	return s.users.RegisterUser(ctx, user)
}

// Login verifies the password and issues a JWT.
func (s *Service) Login(ctx context.Context, username, rawPassword string) (token, role string, err error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return "", "", ErrInvalidCredentials
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return "", "", ErrInvalidCredentials
	}
	token, err = s.jwtMaker.GenerateToken(user.Username, user.Role, user.UID)
	if err != nil {
		return "", "", err
	}
	return token, user.Role, nil
}

// ValidateToken parses a JWT and returns the claims it carries.
func (s *Service) ValidateToken(_ context.Context, token string) (*jwt.CustomClaims, error) {
	return s.jwtMaker.ParseToken(token)
}
