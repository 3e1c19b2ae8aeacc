// Package store drives the Shopify OAuth connection flow and the
// uninstall webhook.
package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/employee-suite/employee-suite/internal/models"
	"github.com/employee-suite/employee-suite/internal/shopify"
)

const stateTTL = 10 * time.Minute

var (
	// ErrInvalidShopDomain means the shop parameter is not a
	// *.myshopify.com domain.
	ErrInvalidShopDomain = errors.New("invalid shop domain")

	// ErrInvalidState means the OAuth state nonce is unknown or expired,
	// or belongs to a different user.
	ErrInvalidState = errors.New("invalid oauth state")
)

// Repository is the slice of storage the connection flow needs.
type Repository interface {
	UpsertStore(ctx context.Context, userUID, shopDomain, accessTokenEnc string) (*models.Store, error)
	DeactivateStore(ctx context.Context, shopDomain string) error
}

// OAuthClient is the Shopify OAuth surface.
type OAuthClient interface {
	AuthorizeURL(shop, scopes, redirectURI, state string) string
	ExchangeToken(ctx context.Context, shop, code string) (*shopify.AccessTokenResponse, error)
}

// StateStore keeps short-lived OAuth state nonces.
type StateStore interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// TokenCrypter encrypts access tokens before they touch the database.
type TokenCrypter interface {
	Encrypt(plaintext string) (string, error)
}

type Service struct {
	repo    Repository
	client  OAuthClient
	states  StateStore
	crypter TokenCrypter
	log     *slog.Logger
	appURL  string
	scopes  string
}

func New(repo Repository, client OAuthClient, states StateStore, crypter TokenCrypter,
	log *slog.Logger, appURL, scopes string) *Service {
	return &Service{
		repo:    repo,
		client:  client,
		states:  states,
		crypter: crypter,
		log:     log,
		appURL:  appURL,
		scopes:  scopes,
	}
}

func stateKey(state string) string {
	return "oauth_state:" + state
}

// BeginConnect returns the Shopify authorize URL for the shop, binding a
// fresh state nonce to the user for the callback to check.
func (s *Service) BeginConnect(_ context.Context, userUID, shopDomain string) (string, error) {
	const op = "store.BeginConnect"

	if !shopify.ValidShopDomain(shopDomain) {
		return "", ErrInvalidShopDomain
	}

	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	state := hex.EncodeToString(buf)

	if err := s.states.Set(stateKey(state), userUID, stateTTL); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	redirectURI := s.appURL + "/store/callback"
	return s.client.AuthorizeURL(shopDomain, s.scopes, redirectURI, state), nil
}

// CompleteConnect finishes the OAuth callback: it checks the state
// nonce, exchanges the code for an access token and stores the token
// encrypted. The HMAC on the callback query is verified by the handler
// before this is called.
func (s *Service) CompleteConnect(ctx context.Context, shopDomain, code, state string) (*models.Store, error) {
	const op = "store.CompleteConnect"

	if !shopify.ValidShopDomain(shopDomain) {
		return nil, ErrInvalidShopDomain
	}

	var userUID string
	found, err := s.states.Get(stateKey(state), &userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		return nil, ErrInvalidState
	}
	if err := s.states.Invalidate(stateKey(state)); err != nil {
		s.log.Warn("failed to drop oauth state", slog.String("state", state))
	}

	tokenResp, err := s.client.ExchangeToken(ctx, shopDomain, code)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	enc, err := s.crypter.Encrypt(tokenResp.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	st, err := s.repo.UpsertStore(ctx, userUID, shopDomain, enc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("store connected",
		slog.String("shop", shopDomain),
		slog.String("user_uid", userUID))
	return st, nil
}

// HandleUninstall reacts to Shopify's app/uninstalled webhook. The
// stored token is dead the moment the webhook fires, so the store is
// deactivated and the owner's subscription state is reset locally. No
// remote cancel call is made: the charge is already void on Shopify's
// side.
func (s *Service) HandleUninstall(ctx context.Context, shopDomain string) error {
	const op = "store.HandleUninstall"

	if err := s.repo.DeactivateStore(ctx, shopDomain); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("store uninstalled", slog.String("shop", shopDomain))
	return nil
}
