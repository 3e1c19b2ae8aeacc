package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/employee-suite/employee-suite/internal/lib/sl"
	"github.com/employee-suite/employee-suite/internal/models"
	"github.com/employee-suite/employee-suite/internal/shopify"
	"github.com/employee-suite/employee-suite/internal/storage/repository"
)

// Repository is the slice of storage the billing service needs.
type Repository interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	GetStoreByUserAndShop(ctx context.Context, userUID, shopDomain string) (*models.Store, error)
	SetCharge(ctx context.Context, storeID int, charge models.ChargeRef) error
	ActivateSubscription(ctx context.Context, userUID, shopDomain string,
		fn func(ctx context.Context, locked *models.Store) (*repository.PlanActivation, error)) error
	GetActivePlan(ctx context.Context, userUID string) (*models.Plan, error)
	CancelActivePlan(ctx context.Context, userUID string) error
	SetSubscribed(ctx context.Context, userUID string, subscribed bool) error
}

// BillingClient is the Shopify recurring-charge API surface.
type BillingClient interface {
	CreateRecurringCharge(ctx context.Context, shop, token string, req shopify.CreateChargeRequest) (*shopify.RecurringCharge, error)
	GetRecurringCharge(ctx context.Context, shop, token string, chargeID int64) (*shopify.RecurringCharge, error)
	ActivateRecurringCharge(ctx context.Context, shop, token string, chargeID int64) (*shopify.RecurringCharge, error)
	CancelRecurringCharge(ctx context.Context, shop, token string, chargeID int64) error
}

// TokenCrypter decrypts stored store credentials.
type TokenCrypter interface {
	Decrypt(encoded string) (string, error)
}

// Service reconciles the local subscription state with Shopify's
// recurring-charge state. All durable writes happen here or in the
// repository transaction it drives; handlers only translate errors.
type Service struct {
	repo        Repository
	client      BillingClient
	crypter     TokenCrypter
	log         *slog.Logger
	appURL      string
	testCharges bool
	now         func() time.Time
}

func New(repo Repository, client BillingClient, crypter TokenCrypter,
	log *slog.Logger, appURL string, testCharges bool) *Service {
	return &Service{
		repo:        repo,
		client:      client,
		crypter:     crypter,
		log:         log,
		appURL:      appURL,
		testCharges: testCharges,
		now:         time.Now,
	}
}

// chargeName is the merchant-visible label on the Shopify billing page.
func chargeName(tier models.PlanTier) string {
	return "Employee Suite " + tier.Name
}

// remainingTrialDays converts the fixed account trial window into whole
// days for the charge request. Subscribing never extends the window, so
// a user past their trial gets a zero-day trial on the charge.
func remainingTrialDays(u *models.User, tier models.PlanTier, now time.Time) int {
	if !now.Before(u.TrialEndsAt) {
		return 0
	}
	days := int(u.TrialEndsAt.Sub(now).Hours() / 24)
	if days > tier.TrialDays {
		return tier.TrialDays
	}
	return days
}

// StartSubscription creates a recurring charge for the tier and returns
// the Shopify confirmation URL the merchant must be redirected to. The
// charge id is recorded optimistically; until the merchant approves the
// charge on Shopify's page no local subscription state changes.
func (s *Service) StartSubscription(ctx context.Context, userUID, shopDomain, tierName string) (string, error) {
	const op = "billing.StartSubscription"

	tier, ok := models.FindPlanTier(tierName)
	if !ok {
		return "", ErrUnknownTier
	}

	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if user.Subscribed {
		active, err := s.repo.GetActivePlan(ctx, userUID)
		if err != nil && !errors.Is(err, repository.ErrNoActivePlan) {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		if err == nil && active.Tier == tier.Name {
			return "", ErrAlreadySubscribed
		}
	}

	store, err := s.repo.GetStoreByUserAndShop(ctx, userUID, shopDomain)
	if err != nil {
		if errors.Is(err, repository.ErrStoreNotFound) {
			return "", ErrStoreNotConnected
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if !store.Connected() {
		return "", ErrStoreNotConnected
	}

	token, err := s.crypter.Decrypt(store.AccessTokenEnc)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	returnURL := fmt.Sprintf("%s/billing/confirm?shop=%s&plan=%s",
		s.appURL, url.QueryEscape(shopDomain), url.QueryEscape(tier.Name))

	charge, err := s.client.CreateRecurringCharge(ctx, shopDomain, token, shopify.CreateChargeRequest{
		Name:      chargeName(tier),
		PriceUSD:  tier.PriceUSD,
		TrialDays: remainingTrialDays(user, tier, s.now()),
		ReturnURL: returnURL,
		Test:      s.testCharges,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err := s.repo.SetCharge(ctx, store.ID, models.PendingCharge(strconv.FormatInt(charge.ID, 10))); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("recurring charge created",
		slog.String("shop", shopDomain),
		slog.String("tier", tier.Name),
		slog.Int64("charge_id", charge.ID))
	return charge.ConfirmationURL, nil
}

// ConfirmCharge handles the return redirect from the Shopify billing
// page. The charge status is always re-fetched from Shopify; the id
// stored at creation time is only a hint and is never trusted on its
// own. Activation and the plan write happen inside a single repository
// transaction holding a row lock on the store, so two concurrent
// confirmations of the same charge activate it at most once.
func (s *Service) ConfirmCharge(ctx context.Context, userUID, shopDomain, tierName string, chargeID int64) error {
	const op = "billing.ConfirmCharge"

	tier, ok := models.FindPlanTier(tierName)
	if !ok {
		return ErrUnknownTier
	}

	var clearStore int
	err := s.repo.ActivateSubscription(ctx, userUID, shopDomain,
		func(ctx context.Context, locked *models.Store) (*repository.PlanActivation, error) {
			token, err := s.crypter.Decrypt(locked.AccessTokenEnc)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}

			fresh, err := s.client.GetRecurringCharge(ctx, shopDomain, token, chargeID)
			if err != nil {
				// An unverifiable charge must not linger and get
				// activated by a later retry with stale assumptions.
				clearStore = locked.ID
				return nil, fmt.Errorf("%w: %v", ErrChargeUnverifiable, err)
			}

			switch fresh.Status {
			case shopify.ChargeStatusActive:
				// A previous confirmation won the race and committed.
				return nil, nil
			case shopify.ChargeStatusDeclined:
				// TODO: decide whether to clear the stored charge id on a
				// decline so a later /subscribe does not see a stale ref.
				return nil, ErrChargeDeclined
			case shopify.ChargeStatusExpired:
				clearStore = locked.ID
				return nil, ErrChargeUnverifiable
			case shopify.ChargeStatusAccepted:
				// fall through to activation
			default:
				return nil, fmt.Errorf("%w: status %q", ErrChargeUnverifiable, fresh.Status)
			}

			activated, err := s.client.ActivateRecurringCharge(ctx, shopDomain, token, chargeID)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}

			return &repository.PlanActivation{
				Tier:        tier.Name,
				PriceUSD:    tier.PriceUSD,
				ChargeID:    strconv.FormatInt(activated.ID, 10),
				ActivatedAt: s.now().UTC(),
			}, nil
		})
	if err != nil {
		if errors.Is(err, repository.ErrStoreNotFound) {
			return ErrStoreNotConnected
		}
		if clearStore != 0 {
			// The pending id points at a charge that can never activate.
			if clearErr := s.repo.SetCharge(ctx, clearStore, models.NoCharge()); clearErr != nil {
				s.log.Error("failed to clear expired charge ref", sl.Err(clearErr))
			}
		}
		return err
	}

	s.log.Info("subscription activated",
		slog.String("shop", shopDomain),
		slog.String("tier", tier.Name),
		slog.Int64("charge_id", chargeID))
	return nil
}

// CancelSubscription cancels the user's active plan and its remote
// charge. It is idempotent: no active plan, no store, or a charge that
// is already gone on Shopify all count as success.
func (s *Service) CancelSubscription(ctx context.Context, userUID, shopDomain string) error {
	const op = "billing.CancelSubscription"

	plan, err := s.repo.GetActivePlan(ctx, userUID)
	if err != nil {
		if errors.Is(err, repository.ErrNoActivePlan) {
			return nil
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	store, err := s.repo.GetStoreByUserAndShop(ctx, userUID, shopDomain)
	if err != nil && !errors.Is(err, repository.ErrStoreNotFound) {
		return fmt.Errorf("%s: %w", op, err)
	}

	if store.Connected() && plan.ChargeID != "" {
		chargeID, parseErr := strconv.ParseInt(plan.ChargeID, 10, 64)
		if parseErr == nil {
			token, err := s.crypter.Decrypt(store.AccessTokenEnc)
			if err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
			if err := s.client.CancelRecurringCharge(ctx, shopDomain, token, chargeID); err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
		} else {
			s.log.Warn("active plan holds a non-numeric charge id",
				slog.String("charge_id", plan.ChargeID))
		}
	}

	if err := s.repo.CancelActivePlan(ctx, userUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.SetSubscribed(ctx, userUID, false); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if store.Connected() {
		if err := s.repo.SetCharge(ctx, store.ID, models.NoCharge()); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	s.log.Info("subscription cancelled", slog.String("shop", shopDomain))
	return nil
}
