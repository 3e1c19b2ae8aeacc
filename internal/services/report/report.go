// Package report builds the merchant reports from Shopify Admin API
// data, with a short cache in front of the remote calls.
package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/employee-suite/employee-suite/internal/lib/sl"
	"github.com/employee-suite/employee-suite/internal/models"
	"github.com/employee-suite/employee-suite/internal/shopify"
	"github.com/employee-suite/employee-suite/internal/storage/repository"
)

const (
	cacheTTL      = 15 * time.Minute
	revenueWindow = 30 * 24 * time.Hour
	fetchLimit    = 250
)

var (
	// ErrSubscriptionRequired means the account is past its trial and
	// holds no active plan.
	ErrSubscriptionRequired = errors.New("subscription required")

	// ErrFeatureNotInPlan means the active plan's tier does not include
	// the requested feature.
	ErrFeatureNotInPlan = errors.New("feature not in plan")

	// ErrStoreNotConnected means no active store credentials exist for
	// the shop.
	ErrStoreNotConnected = errors.New("store not connected")
)

// Repository is the slice of storage the reports need.
type Repository interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	GetActivePlan(ctx context.Context, userUID string) (*models.Plan, error)
	GetStoreByUserAndShop(ctx context.Context, userUID, shopDomain string) (*models.Store, error)
}

// ShopClient is the Shopify data surface the reports read from.
type ShopClient interface {
	ListOpenOrders(ctx context.Context, shop, token string, limit int) ([]shopify.Order, error)
	ListOrdersSince(ctx context.Context, shop, token string, since time.Time, limit int) ([]shopify.Order, error)
	ListProducts(ctx context.Context, shop, token string, limit int) ([]shopify.Product, error)
}

// Cache is the report cache in front of the Admin API.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
}

// TokenCrypter decrypts stored store credentials.
type TokenCrypter interface {
	Decrypt(encoded string) (string, error)
}

type Service struct {
	repo    Repository
	client  ShopClient
	cache   Cache
	crypter TokenCrypter
	log     *slog.Logger
	now     func() time.Time
}

func New(repo Repository, client ShopClient, cache Cache, crypter TokenCrypter, log *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		client:  client,
		cache:   cache,
		crypter: crypter,
		log:     log,
		now:     time.Now,
	}
}

// Entitlement returns the tier the user may use right now. During the
// trial every tier feature is available; after it, the active plan's
// tier decides.
func (s *Service) Entitlement(ctx context.Context, userUID string) (models.PlanTier, error) {
	const op = "report.Entitlement"

	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		return models.PlanTier{}, fmt.Errorf("%s: %w", op, err)
	}

	if user.Subscribed {
		plan, err := s.repo.GetActivePlan(ctx, userUID)
		if err != nil {
			if errors.Is(err, repository.ErrNoActivePlan) {
				return models.PlanTier{}, ErrSubscriptionRequired
			}
			return models.PlanTier{}, fmt.Errorf("%s: %w", op, err)
		}
		tier, ok := models.FindPlanTier(plan.Tier)
		if !ok {
			return models.PlanTier{}, fmt.Errorf("%s: plan names unknown tier %q", op, plan.Tier)
		}
		return tier, nil
	}

	if !user.TrialExpired(s.now()) {
		// Trials run with the full feature set.
		return models.PlanCatalog[len(models.PlanCatalog)-1], nil
	}
	return models.PlanTier{}, ErrSubscriptionRequired
}

func (s *Service) storeToken(ctx context.Context, userUID, shopDomain string) (string, error) {
	st, err := s.repo.GetStoreByUserAndShop(ctx, userUID, shopDomain)
	if err != nil {
		if errors.Is(err, repository.ErrStoreNotFound) {
			return "", ErrStoreNotConnected
		}
		return "", err
	}
	if !st.Connected() {
		return "", ErrStoreNotConnected
	}
	return s.crypter.Decrypt(st.AccessTokenEnc)
}

func cacheKey(reportType, shopDomain string) string {
	return "report:" + reportType + ":" + shopDomain
}

// PendingOrders lists the shop's open orders.
func (s *Service) PendingOrders(ctx context.Context, userUID, shopDomain string) ([]models.OrderRow, error) {
	const op = "report.PendingOrders"

	if _, err := s.Entitlement(ctx, userUID); err != nil {
		return nil, err
	}

	var cached []models.OrderRow
	if found, err := s.cache.Get(cacheKey(models.ReportOrders, shopDomain), &cached); err != nil {
		s.log.Warn("report cache read failed", sl.Err(err))
	} else if found {
		return cached, nil
	}

	token, err := s.storeToken(ctx, userUID, shopDomain)
	if err != nil {
		return nil, err
	}

	orders, err := s.client.ListOpenOrders(ctx, shopDomain, token, fetchLimit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows := make([]models.OrderRow, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, models.OrderRow{
			OrderID:    o.ID,
			Name:       o.Name,
			Customer:   customerName(o),
			TotalPrice: o.TotalPrice,
			Currency:   o.Currency,
			CreatedAt:  o.CreatedAt,
		})
	}

	if err := s.cache.Set(cacheKey(models.ReportOrders, shopDomain), rows, cacheTTL); err != nil {
		s.log.Warn("report cache write failed", sl.Err(err))
	}
	return rows, nil
}

// InventoryLevels lists stock per product variant.
func (s *Service) InventoryLevels(ctx context.Context, userUID, shopDomain string) ([]models.InventoryRow, error) {
	const op = "report.InventoryLevels"

	if _, err := s.Entitlement(ctx, userUID); err != nil {
		return nil, err
	}

	var cached []models.InventoryRow
	if found, err := s.cache.Get(cacheKey(models.ReportInventory, shopDomain), &cached); err != nil {
		s.log.Warn("report cache read failed", sl.Err(err))
	} else if found {
		return cached, nil
	}

	token, err := s.storeToken(ctx, userUID, shopDomain)
	if err != nil {
		return nil, err
	}

	products, err := s.client.ListProducts(ctx, shopDomain, token, fetchLimit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var rows []models.InventoryRow
	for _, p := range products {
		for _, v := range p.Variants {
			rows = append(rows, models.InventoryRow{
				ProductID: p.ID,
				Product:   p.Title,
				SKU:       v.SKU,
				Quantity:  v.InventoryQuantity,
			})
		}
	}

	if err := s.cache.Set(cacheKey(models.ReportInventory, shopDomain), rows, cacheTTL); err != nil {
		s.log.Warn("report cache write failed", sl.Err(err))
	}
	return rows, nil
}

// Revenue aggregates paid orders over the trailing 30 days.
func (s *Service) Revenue(ctx context.Context, userUID, shopDomain string) (*models.RevenueReport, error) {
	const op = "report.Revenue"

	if _, err := s.Entitlement(ctx, userUID); err != nil {
		return nil, err
	}

	var cached models.RevenueReport
	if found, err := s.cache.Get(cacheKey(models.ReportRevenue, shopDomain), &cached); err != nil {
		s.log.Warn("report cache read failed", sl.Err(err))
	} else if found {
		return &cached, nil
	}

	token, err := s.storeToken(ctx, userUID, shopDomain)
	if err != nil {
		return nil, err
	}

	to := s.now().UTC()
	from := to.Add(-revenueWindow)
	orders, err := s.client.ListOrdersSince(ctx, shopDomain, token, from, fetchLimit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rep := &models.RevenueReport{From: from, To: to}
	for _, o := range orders {
		total, err := strconv.ParseFloat(o.TotalPrice, 64)
		if err != nil {
			s.log.Warn("order carries a non-numeric total",
				slog.Int64("order_id", o.ID),
				slog.String("total_price", o.TotalPrice))
			continue
		}
		rep.OrderCount++
		rep.Total += total
		if rep.Currency == "" {
			rep.Currency = o.Currency
		}
	}

	if err := s.cache.Set(cacheKey(models.ReportRevenue, shopDomain), *rep, cacheTTL); err != nil {
		s.log.Warn("report cache write failed", sl.Err(err))
	}
	return rep, nil
}

func customerName(o shopify.Order) string {
	if o.Customer == nil {
		return ""
	}
	return strings.TrimSpace(o.Customer.FirstName + " " + o.Customer.LastName)
}
