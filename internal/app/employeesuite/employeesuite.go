// Package employeesuite wires the API binary: storage, cache, Shopify
// client, services, routes and the HTTP server.
package employeesuite

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/employee-suite/employee-suite/internal/cache"
	"github.com/employee-suite/employee-suite/internal/config"
	libjwt "github.com/employee-suite/employee-suite/internal/lib/jwt"
	"github.com/employee-suite/employee-suite/internal/lib/tokencrypt"
	"github.com/employee-suite/employee-suite/internal/migrations"
	"github.com/employee-suite/employee-suite/internal/services/auth"
	"github.com/employee-suite/employee-suite/internal/services/billing"
	"github.com/employee-suite/employee-suite/internal/services/report"
	"github.com/employee-suite/employee-suite/internal/services/schedule"
	storesvc "github.com/employee-suite/employee-suite/internal/services/store"
	"github.com/employee-suite/employee-suite/internal/shopify"
	"github.com/employee-suite/employee-suite/internal/storage/repository"
)

// New accounts start with a week of full access.
const trialDays = 7

type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, "./migrations"); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	crypter, err := tokencrypt.New(cfg.TokenEncryptionKey)
	if err != nil {
		return nil, err
	}

	shopClient := shopify.NewClient(cfg.Shopify.APIKey, cfg.Shopify.APISecret,
		cfg.Shopify.APIVersion, cfg.Shopify.TestCharges)
	jwtMaker := libjwt.NewJWTMaker(cfg.JWTToken.JWTSecretKey, cfg.JWTToken.TokenTTL)

	authService := auth.New(db, jwtMaker, trialDays)
	billingService := billing.New(db, shopClient, crypter, logger, cfg.AppURL, cfg.Shopify.TestCharges)
	storeService := storesvc.New(db, shopClient, cacheRedis, crypter, logger, cfg.AppURL, cfg.Shopify.OAuthScopes)
	reportService := report.New(db, shopClient, cacheRedis, crypter, logger)
	scheduleService := schedule.New(db, reportService, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, &Services{
		Auth:     authService,
		Billing:  billingService,
		Store:    storeService,
		Report:   reportService,
		Schedule: scheduleService,
		Stores:   db,
		Shopify:  shopClient,
	}, cfg)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		_ = a.db.DB.Close()
		return err
	}
}
