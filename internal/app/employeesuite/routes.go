package employeesuite

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/employee-suite/employee-suite/docs"
	"github.com/employee-suite/employee-suite/internal/config"
	"github.com/employee-suite/employee-suite/internal/http/handlers/auth/login"
	"github.com/employee-suite/employee-suite/internal/http/handlers/auth/register"
	billingcancel "github.com/employee-suite/employee-suite/internal/http/handlers/billing/cancel"
	"github.com/employee-suite/employee-suite/internal/http/handlers/billing/confirm"
	"github.com/employee-suite/employee-suite/internal/http/handlers/billing/createcharge"
	"github.com/employee-suite/employee-suite/internal/http/handlers/billing/subscribe"
	"github.com/employee-suite/employee-suite/internal/http/handlers/health"
	"github.com/employee-suite/employee-suite/internal/http/handlers/report/export"
	"github.com/employee-suite/employee-suite/internal/http/handlers/report/inventory"
	"github.com/employee-suite/employee-suite/internal/http/handlers/report/orders"
	"github.com/employee-suite/employee-suite/internal/http/handlers/report/revenue"
	"github.com/employee-suite/employee-suite/internal/http/handlers/schedule/schedulecreate"
	"github.com/employee-suite/employee-suite/internal/http/handlers/schedule/schedulelist"
	"github.com/employee-suite/employee-suite/internal/http/handlers/schedule/scheduleremove"
	"github.com/employee-suite/employee-suite/internal/http/handlers/store/callback"
	"github.com/employee-suite/employee-suite/internal/http/handlers/store/connect"
	"github.com/employee-suite/employee-suite/internal/http/handlers/store/uninstallwebhook"
	"github.com/employee-suite/employee-suite/internal/http/middlewarectx"
	"github.com/employee-suite/employee-suite/internal/services/auth"
	"github.com/employee-suite/employee-suite/internal/services/billing"
	"github.com/employee-suite/employee-suite/internal/services/report"
	"github.com/employee-suite/employee-suite/internal/services/schedule"
	storesvc "github.com/employee-suite/employee-suite/internal/services/store"
	"github.com/employee-suite/employee-suite/internal/shopify"
	"github.com/employee-suite/employee-suite/internal/storage/repository"
)

// Services bundles everything the route table needs.
type Services struct {
	Auth     *auth.Service
	Billing  *billing.Service
	Store    *storesvc.Service
	Report   *report.Service
	Schedule *schedule.Service
	Stores   *repository.Storage
	Shopify  *shopify.Client
}

// RegisterRoutes registers all application routes.
func RegisterRoutes(r chi.Router, logger *slog.Logger, s *Services, cfg *config.Config) {
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	// Open endpoints
	r.Post("/register", register.New(logger, s.Auth).ServeHTTP)
	r.Post("/login", login.New(logger, s.Auth).ServeHTTP)
	r.Get("/health", health.New(logger).ServeHTTP)

	// Shopify redirects into these; the principal comes from the
	// session when present and from the shop parameter otherwise.
	r.Group(func(r chi.Router) {
		r.Use(middlewarectx.PrincipalMiddleware(s.Auth, s.Stores, logger))
		r.Get("/", subscribe.New(logger).ServeHTTP)
		r.Get("/subscribe", subscribe.New(logger).ServeHTTP)
		r.Post("/billing/create-charge", createcharge.New(logger, s.Billing, cfg.AppURL).ServeHTTP)
		r.Get("/billing/confirm", confirm.New(logger, s.Billing, cfg.AppURL).ServeHTTP)
		r.Get("/store/callback", callback.New(logger, s.Store, s.Shopify, cfg.AppURL).ServeHTTP)
	})

	// Session-only endpoints
	r.Group(func(r chi.Router) {
		r.Use(middlewarectx.JWTMiddleware(s.Auth, logger))
		r.Use(middlewarectx.RateLimitMiddleware(logger))
		r.Post("/billing/cancel", billingcancel.New(logger, s.Billing).ServeHTTP)
		r.Get("/store/connect", connect.New(logger, s.Store).ServeHTTP)
		r.Get("/reports/orders", orders.New(logger, s.Report).ServeHTTP)
		r.Get("/reports/inventory", inventory.New(logger, s.Report).ServeHTTP)
		r.Get("/reports/revenue", revenue.New(logger, s.Report).ServeHTTP)
		r.Get("/reports/export", export.New(logger, s.Report).ServeHTTP)
		r.Post("/schedules", schedulecreate.New(logger, s.Schedule).ServeHTTP)
		r.Get("/schedules", schedulelist.New(logger, s.Schedule).ServeHTTP)
		r.Delete("/schedules/{id}", scheduleremove.New(logger, s.Schedule).ServeHTTP)
	})

	// Webhook endpoint, authenticated by its HMAC alone
	r.Post("/webhooks/app-uninstalled",
		uninstallwebhook.New(logger, s.Store, cfg.Shopify.WebhookSecret).ServeHTTP)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
