// Package createcharge starts a subscription purchase: it creates the
// recurring charge and sends the merchant to Shopify's confirmation
// page.
package createcharge

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/employee-suite/employee-suite/internal/http/middlewarectx"
	"github.com/employee-suite/employee-suite/internal/http/response"
	"github.com/employee-suite/employee-suite/internal/http/webpage"
	"github.com/employee-suite/employee-suite/internal/lib/sl"
	"github.com/employee-suite/employee-suite/internal/services/billing"
)

// Service is the billing operation behind this endpoint.
type Service interface {
	StartSubscription(ctx context.Context, userUID, shopDomain, tier string) (string, error)
}

type Handler struct {
	log     *slog.Logger
	service Service
	appURL  string
}

func New(log *slog.Logger, service Service, appURL string) *Handler {
	return &Handler{
		log:     log,
		service: service,
		appURL:  appURL,
	}
}

func (h *Handler) redirect(w http.ResponseWriter, log *slog.Logger, target string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := webpage.RenderRedirect(w, target); err != nil {
		log.Error("failed to render redirect page", sl.Err(err))
	}
}

func (h *Handler) backToPlans(w http.ResponseWriter, log *slog.Logger, shop, message string) {
	target := h.appURL + "/subscribe?shop=" + url.QueryEscape(shop) +
		"&message=" + url.QueryEscape(message)
	h.redirect(w, log, target)
}

// ServeHTTP godoc
// @Summary Create a recurring charge
// @Description Creates the charge for the chosen tier and returns the
// @Description frame-escaping redirect page pointing at Shopify's
// @Description confirmation URL. Billing errors redirect back to the
// @Description plan picker with a banner message.
// @Tags Billing
// @Accept x-www-form-urlencoded
// @Produce html
// @Param shop formData string true "Shop domain"
// @Param plan formData string true "Tier name"
// @Success 200 {string} string "Redirect page"
// @Failure 401 {object} response.ErrorResponse "No acting account"
// @Router /billing/create-charge [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.createcharge"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	if err := r.ParseForm(); err != nil {
		log.Error("failed to parse form", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid form"))
		return
	}
	shop := r.Form.Get("shop")
	plan := r.Form.Get("plan")

	userUID, ok := middlewarectx.UserUIDFromContext(r.Context())
	if !ok {
		log.Error("no acting account in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("authentication required"))
		return
	}

	confirmationURL, err := h.service.StartSubscription(r.Context(), userUID, shop, plan)
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrUnknownTier):
			log.Error("unknown tier requested", slog.String("plan", plan))
			h.backToPlans(w, log, shop, "unknown plan")
		case errors.Is(err, billing.ErrAlreadySubscribed):
			log.Info("already subscribed", slog.String("shop", shop))
			h.redirect(w, log, h.appURL+"/?shop="+url.QueryEscape(shop))
		case errors.Is(err, billing.ErrStoreNotConnected):
			log.Error("store not connected", slog.String("shop", shop))
			h.backToPlans(w, log, shop, "connect your store first")
		default:
			log.Error("failed to create charge", sl.Err(err))
			h.backToPlans(w, log, shop, "billing is temporarily unavailable, please try again")
		}
		return
	}

	log.Info("sending merchant to confirmation page", slog.String("shop", shop))
	h.redirect(w, log, confirmationURL)
}
