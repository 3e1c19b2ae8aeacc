// Package confirm handles the return redirect from Shopify's charge
// confirmation page and finishes the activation.
package confirm

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

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
	ConfirmCharge(ctx context.Context, userUID, shopDomain, tier string, chargeID int64) error
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
// @Summary Confirm a charge
// @Description Called by Shopify after the merchant decides on the
// @Description charge. The charge status is re-fetched and, if the
// @Description merchant accepted, the charge is activated and the plan
// @Description recorded. Every outcome ends in a redirect: the
// @Description dashboard on success, the plan picker with a message
// @Description otherwise.
// @Tags Billing
// @Produce html
// @Param shop query string true "Shop domain"
// @Param plan query string true "Tier name"
// @Param charge_id query string true "Recurring charge id"
// @Success 200 {string} string "Redirect page"
// @Router /billing/confirm [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.confirm"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	q := r.URL.Query()
	shop := q.Get("shop")
	plan := q.Get("plan")

	chargeID, err := strconv.ParseInt(q.Get("charge_id"), 10, 64)
	if err != nil {
		log.Error("callback carries no usable charge_id", slog.String("raw", q.Get("charge_id")))
		h.backToPlans(w, log, shop, "we could not verify your purchase, please try again")
		return
	}

	userUID, ok := middlewarectx.UserUIDFromContext(r.Context())
	if !ok {
		log.Error("no acting account in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("authentication required"))
		return
	}

	err = h.service.ConfirmCharge(r.Context(), userUID, shop, plan, chargeID)
	switch {
	case err == nil:
		log.Info("subscription confirmed", slog.String("shop", shop), slog.Int64("charge_id", chargeID))
		h.redirect(w, log, h.appURL+"/?shop="+url.QueryEscape(shop)+"&message="+url.QueryEscape("subscription active"))
	case errors.Is(err, billing.ErrChargeDeclined):
		log.Info("charge declined by merchant", slog.String("shop", shop))
		h.backToPlans(w, log, shop, "the charge was declined")
	case errors.Is(err, billing.ErrChargeUnverifiable):
		log.Error("charge unverifiable", sl.Err(err))
		h.backToPlans(w, log, shop, "we could not verify your purchase, please try again")
	case errors.Is(err, billing.ErrStoreNotConnected):
		log.Error("store not connected", slog.String("shop", shop))
		h.backToPlans(w, log, shop, "connect your store first")
	case errors.Is(err, billing.ErrUnknownTier):
		log.Error("unknown tier on callback", slog.String("plan", plan))
		h.backToPlans(w, log, shop, "unknown plan")
	default:
		log.Error("failed to confirm charge", sl.Err(err))
		h.backToPlans(w, log, shop, "billing is temporarily unavailable, please try again")
	}
}
