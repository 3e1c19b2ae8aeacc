// Package cancel implements subscription cancellation.
package cancel

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/employee-suite/employee-suite/internal/http/middlewarectx"
	"github.com/employee-suite/employee-suite/internal/http/response"
	"github.com/employee-suite/employee-suite/internal/lib/sl"
)

// Request names the shop whose subscription is cancelled.
type Request struct {
	Shop string `json:"shop" validate:"required"`
}

// Service is the billing operation behind this endpoint.
type Service interface {
	CancelSubscription(ctx context.Context, userUID, shopDomain string) error
}

type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Cancel the subscription
// @Description Cancels the active plan and its remote charge. The
// @Description operation is idempotent: cancelling an already-cancelled
// @Description subscription succeeds.
// @Tags Billing
// @Accept json
// @Produce json
// @Param request body Request true "Shop domain"
// @Success 200 {object} map[string]any "Cancelled"
// @Failure 400 {object} response.ErrorResponse "Invalid JSON"
// @Failure 401 {object} response.ErrorResponse "Unauthorized"
// @Failure 500 {object} response.ErrorResponse "Cancellation failed"
// @Router /billing/cancel [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.cancel"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	userUID, ok := middlewarectx.UserUIDFromContext(r.Context())
	if !ok {
		log.Error("no acting account in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("authentication required"))
		return
	}

	if err := h.service.CancelSubscription(r.Context(), userUID, req.Shop); err != nil {
		log.Error("failed to cancel subscription", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not cancel subscription"))
		return
	}

	log.Info("subscription cancelled", slog.String("shop", req.Shop))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"shop":      req.Shop,
		"cancelled": true,
	}))
}
