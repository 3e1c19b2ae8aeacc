// Package inventory serves the inventory-levels report.
package inventory

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/employee-suite/employee-suite/internal/http/middlewarectx"
	"github.com/employee-suite/employee-suite/internal/http/response"
	"github.com/employee-suite/employee-suite/internal/lib/sl"
	"github.com/employee-suite/employee-suite/internal/models"
	"github.com/employee-suite/employee-suite/internal/services/report"
)

// Service is the report logic behind this endpoint.
type Service interface {
	InventoryLevels(ctx context.Context, userUID, shopDomain string) ([]models.InventoryRow, error)
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Inventory report
// @Description Lists stock per product variant.
// @Tags Reports
// @Produce json
// @Param shop query string true "Shop domain"
// @Success 200 {object} map[string]any "Report rows"
// @Failure 401 {object} response.ErrorResponse "Unauthorized"
// @Failure 402 {object} response.ErrorResponse "Subscription required"
// @Failure 409 {object} response.ErrorResponse "Store not connected"
// @Router /reports/inventory [get]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.report.inventory"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := middlewarectx.UserUIDFromContext(r.Context())
	if !ok {
		log.Error("no acting account in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("authentication required"))
		return
	}
	shop := r.URL.Query().Get("shop")

	rows, err := h.service.InventoryLevels(r.Context(), userUID, shop)
	if err != nil {
		switch {
		case errors.Is(err, report.ErrSubscriptionRequired):
			log.Info("subscription required", slog.String("shop", shop))
			w.WriteHeader(http.StatusPaymentRequired)
			render.JSON(w, r, response.Error("subscription required"))
		case errors.Is(err, report.ErrStoreNotConnected):
			log.Error("store not connected", slog.String("shop", shop))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("store not connected"))
		default:
			log.Error("failed to build inventory report", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not build report"))
		}
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"shop":      shop,
		"inventory": rows,
	}))
}
