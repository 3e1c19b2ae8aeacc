// Package export serves a report as a CSV download.
package export

import (
	"context"
	"errors"
	"fmt"
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

// Service is the export logic behind this endpoint.
type Service interface {
	ExportCSV(ctx context.Context, userUID, shopDomain, reportType string) ([]byte, string, error)
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
// @Summary Export a report as CSV
// @Description Builds the named report and returns it as a CSV
// @Description attachment. CSV export is gated on the plan tier.
// @Tags Reports
// @Produce text/csv
// @Param shop query string true "Shop domain"
// @Param type query string true "Report type" Enums(orders, inventory, revenue)
// @Success 200 {string} string "CSV file"
// @Failure 400 {object} response.ErrorResponse "Unknown report type"
// @Failure 401 {object} response.ErrorResponse "Unauthorized"
// @Failure 402 {object} response.ErrorResponse "Subscription required"
// @Failure 403 {object} response.ErrorResponse "Feature not in plan"
// @Router /reports/export [get]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.report.export"

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

	q := r.URL.Query()
	shop := q.Get("shop")
	reportType := q.Get("type")
	if !models.ValidReportType(reportType) {
		log.Error("unknown report type", slog.String("type", reportType))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("unknown report type"))
		return
	}

	csvData, filename, err := h.service.ExportCSV(r.Context(), userUID, shop, reportType)
	if err != nil {
		switch {
		case errors.Is(err, report.ErrSubscriptionRequired):
			log.Info("subscription required", slog.String("shop", shop))
			w.WriteHeader(http.StatusPaymentRequired)
			render.JSON(w, r, response.Error("subscription required"))
		case errors.Is(err, report.ErrFeatureNotInPlan):
			log.Info("csv export not in plan", slog.String("shop", shop))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("csv export is not included in your plan"))
		case errors.Is(err, report.ErrStoreNotConnected):
			log.Error("store not connected", slog.String("shop", shop))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("store not connected"))
		default:
			log.Error("failed to export report", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not export report"))
		}
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := w.Write(csvData); err != nil {
		log.Error("failed to write csv body", sl.Err(err))
	}
}
