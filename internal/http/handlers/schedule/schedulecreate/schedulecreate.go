// Package schedulecreate registers a recurring report delivery.
package schedulecreate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/employee-suite/employee-suite/internal/http/middlewarectx"
	"github.com/employee-suite/employee-suite/internal/http/response"
	"github.com/employee-suite/employee-suite/internal/lib/sl"
	"github.com/employee-suite/employee-suite/internal/models"
	"github.com/employee-suite/employee-suite/internal/services/report"
	"github.com/employee-suite/employee-suite/internal/services/schedule"
)

// Request carries the new schedule.
type Request struct {
	Shop           string `json:"shop" validate:"required"`
	ReportType     string `json:"report_type" validate:"required,oneof=orders inventory revenue"`
	Frequency      string `json:"frequency" validate:"required,oneof=daily weekly"`
	RecipientEmail string `json:"recipient_email" validate:"required,email"`
}

// Service is the schedule logic behind this endpoint.
type Service interface {
	Create(ctx context.Context, userUID, shopDomain, reportType, frequency, recipientEmail string) (*models.ReportSchedule, error)
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
// @Summary Create a report schedule
// @Description Registers a recurring report delivery. Scheduled sends
// @Description are gated on the plan tier.
// @Tags Schedules
// @Accept json
// @Produce json
// @Param request body Request true "New schedule"
// @Success 200 {object} map[string]any "Created schedule"
// @Failure 400 {object} response.ErrorResponse "Invalid JSON"
// @Failure 401 {object} response.ErrorResponse "Unauthorized"
// @Failure 402 {object} response.ErrorResponse "Subscription required"
// @Failure 403 {object} response.ErrorResponse "Feature not in plan"
// @Router /schedules [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.schedule.create"

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

	sched, err := h.service.Create(r.Context(), userUID, req.Shop, req.ReportType, req.Frequency, req.RecipientEmail)
	if err != nil {
		switch {
		case errors.Is(err, schedule.ErrInvalidSchedule):
			log.Error("invalid schedule parameters")
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error("invalid schedule"))
		case errors.Is(err, report.ErrSubscriptionRequired):
			log.Info("subscription required")
			w.WriteHeader(http.StatusPaymentRequired)
			render.JSON(w, r, response.Error("subscription required"))
		case errors.Is(err, report.ErrFeatureNotInPlan):
			log.Info("scheduled sends not in plan")
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("scheduled sends are not included in your plan"))
		case errors.Is(err, report.ErrStoreNotConnected):
			log.Error("store not connected", slog.String("shop", req.Shop))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("store not connected"))
		default:
			log.Error("failed to create schedule", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not create schedule"))
		}
		return
	}

	log.Info("schedule created", slog.String("schedule_id", sched.ID))
	render.JSON(w, r, response.StatusOKWithData(sched))
}
