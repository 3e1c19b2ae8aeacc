// Package scheduleremove deletes a report schedule.
package scheduleremove

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/employee-suite/employee-suite/internal/http/middlewarectx"
	"github.com/employee-suite/employee-suite/internal/http/response"
	"github.com/employee-suite/employee-suite/internal/lib/sl"
	"github.com/employee-suite/employee-suite/internal/services/schedule"
)

// Service is the schedule logic behind this endpoint.
type Service interface {
	Remove(ctx context.Context, id, userUID string) error
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
// @Summary Delete a report schedule
// @Description Deletes a schedule the caller owns.
// @Tags Schedules
// @Produce json
// @Param id path string true "Schedule id"
// @Success 200 {object} map[string]any "Deleted"
// @Failure 401 {object} response.ErrorResponse "Unauthorized"
// @Failure 404 {object} response.ErrorResponse "Schedule not found"
// @Router /schedules/{id} [delete]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.schedule.remove"

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

	id := chi.URLParam(r, "id")
	if err := h.service.Remove(r.Context(), id, userUID); err != nil {
		if errors.Is(err, schedule.ErrScheduleNotFound) {
			log.Error("schedule not found", slog.String("schedule_id", id))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("schedule not found"))
			return
		}
		log.Error("failed to remove schedule", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not remove schedule"))
		return
	}

	log.Info("schedule removed", slog.String("schedule_id", id))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"deleted": true,
	}))
}
