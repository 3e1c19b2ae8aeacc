// Package subscribe renders the plan picker for the embedded app.
package subscribe

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/employee-suite/employee-suite/internal/http/webpage"
	"github.com/employee-suite/employee-suite/internal/lib/sl"
	"github.com/employee-suite/employee-suite/internal/models"
)

type Handler struct {
	log *slog.Logger
}

func New(log *slog.Logger) *Handler {
	return &Handler{log: log}
}

// ServeHTTP godoc
// @Summary Plan picker
// @Description Renders the HTML page listing the sellable tiers. A
// @Description message query parameter is shown as a banner, which is
// @Description how billing errors surface after a redirect.
// @Tags Billing
// @Produce html
// @Param shop query string true "Shop domain"
// @Param message query string false "Banner message"
// @Success 200 {string} string "HTML page"
// @Router /subscribe [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.subscribe"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	page := webpage.SubscribePage{
		Shop:    r.URL.Query().Get("shop"),
		Message: r.URL.Query().Get("message"),
		Tiers:   models.PlanCatalog,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := webpage.RenderSubscribe(w, page); err != nil {
		log.Error("failed to render subscribe page", sl.Err(err))
	}
}
