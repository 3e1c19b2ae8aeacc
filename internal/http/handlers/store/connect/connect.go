// Package connect starts the Shopify OAuth flow for a store.
package connect

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/employee-suite/employee-suite/internal/http/middlewarectx"
	"github.com/employee-suite/employee-suite/internal/http/response"
	"github.com/employee-suite/employee-suite/internal/http/webpage"
	"github.com/employee-suite/employee-suite/internal/lib/sl"
	"github.com/employee-suite/employee-suite/internal/services/store"
)

// Service is the connection flow behind this endpoint.
type Service interface {
	BeginConnect(ctx context.Context, userUID, shopDomain string) (string, error)
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
// @Summary Connect a store
// @Description Starts the OAuth flow and redirects the merchant to
// @Description Shopify's authorize page.
// @Tags Store
// @Produce html
// @Param shop query string true "Shop domain"
// @Success 200 {string} string "Redirect page"
// @Failure 400 {object} response.ErrorResponse "Invalid shop domain"
// @Failure 401 {object} response.ErrorResponse "Unauthorized"
// @Router /store/connect [get]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.store.connect"

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
	authorizeURL, err := h.service.BeginConnect(r.Context(), userUID, shop)
	if err != nil {
		if errors.Is(err, store.ErrInvalidShopDomain) {
			log.Error("invalid shop domain", slog.String("shop", shop))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid shop domain"))
			return
		}
		log.Error("failed to start oauth flow", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not start store connection"))
		return
	}

	log.Info("sending merchant to authorize page", slog.String("shop", shop))
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := webpage.RenderRedirect(w, authorizeURL); err != nil {
		log.Error("failed to render redirect page", sl.Err(err))
	}
}
