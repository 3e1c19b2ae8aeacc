// Package uninstallwebhook handles Shopify's app/uninstalled webhook.
package uninstallwebhook

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/employee-suite/employee-suite/internal/http/response"
	"github.com/employee-suite/employee-suite/internal/lib/sl"
	"github.com/employee-suite/employee-suite/internal/shopify"
)

// Service is the uninstall logic behind this endpoint.
type Service interface {
	HandleUninstall(ctx context.Context, shopDomain string) error
}

type Handler struct {
	log           *slog.Logger
	service       Service
	webhookSecret string
}

func New(log *slog.Logger, service Service, webhookSecret string) *Handler {
	return &Handler{
		log:           log,
		service:       service,
		webhookSecret: webhookSecret,
	}
}

// ServeHTTP godoc
// @Summary App uninstalled webhook
// @Description Deactivates the store and resets its owner's local
// @Description subscription state. Shopify retries on non-2xx, so a
// @Description failed deactivation returns 500 to get redelivered.
// @Tags Store
// @Accept json
// @Produce json
// @Param X-Shopify-Hmac-Sha256 header string true "Webhook signature"
// @Param X-Shopify-Shop-Domain header string true "Shop domain"
// @Success 200 {object} response.Response "Processed"
// @Failure 401 {object} response.ErrorResponse "Bad signature"
// @Router /webhooks/app-uninstalled [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.store.uninstallwebhook"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid body"))
		return
	}

	if !shopify.VerifyWebhookHMAC(h.webhookSecret, body, r.Header.Get("X-Shopify-Hmac-Sha256")) {
		log.Error("webhook hmac verification failed")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("invalid signature"))
		return
	}

	shop := r.Header.Get("X-Shopify-Shop-Domain")
	if shop == "" {
		log.Error("webhook carries no shop domain")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("missing shop domain"))
		return
	}

	if err := h.service.HandleUninstall(r.Context(), shop); err != nil {
		log.Error("failed to process uninstall", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not process webhook"))
		return
	}

	log.Info("uninstall processed", slog.String("shop", shop))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{"processed": true}))
}
