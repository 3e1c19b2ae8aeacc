// Package callback finishes the Shopify OAuth flow.
package callback

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/employee-suite/employee-suite/internal/http/response"
	"github.com/employee-suite/employee-suite/internal/http/webpage"
	"github.com/employee-suite/employee-suite/internal/lib/sl"
	"github.com/employee-suite/employee-suite/internal/models"
	storesvc "github.com/employee-suite/employee-suite/internal/services/store"
)

// Service is the connection flow behind this endpoint.
type Service interface {
	CompleteConnect(ctx context.Context, shopDomain, code, state string) (*models.Store, error)
}

// HMACVerifier checks the signature Shopify puts on the callback query.
type HMACVerifier interface {
	VerifyCallbackHMAC(params url.Values) bool
}

type Handler struct {
	log      *slog.Logger
	service  Service
	verifier HMACVerifier
	appURL   string
}

func New(log *slog.Logger, service Service, verifier HMACVerifier, appURL string) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		verifier: verifier,
		appURL:   appURL,
	}
}

// ServeHTTP godoc
// @Summary OAuth callback
// @Description Verifies the callback HMAC, exchanges the code for an
// @Description access token and stores it encrypted. On success the
// @Description merchant lands on the plan picker.
// @Tags Store
// @Produce html
// @Param shop query string true "Shop domain"
// @Param code query string true "Authorization code"
// @Param state query string true "State nonce"
// @Param hmac query string true "Query signature"
// @Success 200 {string} string "Redirect page"
// @Failure 401 {object} response.ErrorResponse "Bad signature or state"
// @Router /store/callback [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.store.callback"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	q := r.URL.Query()
	shop := q.Get("shop")

	if !h.verifier.VerifyCallbackHMAC(q) {
		log.Error("callback hmac verification failed", slog.String("shop", shop))
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("invalid signature"))
		return
	}

	st, err := h.service.CompleteConnect(r.Context(), shop, q.Get("code"), q.Get("state"))
	if err != nil {
		switch {
		case errors.Is(err, storesvc.ErrInvalidShopDomain):
			log.Error("invalid shop domain", slog.String("shop", shop))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid shop domain"))
		case errors.Is(err, storesvc.ErrInvalidState):
			log.Error("unknown or expired oauth state")
			w.WriteHeader(http.StatusUnauthorized)
			render.JSON(w, r, response.Error("invalid oauth state"))
		default:
			log.Error("failed to complete store connection", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not connect store"))
		}
		return
	}

	log.Info("store connected", slog.String("shop", st.ShopDomain))
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	target := h.appURL + "/subscribe?shop=" + url.QueryEscape(st.ShopDomain)
	if err := webpage.RenderRedirect(w, target); err != nil {
		log.Error("failed to render redirect page", sl.Err(err))
	}
}
