package middlewarectx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/employee-suite/employee-suite/internal/http/response"
	"github.com/employee-suite/employee-suite/internal/lib/sl"
	"github.com/employee-suite/employee-suite/internal/models"
	"github.com/employee-suite/employee-suite/internal/storage/repository"
)

// StoreLookup resolves a shop domain to its connected store.
type StoreLookup interface {
	GetStoreByShopDomain(ctx context.Context, shopDomain string) (*models.Store, error)
}

// PrincipalMiddleware resolves the acting account for routes Shopify
// redirects into. The session token wins when present; without one the
// shop query parameter is mapped to the store's owner. Billing
// callbacks arrive as top-level redirects from Shopify's confirmation
// page, where no session exists yet.
func PrincipalMiddleware(auth TokenValidator, stores StoreLookup, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.PrincipalMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			if tokenStr := bearerToken(r); tokenStr != "" {
				claims, err := auth.ValidateToken(r.Context(), tokenStr)
				if err == nil {
					ctx := context.WithValue(r.Context(), User, claims.Username)
					ctx = context.WithValue(ctx, Role, claims.Role)
					ctx = context.WithValue(ctx, UserUID, claims.UserUID)
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
				log.Warn("session token rejected, falling back to shop lookup", sl.Err(err))
			}

			shop := r.URL.Query().Get("shop")
			if shop == "" {
				log.Error("no session and no shop parameter")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("authentication required"))
				return
			}

			st, err := stores.GetStoreByShopDomain(r.Context(), shop)
			if err != nil {
				if errors.Is(err, repository.ErrStoreNotFound) {
					log.Error("shop is not connected", slog.String("shop", shop))
					render.Status(r, http.StatusUnauthorized)
					render.JSON(w, r, response.Error("authentication required"))
					return
				}
				log.Error("failed to resolve shop", sl.Err(err))
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error("internal error"))
				return
			}

			ctx := context.WithValue(r.Context(), UserUID, st.UserUID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
