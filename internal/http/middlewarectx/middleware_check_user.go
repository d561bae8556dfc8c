package middlewarectx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/tradingpro/internal/http/response"
)

// AdminOnly пропускает дальше только запросы администратора.
// Должен стоять после JWTMiddleware.
func AdminOnly(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFrom(r.Context())
			if !ok {
				log.Error("user identification missing")
				response.JSONError(w, r, http.StatusUnauthorized, "user identification missing")
				return
			}
			if !id.IsAdmin() {
				log.Warn("admin access denied",
					slog.Int64("user_id", id.UserID),
					slog.String("request_id", middleware.GetReqID(r.Context())),
				)
				response.JSONError(w, r, http.StatusForbidden, "admin access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
