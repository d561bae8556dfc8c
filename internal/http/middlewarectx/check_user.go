package middlewarectx

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/magabrotheeeer/tradingpro/internal/http/response"
	"github.com/magabrotheeeer/tradingpro/internal/lib/sl"
)

// SubscriptionStatusMiddleware создает middleware для проверки статуса подписки пользователя.
// Администраторы проходят без проверки.
func SubscriptionStatusMiddleware(log *slog.Logger, checker SubscriptionChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFrom(r.Context())
			if !ok {
				log.Error("user identification missing")
				response.JSONError(w, r, http.StatusUnauthorized, "user identification missing")
				return
			}
			if id.IsAdmin() {
				next.ServeHTTP(w, r)
				return
			}

			active, err := checker.HasActiveSubscription(r.Context(), id.UserID, time.Now())
			if err != nil {
				log.Error("failed to get subscription status", sl.Err(err))
				response.JSONError(w, r, http.StatusInternalServerError, "internal service error")
				return
			}
			if !active {
				log.Info("subscription inactive, access denied", slog.Int64("user_id", id.UserID))
				response.JSONError(w, r, http.StatusForbidden, "active subscription required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
