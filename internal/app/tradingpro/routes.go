// Package tradingpro собирает HTTP API: хранилище, кэш, брокер, сервисы и маршруты.
package tradingpro

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/tradingpro/internal/chartstore"
	"github.com/magabrotheeeer/tradingpro/internal/config"
	"github.com/magabrotheeeer/tradingpro/internal/http/handlers/account/analytics"
	"github.com/magabrotheeeer/tradingpro/internal/http/handlers/account/capital"
	"github.com/magabrotheeeer/tradingpro/internal/http/handlers/account/me"
	"github.com/magabrotheeeer/tradingpro/internal/http/handlers/admin/coupons"
	"github.com/magabrotheeeer/tradingpro/internal/http/handlers/admin/logo"
	"github.com/magabrotheeeer/tradingpro/internal/http/handlers/admin/overview"
	"github.com/magabrotheeeer/tradingpro/internal/http/handlers/admin/settings"
	"github.com/magabrotheeeer/tradingpro/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/tradingpro/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/tradingpro/internal/http/handlers/payment/invoice"
	"github.com/magabrotheeeer/tradingpro/internal/http/handlers/payment/paymentlist"
	"github.com/magabrotheeeer/tradingpro/internal/http/handlers/recommendation/create"
	"github.com/magabrotheeeer/tradingpro/internal/http/handlers/recommendation/list"
	"github.com/magabrotheeeer/tradingpro/internal/http/handlers/recommendation/read"
	"github.com/magabrotheeeer/tradingpro/internal/http/handlers/recommendation/stats"
	"github.com/magabrotheeeer/tradingpro/internal/http/handlers/recommendation/update"
	"github.com/magabrotheeeer/tradingpro/internal/http/handlers/subscription/health"
	"github.com/magabrotheeeer/tradingpro/internal/http/handlers/subscription/plans"
	"github.com/magabrotheeeer/tradingpro/internal/http/handlers/subscription/subscribe"
	"github.com/magabrotheeeer/tradingpro/internal/http/middlewarectx"
	"github.com/magabrotheeeer/tradingpro/internal/metrics"
	authservice "github.com/magabrotheeeer/tradingpro/internal/services/auth"
	couponservice "github.com/magabrotheeeer/tradingpro/internal/services/coupon"
	invoiceservice "github.com/magabrotheeeer/tradingpro/internal/services/invoice"
	recservice "github.com/magabrotheeeer/tradingpro/internal/services/recommendation"
	settingsservice "github.com/magabrotheeeer/tradingpro/internal/services/settings"
	subservice "github.com/magabrotheeeer/tradingpro/internal/services/subscription"
)

// Services набор сервисов, которые обслуживают маршруты.
type Services struct {
	Auth           *authservice.AuthService
	Subscription   *subservice.SubscriptionService
	Recommendation *recservice.RecommendationService
	Coupon         *couponservice.CouponService
	Settings       *settingsservice.SettingsService
	Invoice        *invoiceservice.InvoiceService
	Assets         chartstore.Store
	DB             health.Pinger
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg config.HTTPServer, s Services) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
		metrics.Middleware,
	)

	logoHandler := logo.New(logger, s.Assets)
	couponHandler := coupons.New(logger, s.Coupon)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(logger, cfg.RateLimit, cfg.RateBurst))
			r.Post("/register", register.New(logger, s.Auth).ServeHTTP)
			r.Post("/login", login.New(logger, s.Auth).ServeHTTP)
		})
		r.Get("/health", health.New(logger, s.DB).ServeHTTP)
		r.Get("/plans", plans.New(logger, s.Subscription).ServeHTTP)
		r.Get("/recommendations/latest", list.NewLatest(logger, s.Recommendation).ServeHTTP)
		r.Get("/stats", stats.New(logger, s.Recommendation).ServeHTTP)
		r.Get("/logo", logoHandler.Get)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(s.Auth, logger))

			r.Get("/me", me.New(logger, s.Auth).ServeHTTP)
			r.Put("/capital", capital.New(logger, s.Auth).ServeHTTP)
			r.Get("/analytics", analytics.New(logger, s.Auth, s.Recommendation).ServeHTTP)
			r.Post("/subscribe", subscribe.New(logger, s.Subscription).ServeHTTP)
			r.Get("/payments", paymentlist.New(logger, s.Subscription).ServeHTTP)
			r.Get("/payments/{id}/invoice", invoice.New(logger, s.Invoice).ServeHTTP)

			// Только с действующей подпиской
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.SubscriptionStatusMiddleware(logger, s.Auth))
				r.Get("/recommendations", list.New(logger, s.Recommendation).ServeHTTP)
				r.Get("/recommendations/{id}", read.New(logger, s.Recommendation).ServeHTTP)
				r.Get("/recommendations/{id}/chart", read.NewChart(logger, s.Recommendation).ServeHTTP)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middlewarectx.AdminOnly(logger))
				r.Post("/recommendations", create.New(logger, s.Recommendation).ServeHTTP)
				r.Put("/recommendations/{id}", update.New(logger, s.Recommendation).ServeHTTP)
				r.Get("/settings", settings.NewGet(logger, s.Settings).ServeHTTP)
				r.Put("/settings", settings.NewUpdate(logger, s.Settings).ServeHTTP)
				r.Put("/logo", logoHandler.Upload)
				r.Get("/coupons", couponHandler.List)
				r.Post("/coupons", couponHandler.Create)
				r.Delete("/coupons/{id}", couponHandler.Deactivate)
				r.Get("/overview", overview.New(logger, s.Auth).ServeHTTP)
			})
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
