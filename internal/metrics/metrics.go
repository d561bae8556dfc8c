// Package metrics содержит Prometheus-метрики приложения и HTTP middleware для них.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests число обработанных запросов по маршруту, методу и коду ответа.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tradingpro_http_requests_total",
		Help: "Number of HTTP requests",
	}, []string{"method", "route", "code"})

	// HTTPDuration длительность обработки запросов.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tradingpro_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// Subscriptions число оформленных подписок по тарифу.
	Subscriptions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tradingpro_subscriptions_total",
		Help: "Number of successful subscriptions",
	}, []string{"plan"})

	// Revenue сумма оплат по тарифу.
	Revenue = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tradingpro_revenue_total",
		Help: "Sum of paid amounts",
	}, []string{"plan"})

	// CouponRedemptions число применённых купонов.
	CouponRedemptions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tradingpro_coupon_redemptions_total",
		Help: "Number of redeemed coupons",
	})

	// ExpiredSubscriptions число подписок, переведённых планировщиком в inactive.
	ExpiredSubscriptions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tradingpro_expired_subscriptions_total",
		Help: "Number of subscriptions expired by the scheduler",
	})

	// NotificationsSent число отправленных писем по типу.
	NotificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tradingpro_notifications_sent_total",
		Help: "Number of e-mails sent",
	}, []string{"kind"})
)

// Middleware собирает метрики запросов. Маршрут берётся из шаблона chi,
// чтобы ID в пути не раздували число меток.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
