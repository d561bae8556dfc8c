package tradingpro

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/tradingpro/internal/cache"
	"github.com/magabrotheeeer/tradingpro/internal/chartstore"
	"github.com/magabrotheeeer/tradingpro/internal/config"
	"github.com/magabrotheeeer/tradingpro/internal/lib/jwt"
	"github.com/magabrotheeeer/tradingpro/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/tradingpro/internal/lib/sl"
	"github.com/magabrotheeeer/tradingpro/internal/migrations"
	authservice "github.com/magabrotheeeer/tradingpro/internal/services/auth"
	couponservice "github.com/magabrotheeeer/tradingpro/internal/services/coupon"
	invoiceservice "github.com/magabrotheeeer/tradingpro/internal/services/invoice"
	recservice "github.com/magabrotheeeer/tradingpro/internal/services/recommendation"
	settingsservice "github.com/magabrotheeeer/tradingpro/internal/services/settings"
	subservice "github.com/magabrotheeeer/tradingpro/internal/services/subscription"
	"github.com/magabrotheeeer/tradingpro/internal/storage/repository"
)

// App HTTP-приложение TradingPro.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	cache  *cache.Cache
	conn   *amqp.Connection
	ch     *amqp.Channel
}

// New подключает зависимости, применяет миграции, записывает настройки по умолчанию
// и создаёт администратора из конфига.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString, time.Minute)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	assets, err := chartstore.New(cfg.ChartStorage)
	if err != nil {
		_ = db.Close()
		_ = cacheRedis.Close()
		return nil, err
	}

	app := &App{
		logger: logger,
		db:     db,
		cache:  cacheRedis,
	}

	var publisher subservice.EventPublisher = rabbitmq.NopPublisher{}
	if cfg.RabbitMQURL != "" {
		app.conn, err = rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
		}
		app.ch, err = rabbitmq.SetupChannel(app.conn, rabbitmq.GetNotificationQueues())
		if err != nil {
			app.close()
			return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
		}
		publisher = rabbitmq.NewPublisher(app.ch)
	} else {
		logger.Warn("rabbitmq_url is empty, notifications are disabled")
	}

	settingsService := settingsservice.NewSettingsService(db, logger)
	if err = settingsService.SeedDefaults(ctx); err != nil {
		app.close()
		return nil, err
	}

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	authService := authservice.NewAuthService(db, jwtMaker, logger)
	if err = authService.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword, cfg.AdminName); err != nil {
		app.close()
		return nil, err
	}

	couponService := couponservice.NewCouponService(db, logger)
	subscriptionService := subservice.NewSubscriptionService(db, couponService, settingsService, publisher, logger)
	recommendationService := recservice.NewRecommendationService(db, cacheRedis, assets, logger)
	invoiceService := invoiceservice.NewInvoiceService(subscriptionService, authService, settingsService, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg.HTTPServer, Services{
		Auth:           authService,
		Subscription:   subscriptionService,
		Recommendation: recommendationService,
		Coupon:         couponService,
		Settings:       settingsService,
		Invoice:        invoiceService,
		Assets:         assets,
		DB:             db,
	})

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

// Run запускает HTTP-сервер и останавливает его при отмене ctx.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			a.logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Error("failed to close connection", sl.Err(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("failed to close redis", sl.Err(err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", sl.Err(err))
	}
}
