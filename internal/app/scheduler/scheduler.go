// Package scheduler собирает процесс планировщика: раз в interval переводит
// истёкшие подписки в inactive и публикует события о подписках, которые
// заканчиваются завтра.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/tradingpro/internal/config"
	"github.com/magabrotheeeer/tradingpro/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/tradingpro/internal/lib/sl"
	schedulerservice "github.com/magabrotheeeer/tradingpro/internal/services/scheduler"
	"github.com/magabrotheeeer/tradingpro/internal/storage/repository"
)

// App представляет приложение планировщика.
type App struct {
	schedulerService *schedulerservice.SchedulerService
	interval         time.Duration
	db               *repository.Storage
	conn             *amqp.Connection
	ch               *amqp.Channel
	logger           *slog.Logger
}

func waitForDB(db *repository.Storage) error {
	b := backoff.WithMaxRetries(backoff.NewConstantBackOff(3*time.Second), 10)
	if err := backoff.Retry(func() error { return repository.CheckDatabaseReady(db) }, b); err != nil {
		return fmt.Errorf("database not ready after retries: %w", err)
	}
	return nil
}

// New создает новый экземпляр приложения планировщика.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString, time.Minute)
	if err != nil {
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	if err = waitForDB(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	app := &App{
		interval: cfg.SchedulerInterval,
		db:       db,
		logger:   logger,
	}

	var publisher schedulerservice.EventPublisher = rabbitmq.NopPublisher{}
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
		logger.Warn("rabbitmq_url is empty, expiry notifications are disabled")
	}

	app.schedulerService = schedulerservice.NewSchedulerService(db, publisher, logger)
	return app, nil
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
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", sl.Err(err))
	}
}

// Run запускает планировщик и блокируется до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("scheduler started", slog.Duration("interval", a.interval))
	a.schedulerService.Run(ctx, a.interval)

	a.logger.Info("shutting down scheduler service")
	a.close()
	return nil
}
