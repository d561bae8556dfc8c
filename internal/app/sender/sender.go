// Package sender собирает процесс рассылки: читает события из RabbitMQ
// и отправляет письма по SMTP.
package sender

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/tradingpro/internal/config"
	"github.com/magabrotheeeer/tradingpro/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/tradingpro/internal/lib/sl"
	"github.com/magabrotheeeer/tradingpro/internal/lib/smtp"
	senderservice "github.com/magabrotheeeer/tradingpro/internal/services/sender"
	settingsservice "github.com/magabrotheeeer/tradingpro/internal/services/settings"
	"github.com/magabrotheeeer/tradingpro/internal/storage/repository"
)

// App приложение рассылки уведомлений.
type App struct {
	db            *repository.Storage
	conn          *amqp.Connection
	ch            *amqp.Channel
	senderService *senderservice.SenderService
	logger        *slog.Logger
}

// New подключается к базе (для названия приложения в письмах) и к брокеру.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if cfg.RabbitMQURL == "" {
		return nil, fmt.Errorf("rabbitmq_url is required for sender")
	}

	db, err := repository.New(cfg.StorageConnectionString, time.Minute)
	if err != nil {
		return nil, err
	}
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		_ = conn.Close()
		_ = db.Close()
		return nil, err
	}

	transport := smtp.NewTransport(cfg.SMTP, logger)
	settingsService := settingsservice.NewSettingsService(db, logger)
	senderService := senderservice.NewSenderService(transport, settingsService, logger)

	return &App{
		db:            db,
		conn:          conn,
		ch:            ch,
		senderService: senderService,
		logger:        logger,
	}, nil
}

// Run запускает потребителей очередей и блокируется до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	paymentsWG, err := rabbitmq.ConsumerMessage(ctx, a.ch, rabbitmq.QueuePayment, a.logger, a.senderService.HandlePayment)
	if err != nil {
		a.logger.Error("failed to start payment consumer", sl.Err(err))
		return err
	}

	expiringWG, err := rabbitmq.ConsumerMessage(ctx, a.ch, rabbitmq.QueueExpiring, a.logger, a.senderService.HandleExpiring)
	if err != nil {
		a.logger.Error("failed to start expiring consumer", sl.Err(err))
		return err
	}

	<-ctx.Done()
	a.logger.Info("Sender service shutting down gracefully")
	paymentsWG.Wait()
	expiringWG.Wait()

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", sl.Err(err))
	}
	return nil
}
