// Package services обрабатывает события из очередей уведомлений и отправляет письма.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/tradingpro/internal/lib/sl"
	"github.com/magabrotheeeer/tradingpro/internal/lib/smtp"
	"github.com/magabrotheeeer/tradingpro/internal/metrics"
	"github.com/magabrotheeeer/tradingpro/internal/models"
)

// SettingsSource источник названия приложения для писем.
type SettingsSource interface {
	Get(ctx context.Context, key, def string) (string, error)
}

// SenderService формирует и отправляет письма по событиям.
type SenderService struct {
	transport smtp.TransportInterface
	settings  SettingsSource
	log       *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(transport smtp.TransportInterface, settings SettingsSource, log *slog.Logger) *SenderService {
	return &SenderService{
		transport: transport,
		settings:  settings,
		log:       log,
	}
}

func (s *SenderService) appName(ctx context.Context) string {
	def := models.DefaultSettings[models.SettingAppName]
	name, err := s.settings.Get(ctx, models.SettingAppName, def)
	if err != nil {
		s.log.Warn("failed to read app name, using default", sl.Err(err))
		return def
	}
	return name
}

func greeting(name string) string {
	if name == "" {
		return "Hello!"
	}
	return fmt.Sprintf("Hello, %s!", name)
}

// PaymentEmail формирует тему и текст письма об успешной оплате.
func PaymentEmail(appName string, ev models.PaymentEvent) (subject, body string) {
	subject = fmt.Sprintf("%s: payment received, invoice %s", appName, ev.InvoiceNumber)
	body = fmt.Sprintf("%s\n\nThank you for subscribing to %s.\n\n"+
		"Plan: %s\nAmount paid: Rs. %s\nInvoice: %s\nActive until: %s\n\n"+
		"You can download the invoice from your dashboard.",
		greeting(ev.Name), appName, ev.PlanType, decimal.NewFromInt(ev.Amount).StringFixed(2),
		ev.InvoiceNumber, ev.EndDate.Format(models.DateLayout))
	return subject, body
}

// ExpiringEmail формирует тему и текст напоминания об окончании подписки.
func ExpiringEmail(appName string, info models.ExpiringInfo) (subject, body string) {
	subject = fmt.Sprintf("%s: your subscription ends tomorrow", appName)
	body = fmt.Sprintf("%s\n\nYour %s subscription ends on %s.\n\n"+
		"Renew it in advance to keep access to recommendations.",
		greeting(info.Name), appName, info.EndDate.Format(models.DateLayout))
	return subject, body
}

// HandlePayment отправляет письмо по событию payment.succeeded.
func (s *SenderService) HandlePayment(ctx context.Context, body []byte) error {
	const op = "services.SenderService.HandlePayment"
	var ev models.PaymentEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("%s: error unmarshalling message: %w", op, err)
	}
	subject, text := PaymentEmail(s.appName(ctx), ev)
	if err := smtp.SendMail(s.transport, ev.Email, subject, text); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	metrics.NotificationsSent.WithLabelValues("payment").Inc()
	s.log.Info("email sent successfully", slog.String("to", ev.Email), slog.String("kind", "payment"))
	return nil
}

// HandleExpiring отправляет напоминание по событию subscription.expiring.
func (s *SenderService) HandleExpiring(ctx context.Context, body []byte) error {
	const op = "services.SenderService.HandleExpiring"
	var info models.ExpiringInfo
	if err := json.Unmarshal(body, &info); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("%s: error unmarshalling message: %w", op, err)
	}
	subject, text := ExpiringEmail(s.appName(ctx), info)
	if err := smtp.SendMail(s.transport, info.Email, subject, text); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	metrics.NotificationsSent.WithLabelValues("expiring").Inc()
	s.log.Info("email sent successfully", slog.String("to", info.Email), slog.String("kind", "expiring"))
	return nil
}
