// Package services реализует фоновые задачи: перевод истёкших подписок в inactive
// и публикацию напоминаний о подписках, которые заканчиваются завтра.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/tradingpro/internal/lib/month"
	"github.com/magabrotheeeer/tradingpro/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/tradingpro/internal/lib/sl"
	"github.com/magabrotheeeer/tradingpro/internal/metrics"
	"github.com/magabrotheeeer/tradingpro/internal/models"
)

// SubscriptionRepository методы хранилища, которые нужны планировщику.
type SubscriptionRepository interface {
	// ExpireLapsed переводит в inactive подписки с датой окончания раньше today.
	ExpireLapsed(ctx context.Context, today time.Time) (int64, error)
	FindSubscriptionsEndingOn(ctx context.Context, day time.Time) ([]*models.User, error)
}

// EventPublisher публикует события в брокер.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// SchedulerService выполняет периодические задачи по подпискам.
type SchedulerService struct {
	repo      SubscriptionRepository
	publisher EventPublisher
	log       *slog.Logger
	now       func() time.Time
}

// NewSchedulerService создает новый экземпляр SchedulerService.
func NewSchedulerService(repo SubscriptionRepository, publisher EventPublisher, log *slog.Logger) *SchedulerService {
	return &SchedulerService{
		repo:      repo,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// Run выполняет RunOnce сразу и затем каждые interval, пока ctx не отменён.
func (s *SchedulerService) Run(ctx context.Context, interval time.Duration) {
	s.runLogged(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.runLogged(ctx)
		}
	}
}

func (s *SchedulerService) runLogged(ctx context.Context) {
	if err := s.RunOnce(ctx, s.now()); err != nil {
		s.log.Error("scheduler run failed", sl.Err(err))
	}
}

// RunOnce выполняет один проход: сначала истекшие подписки переводятся в inactive,
// затем по каждой подписке, которая заканчивается завтра, публикуется напоминание.
// Ошибка публикации отдельного напоминания не прерывает проход.
func (s *SchedulerService) RunOnce(ctx context.Context, now time.Time) error {
	const op = "services.SchedulerService.RunOnce"
	today := month.Day(now)

	expired, err := s.repo.ExpireLapsed(ctx, today)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if expired > 0 {
		metrics.ExpiredSubscriptions.Add(float64(expired))
		s.log.Info("expired subscriptions deactivated", slog.Int64("count", expired))
	}

	tomorrow := today.AddDate(0, 0, 1)
	users, err := s.repo.FindSubscriptionsEndingOn(ctx, tomorrow)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if len(users) == 0 {
		s.log.Info("no expiring subscriptions found")
		return nil
	}
	s.log.Info("found expiring subscriptions", slog.Int("count", len(users)))
	for _, u := range users {
		info := models.ExpiringInfo{UserID: u.ID, Email: u.Email, Name: u.Name, EndDate: tomorrow}
		if u.SubscriptionEndDate != nil {
			info.EndDate = *u.SubscriptionEndDate
		}
		if err = s.publisher.Publish(ctx, rabbitmq.RoutingSubscriptionExpiring, info); err != nil {
			s.log.Error("failed to publish message", slog.Int64("user_id", u.ID), sl.Err(err))
		}
	}
	return nil
}
