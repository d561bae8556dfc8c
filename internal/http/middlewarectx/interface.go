package middlewarectx

import (
	"context"
	"time"

	"github.com/magabrotheeeer/tradingpro/internal/models"
)

// Service описывает интерфейс сервиса для валидации JWT токена.
type Service interface {
	ValidateToken(ctx context.Context, token string) (*models.Identity, error)
}

// SubscriptionChecker проверяет, действует ли подписка пользователя.
type SubscriptionChecker interface {
	HasActiveSubscription(ctx context.Context, userID int64, today time.Time) (bool, error)
}
