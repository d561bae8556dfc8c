package register

import (
	"context"

	"github.com/magabrotheeeer/tradingpro/internal/models"
)

// Service описывает регистрацию пользователя.
type Service interface {
	Register(ctx context.Context, req models.RegisterRequest) (int64, error)
}
