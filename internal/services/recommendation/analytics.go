package services

import (
	"context"
	"fmt"
	"time"

	"github.com/magabrotheeeer/tradingpro/internal/lib/month"
	"github.com/magabrotheeeer/tradingpro/internal/models"
)

// AllocationShare доля капитала, которая вкладывается в каждую рекомендацию.
const AllocationShare = 0.05

// MonthlyProjection считает прогноз прибыли: на каждую сделку выделяется
// AllocationShare от капитала, прибыль = выделенная сумма * P/L / 100.
// Сделки без P/L пропускаются. При капитале <= 0 прогноз нулевой.
func MonthlyProjection(capital float64, trades []*models.Recommendation) (allocation, profit float64) {
	if capital <= 0 {
		return 0, 0
	}
	allocation = capital * AllocationShare
	for _, t := range trades {
		if t.ProfitLossPercent == nil {
			continue
		}
		profit += allocation * *t.ProfitLossPercent / 100
	}
	return allocation, profit
}

// Analytics собирает аналитику за календарный месяц, в который попадает now:
// закрытые в нём сделки (по дате создания), их статистику и прогноз для капитала.
func (s *RecommendationService) Analytics(ctx context.Context, capital float64, now time.Time) (*models.Analytics, error) {
	const op = "services.RecommendationService.Analytics"

	from, to := month.Bounds(now)
	trades, err := s.repo.ListClosedRecommendationsCreatedBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if trades == nil {
		trades = []*models.Recommendation{}
	}
	allocation, profit := MonthlyProjection(capital, trades)
	return &models.Analytics{
		Month:              month.Label(now),
		Capital:            capital,
		PerStockAllocation: allocation,
		MonthlyProfit:      profit,
		Stats:              ComputeStats(trades),
		Trades:             trades,
	}, nil
}
