// Package services реализует журнал рекомендаций: публикацию и закрытие сделок,
// расчёт прибыли/убытка, статистику и месячный прогноз доходности.
package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/tradingpro/internal/chartstore"
	"github.com/magabrotheeeer/tradingpro/internal/lib/sl"
	"github.com/magabrotheeeer/tradingpro/internal/models"
)

const (
	// StatsCacheKey ключ кэша статистики по закрытым сделкам.
	StatsCacheKey = "recommendations:stats"
	statsCacheTTL = 10 * time.Minute
	// LatestLimit число рекомендаций в публичной витрине.
	LatestLimit = 5
)

// RecommendationRepository определяет методы хранения рекомендаций.
type RecommendationRepository interface {
	CreateRecommendation(ctx context.Context, r models.Recommendation) (int64, error)
	UpdateRecommendation(ctx context.Context, r models.Recommendation) error
	GetRecommendation(ctx context.Context, id int64) (*models.Recommendation, error)
	ListRecommendations(ctx context.Context, limit int) ([]*models.Recommendation, error)
	ListClosedRecommendations(ctx context.Context) ([]*models.Recommendation, error)
	ListClosedRecommendationsCreatedBetween(ctx context.Context, from, to time.Time) ([]*models.Recommendation, error)
}

// Cache определяет методы кэша, которыми пользуется сервис.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// ChartUpload загружаемое изображение графика.
type ChartUpload struct {
	Filename string
	Body     io.Reader
}

// RecommendationService бизнес-логика рекомендаций.
type RecommendationService struct {
	repo   RecommendationRepository
	cache  Cache
	charts chartstore.Store
	log    *slog.Logger
	now    func() time.Time
}

// NewRecommendationService создает новый экземпляр RecommendationService.
func NewRecommendationService(repo RecommendationRepository, cache Cache, charts chartstore.Store,
	log *slog.Logger) *RecommendationService {
	return &RecommendationService{
		repo:   repo,
		cache:  cache,
		charts: charts,
		log:    log,
		now:    time.Now,
	}
}

// ProfitLossPercent считает доходность сделки в процентах от цены входа.
// Для SELL доход получается при падении цены.
func ProfitLossPercent(direction string, entry, exit float64) *float64 {
	if entry <= 0 || exit <= 0 {
		return nil
	}
	var pl float64
	if direction == models.DirectionSell {
		pl = (entry - exit) / entry * 100
	} else {
		pl = (exit - entry) / entry * 100
	}
	return &pl
}

// ComputeStats считает агрегаты по закрытым сделкам. Сделки без P/L учитываются
// в общем числе и среднем как нулевые.
func ComputeStats(closed []*models.Recommendation) models.Stats {
	var st models.Stats
	st.TotalTrades = len(closed)
	if st.TotalTrades == 0 {
		return st
	}
	var sum float64
	for _, r := range closed {
		if r.ProfitLossPercent == nil {
			continue
		}
		sum += *r.ProfitLossPercent
		if *r.ProfitLossPercent > 0 {
			st.WinningTrades++
		}
	}
	st.WinRate = float64(st.WinningTrades) / float64(st.TotalTrades)
	st.WinRatePercent = st.WinRate * 100
	st.AvgReturn = sum / float64(st.TotalTrades)
	return st
}

// Create публикует новую рекомендацию. Если передан график с допустимым
// расширением, он сохраняется в хранилище; недопустимый файл пропускается.
func (s *RecommendationService) Create(ctx context.Context, in models.DummyRecommendation, chart *ChartUpload) (int64, error) {
	const op = "services.RecommendationService.Create"

	if in.EntryPrice <= 0 {
		return 0, fmt.Errorf("%s: %w", op, models.ErrInvalidEntryPrice)
	}
	rec := models.Recommendation{
		StockName:   strings.TrimSpace(in.StockName),
		StockSymbol: strings.ToUpper(strings.TrimSpace(in.StockSymbol)),
		Direction:   strings.ToUpper(in.Direction),
		EntryPrice:  in.EntryPrice,
		TargetPrice: in.TargetPrice,
		StopLoss:    in.StopLoss,
		Notes:       in.Notes,
	}

	if chart != nil && chart.Filename != "" {
		ext, ct, ok := chartstore.AllowedImage(chart.Filename)
		if ok {
			key := chartstore.ChartKey(rec.StockSymbol, s.now(), ext)
			if err := s.charts.Put(ctx, key, chart.Body, ct); err != nil {
				return 0, fmt.Errorf("%s: %w", op, err)
			}
			rec.ChartImage = &key
		} else {
			s.log.Warn("chart skipped: unsupported file type", slog.String("filename", chart.Filename))
		}
	}

	id, err := s.repo.CreateRecommendation(ctx, rec)
	if err != nil {
		if rec.ChartImage != nil {
			if delErr := s.charts.Delete(ctx, *rec.ChartImage); delErr != nil {
				s.log.Error("failed to remove orphan chart", sl.Err(delErr))
			}
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidateStats(ctx)
	s.log.Info("recommendation created", slog.Int64("id", id), slog.String("symbol", rec.StockSymbol))
	return id, nil
}

// Update меняет статус, цену выхода и заметки. P/L пересчитывается при каждом
// обновлении и заполняется только для закрытой сделки с ценой выхода > 0.
func (s *RecommendationService) Update(ctx context.Context, id int64, in models.RecommendationUpdate) (*models.Recommendation, error) {
	const op = "services.RecommendationService.Update"

	rec, err := s.repo.GetRecommendation(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	rec.Status = in.Status
	rec.Notes = in.Notes
	rec.ExitPrice = nil
	if in.ExitPrice > 0 {
		exit := in.ExitPrice
		rec.ExitPrice = &exit
	}
	rec.ProfitLossPercent = nil
	if rec.Status == models.RecommendationClosed {
		rec.ProfitLossPercent = ProfitLossPercent(rec.Direction, rec.EntryPrice, in.ExitPrice)
	}

	if err = s.repo.UpdateRecommendation(ctx, *rec); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidateStats(ctx)
	return rec, nil
}

// Get возвращает рекомендацию по ID.
func (s *RecommendationService) Get(ctx context.Context, id int64) (*models.Recommendation, error) {
	const op = "services.RecommendationService.Get"
	rec, err := s.repo.GetRecommendation(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return rec, nil
}

// List возвращает все рекомендации, новые первыми.
func (s *RecommendationService) List(ctx context.Context) ([]*models.Recommendation, error) {
	const op = "services.RecommendationService.List"
	res, err := s.repo.ListRecommendations(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// Latest возвращает последние LatestLimit рекомендаций для публичной витрины.
func (s *RecommendationService) Latest(ctx context.Context) ([]*models.Recommendation, error) {
	const op = "services.RecommendationService.Latest"
	res, err := s.repo.ListRecommendations(ctx, LatestLimit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// Stats возвращает статистику по всем закрытым сделкам. Результат кэшируется;
// недоступность кэша не мешает ответу.
func (s *RecommendationService) Stats(ctx context.Context) (models.Stats, error) {
	const op = "services.RecommendationService.Stats"

	var st models.Stats
	found, err := s.cache.Get(ctx, StatsCacheKey, &st)
	if err != nil {
		s.log.Warn("failed to read stats from cache", sl.Err(err))
	}
	if found {
		return st, nil
	}

	closed, err := s.repo.ListClosedRecommendations(ctx)
	if err != nil {
		return models.Stats{}, fmt.Errorf("%s: %w", op, err)
	}
	st = ComputeStats(closed)
	if err = s.cache.Set(ctx, StatsCacheKey, st, statsCacheTTL); err != nil {
		s.log.Warn("failed to cache stats", sl.Err(err))
	}
	return st, nil
}

// Chart открывает изображение графика рекомендации.
// Если графика нет, возвращается models.ErrNotFound.
func (s *RecommendationService) Chart(ctx context.Context, id int64) (io.ReadCloser, string, error) {
	const op = "services.RecommendationService.Chart"
	rec, err := s.repo.GetRecommendation(ctx, id)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	if rec.ChartImage == nil {
		return nil, "", fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	body, ct, err := s.charts.Get(ctx, *rec.ChartImage)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	return body, ct, nil
}

func (s *RecommendationService) invalidateStats(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, StatsCacheKey); err != nil {
		s.log.Warn("failed to invalidate stats cache", sl.Err(err))
	}
}
