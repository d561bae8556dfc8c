package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/tradingpro/internal/models"
)

const recommendationColumns = `id, stock_name, stock_symbol, recommendation_type, entry_price,
	target_price, stop_loss, status, exit_price, profit_loss_percent, notes, chart_image,
	created_at, updated_at`

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func scanRecommendation(row rowScanner) (*models.Recommendation, error) {
	r := &models.Recommendation{}
	var target, stop, exit, pl sql.NullFloat64
	var chart sql.NullString
	if err := row.Scan(&r.ID, &r.StockName, &r.StockSymbol, &r.Direction, &r.EntryPrice,
		&target, &stop, &r.Status, &exit, &pl, &r.Notes, &chart,
		&r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.TargetPrice = nullFloat(target)
	r.StopLoss = nullFloat(stop)
	r.ExitPrice = nullFloat(exit)
	r.ProfitLossPercent = nullFloat(pl)
	if chart.Valid {
		r.ChartImage = &chart.String
	}
	return r, nil
}

// CreateRecommendation сохраняет новую рекомендацию со статусом active.
func (s *Storage) CreateRecommendation(ctx context.Context, r models.Recommendation) (int64, error) {
	const op = "storage.CreateRecommendation"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO recommendations (stock_name, stock_symbol, recommendation_type, entry_price,
			      target_price, stop_loss, status, notes, chart_image)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			  RETURNING id`
	var id int64
	if err := s.conn(ctx).QueryRowContext(ctx, query,
		r.StockName, r.StockSymbol, r.Direction, r.EntryPrice,
		r.TargetPrice, r.StopLoss, models.RecommendationActive, r.Notes, r.ChartImage).Scan(&id); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// UpdateRecommendation перезаписывает статус, цену выхода, P/L и заметки.
func (s *Storage) UpdateRecommendation(ctx context.Context, r models.Recommendation) error {
	const op = "storage.UpdateRecommendation"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE recommendations
			  SET status = $1, exit_price = $2, profit_loss_percent = $3, notes = $4,
			      updated_at = NOW()
			  WHERE id = $5`
	res, err := s.conn(ctx).ExecContext(ctx, query,
		r.Status, r.ExitPrice, r.ProfitLossPercent, r.Notes, r.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return nil
}

// GetRecommendation возвращает рекомендацию по ID.
func (s *Storage) GetRecommendation(ctx context.Context, id int64) (*models.Recommendation, error) {
	const op = "storage.GetRecommendation"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	r, err := scanRecommendation(s.conn(ctx).QueryRowContext(ctx,
		`SELECT `+recommendationColumns+` FROM recommendations WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return r, nil
}

// ListRecommendations возвращает рекомендации, новые первыми.
// limit <= 0 означает «без ограничения».
func (s *Storage) ListRecommendations(ctx context.Context, limit int) ([]*models.Recommendation, error) {
	const op = "storage.ListRecommendations"
	var lim any
	if limit > 0 {
		lim = limit
	}
	return s.queryRecommendations(ctx, op,
		`SELECT `+recommendationColumns+` FROM recommendations
		 ORDER BY created_at DESC, id DESC LIMIT $1`, lim)
}

// ListClosedRecommendations возвращает все закрытые рекомендации.
func (s *Storage) ListClosedRecommendations(ctx context.Context) ([]*models.Recommendation, error) {
	const op = "storage.ListClosedRecommendations"
	return s.queryRecommendations(ctx, op,
		`SELECT `+recommendationColumns+` FROM recommendations
		 WHERE status = $1 ORDER BY created_at DESC, id DESC`, models.RecommendationClosed)
}

// ListClosedRecommendationsCreatedBetween возвращает закрытые рекомендации,
// созданные в полуинтервале [from, to).
func (s *Storage) ListClosedRecommendationsCreatedBetween(ctx context.Context, from, to time.Time) ([]*models.Recommendation, error) {
	const op = "storage.ListClosedRecommendationsCreatedBetween"
	return s.queryRecommendations(ctx, op,
		`SELECT `+recommendationColumns+` FROM recommendations
		 WHERE status = $1 AND created_at >= $2 AND created_at < $3
		 ORDER BY created_at DESC, id DESC`, models.RecommendationClosed, from, to)
}

func (s *Storage) queryRecommendations(ctx context.Context, op, query string, args ...any) ([]*models.Recommendation, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	var result []*models.Recommendation
	for rows.Next() {
		r, err := scanRecommendation(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, r)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
