package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/tradingpro/internal/models"
)

const couponColumns = `id, code, discount_percent, valid_until, max_uses, current_uses, active, created_at`

func scanCoupon(row rowScanner) (*models.Coupon, error) {
	c := &models.Coupon{}
	var validUntil sql.NullTime
	if err := row.Scan(&c.ID, &c.Code, &c.DiscountPercent, &validUntil,
		&c.MaxUses, &c.CurrentUses, &c.Active, &c.CreatedAt); err != nil {
		return nil, err
	}
	if validUntil.Valid {
		c.ValidUntil = &validUntil.Time
	}
	return c, nil
}

// CreateCoupon сохраняет новый купон и возвращает его ID.
func (s *Storage) CreateCoupon(ctx context.Context, c models.Coupon) (int64, error) {
	const op = "storage.CreateCoupon"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var validUntil any
	if c.ValidUntil != nil {
		validUntil = c.ValidUntil.Format(models.DateLayout)
	}
	query := `INSERT INTO coupons (code, discount_percent, valid_until, max_uses)
			  VALUES ($1, $2, $3::DATE, $4)
			  RETURNING id`
	var id int64
	if err := s.conn(ctx).QueryRowContext(ctx, query,
		c.Code, c.DiscountPercent, validUntil, c.MaxUses).Scan(&id); err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%s: %w", op, models.ErrCouponExists)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// ListCoupons возвращает все купоны, новые первыми.
func (s *Storage) ListCoupons(ctx context.Context) ([]*models.Coupon, error) {
	const op = "storage.ListCoupons"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.conn(ctx).QueryContext(ctx,
		`SELECT `+couponColumns+` FROM coupons ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	var result []*models.Coupon
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// DeactivateCoupon выключает купон.
func (s *Storage) DeactivateCoupon(ctx context.Context, id int64) error {
	const op = "storage.DeactivateCoupon"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.conn(ctx).ExecContext(ctx, `UPDATE coupons SET active = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return nil
}

// GetCouponForUpdate находит купон по коду и блокирует строку до конца транзакции.
// Вне WithinTx блокировка снимается сразу после запроса.
func (s *Storage) GetCouponForUpdate(ctx context.Context, code string) (*models.Coupon, error) {
	const op = "storage.GetCouponForUpdate"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + couponColumns + ` FROM coupons WHERE code = $1 FOR UPDATE`
	c, err := scanCoupon(s.conn(ctx).QueryRowContext(ctx, query, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

// IncrementCouponUse увеличивает счётчик применений, если лимит не исчерпан.
// Возвращает false, если купон уже использован max_uses раз.
func (s *Storage) IncrementCouponUse(ctx context.Context, id int64) (bool, error) {
	const op = "storage.IncrementCouponUse"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE coupons
			  SET current_uses = current_uses + 1
			  WHERE id = $1 AND (max_uses = 0 OR current_uses < max_uses)`
	res, err := s.conn(ctx).ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return n == 1, nil
}
