package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/tradingpro/internal/models"
)

const paymentColumns = `id, user_id, amount, original_amount, discount_amount, payment_id,
	plan_type, coupon_code, status, invoice_number, created_at`

func scanPayment(row rowScanner) (*models.Payment, error) {
	p := &models.Payment{}
	var coupon sql.NullString
	if err := row.Scan(&p.ID, &p.UserID, &p.Amount, &p.OriginalAmount, &p.DiscountAmount,
		&p.PaymentRef, &p.PlanType, &coupon, &p.Status, &p.InvoiceNumber, &p.CreatedAt); err != nil {
		return nil, err
	}
	if coupon.Valid {
		p.CouponCode = &coupon.String
	}
	return p, nil
}

// CreatePayment сохраняет платёж и возвращает его ID и время создания.
func (s *Storage) CreatePayment(ctx context.Context, p models.Payment) (*models.Payment, error) {
	const op = "storage.CreatePayment"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO payments (user_id, amount, original_amount, discount_amount, payment_id,
			      plan_type, coupon_code, status, invoice_number)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			  RETURNING id, created_at`
	if err := s.conn(ctx).QueryRowContext(ctx, query,
		p.UserID, p.Amount, p.OriginalAmount, p.DiscountAmount, p.PaymentRef,
		p.PlanType, p.CouponCode, p.Status, p.InvoiceNumber).Scan(&p.ID, &p.CreatedAt); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &p, nil
}

// GetPayment возвращает платёж по ID.
func (s *Storage) GetPayment(ctx context.Context, id int64) (*models.Payment, error) {
	const op = "storage.GetPayment"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	p, err := scanPayment(s.conn(ctx).QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// ListPaymentsByUser возвращает последние limit платежей пользователя, новые первыми.
// limit <= 0 означает «без ограничения».
func (s *Storage) ListPaymentsByUser(ctx context.Context, userID int64, limit int) ([]*models.Payment, error) {
	const op = "storage.ListPaymentsByUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var lim any
	if limit > 0 {
		lim = limit
	}
	query := `SELECT ` + paymentColumns + ` FROM payments
			  WHERE user_id = $1
			  ORDER BY created_at DESC, id DESC
			  LIMIT $2`
	rows, err := s.conn(ctx).QueryContext(ctx, query, userID, lim)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	var result []*models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CountInvoicesWithPrefix считает счета с номером base или base-N.
func (s *Storage) CountInvoicesWithPrefix(ctx context.Context, base string) (int, error) {
	const op = "storage.CountInvoicesWithPrefix"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT COUNT(*) FROM payments
			  WHERE invoice_number = $1 OR invoice_number LIKE $1 || '-%'`
	var count int
	if err := s.conn(ctx).QueryRowContext(ctx, query, base).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}
