package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/tradingpro/internal/models"
)

const userColumns = `id, email, password_hash, name, phone, is_admin,
	subscription_status, subscription_end_date, capital, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	var endDate sql.NullTime
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Phone, &u.IsAdmin,
		&u.SubscriptionStatus, &endDate, &u.Capital, &u.CreatedAt); err != nil {
		return nil, err
	}
	if endDate.Valid {
		u.SubscriptionEndDate = &endDate.Time
	}
	return u, nil
}

// CreateUser сохраняет нового пользователя в базу данных и возвращает его ID.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (int64, error) {
	const op = "storage.CreateUser"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO users (email, password_hash, name, phone, is_admin, subscription_status)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING id;`
	var newID int64
	if err := s.conn(ctx).QueryRowContext(ctx, query,
		user.Email, user.PasswordHash, user.Name, user.Phone, user.IsAdmin,
		models.SubscriptionStatusInactive).Scan(&newID); err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%s: %w", op, models.ErrEmailTaken)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetUserByEmail возвращает пользователя по email.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	u, err := scanUser(s.conn(ctx).QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUser возвращает пользователя по ID.
func (s *Storage) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(s.conn(ctx).QueryRowContext(ctx, query, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// ListUsers возвращает всех пользователей, новые первыми.
func (s *Storage) ListUsers(ctx context.Context) ([]*models.User, error) {
	const op = "storage.ListUsers"
	return s.queryUsers(ctx, op, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id DESC`)
}

// FindSubscriptionsEndingOn находит активных подписчиков, у которых подписка заканчивается в день day.
func (s *Storage) FindSubscriptionsEndingOn(ctx context.Context, day time.Time) ([]*models.User, error) {
	const op = "storage.FindSubscriptionsEndingOn"
	query := `SELECT ` + userColumns + ` FROM users
			  WHERE subscription_status = $1 AND subscription_end_date = $2::DATE`
	return s.queryUsers(ctx, op, query, models.SubscriptionStatusActive, day.Format(models.DateLayout))
}

func (s *Storage) queryUsers(ctx context.Context, op, query string, args ...any) ([]*models.User, error) {
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
	var result []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ActivateSubscription делает подписку активной до endDate включительно.
// Предыдущая дата окончания перезаписывается.
func (s *Storage) ActivateSubscription(ctx context.Context, userID int64, endDate time.Time) error {
	const op = "storage.ActivateSubscription"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET subscription_status = $1,
			      subscription_end_date = $2::DATE
			  WHERE id = $3`
	res, err := s.conn(ctx).ExecContext(ctx, query,
		models.SubscriptionStatusActive, endDate.Format(models.DateLayout), userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return nil
}

// ExpireLapsed переводит в inactive подписки, закончившиеся раньше today.
// Возвращает число затронутых пользователей.
func (s *Storage) ExpireLapsed(ctx context.Context, today time.Time) (int64, error) {
	const op = "storage.ExpireLapsed"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET subscription_status = $1
			  WHERE subscription_status = $2 AND subscription_end_date < $3::DATE`
	res, err := s.conn(ctx).ExecContext(ctx, query,
		models.SubscriptionStatusInactive, models.SubscriptionStatusActive, today.Format(models.DateLayout))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// UpdateCapital сохраняет капитал пользователя.
func (s *Storage) UpdateCapital(ctx context.Context, userID int64, capital float64) error {
	const op = "storage.UpdateCapital"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.conn(ctx).ExecContext(ctx, `UPDATE users SET capital = $1 WHERE id = $2`, capital, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return nil
}

// CountActiveSubscribers считает пользователей с действующей на today подпиской.
func (s *Storage) CountActiveSubscribers(ctx context.Context, today time.Time) (int, error) {
	const op = "storage.CountActiveSubscribers"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT COUNT(*) FROM users
			  WHERE subscription_status = $1 AND subscription_end_date >= $2::DATE`
	var count int
	if err := s.conn(ctx).QueryRowContext(ctx, query,
		models.SubscriptionStatusActive, today.Format(models.DateLayout)).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}
