// Package services реализует журнал купонов: проверку и погашение скидочных кодов
// и администрирование купонов.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/tradingpro/internal/metrics"
	"github.com/magabrotheeeer/tradingpro/internal/models"
)

// CouponRepository определяет методы хранения купонов.
type CouponRepository interface {
	CreateCoupon(ctx context.Context, c models.Coupon) (int64, error)
	ListCoupons(ctx context.Context) ([]*models.Coupon, error)
	DeactivateCoupon(ctx context.Context, id int64) error
	// GetCouponForUpdate блокирует строку купона до конца текущей транзакции.
	GetCouponForUpdate(ctx context.Context, code string) (*models.Coupon, error)
	// IncrementCouponUse возвращает false, если лимит применений уже исчерпан.
	IncrementCouponUse(ctx context.Context, id int64) (bool, error)
}

// CouponService бизнес-логика купонов.
type CouponService struct {
	repo CouponRepository
	log  *slog.Logger
}

// NewCouponService создает новый экземпляр CouponService.
func NewCouponService(repo CouponRepository, log *slog.Logger) *CouponService {
	return &CouponService{repo: repo, log: log}
}

// NormalizeCode приводит код купона к каноническому виду.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Discount считает скидку percent% от base с отбрасыванием дробной части.
func Discount(base int64, percent int) int64 {
	return base * int64(percent) / 100
}

// ValidateAndRedeem проверяет купон и, если он применим на дату today, увеличивает
// счётчик применений и возвращает скидку от baseAmount и канонический код.
//
// Неизвестный, выключенный, просроченный или исчерпанный купон даёт нулевую скидку
// и nil вместо кода без ошибки. Ошибка возвращается только при сбое хранилища.
// Для атомарности с остальной оплатой вызывать внутри транзакции.
func (s *CouponService) ValidateAndRedeem(ctx context.Context, code string, baseAmount int64, today time.Time) (int64, *string, error) {
	const op = "services.CouponService.ValidateAndRedeem"

	code = NormalizeCode(code)
	if code == "" {
		return 0, nil, nil
	}

	c, err := s.repo.GetCouponForUpdate(ctx, code)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.log.Info("coupon not found", slog.String("code", code))
			return 0, nil, nil
		}
		return 0, nil, fmt.Errorf("%s: %w", op, err)
	}
	if !c.Redeemable(today) {
		s.log.Info("coupon not redeemable", slog.String("code", code))
		return 0, nil, nil
	}

	ok, err := s.repo.IncrementCouponUse(ctx, c.ID)
	if err != nil {
		return 0, nil, fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		s.log.Info("coupon exhausted", slog.String("code", code))
		return 0, nil, nil
	}

	metrics.CouponRedemptions.Inc()
	return Discount(baseAmount, c.DiscountPercent), &code, nil
}

// Create создаёт купон. Код приводится к верхнему регистру.
func (s *CouponService) Create(ctx context.Context, req models.DummyCoupon) (int64, error) {
	const op = "services.CouponService.Create"

	if req.DiscountPercent < 0 || req.DiscountPercent > 100 || req.MaxUses < 0 {
		return 0, fmt.Errorf("%s: discount must be 0..100 and max_uses >= 0: %w", op, models.ErrInvalidCoupon)
	}
	c := models.Coupon{
		Code:            NormalizeCode(req.Code),
		DiscountPercent: req.DiscountPercent,
		MaxUses:         req.MaxUses,
	}
	if req.ValidUntil != "" {
		until, err := time.Parse(models.DateLayout, req.ValidUntil)
		if err != nil {
			return 0, fmt.Errorf("%s: valid_until %q: %w", op, req.ValidUntil, models.ErrInvalidCoupon)
		}
		c.ValidUntil = &until
	}

	id, err := s.repo.CreateCoupon(ctx, c)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("coupon created", slog.String("code", c.Code), slog.Int64("id", id))
	return id, nil
}

// List возвращает все купоны.
func (s *CouponService) List(ctx context.Context) ([]*models.Coupon, error) {
	const op = "services.CouponService.List"
	res, err := s.repo.ListCoupons(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// Deactivate выключает купон.
func (s *CouponService) Deactivate(ctx context.Context, id int64) error {
	const op = "services.CouponService.Deactivate"
	if err := s.repo.DeactivateCoupon(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
