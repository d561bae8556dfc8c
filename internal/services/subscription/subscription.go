// Package services реализует движок подписок: расчёт цены тарифа с учётом купона,
// активацию подписки и запись платежа в одной транзакции.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/tradingpro/internal/lib/month"
	"github.com/magabrotheeeer/tradingpro/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/tradingpro/internal/lib/sl"
	"github.com/magabrotheeeer/tradingpro/internal/metrics"
	"github.com/magabrotheeeer/tradingpro/internal/models"
)

// SubscriptionRepository определяет методы хранилища, нужные движку подписок.
type SubscriptionRepository interface {
	// WithinTx выполняет fn в одной транзакции.
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetUser(ctx context.Context, userID int64) (*models.User, error)
	ActivateSubscription(ctx context.Context, userID int64, endDate time.Time) error
	CreatePayment(ctx context.Context, p models.Payment) (*models.Payment, error)
	CountInvoicesWithPrefix(ctx context.Context, base string) (int, error)
	ListPaymentsByUser(ctx context.Context, userID int64, limit int) ([]*models.Payment, error)
	GetPayment(ctx context.Context, id int64) (*models.Payment, error)
}

// CouponRedeemer погашает купон и возвращает скидку.
type CouponRedeemer interface {
	ValidateAndRedeem(ctx context.Context, code string, baseAmount int64, today time.Time) (int64, *string, error)
}

// PriceSource источник цен тарифов.
type PriceSource interface {
	Int(ctx context.Context, key string, def int64) (int64, error)
}

// EventPublisher публикует события об оплате.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// SubscriptionService бизнес-логика подписок и платежей.
type SubscriptionService struct {
	repo      SubscriptionRepository
	coupons   CouponRedeemer
	prices    PriceSource
	publisher EventPublisher
	log       *slog.Logger
}

// NewSubscriptionService создает новый экземпляр SubscriptionService.
func NewSubscriptionService(repo SubscriptionRepository, coupons CouponRedeemer, prices PriceSource,
	publisher EventPublisher, log *slog.Logger) *SubscriptionService {
	return &SubscriptionService{
		repo:      repo,
		coupons:   coupons,
		prices:    prices,
		publisher: publisher,
		log:       log,
	}
}

// PlanFor возвращает тариф по названию. Неизвестное название трактуется как monthly.
func PlanFor(name string) models.Plan {
	if name == models.PlanQuarterly {
		return models.Plan{Name: models.PlanQuarterly, Days: 90, PriceKey: models.SettingQuarterlyPrice}
	}
	return models.Plan{Name: models.PlanMonthly, Days: 30, PriceKey: models.SettingMonthlyPrice}
}

// EndDate возвращает дату окончания подписки, оформленной в день today.
// Остаток предыдущей подписки не переносится.
func EndDate(today time.Time, days int) time.Time {
	return month.Day(today).AddDate(0, 0, days)
}

// InvoiceBase возвращает номер счёта вида INV-YYYYMMDD-<userID>.
func InvoiceBase(today time.Time, userID int64) string {
	return fmt.Sprintf("INV-%s-%d", today.Format("20060102"), userID)
}

// InvoiceNumber добавляет к base порядковый суффикс, если счета с таким номером уже есть.
func InvoiceNumber(base string, existing int) string {
	if existing == 0 {
		return base
	}
	return fmt.Sprintf("%s-%d", base, existing+1)
}

// Plans возвращает каталог тарифов с текущими ценами.
func (s *SubscriptionService) Plans(ctx context.Context) ([]models.Plan, error) {
	const op = "services.SubscriptionService.Plans"
	plans := []models.Plan{PlanFor(models.PlanMonthly), PlanFor(models.PlanQuarterly)}
	for i := range plans {
		price, err := s.prices.Int(ctx, plans[i].PriceKey, 0)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		plans[i].Price = price
	}
	return plans, nil
}

// Subscribe оформляет подписку пользователя на тариф plan с необязательным купоном.
//
// Погашение купона, активация подписки и запись платежа выполняются в одной
// транзакции. После фиксации публикуется событие payment.succeeded; ошибка
// публикации только логируется.
func (s *SubscriptionService) Subscribe(ctx context.Context, userID int64, planName, couponCode string, today time.Time) (*models.Payment, error) {
	const op = "services.SubscriptionService.Subscribe"
	log := s.log.With(sl.Op(op), slog.Int64("user_id", userID))

	plan := PlanFor(planName)
	base, err := s.prices.Int(ctx, plan.PriceKey, 0)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var (
		payment *models.Payment
		user    *models.User
		endDate = EndDate(today, plan.Days)
	)
	err = s.repo.WithinTx(ctx, func(ctx context.Context) error {
		user, err = s.repo.GetUser(ctx, userID)
		if err != nil {
			return err
		}

		discount, applied, err := s.coupons.ValidateAndRedeem(ctx, couponCode, base, today)
		if err != nil {
			return err
		}
		amount := base - discount
		if amount < 0 {
			log.Warn("negative amount clamped to zero", slog.Int64("base", base), slog.Int64("discount", discount))
			amount = 0
		}

		if err = s.repo.ActivateSubscription(ctx, userID, endDate); err != nil {
			return err
		}

		invBase := InvoiceBase(today, userID)
		existing, err := s.repo.CountInvoicesWithPrefix(ctx, invBase)
		if err != nil {
			return err
		}

		p := models.Payment{
			UserID:         userID,
			Amount:         amount,
			OriginalAmount: base,
			DiscountAmount: discount,
			PaymentRef:     "demo_" + uuid.NewString(),
			PlanType:       plan.Name,
			Status:         models.PaymentStatusSuccess,
			InvoiceNumber:  InvoiceNumber(invBase, existing),
		}
		if discount > 0 {
			p.CouponCode = applied
		}
		payment, err = s.repo.CreatePayment(ctx, p)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("subscription activated",
		slog.String("plan", plan.Name),
		slog.Int64("amount", payment.Amount),
		slog.String("invoice", payment.InvoiceNumber),
	)
	metrics.Subscriptions.WithLabelValues(plan.Name).Inc()
	metrics.Revenue.WithLabelValues(plan.Name).Add(float64(payment.Amount))

	event := models.PaymentEvent{
		PaymentID:     payment.ID,
		UserID:        userID,
		Email:         user.Email,
		Name:          user.Name,
		PlanType:      payment.PlanType,
		Amount:        payment.Amount,
		InvoiceNumber: payment.InvoiceNumber,
		EndDate:       endDate,
	}
	if err = s.publisher.Publish(ctx, rabbitmq.RoutingPaymentSucceeded, event); err != nil {
		log.Error("failed to publish payment event", sl.Err(err))
	}
	return payment, nil
}

// ListPayments возвращает платежи пользователя, новые первыми.
func (s *SubscriptionService) ListPayments(ctx context.Context, userID int64, limit int) ([]*models.Payment, error) {
	const op = "services.SubscriptionService.ListPayments"
	res, err := s.repo.ListPaymentsByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// GetPayment возвращает платёж, если он принадлежит пользователю или запрос от администратора.
func (s *SubscriptionService) GetPayment(ctx context.Context, paymentID, userID int64, isAdmin bool) (*models.Payment, error) {
	const op = "services.SubscriptionService.GetPayment"
	p, err := s.repo.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if p.UserID != userID && !isAdmin {
		return nil, fmt.Errorf("%s: %w", op, models.ErrForbidden)
	}
	return p, nil
}
