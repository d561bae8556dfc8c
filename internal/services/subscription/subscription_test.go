package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/tradingpro/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/tradingpro/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.Called(ctx)
	return fn(ctx)
}
func (m *RepoMock) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *RepoMock) ActivateSubscription(ctx context.Context, userID int64, endDate time.Time) error {
	return m.Called(ctx, userID, endDate).Error(0)
}
func (m *RepoMock) CreatePayment(ctx context.Context, p models.Payment) (*models.Payment, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}
func (m *RepoMock) CountInvoicesWithPrefix(ctx context.Context, base string) (int, error) {
	args := m.Called(ctx, base)
	return args.Int(0), args.Error(1)
}
func (m *RepoMock) ListPaymentsByUser(ctx context.Context, userID int64, limit int) ([]*models.Payment, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Payment), args.Error(1)
}
func (m *RepoMock) GetPayment(ctx context.Context, id int64) (*models.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

type CouponMock struct{ mock.Mock }

func (m *CouponMock) ValidateAndRedeem(ctx context.Context, code string, base int64, today time.Time) (int64, *string, error) {
	args := m.Called(ctx, code, base, today)
	var applied *string
	if v := args.Get(1); v != nil {
		applied = v.(*string)
	}
	return args.Get(0).(int64), applied, args.Error(2)
}

type PricesMock struct{ mock.Mock }

func (m *PricesMock) Int(ctx context.Context, key string, def int64) (int64, error) {
	args := m.Called(ctx, key, def)
	return args.Get(0).(int64), args.Error(1)
}

type PublisherMock struct{ mock.Mock }

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, message any) error {
	return m.Called(ctx, routingKey, message).Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

type fixture struct {
	repo      *RepoMock
	coupons   *CouponMock
	prices    *PricesMock
	publisher *PublisherMock
	svc       *SubscriptionService
}

func newFixture() *fixture {
	f := &fixture{
		repo:      new(RepoMock),
		coupons:   new(CouponMock),
		prices:    new(PricesMock),
		publisher: new(PublisherMock),
	}
	f.svc = NewSubscriptionService(f.repo, f.coupons, f.prices, f.publisher, newNoopLogger())
	return f
}

func (f *fixture) expectHappyPath(userID int64, existingInvoices int) *models.Payment {
	saved := &models.Payment{}
	f.repo.On("WithinTx", mock.Anything).Return()
	f.repo.On("GetUser", mock.Anything, userID).
		Return(&models.User{ID: userID, Email: "u@example.com", Name: "U"}, nil)
	f.repo.On("ActivateSubscription", mock.Anything, userID, mock.Anything).Return(nil)
	f.repo.On("CountInvoicesWithPrefix", mock.Anything, mock.Anything).Return(existingInvoices, nil)
	f.repo.On("CreatePayment", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			*saved = args.Get(1).(models.Payment)
			saved.ID = 100
		}).
		Return(saved, nil)
	return saved
}

func TestPlanFor(t *testing.T) {
	tests := []struct {
		in       string
		wantName string
		wantDays int
		wantKey  string
	}{
		{in: "monthly", wantName: "monthly", wantDays: 30, wantKey: models.SettingMonthlyPrice},
		{in: "quarterly", wantName: "quarterly", wantDays: 90, wantKey: models.SettingQuarterlyPrice},
		{in: "yearly", wantName: "monthly", wantDays: 30, wantKey: models.SettingMonthlyPrice},
		{in: "", wantName: "monthly", wantDays: 30, wantKey: models.SettingMonthlyPrice},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			p := PlanFor(tt.in)
			assert.Equal(t, tt.wantName, p.Name)
			assert.Equal(t, tt.wantDays, p.Days)
			assert.Equal(t, tt.wantKey, p.PriceKey)
		})
	}
}

func TestEndDate_RenewalReplacesRemainingPeriod(t *testing.T) {
	day0 := time.Date(2025, 1, 1, 15, 30, 0, 0, time.UTC)
	day5 := day0.AddDate(0, 0, 5)

	first := EndDate(day0, 30)
	assert.Equal(t, time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC), first)

	renewed := EndDate(day5, 30)
	assert.Equal(t, day0.AddDate(0, 0, 35).Format(models.DateLayout), renewed.Format(models.DateLayout))
	assert.Equal(t, 35, int(renewed.Sub(EndDate(day0, 0)).Hours()/24))
}

func TestInvoiceNumber(t *testing.T) {
	base := InvoiceBase(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), 42)
	assert.Equal(t, "INV-20250310-42", base)
	assert.Equal(t, "INV-20250310-42", InvoiceNumber(base, 0))
	assert.Equal(t, "INV-20250310-42-2", InvoiceNumber(base, 1))
	assert.Equal(t, "INV-20250310-42-3", InvoiceNumber(base, 2))
}

func TestSubscriptionService_Subscribe(t *testing.T) {
	today := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	free := "FREE100"
	save := "SAVE10"

	tests := []struct {
		name           string
		plan           string
		coupon         string
		price          int64
		priceKey       string
		discount       int64
		applied        *string
		existing       int
		wantAmount     int64
		wantCoupon     *string
		wantPlan       string
		wantInvoice    string
		wantEndDateStr string
	}{
		{
			name: "monthly without coupon", plan: "monthly", price: 999, priceKey: models.SettingMonthlyPrice,
			wantAmount: 999, wantPlan: "monthly", wantInvoice: "INV-20250310-7", wantEndDateStr: "2025-04-09",
		},
		{
			name: "quarterly with 10 percent", plan: "quarterly", coupon: "save10", price: 2999, priceKey: models.SettingQuarterlyPrice,
			discount: 299, applied: &save,
			wantAmount: 2700, wantCoupon: &save, wantPlan: "quarterly", wantInvoice: "INV-20250310-7", wantEndDateStr: "2025-06-08",
		},
		{
			name: "full discount makes payment free", plan: "monthly", coupon: "free100", price: 999, priceKey: models.SettingMonthlyPrice,
			discount: 999, applied: &free,
			wantAmount: 0, wantCoupon: &free, wantPlan: "monthly", wantInvoice: "INV-20250310-7", wantEndDateStr: "2025-04-09",
		},
		{
			name: "zero percent coupon is not recorded", plan: "monthly", coupon: "zero", price: 999, priceKey: models.SettingMonthlyPrice,
			discount: 0, applied: ptr("ZERO"),
			wantAmount: 999, wantPlan: "monthly", wantInvoice: "INV-20250310-7", wantEndDateStr: "2025-04-09",
		},
		{
			name: "second payment same day gets suffix", plan: "monthly", price: 999, priceKey: models.SettingMonthlyPrice,
			existing: 1, wantAmount: 999, wantPlan: "monthly", wantInvoice: "INV-20250310-7-2", wantEndDateStr: "2025-04-09",
		},
		{
			name: "unknown plan falls back to monthly", plan: "weekly", price: 999, priceKey: models.SettingMonthlyPrice,
			wantAmount: 999, wantPlan: "monthly", wantInvoice: "INV-20250310-7", wantEndDateStr: "2025-04-09",
		},
		{
			name: "discount larger than price is clamped", plan: "monthly", coupon: "odd", price: 999, priceKey: models.SettingMonthlyPrice,
			discount: 1500, applied: ptr("ODD"),
			wantAmount: 0, wantCoupon: ptr("ODD"), wantPlan: "monthly", wantInvoice: "INV-20250310-7", wantEndDateStr: "2025-04-09",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			saved := f.expectHappyPath(7, tt.existing)
			f.prices.On("Int", mock.Anything, tt.priceKey, int64(0)).Return(tt.price, nil).Once()
			f.coupons.On("ValidateAndRedeem", mock.Anything, tt.coupon, tt.price, today).
				Return(tt.discount, tt.applied, nil).Once()
			f.publisher.On("Publish", mock.Anything, rabbitmq.RoutingPaymentSucceeded, mock.AnythingOfType("models.PaymentEvent")).
				Return(nil).Once()

			p, err := f.svc.Subscribe(context.Background(), 7, tt.plan, tt.coupon, today)
			require.NoError(t, err)

			assert.Same(t, saved, p)
			assert.Equal(t, tt.wantAmount, p.Amount)
			assert.Equal(t, tt.price, p.OriginalAmount)
			assert.Equal(t, tt.discount, p.DiscountAmount)
			assert.Equal(t, tt.wantCoupon, p.CouponCode)
			assert.Equal(t, tt.wantPlan, p.PlanType)
			assert.Equal(t, tt.wantInvoice, p.InvoiceNumber)
			assert.Equal(t, models.PaymentStatusSuccess, p.Status)
			assert.True(t, strings.HasPrefix(p.PaymentRef, "demo_"))
			assert.GreaterOrEqual(t, p.Amount, int64(0))

			f.repo.AssertCalled(t, "ActivateSubscription", mock.Anything, int64(7),
				mock.MatchedBy(func(d time.Time) bool { return d.Format(models.DateLayout) == tt.wantEndDateStr }))
			f.publisher.AssertExpectations(t)
		})
	}
}

func TestSubscriptionService_Subscribe_RenewalReplaces(t *testing.T) {
	day0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	day5 := day0.AddDate(0, 0, 5)

	f := newFixture()
	f.expectHappyPath(1, 0)
	f.prices.On("Int", mock.Anything, models.SettingMonthlyPrice, int64(0)).Return(int64(999), nil)
	f.coupons.On("ValidateAndRedeem", mock.Anything, "", int64(999), mock.Anything).Return(int64(0), nil, nil)
	f.publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.Subscribe(context.Background(), 1, "monthly", "", day0)
	require.NoError(t, err)
	_, err = f.svc.Subscribe(context.Background(), 1, "monthly", "", day5)
	require.NoError(t, err)

	f.repo.AssertCalled(t, "ActivateSubscription", mock.Anything, int64(1), day0.AddDate(0, 0, 30))
	f.repo.AssertCalled(t, "ActivateSubscription", mock.Anything, int64(1), day0.AddDate(0, 0, 35))
}

func TestSubscriptionService_Subscribe_Errors(t *testing.T) {
	today := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	t.Run("invalid price setting", func(t *testing.T) {
		f := newFixture()
		f.prices.On("Int", mock.Anything, models.SettingMonthlyPrice, int64(0)).
			Return(int64(0), models.ErrInvalidSetting).Once()

		_, err := f.svc.Subscribe(context.Background(), 1, "monthly", "", today)
		require.ErrorIs(t, err, models.ErrInvalidSetting)
		f.repo.AssertNotCalled(t, "WithinTx", mock.Anything)
	})

	t.Run("coupon storage failure aborts before activation", func(t *testing.T) {
		f := newFixture()
		dbErr := errors.New("db down")
		f.prices.On("Int", mock.Anything, models.SettingMonthlyPrice, int64(0)).Return(int64(999), nil)
		f.repo.On("WithinTx", mock.Anything).Return()
		f.repo.On("GetUser", mock.Anything, int64(1)).Return(&models.User{ID: 1}, nil)
		f.coupons.On("ValidateAndRedeem", mock.Anything, "X", int64(999), today).Return(int64(0), nil, dbErr)

		_, err := f.svc.Subscribe(context.Background(), 1, "monthly", "X", today)
		require.ErrorIs(t, err, dbErr)
		f.repo.AssertNotCalled(t, "ActivateSubscription", mock.Anything, mock.Anything, mock.Anything)
		f.repo.AssertNotCalled(t, "CreatePayment", mock.Anything, mock.Anything)
		f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown user", func(t *testing.T) {
		f := newFixture()
		f.prices.On("Int", mock.Anything, models.SettingMonthlyPrice, int64(0)).Return(int64(999), nil)
		f.repo.On("WithinTx", mock.Anything).Return()
		f.repo.On("GetUser", mock.Anything, int64(404)).Return(nil, models.ErrNotFound)

		_, err := f.svc.Subscribe(context.Background(), 404, "monthly", "", today)
		require.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("publish failure is not fatal", func(t *testing.T) {
		f := newFixture()
		f.expectHappyPath(1, 0)
		f.prices.On("Int", mock.Anything, models.SettingMonthlyPrice, int64(0)).Return(int64(999), nil)
		f.coupons.On("ValidateAndRedeem", mock.Anything, "", int64(999), today).Return(int64(0), nil, nil)
		f.publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down"))

		p, err := f.svc.Subscribe(context.Background(), 1, "monthly", "", today)
		require.NoError(t, err)
		assert.Equal(t, int64(999), p.Amount)
	})
}

func TestSubscriptionService_Plans(t *testing.T) {
	f := newFixture()
	f.prices.On("Int", mock.Anything, models.SettingMonthlyPrice, int64(0)).Return(int64(799), nil)
	f.prices.On("Int", mock.Anything, models.SettingQuarterlyPrice, int64(0)).Return(int64(1999), nil)

	plans, err := f.svc.Plans(context.Background())
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, models.Plan{Name: "monthly", Days: 30, PriceKey: models.SettingMonthlyPrice, Price: 799}, plans[0])
	assert.Equal(t, models.Plan{Name: "quarterly", Days: 90, PriceKey: models.SettingQuarterlyPrice, Price: 1999}, plans[1])
}

func TestSubscriptionService_GetPayment(t *testing.T) {
	payment := &models.Payment{ID: 5, UserID: 1}

	tests := []struct {
		name    string
		userID  int64
		isAdmin bool
		wantErr error
	}{
		{name: "owner", userID: 1},
		{name: "admin", userID: 2, isAdmin: true},
		{name: "stranger", userID: 2, wantErr: models.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.repo.On("GetPayment", mock.Anything, int64(5)).Return(payment, nil)

			got, err := f.svc.GetPayment(context.Background(), 5, tt.userID, tt.isAdmin)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, payment, got)
		})
	}
}

func ptr(s string) *string { return &s }
