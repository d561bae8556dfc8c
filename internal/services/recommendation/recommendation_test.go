package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/tradingpro/internal/cache"
	"github.com/magabrotheeeer/tradingpro/internal/chartstore"
	"github.com/magabrotheeeer/tradingpro/internal/config"
	"github.com/magabrotheeeer/tradingpro/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) CreateRecommendation(ctx context.Context, r models.Recommendation) (int64, error) {
	args := m.Called(ctx, r)
	return args.Get(0).(int64), args.Error(1)
}
func (m *RepoMock) UpdateRecommendation(ctx context.Context, r models.Recommendation) error {
	return m.Called(ctx, r).Error(0)
}
func (m *RepoMock) GetRecommendation(ctx context.Context, id int64) (*models.Recommendation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Recommendation), args.Error(1)
}
func (m *RepoMock) ListRecommendations(ctx context.Context, limit int) ([]*models.Recommendation, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Recommendation), args.Error(1)
}
func (m *RepoMock) ListClosedRecommendations(ctx context.Context) ([]*models.Recommendation, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Recommendation), args.Error(1)
}
func (m *RepoMock) ListClosedRecommendationsCreatedBetween(ctx context.Context, from, to time.Time) ([]*models.Recommendation, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Recommendation), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func f64(v float64) *float64 { return &v }

func newTestService(t *testing.T) (*RecommendationService, *RepoMock, *miniredis.Miniredis, chartstore.Store) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	c, err := cache.InitServer(context.Background(), config.RedisConnection{AddressRedis: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	store, err := chartstore.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	repo := new(RepoMock)
	svc := NewRecommendationService(repo, c, store, newNoopLogger())
	svc.now = func() time.Time { return time.Unix(1700000000, 0) }
	return svc, repo, mr, store
}

func TestProfitLossPercent(t *testing.T) {
	tests := []struct {
		name      string
		direction string
		entry     float64
		exit      float64
		want      *float64
	}{
		{name: "buy gain", direction: models.DirectionBuy, entry: 100, exit: 120, want: f64(20)},
		{name: "sell gain", direction: models.DirectionSell, entry: 100, exit: 80, want: f64(20)},
		{name: "buy loss", direction: models.DirectionBuy, entry: 100, exit: 90, want: f64(-10)},
		{name: "sell loss", direction: models.DirectionSell, entry: 100, exit: 110, want: f64(-10)},
		{name: "no exit", direction: models.DirectionBuy, entry: 100, exit: 0, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ProfitLossPercent(tt.direction, tt.entry, tt.exit)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.want, *got, 1e-9)
		})
	}
}

func TestComputeStats(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, models.Stats{}, ComputeStats(nil))
	})

	t.Run("mixed", func(t *testing.T) {
		closed := []*models.Recommendation{
			{ProfitLossPercent: f64(20)},
			{ProfitLossPercent: f64(-10)},
			{ProfitLossPercent: f64(5)},
			{ProfitLossPercent: nil},
		}
		st := ComputeStats(closed)
		assert.Equal(t, 4, st.TotalTrades)
		assert.Equal(t, 2, st.WinningTrades)
		assert.InDelta(t, 0.5, st.WinRate, 1e-9)
		assert.InDelta(t, 50, st.WinRatePercent, 1e-9)
		assert.InDelta(t, 3.75, st.AvgReturn, 1e-9)
	})
}

func TestMonthlyProjection(t *testing.T) {
	tests := []struct {
		name           string
		capital        float64
		trades         []*models.Recommendation
		wantAllocation float64
		wantProfit     float64
	}{
		{name: "one ten percent trade", capital: 100000, trades: []*models.Recommendation{{ProfitLossPercent: f64(10)}},
			wantAllocation: 5000, wantProfit: 500},
		{name: "zero capital", capital: 0, trades: []*models.Recommendation{{ProfitLossPercent: f64(10)}}},
		{name: "negative capital", capital: -5, trades: []*models.Recommendation{{ProfitLossPercent: f64(10)}}},
		{name: "skips trades without pl", capital: 100000,
			trades:         []*models.Recommendation{{ProfitLossPercent: nil}, {ProfitLossPercent: f64(-4)}},
			wantAllocation: 5000, wantProfit: -200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			allocation, profit := MonthlyProjection(tt.capital, tt.trades)
			assert.InDelta(t, tt.wantAllocation, allocation, 1e-9)
			assert.InDelta(t, tt.wantProfit, profit, 1e-9)
		})
	}
}

func TestRecommendationService_Create(t *testing.T) {
	t.Run("stores chart and normalizes symbol", func(t *testing.T) {
		svc, repo, mr, store := newTestService(t)
		mr.Set(StatsCacheKey, "{}")

		repo.On("CreateRecommendation", mock.Anything, mock.MatchedBy(func(r models.Recommendation) bool {
			return r.StockSymbol == "TCS" && r.Direction == models.DirectionBuy &&
				r.ChartImage != nil && *r.ChartImage == "charts/TCS_1700000000.png"
		})).Return(int64(11), nil).Once()

		id, err := svc.Create(context.Background(), models.DummyRecommendation{
			StockName: "Tata Consultancy", StockSymbol: " tcs ", Direction: "buy", EntryPrice: 3500,
		}, &ChartUpload{Filename: "chart.PNG", Body: strings.NewReader("png-bytes")})
		require.NoError(t, err)
		assert.Equal(t, int64(11), id)
		assert.False(t, mr.Exists(StatsCacheKey))

		body, ct, err := store.Get(context.Background(), "charts/TCS_1700000000.png")
		require.NoError(t, err)
		defer body.Close()
		data, _ := io.ReadAll(body)
		assert.Equal(t, "png-bytes", string(data))
		assert.Equal(t, "image/png", ct)
		repo.AssertExpectations(t)
	})

	t.Run("unsupported chart is skipped", func(t *testing.T) {
		svc, repo, _, _ := newTestService(t)
		repo.On("CreateRecommendation", mock.Anything, mock.MatchedBy(func(r models.Recommendation) bool {
			return r.ChartImage == nil
		})).Return(int64(12), nil).Once()

		_, err := svc.Create(context.Background(), models.DummyRecommendation{
			StockName: "Infosys", StockSymbol: "INFY", Direction: "SELL", EntryPrice: 1500,
		}, &ChartUpload{Filename: "notes.exe", Body: strings.NewReader("x")})
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("non positive entry rejected", func(t *testing.T) {
		svc, repo, _, _ := newTestService(t)
		_, err := svc.Create(context.Background(), models.DummyRecommendation{
			StockName: "X", StockSymbol: "X", Direction: "BUY", EntryPrice: 0,
		}, nil)
		require.ErrorIs(t, err, models.ErrInvalidEntryPrice)
		repo.AssertNotCalled(t, "CreateRecommendation", mock.Anything, mock.Anything)
	})

	t.Run("storage failure removes uploaded chart", func(t *testing.T) {
		svc, repo, _, store := newTestService(t)
		repo.On("CreateRecommendation", mock.Anything, mock.Anything).Return(int64(0), errors.New("db down")).Once()

		_, err := svc.Create(context.Background(), models.DummyRecommendation{
			StockName: "Wipro", StockSymbol: "WIPRO", Direction: "BUY", EntryPrice: 400,
		}, &ChartUpload{Filename: "c.jpg", Body: strings.NewReader("jpg")})
		require.Error(t, err)

		_, _, err = store.Get(context.Background(), "charts/WIPRO_1700000000.jpg")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestRecommendationService_Update(t *testing.T) {
	tests := []struct {
		name     string
		existing models.Recommendation
		in       models.RecommendationUpdate
		wantPL   *float64
		wantExit *float64
	}{
		{
			name:     "close buy with gain",
			existing: models.Recommendation{ID: 1, Direction: models.DirectionBuy, EntryPrice: 100, Status: models.RecommendationActive},
			in:       models.RecommendationUpdate{Status: models.RecommendationClosed, ExitPrice: 120},
			wantPL:   f64(20), wantExit: f64(120),
		},
		{
			name:     "close sell with gain",
			existing: models.Recommendation{ID: 1, Direction: models.DirectionSell, EntryPrice: 100, Status: models.RecommendationActive},
			in:       models.RecommendationUpdate{Status: models.RecommendationClosed, ExitPrice: 80},
			wantPL:   f64(20), wantExit: f64(80),
		},
		{
			name:     "closed without exit keeps pl empty",
			existing: models.Recommendation{ID: 1, Direction: models.DirectionBuy, EntryPrice: 100, Status: models.RecommendationActive},
			in:       models.RecommendationUpdate{Status: models.RecommendationClosed},
		},
		{
			name: "reopening clears pl",
			existing: models.Recommendation{ID: 1, Direction: models.DirectionBuy, EntryPrice: 100,
				Status: models.RecommendationClosed, ExitPrice: f64(120), ProfitLossPercent: f64(20)},
			in:       models.RecommendationUpdate{Status: models.RecommendationActive, ExitPrice: 120},
			wantExit: f64(120),
		},
		{
			name: "reclosing recomputes",
			existing: models.Recommendation{ID: 1, Direction: models.DirectionBuy, EntryPrice: 100,
				Status: models.RecommendationClosed, ExitPrice: f64(120), ProfitLossPercent: f64(20)},
			in:     models.RecommendationUpdate{Status: models.RecommendationClosed, ExitPrice: 90},
			wantPL: f64(-10), wantExit: f64(90),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _, _ := newTestService(t)
			existing := tt.existing
			repo.On("GetRecommendation", mock.Anything, int64(1)).Return(&existing, nil).Once()
			repo.On("UpdateRecommendation", mock.Anything, mock.Anything).Return(nil).Once()

			got, err := svc.Update(context.Background(), 1, tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.in.Status, got.Status)
			if tt.wantPL == nil {
				assert.Nil(t, got.ProfitLossPercent)
			} else {
				require.NotNil(t, got.ProfitLossPercent)
				assert.InDelta(t, *tt.wantPL, *got.ProfitLossPercent, 1e-9)
			}
			assert.Equal(t, tt.wantExit, got.ExitPrice)
		})
	}

	t.Run("not found", func(t *testing.T) {
		svc, repo, _, _ := newTestService(t)
		repo.On("GetRecommendation", mock.Anything, int64(9)).Return(nil, models.ErrNotFound).Once()
		_, err := svc.Update(context.Background(), 9, models.RecommendationUpdate{Status: models.RecommendationClosed})
		require.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestRecommendationService_StatsCached(t *testing.T) {
	svc, repo, mr, _ := newTestService(t)
	repo.On("ListClosedRecommendations", mock.Anything).
		Return([]*models.Recommendation{{ProfitLossPercent: f64(10)}, {ProfitLossPercent: f64(-2)}}, nil).Once()

	first, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, first.TotalTrades)
	assert.True(t, mr.Exists(StatsCacheKey))

	second, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	repo.AssertNumberOfCalls(t, "ListClosedRecommendations", 1)
}

func TestRecommendationService_StatsWithoutCache(t *testing.T) {
	svc, repo, mr, _ := newTestService(t)
	mr.Close()
	repo.On("ListClosedRecommendations", mock.Anything).Return([]*models.Recommendation{}, nil).Once()

	st, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.Stats{}, st)
}

func TestRecommendationService_Chart(t *testing.T) {
	svc, repo, _, store := newTestService(t)
	key := "charts/TCS_1.png"
	require.NoError(t, store.Put(context.Background(), key, strings.NewReader("img"), "image/png"))

	repo.On("GetRecommendation", mock.Anything, int64(1)).Return(&models.Recommendation{ID: 1, ChartImage: &key}, nil)
	repo.On("GetRecommendation", mock.Anything, int64(2)).Return(&models.Recommendation{ID: 2}, nil)

	body, ct, err := svc.Chart(context.Background(), 1)
	require.NoError(t, err)
	defer body.Close()
	assert.Equal(t, "image/png", ct)

	_, _, err = svc.Chart(context.Background(), 2)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestRecommendationService_Latest(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	repo.On("ListRecommendations", mock.Anything, LatestLimit).Return([]*models.Recommendation{{ID: 1}}, nil).Once()

	res, err := svc.Latest(context.Background())
	require.NoError(t, err)
	assert.Len(t, res, 1)
	repo.AssertExpectations(t)
}

func TestRecommendationService_Analytics(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	now := time.Date(2025, 2, 14, 10, 0, 0, 0, time.UTC)
	from := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	repo.On("ListClosedRecommendationsCreatedBetween", mock.Anything, from, to).
		Return([]*models.Recommendation{{ID: 1, ProfitLossPercent: f64(10)}}, nil).Once()

	a, err := svc.Analytics(context.Background(), 100000, now)
	require.NoError(t, err)
	assert.Equal(t, "2025-02", a.Month)
	assert.InDelta(t, 5000, a.PerStockAllocation, 1e-9)
	assert.InDelta(t, 500, a.MonthlyProfit, 1e-9)
	assert.Equal(t, 1, a.Stats.TotalTrades)
	assert.Len(t, a.Trades, 1)
}
