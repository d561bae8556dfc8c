package stats

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/tradingpro/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Stats(ctx context.Context) (models.Stats, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.Stats), args.Error(1)
}

func TestStatsHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc := new(MockService)
	svc.On("Stats", mock.Anything).Return(models.Stats{TotalTrades: 4, WinningTrades: 3, WinRate: 0.75, WinRatePercent: 75, AvgReturn: 6.5}, nil).Once()
	rec := httptest.NewRecorder()
	New(logger, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var got struct {
		Status string       `json:"status"`
		Data   models.Stats `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "OK", got.Status)
	assert.Equal(t, 3, got.Data.WinningTrades)
	assert.InDelta(t, 75, got.Data.WinRatePercent, 1e-9)

	failing := new(MockService)
	failing.On("Stats", mock.Anything).Return(models.Stats{}, errors.New("db")).Once()
	rec = httptest.NewRecorder()
	New(logger, failing).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
