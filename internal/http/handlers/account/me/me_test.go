package me

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/tradingpro/internal/http/middlewarectx"
	"github.com/magabrotheeeer/tradingpro/internal/models"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Me(ctx context.Context, userID int64) (*models.User, []*models.Payment, error) {
	args := m.Called(ctx, userID)
	user, _ := args.Get(0).(*models.User)
	payments, _ := args.Get(1).([]*models.Payment)
	return user, payments, args.Error(2)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func withUser(r *http.Request, userID int64) *http.Request {
	return r.WithContext(middlewarectx.WithIdentity(r.Context(), models.Identity{UserID: userID, Role: models.RoleUser}))
}

func TestMeHandler(t *testing.T) {
	end := time.Now().AddDate(0, 0, 10)

	t.Run("active subscriber", func(t *testing.T) {
		svc := new(ServiceMock)
		svc.On("Me", mock.Anything, int64(4)).Return(
			&models.User{ID: 4, Email: "a@b.c", SubscriptionStatus: models.SubscriptionStatusActive, SubscriptionEndDate: &end},
			[]*models.Payment{{ID: 1, InvoiceNumber: "INV-1"}},
			nil,
		).Once()

		rec := httptest.NewRecorder()
		New(newNoopLogger(), svc).ServeHTTP(rec, withUser(httptest.NewRequest(http.MethodGet, "/me", nil), 4))

		assert.Equal(t, http.StatusOK, rec.Code)
		var got struct {
			Data struct {
				User               models.User       `json:"user"`
				SubscriptionActive bool              `json:"subscription_active"`
				Payments           []*models.Payment `json:"payments"`
			} `json:"data"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		assert.Equal(t, "a@b.c", got.Data.User.Email)
		assert.True(t, got.Data.SubscriptionActive)
		assert.Len(t, got.Data.Payments, 1)
		svc.AssertExpectations(t)
	})

	t.Run("anonymous", func(t *testing.T) {
		rec := httptest.NewRecorder()
		New(newNoopLogger(), new(ServiceMock)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("service error", func(t *testing.T) {
		svc := new(ServiceMock)
		svc.On("Me", mock.Anything, int64(4)).Return(nil, nil, errors.New("db")).Once()
		rec := httptest.NewRecorder()
		New(newNoopLogger(), svc).ServeHTTP(rec, withUser(httptest.NewRequest(http.MethodGet, "/me", nil), 4))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
