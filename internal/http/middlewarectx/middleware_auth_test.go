package middlewarectx_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/tradingpro/internal/http/middlewarectx"
	"github.com/magabrotheeeer/tradingpro/internal/models"
)

// Mock for auth service
type AuthClientMock struct {
	mock.Mock
}

func (m *AuthClientMock) ValidateToken(ctx context.Context, token string) (*models.Identity, error) {
	args := m.Called(ctx, token)
	resp, _ := args.Get(0).(*models.Identity)
	return resp, args.Error(1)
}

type CheckerMock struct {
	mock.Mock
}

func (m *CheckerMock) HasActiveSubscription(ctx context.Context, userID int64, today time.Time) (bool, error) {
	args := m.Called(ctx, userID, today)
	return args.Bool(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestJWTMiddleware(t *testing.T) {
	authMock := new(AuthClientMock)
	logger := newNoopLogger()

	handlerCalled := false

	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		id, ok := middlewarectx.IdentityFrom(r.Context())
		assert.True(t, ok)
		assert.Equal(t, int64(7), id.UserID)
		assert.Equal(t, models.RoleUser, id.Role)
		w.WriteHeader(http.StatusOK)
	})

	middleware := middlewarectx.JWTMiddleware(authMock, logger)(nextHandler)

	tests := []struct {
		name           string
		authHeader     string
		mockResp       *models.Identity
		mockErr        error
		wantStatusCode int
		wantCalled     bool
	}{
		{
			name:           "missing Authorization header",
			authHeader:     "",
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "invalid Authorization header prefix",
			authHeader:     "Basic sometoken",
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "token validation error",
			authHeader:     "Bearer token",
			mockErr:        errors.New("token expired"),
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "valid token",
			authHeader:     "Bearer validtoken",
			mockResp:       &models.Identity{UserID: 7, Email: "u@example.com", Role: models.RoleUser},
			wantStatusCode: http.StatusOK,
			wantCalled:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlerCalled = false
			authMock.ExpectedCalls = nil
			authMock.Calls = nil
			if tt.mockResp != nil || tt.mockErr != nil {
				authMock.On("ValidateToken", mock.Anything, strings.TrimPrefix(tt.authHeader, "Bearer ")).
					Return(tt.mockResp, tt.mockErr).Once()
			}

			req := httptest.NewRequest(http.MethodGet, "/somepath", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()

			middleware.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			assert.Equal(t, tt.wantCalled, handlerCalled)
			authMock.AssertExpectations(t)
		})
	}
}

func TestAdminOnly(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := middlewarectx.AdminOnly(newNoopLogger())(next)

	tests := []struct {
		name     string
		identity *models.Identity
		want     int
	}{
		{name: "anonymous", want: http.StatusUnauthorized},
		{name: "user", identity: &models.Identity{UserID: 2, Role: models.RoleUser}, want: http.StatusForbidden},
		{name: "admin", identity: &models.Identity{UserID: 1, Role: models.RoleAdmin}, want: http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.identity != nil {
				req = req.WithContext(middlewarectx.WithIdentity(req.Context(), *tt.identity))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestSubscriptionStatusMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	tests := []struct {
		name       string
		identity   *models.Identity
		setupMocks func(*CheckerMock)
		want       int
	}{
		{name: "anonymous", setupMocks: func(*CheckerMock) {}, want: http.StatusUnauthorized},
		{
			name:       "admin bypasses check",
			identity:   &models.Identity{UserID: 1, Role: models.RoleAdmin},
			setupMocks: func(*CheckerMock) {},
			want:       http.StatusOK,
		},
		{
			name:     "active subscriber",
			identity: &models.Identity{UserID: 2, Role: models.RoleUser},
			setupMocks: func(c *CheckerMock) {
				c.On("HasActiveSubscription", mock.Anything, int64(2), mock.Anything).Return(true, nil).Once()
			},
			want: http.StatusOK,
		},
		{
			name:     "lapsed subscriber",
			identity: &models.Identity{UserID: 3, Role: models.RoleUser},
			setupMocks: func(c *CheckerMock) {
				c.On("HasActiveSubscription", mock.Anything, int64(3), mock.Anything).Return(false, nil).Once()
			},
			want: http.StatusForbidden,
		},
		{
			name:     "storage error",
			identity: &models.Identity{UserID: 4, Role: models.RoleUser},
			setupMocks: func(c *CheckerMock) {
				c.On("HasActiveSubscription", mock.Anything, int64(4), mock.Anything).Return(false, errors.New("db")).Once()
			},
			want: http.StatusInternalServerError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := new(CheckerMock)
			tt.setupMocks(checker)
			h := middlewarectx.SubscriptionStatusMiddleware(newNoopLogger(), checker)(next)

			req := httptest.NewRequest(http.MethodGet, "/recommendations", nil)
			if tt.identity != nil {
				req = req.WithContext(middlewarectx.WithIdentity(req.Context(), *tt.identity))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			checker.AssertExpectations(t)
		})
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	h := middlewarectx.RateLimitMiddleware(newNoopLogger(), 0.001, 2)(next)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
