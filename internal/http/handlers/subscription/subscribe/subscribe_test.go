package subscribe

import (
	"bytes"
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

	"github.com/magabrotheeeer/tradingpro/internal/http/middlewarectx"
	"github.com/magabrotheeeer/tradingpro/internal/models"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Subscribe(ctx context.Context, userID int64, planName, couponCode string, today time.Time) (*models.Payment, error) {
	args := m.Called(ctx, userID, planName, couponCode, today)
	p, _ := args.Get(0).(*models.Payment)
	return p, args.Error(1)
}

func TestSubscribeHandler(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name       string
		body       any
		anonymous  bool
		setupMocks func(*ServiceMock)
		wantCode   int
		wantBody   string
	}{
		{
			name: "monthly with coupon",
			body: models.SubscribeRequest{Plan: "monthly", Coupon: "SAVE10"},
			setupMocks: func(m *ServiceMock) {
				m.On("Subscribe", mock.Anything, int64(3), "monthly", "SAVE10", mock.Anything).
					Return(&models.Payment{ID: 1, Amount: 900, InvoiceNumber: "INV-20261019-3"}, nil).Once()
			},
			wantCode: http.StatusCreated,
			wantBody: `"invoice_number":"INV-20261019-3"`,
		},
		{
			name:       "unknown plan",
			body:       models.SubscribeRequest{Plan: "yearly"},
			setupMocks: func(*ServiceMock) {},
			wantCode:   http.StatusUnprocessableEntity,
			wantBody:   `field Plan must be one of [monthly quarterly]`,
		},
		{
			name:       "bad json",
			body:       "{",
			setupMocks: func(*ServiceMock) {},
			wantCode:   http.StatusBadRequest,
		},
		{
			name:       "anonymous",
			body:       models.SubscribeRequest{Plan: "monthly"},
			anonymous:  true,
			setupMocks: func(*ServiceMock) {},
			wantCode:   http.StatusUnauthorized,
		},
		{
			name: "service error",
			body: models.SubscribeRequest{Plan: "quarterly"},
			setupMocks: func(m *ServiceMock) {
				m.On("Subscribe", mock.Anything, int64(3), "quarterly", "", mock.Anything).
					Return(nil, errors.New("tx failed")).Once()
			},
			wantCode: http.StatusInternalServerError,
			wantBody: `"error":"could not process payment"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			tt.setupMocks(svc)

			var body []byte
			if s, ok := tt.body.(string); ok {
				body = []byte(s)
			} else {
				body, _ = json.Marshal(tt.body)
			}
			req := httptest.NewRequest(http.MethodPost, "/subscribe", bytes.NewReader(body))
			if !tt.anonymous {
				req = req.WithContext(middlewarectx.WithIdentity(req.Context(), models.Identity{UserID: 3, Role: models.RoleUser}))
			}
			rec := httptest.NewRecorder()

			New(log, svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantBody != "" {
				assert.Contains(t, rec.Body.String(), tt.wantBody)
			}
			svc.AssertExpectations(t)
		})
	}
}
