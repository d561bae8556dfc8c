// Package paymentlist реализует HTTP-обработчик истории платежей пользователя.
package paymentlist

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/tradingpro/internal/http/middlewarectx"
	"github.com/magabrotheeeer/tradingpro/internal/http/response"
	"github.com/magabrotheeeer/tradingpro/internal/lib/sl"
	"github.com/magabrotheeeer/tradingpro/internal/models"
)

// SubscriptionService возвращает платежи пользователя.
type SubscriptionService interface {
	ListPayments(ctx context.Context, userID int64, limit int) ([]*models.Payment, error)
}

// Handler обрабатывает GET /payments.
type Handler struct {
	log                 *slog.Logger // Логгер для записи информации и ошибок
	subscriptionService SubscriptionService
}

// New создает новый Handler.
func New(log *slog.Logger, ss SubscriptionService) *Handler {
	return &Handler{
		log:                 log,
		subscriptionService: ss,
	}
}

// ServeHTTP godoc
// @Summary История платежей
// @Tags Payments
// @Produce  json
// @Security BearerAuth
// @Success 200 {array} models.Payment
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /payments [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, ok := middlewarectx.IdentityFrom(r.Context())
	if !ok {
		log.Error("user identification missing")
		response.JSONError(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}

	payments, err := h.subscriptionService.ListPayments(r.Context(), id.UserID, 0)
	if err != nil {
		log.Error("failed to list payments", sl.Err(err))
		response.JSONError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	if payments == nil {
		payments = []*models.Payment{}
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"payments": payments,
	}))
}
