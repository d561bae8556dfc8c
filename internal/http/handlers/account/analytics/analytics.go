// Package analytics реализует HTTP-обработчик месячной аналитики пользователя:
// сделки, закрытые в текущем месяце, их статистику и прогноз прибыли для капитала пользователя.
package analytics

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/tradingpro/internal/http/middlewarectx"
	"github.com/magabrotheeeer/tradingpro/internal/http/response"
	"github.com/magabrotheeeer/tradingpro/internal/lib/sl"
	"github.com/magabrotheeeer/tradingpro/internal/models"
)

// UserSource возвращает пользователя, чтобы узнать его капитал.
type UserSource interface {
	GetUser(ctx context.Context, userID int64) (*models.User, error)
}

// Service строит аналитику за месяц, содержащий now.
type Service interface {
	Analytics(ctx context.Context, capital float64, now time.Time) (*models.Analytics, error)
}

// Handler обрабатывает GET /analytics.
type Handler struct {
	log     *slog.Logger
	users   UserSource
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, users UserSource, service Service) *Handler {
	return &Handler{log: log, users: users, service: service}
}

// ServeHTTP godoc
// @Summary Аналитика за текущий месяц
// @Tags Account
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} models.Analytics "Аналитика"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /analytics [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.account.analytics"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, ok := middlewarectx.IdentityFrom(r.Context())
	if !ok {
		log.Error("user identification missing")
		response.JSONError(w, r, http.StatusUnauthorized, "user identification missing")
		return
	}

	user, err := h.users.GetUser(r.Context(), id.UserID)
	if err != nil {
		log.Error("failed to get user", sl.Err(err))
		response.JSONError(w, r, http.StatusInternalServerError, "internal service error")
		return
	}

	res, err := h.service.Analytics(r.Context(), user.Capital, time.Now())
	if err != nil {
		log.Error("failed to build analytics", sl.Err(err))
		response.JSONError(w, r, http.StatusInternalServerError, "internal service error")
		return
	}

	render.JSON(w, r, response.StatusOKWithData(res))
}
