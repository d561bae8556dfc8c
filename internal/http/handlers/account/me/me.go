// Package me реализует HTTP-обработчик профиля текущего пользователя:
// данные аккаунта, статус подписки и последние платежи.
package me

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

// Service возвращает пользователя с последними платежами.
type Service interface {
	Me(ctx context.Context, userID int64) (*models.User, []*models.Payment, error)
}

// Handler обрабатывает GET /me.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Профиль пользователя
// @Tags Account
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} map[string]any "Пользователь, активность подписки и последние платежи"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /me [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.account.me"

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

	user, payments, err := h.service.Me(r.Context(), id.UserID)
	if err != nil {
		log.Error("failed to load profile", sl.Err(err))
		response.JSONError(w, r, http.StatusInternalServerError, "internal service error")
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"user":                user,
		"subscription_active": user.HasActiveSubscription(time.Now()),
		"payments":            payments,
	}))
}
