// Package capital реализует HTTP-обработчик изменения торгового капитала пользователя.
// Капитал используется только для расчёта прогноза прибыли.
package capital

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/tradingpro/internal/http/middlewarectx"
	"github.com/magabrotheeeer/tradingpro/internal/http/response"
	"github.com/magabrotheeeer/tradingpro/internal/lib/sl"
	"github.com/magabrotheeeer/tradingpro/internal/models"
)

// Service сохраняет капитал пользователя.
type Service interface {
	UpdateCapital(ctx context.Context, userID int64, capital float64) error
}

// Handler обрабатывает PUT /capital.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service, validate: validator.New()}
}

// ServeHTTP godoc
// @Summary Обновить капитал
// @Tags Account
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.CapitalRequest true "Новый капитал"
// @Success 200 {object} map[string]any "Капитал сохранён"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /capital [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.account.capital"

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

	var req models.CapitalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.JSONError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	err := h.service.UpdateCapital(r.Context(), id.UserID, *req.Capital)
	if errors.Is(err, models.ErrInvalidCapital) {
		response.JSONError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err != nil {
		log.Error("failed to update capital", sl.Err(err))
		response.JSONError(w, r, http.StatusInternalServerError, "internal service error")
		return
	}

	log.Info("capital updated", slog.Int64("user_id", id.UserID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"capital": *req.Capital,
	}))
}
