// Package update реализует HTTP-обработчик изменения рекомендации администратором:
// смена статуса, цена выхода и комментарий. При закрытии сделки пересчитывается доходность.
package update

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/tradingpro/internal/http/response"
	"github.com/magabrotheeeer/tradingpro/internal/lib/sl"
	"github.com/magabrotheeeer/tradingpro/internal/models"
)

// Service описывает интерфейс обновления рекомендации.
type Service interface {
	Update(ctx context.Context, id int64, in models.RecommendationUpdate) (*models.Recommendation, error)
}

// Handler обрабатывает PUT /admin/recommendations/{id}.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Обновить рекомендацию
// @Tags Admin
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID рекомендации"
// @Param request body models.RecommendationUpdate true "Новые значения"
// @Success 200 {object} models.Recommendation
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 404 {object} response.ErrorResponse "Рекомендация не найдена"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/recommendations/{id} [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.recommendation.update"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		log.Error("failed to decode id from url", sl.Err(err))
		response.JSONError(w, r, http.StatusBadRequest, "failed to decode id from url")
		return
	}

	var req models.RecommendationUpdate
	if err = json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.JSONError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err = h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	res, err := h.service.Update(r.Context(), id, req)
	if errors.Is(err, models.ErrNotFound) {
		response.JSONError(w, r, http.StatusNotFound, "recommendation not found")
		return
	}
	if err != nil {
		log.Error("failed to update recommendation", sl.Err(err))
		response.JSONError(w, r, http.StatusInternalServerError, "could not update recommendation")
		return
	}

	log.Info("recommendation updated", slog.Int64("id", id), slog.String("status", res.Status))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"recommendation": res,
	}))
}
