// Package read реализует HTTP-обработчики для получения рекомендации по ID
// и изображения её графика.
//
// Handler извлекает ID из URL-параметров, вызывает бизнес-логику и возвращает
// рекомендацию в JSON-формате. ChartHandler отдаёт файл графика как есть.
package read

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/tradingpro/internal/http/response"
	"github.com/magabrotheeeer/tradingpro/internal/lib/sl"
	"github.com/magabrotheeeer/tradingpro/internal/models"
)

// Service описывает интерфейс бизнес-логики чтения рекомендации.
type Service interface {
	Get(ctx context.Context, id int64) (*models.Recommendation, error)
	Chart(ctx context.Context, id int64) (io.ReadCloser, string, error)
}

// Handler обрабатывает запросы на получение рекомендации по идентификатору.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис рекомендаций
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Рекомендация по ID
// @Tags Recommendations
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID рекомендации"
// @Success 200 {object} models.Recommendation
// @Failure 400 {object} response.ErrorResponse "Некорректный ID"
// @Failure 404 {object} response.ErrorResponse "Рекомендация не найдена"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /recommendations/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.recommendation.read"

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

	res, err := h.service.Get(r.Context(), id)
	if errors.Is(err, models.ErrNotFound) {
		response.JSONError(w, r, http.StatusNotFound, "recommendation not found")
		return
	}
	if err != nil {
		log.Error("failed to read recommendation", sl.Err(err))
		response.JSONError(w, r, http.StatusInternalServerError, "could not read recommendation")
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"recommendation": res,
	}))
}

// ChartHandler отдаёт изображение графика рекомендации.
type ChartHandler struct {
	log     *slog.Logger
	service Service
}

// NewChart создает новый ChartHandler.
func NewChart(log *slog.Logger, service Service) *ChartHandler {
	return &ChartHandler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary График рекомендации
// @Tags Recommendations
// @Produce  image/png
// @Security BearerAuth
// @Param id path int true "ID рекомендации"
// @Success 200 {file} file "Изображение"
// @Failure 404 {object} response.ErrorResponse "Графика нет"
// @Router /recommendations/{id}/chart [get]
func (h *ChartHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.recommendation.chart"

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

	body, contentType, err := h.service.Chart(r.Context(), id)
	if errors.Is(err, models.ErrNotFound) {
		response.JSONError(w, r, http.StatusNotFound, "chart not found")
		return
	}
	if err != nil {
		log.Error("failed to open chart", sl.Err(err))
		response.JSONError(w, r, http.StatusInternalServerError, "could not open chart")
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	if _, err = io.Copy(w, body); err != nil {
		log.Error("failed to write chart", sl.Err(err))
	}
}
