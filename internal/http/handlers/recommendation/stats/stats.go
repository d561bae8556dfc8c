// Package stats реализует публичный HTTP-обработчик статистики закрытых сделок.
package stats

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/tradingpro/internal/http/response"
	"github.com/magabrotheeeer/tradingpro/internal/lib/sl"
	"github.com/magabrotheeeer/tradingpro/internal/models"
)

// Service возвращает статистику.
type Service interface {
	Stats(ctx context.Context) (models.Stats, error)
}

// Handler обрабатывает GET /stats.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Статистика сделок
// @Tags Recommendations
// @Produce  json
// @Success 200 {object} models.Stats
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /stats [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.recommendation.stats"

	res, err := h.service.Stats(r.Context())
	if err != nil {
		h.log.Error("failed to compute stats",
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			sl.Err(err),
		)
		response.JSONError(w, r, http.StatusInternalServerError, "internal service error")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(res))
}
