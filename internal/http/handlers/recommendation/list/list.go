// Package list реализует HTTP-обработчики списков рекомендаций: полный список
// для подписчиков и несколько последних для публичной страницы.
package list

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

// Service описывает чтение списков рекомендаций.
type Service interface {
	List(ctx context.Context) ([]*models.Recommendation, error)
	Latest(ctx context.Context) ([]*models.Recommendation, error)
}

// Handler отдаёт список рекомендаций, новые первыми.
type Handler struct {
	log     *slog.Logger
	service Service
	latest  bool
}

// New создает обработчик полного списка.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// NewLatest создает обработчик последних рекомендаций.
func NewLatest(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service, latest: true}
}

// ServeHTTP godoc
// @Summary Список рекомендаций
// @Description Полный список доступен при активной подписке, /recommendations/latest публичный.
// @Tags Recommendations
// @Produce  json
// @Success 200 {array} models.Recommendation
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /recommendations [get]
// @Router /recommendations/latest [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.recommendation.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var (
		res []*models.Recommendation
		err error
	)
	if h.latest {
		res, err = h.service.Latest(r.Context())
	} else {
		res, err = h.service.List(r.Context())
	}
	if err != nil {
		log.Error("failed to list recommendations", sl.Err(err))
		response.JSONError(w, r, http.StatusInternalServerError, "could not list recommendations")
		return
	}
	if res == nil {
		res = []*models.Recommendation{}
	}

	log.Info("success to list recommendations", slog.Int("count", len(res)))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"recommendations": res,
	}))
}
