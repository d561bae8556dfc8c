// Package overview реализует сводку для панели администратора:
// список пользователей и число активных подписчиков.
package overview

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/tradingpro/internal/http/response"
	"github.com/magabrotheeeer/tradingpro/internal/lib/sl"
	"github.com/magabrotheeeer/tradingpro/internal/models"
)

// Service строит сводку на дату today.
type Service interface {
	Overview(ctx context.Context, today time.Time) (*models.Overview, error)
}

// Handler обрабатывает GET /admin/overview.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Сводка администратора
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} models.Overview
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/overview [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.overview"

	res, err := h.service.Overview(r.Context(), time.Now())
	if err != nil {
		h.log.Error("failed to build overview",
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			sl.Err(err),
		)
		response.JSONError(w, r, http.StatusInternalServerError, "internal service error")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(res))
}
