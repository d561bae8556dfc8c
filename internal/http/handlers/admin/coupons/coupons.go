// Package coupons реализует HTTP-обработчики управления скидочными купонами:
// список, создание и деактивацию.
package coupons

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

// Service описывает операции над купонами.
type Service interface {
	List(ctx context.Context) ([]*models.Coupon, error)
	Create(ctx context.Context, req models.DummyCoupon) (int64, error)
	Deactivate(ctx context.Context, id int64) error
}

// Handler объединяет обработчики купонов.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service, validate: validator.New()}
}

func (h *Handler) logger(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

// List godoc
// @Summary Список купонов
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Success 200 {array} models.Coupon
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/coupons [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.admin.coupons.list")

	res, err := h.service.List(r.Context())
	if err != nil {
		log.Error("failed to list coupons", sl.Err(err))
		response.JSONError(w, r, http.StatusInternalServerError, "internal service error")
		return
	}
	if res == nil {
		res = []*models.Coupon{}
	}
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"coupons": res,
	}))
}

// Create godoc
// @Summary Создать купон
// @Tags Admin
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.DummyCoupon true "Купон"
// @Success 201 {object} map[string]any
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 409 {object} response.ErrorResponse "Код уже занят"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/coupons [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.admin.coupons.create")

	var req models.DummyCoupon
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

	id, err := h.service.Create(r.Context(), req)
	switch {
	case errors.Is(err, models.ErrCouponExists):
		response.JSONError(w, r, http.StatusConflict, "coupon code already exists")
		return
	case errors.Is(err, models.ErrInvalidCoupon):
		response.JSONError(w, r, http.StatusUnprocessableEntity, "invalid coupon parameters")
		return
	case err != nil:
		log.Error("failed to create coupon", sl.Err(err))
		response.JSONError(w, r, http.StatusInternalServerError, "internal service error")
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"id": id,
	}))
}

// Deactivate godoc
// @Summary Деактивировать купон
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID купона"
// @Success 200 {object} map[string]any
// @Failure 400 {object} response.ErrorResponse "Некорректный ID"
// @Failure 404 {object} response.ErrorResponse "Купон не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/coupons/{id} [delete]
func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.admin.coupons.deactivate")

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		log.Error("failed to decode id from url", sl.Err(err))
		response.JSONError(w, r, http.StatusBadRequest, "failed to decode id from url")
		return
	}

	err = h.service.Deactivate(r.Context(), id)
	if errors.Is(err, models.ErrNotFound) {
		response.JSONError(w, r, http.StatusNotFound, "coupon not found")
		return
	}
	if err != nil {
		log.Error("failed to deactivate coupon", sl.Err(err))
		response.JSONError(w, r, http.StatusInternalServerError, "internal service error")
		return
	}

	log.Info("coupon deactivated", slog.Int64("id", id))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"id":     id,
		"active": false,
	}))
}
