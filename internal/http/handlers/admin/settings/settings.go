// Package settings реализует HTTP-обработчики настроек приложения в панели администратора.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/tradingpro/internal/http/response"
	"github.com/magabrotheeeer/tradingpro/internal/lib/sl"
	"github.com/magabrotheeeer/tradingpro/internal/models"
)

// Service описывает чтение и изменение настроек.
type Service interface {
	All(ctx context.Context) (map[string]string, error)
	Update(ctx context.Context, values map[string]string) error
}

// GetHandler обрабатывает GET /admin/settings.
type GetHandler struct {
	log     *slog.Logger
	service Service
}

// NewGet создает новый GetHandler.
func NewGet(log *slog.Logger, service Service) *GetHandler {
	return &GetHandler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Настройки приложения
// @Description Секрет платёжного шлюза не возвращается.
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} map[string]string
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/settings [get]
func (h *GetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.settings.get"

	res, err := h.service.All(r.Context())
	if err != nil {
		h.log.Error("failed to load settings",
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			sl.Err(err),
		)
		response.JSONError(w, r, http.StatusInternalServerError, "internal service error")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"settings": res,
	}))
}

// UpdateHandler обрабатывает PUT /admin/settings. Незаполненные поля не меняются.
type UpdateHandler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// NewUpdate создает новый UpdateHandler.
func NewUpdate(log *slog.Logger, service Service) *UpdateHandler {
	return &UpdateHandler{log: log, service: service, validate: validator.New()}
}

// ServeHTTP godoc
// @Summary Изменить настройки
// @Tags Admin
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.SettingsRequest true "Изменяемые настройки"
// @Success 200 {object} map[string]any
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/settings [put]
func (h *UpdateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.settings.update"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.SettingsRequest
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

	values := req.Values()
	err := h.service.Update(r.Context(), values)
	if errors.Is(err, models.ErrInvalidSetting) {
		response.JSONError(w, r, http.StatusUnprocessableEntity, "invalid setting value")
		return
	}
	if err != nil {
		log.Error("failed to update settings", sl.Err(err))
		response.JSONError(w, r, http.StatusInternalServerError, "internal service error")
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"updated": len(values),
	}))
}
