// Package create реализует HTTP-обработчик публикации торговой рекомендации администратором.
//
// Принимает multipart/form-data с необязательным файлом графика chart_image
// или JSON без графика. Файлы с неподдерживаемым расширением пропускаются.
package create

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/tradingpro/internal/http/response"
	"github.com/magabrotheeeer/tradingpro/internal/lib/sl"
	"github.com/magabrotheeeer/tradingpro/internal/models"
	services "github.com/magabrotheeeer/tradingpro/internal/services/recommendation"
)

// MaxUploadSize ограничение на размер multipart-запроса.
const MaxUploadSize = 16 << 20

// Service определяет интерфейс бизнес-логики создания рекомендации.
type Service interface {
	Create(ctx context.Context, in models.DummyRecommendation, chart *services.ChartUpload) (int64, error)
}

// Handler обрабатывает запросы на создание рекомендации.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис рекомендаций
	validate *validator.Validate // Валидатор структуры входящих данных
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Опубликовать рекомендацию
// @Tags Admin
// @Accept  multipart/form-data
// @Produce  json
// @Security BearerAuth
// @Param stock_name formData string true "Название бумаги"
// @Param stock_symbol formData string true "Тикер"
// @Param recommendation_type formData string true "BUY или SELL"
// @Param entry_price formData number true "Цена входа"
// @Param target_price formData number false "Цель"
// @Param stop_loss formData number false "Стоп-лосс"
// @Param notes formData string false "Комментарий"
// @Param chart_image formData file false "График"
// @Success 201 {object} map[string]any "ID созданной рекомендации"
// @Failure 400 {object} response.ErrorResponse "Некорректные данные формы"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/recommendations [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.recommendation.create"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var (
		req   models.DummyRecommendation
		chart *services.ChartUpload
		err   error
	)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
		var file multipart.File
		req, file, chart, err = parseForm(r)
		if file != nil {
			defer file.Close()
		}
	} else {
		err = json.NewDecoder(r.Body).Decode(&req)
	}
	if err != nil {
		log.Error("failed to decode request", sl.Err(err))
		response.JSONError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	if err = h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	id, err := h.service.Create(r.Context(), req, chart)
	if errors.Is(err, models.ErrInvalidEntryPrice) {
		response.JSONError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err != nil {
		log.Error("failed to create recommendation", sl.Err(err))
		response.JSONError(w, r, http.StatusInternalServerError, "could not create recommendation")
		return
	}

	log.Info("recommendation created", slog.Int64("id", id), slog.String("symbol", req.StockSymbol))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"id": id,
	}))
}

func parseForm(r *http.Request) (models.DummyRecommendation, multipart.File, *services.ChartUpload, error) {
	var req models.DummyRecommendation
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		return req, nil, nil, err
	}

	req.StockName = r.FormValue("stock_name")
	req.StockSymbol = r.FormValue("stock_symbol")
	req.Direction = strings.ToUpper(strings.TrimSpace(r.FormValue("recommendation_type")))
	req.Notes = r.FormValue("notes")

	entry, err := optionalFloat(r, "entry_price")
	if err != nil {
		return req, nil, nil, err
	}
	if entry != nil {
		req.EntryPrice = *entry
	}
	if req.TargetPrice, err = optionalFloat(r, "target_price"); err != nil {
		return req, nil, nil, err
	}
	if req.StopLoss, err = optionalFloat(r, "stop_loss"); err != nil {
		return req, nil, nil, err
	}

	file, header, err := r.FormFile("chart_image")
	if errors.Is(err, http.ErrMissingFile) {
		return req, nil, nil, nil
	}
	if err != nil {
		return req, nil, nil, err
	}
	if header.Filename == "" {
		return req, file, nil, nil
	}
	return req, file, &services.ChartUpload{Filename: header.Filename, Body: file}, nil
}

func optionalFloat(r *http.Request, field string) (*float64, error) {
	raw := strings.TrimSpace(r.FormValue(field))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", field, err)
	}
	return &v, nil
}
