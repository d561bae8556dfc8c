// Package logo реализует загрузку логотипа компании администратором
// и его публичную выдачу.
package logo

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/tradingpro/internal/chartstore"
	"github.com/magabrotheeeer/tradingpro/internal/http/response"
	"github.com/magabrotheeeer/tradingpro/internal/lib/sl"
	"github.com/magabrotheeeer/tradingpro/internal/models"
)

// MaxLogoSize ограничение на размер файла логотипа.
const MaxLogoSize = 4 << 20

// Handler обслуживает логотип.
type Handler struct {
	log   *slog.Logger
	store chartstore.Store
}

// New создает новый Handler.
func New(log *slog.Logger, store chartstore.Store) *Handler {
	return &Handler{log: log, store: store}
}

// Upload godoc
// @Summary Загрузить логотип
// @Tags Admin
// @Accept  multipart/form-data
// @Produce  json
// @Security BearerAuth
// @Param logo formData file true "Изображение"
// @Success 200 {object} map[string]any
// @Failure 400 {object} response.ErrorResponse "Файл не передан"
// @Failure 422 {object} response.ErrorResponse "Неподдерживаемый формат"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/logo [put]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.logo.upload"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	r.Body = http.MaxBytesReader(w, r.Body, MaxLogoSize)
	if err := r.ParseMultipartForm(MaxLogoSize); err != nil {
		log.Error("failed to parse form", sl.Err(err))
		response.JSONError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	file, header, err := r.FormFile("logo")
	if err != nil {
		log.Error("logo file missing", sl.Err(err))
		response.JSONError(w, r, http.StatusBadRequest, "logo file is required")
		return
	}
	defer file.Close()

	_, contentType, ok := chartstore.AllowedImage(header.Filename)
	if !ok {
		response.JSONError(w, r, http.StatusUnprocessableEntity, "unsupported image format")
		return
	}
	if err = h.store.Put(r.Context(), chartstore.LogoKey, file, contentType); err != nil {
		log.Error("failed to store logo", sl.Err(err))
		response.JSONError(w, r, http.StatusInternalServerError, "could not store logo")
		return
	}

	log.Info("logo updated", slog.String("filename", header.Filename))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"logo": chartstore.LogoKey,
	}))
}

// Get godoc
// @Summary Логотип компании
// @Tags Public
// @Produce  image/png
// @Success 200 {file} file "Изображение"
// @Failure 404 {object} response.ErrorResponse "Логотип не загружен"
// @Router /logo [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.logo.get"

	body, contentType, err := h.store.Get(r.Context(), chartstore.LogoKey)
	if errors.Is(err, models.ErrNotFound) {
		response.JSONError(w, r, http.StatusNotFound, "logo not found")
		return
	}
	if err != nil {
		h.log.Error("failed to open logo", sl.Op(op), sl.Err(err))
		response.JSONError(w, r, http.StatusInternalServerError, "could not open logo")
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", contentType)
	if _, err = io.Copy(w, body); err != nil {
		h.log.Error("failed to write logo", sl.Op(op), sl.Err(err))
	}
}
