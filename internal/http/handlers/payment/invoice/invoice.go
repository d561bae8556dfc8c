// Package invoice отдаёт PDF-счёт по платежу. Скачать счёт может владелец
// платежа или администратор.
package invoice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/tradingpro/internal/http/middlewarectx"
	"github.com/magabrotheeeer/tradingpro/internal/http/response"
	"github.com/magabrotheeeer/tradingpro/internal/lib/sl"
	"github.com/magabrotheeeer/tradingpro/internal/models"
)

// Service формирует PDF-счёт.
type Service interface {
	Generate(ctx context.Context, paymentID, userID int64, isAdmin bool) ([]byte, *models.Payment, error)
}

// Handler обрабатывает GET /payments/{id}/invoice.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Скачать счёт
// @Tags Payments
// @Produce  application/pdf
// @Security BearerAuth
// @Param id path int true "ID платежа"
// @Success 200 {file} file "PDF"
// @Failure 400 {object} response.ErrorResponse "Некорректный ID"
// @Failure 403 {object} response.ErrorResponse "Чужой платёж"
// @Failure 404 {object} response.ErrorResponse "Платёж не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /payments/{id}/invoice [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.invoice"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	ident, ok := middlewarectx.IdentityFrom(r.Context())
	if !ok {
		log.Error("user identification missing")
		response.JSONError(w, r, http.StatusUnauthorized, "user identification missing")
		return
	}

	paymentID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		log.Error("failed to decode id from url", sl.Err(err))
		response.JSONError(w, r, http.StatusBadRequest, "failed to decode id from url")
		return
	}

	pdf, payment, err := h.service.Generate(r.Context(), paymentID, ident.UserID, ident.IsAdmin())
	switch {
	case errors.Is(err, models.ErrNotFound):
		response.JSONError(w, r, http.StatusNotFound, "payment not found")
		return
	case errors.Is(err, models.ErrForbidden):
		log.Warn("invoice access denied", slog.Int64("user_id", ident.UserID), slog.Int64("payment_id", paymentID))
		response.JSONError(w, r, http.StatusForbidden, "access denied")
		return
	case err != nil:
		log.Error("failed to generate invoice", sl.Err(err))
		response.JSONError(w, r, http.StatusInternalServerError, "could not generate invoice")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="Invoice_%s.pdf"`, payment.InvoiceNumber))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	if _, err = w.Write(pdf); err != nil {
		log.Error("failed to write invoice", sl.Err(err))
	}
}
