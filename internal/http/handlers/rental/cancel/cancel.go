// Package cancel реализует HTTP-обработчик локальной отмены аренды.
package cancel

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/pcinfobro/numvault/internal/http/middlewarectx"
	"github.com/pcinfobro/numvault/internal/http/response"
	"github.com/pcinfobro/numvault/internal/lib/sl"
	"github.com/pcinfobro/numvault/internal/models"
	"github.com/pcinfobro/numvault/internal/services/rental"
	"github.com/pcinfobro/numvault/internal/storage/repository"
)

// Handler управляет HTTP-запросами на отмену аренды.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики отмены аренды.
type Service interface {
	Cancel(ctx context.Context, userUID, rentalID string) (*models.Rental, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Отменить аренду
// @Description Помечает активную аренду отменённой без обращения к провайдеру и без возврата средств.
// @Tags Rentals
// @Security BearerAuth
// @Produce  json
// @Param id path string true "ID аренды"
// @Success 200 {object} response.Response "Отменённая аренда"
// @Failure 400 {object} response.ErrorResponse "Аренда не активна"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Аренда не найдена"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /rentals/{id}/cancel [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.rental.cancel"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	rentalID := chi.URLParam(r, "id")
	result, err := h.service.Cancel(r.Context(), userUID, rentalID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			log.Error("rental not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("rental not found"))
		case errors.Is(err, rental.ErrNotActive):
			log.Error("rental is not active")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("rental is not active"))
		default:
			log.Error("failed to cancel rental", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not cancel rental"))
		}
		return
	}

	render.JSON(w, r, response.StatusOKWithData(result))
}
