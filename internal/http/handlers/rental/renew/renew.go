// Package renew реализует HTTP-обработчик повторной аренды того же номера.
package renew

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
	"github.com/pcinfobro/numvault/internal/provider/tellabot"
	"github.com/pcinfobro/numvault/internal/services/rental"
	"github.com/pcinfobro/numvault/internal/storage/repository"
)

// Handler управляет HTTP-запросами на повторную аренду.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики повторной аренды.
type Service interface {
	Renew(ctx context.Context, userUID, rentalID string) (*models.Rental, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Повторно арендовать номер
// @Description Бронирует тот же номер у провайдера новой арендой, срок суммируется с остатком.
// @Tags Rentals
// @Security BearerAuth
// @Produce  json
// @Param id path string true "ID исходной аренды"
// @Success 200 {object} response.Response "Новая связанная аренда"
// @Failure 400 {object} response.ErrorResponse "Недостаточно средств или номер не выделен"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Аренда не найдена"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /rentals/{id}/renew [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.rental.renew"
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
	result, err := h.service.Renew(r.Context(), userUID, rentalID)
	if err != nil {
		var provErr *tellabot.ProviderError
		switch {
		case errors.Is(err, repository.ErrNotFound):
			log.Error("rental not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("rental not found"))
		case errors.Is(err, repository.ErrInsufficientFunds):
			log.Error("insufficient funds")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("insufficient funds"))
		case errors.Is(err, rental.ErrNumberNotAssigned):
			log.Error("number is not assigned yet")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("number is not assigned yet"))
		case errors.Is(err, rental.ErrUnknownService):
			log.Error("unknown service")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("unknown service"))
		case errors.As(err, &provErr):
			log.Error("provider error", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(provErr.Message))
		default:
			log.Error("failed to renew rental", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not renew rental"))
		}
		return
	}

	render.JSON(w, r, response.StatusOKWithData(result))
}
