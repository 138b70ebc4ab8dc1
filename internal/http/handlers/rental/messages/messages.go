// Package messages реализует HTTP-обработчик чтения SMS арендованного номера.
//
// Отсутствие сообщений — штатный ответ с пустым списком.
package messages

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
	"github.com/pcinfobro/numvault/internal/provider/tellabot"
	"github.com/pcinfobro/numvault/internal/services/rental"
	"github.com/pcinfobro/numvault/internal/storage/repository"
)

// Handler управляет HTTP-запросами на чтение SMS аренды.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики чтения SMS аренды.
type Service interface {
	Messages(ctx context.Context, userUID, rentalID string) ([]tellabot.SMSMessage, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Сообщения аренды
// @Description Возвращает входящие SMS арендованного номера. Статус аренды не меняется.
// @Tags Rentals
// @Security BearerAuth
// @Produce  json
// @Param id path string true "ID аренды"
// @Success 200 {object} response.Response "Список SMS (возможно пустой)"
// @Failure 400 {object} response.ErrorResponse "Номер ещё не выделен"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Аренда не найдена"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /rentals/{id}/messages [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.rental.messages"
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
	result, err := h.service.Messages(r.Context(), userUID, rentalID)
	if err != nil {
		var provErr *tellabot.ProviderError
		switch {
		case errors.Is(err, repository.ErrNotFound):
			log.Error("rental not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("rental not found"))
		case errors.Is(err, rental.ErrNumberNotAssigned):
			log.Error("number is not assigned yet")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("number is not assigned yet"))
		case errors.As(err, &provErr):
			log.Error("provider error", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(provErr.Message))
		default:
			log.Error("failed to read rental messages", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not read rental messages"))
		}
		return
	}

	render.JSON(w, r, response.StatusOKWithData(result))
}
