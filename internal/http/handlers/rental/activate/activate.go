// Package activate реализует HTTP-обработчик активации арендованного номера.
package activate

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

// Handler управляет HTTP-запросами на активацию аренды.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики активации аренды.
type Service interface {
	Activate(ctx context.Context, userUID, rentalID string) error
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Активировать арендованный номер
// @Description Просит провайдера включить приём SMS на арендованном номере.
// @Tags Rentals
// @Security BearerAuth
// @Produce  json
// @Param id path string true "ID аренды"
// @Success 200 {object} response.Response "Номер активирован"
// @Failure 400 {object} response.ErrorResponse "Аренда не активна или номер не выделен"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Аренда не найдена"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /rentals/{id}/activate [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.rental.activate"
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
	if err := h.service.Activate(r.Context(), userUID, rentalID); err != nil {
		var provErr *tellabot.ProviderError
		switch {
		case errors.Is(err, repository.ErrNotFound):
			log.Error("rental not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("rental not found"))
		case errors.Is(err, rental.ErrNotActive):
			log.Error("rental is not active")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("rental is not active"))
		case errors.Is(err, rental.ErrNumberNotAssigned):
			log.Error("number is not assigned yet")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("number is not assigned yet"))
		case errors.As(err, &provErr):
			log.Error("provider error", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(provErr.Message))
		default:
			log.Error("failed to activate rental", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not activate rental"))
		}
		return
	}

	render.JSON(w, r, response.StatusOKWithData(nil))
}
