// Package action реализует HTTP-обработчик переключения флагов аренды
// (hotspot, dislike, addToCart).
package action

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/pcinfobro/numvault/internal/http/middlewarectx"
	"github.com/pcinfobro/numvault/internal/http/response"
	"github.com/pcinfobro/numvault/internal/lib/sl"
	"github.com/pcinfobro/numvault/internal/models"
	"github.com/pcinfobro/numvault/internal/storage/repository"
)

// Handler управляет HTTP-запросами на переключение флагов аренды.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики флагов аренды.
type Service interface {
	ToggleAction(ctx context.Context, userUID, rentalID, action string) (*models.Rental, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Переключить флаг аренды
// @Description Инвертирует один из пользовательских флагов аренды.
// @Tags Rentals
// @Security BearerAuth
// @Accept  json
// @Produce  json
// @Param id path string true "ID аренды"
// @Param input body models.DummyRentalAction true "Имя флага"
// @Success 200 {object} response.Response "Аренда с обновлённым флагом"
// @Failure 400 {object} response.ErrorResponse "Неизвестный флаг"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Аренда не найдена"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /rentals/{id}/action [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.rental.action"
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

	var req models.DummyRentalAction
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode request"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		var validateErr validator.ValidationErrors
		errors.As(err, &validateErr)
		log.Error("invalid request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(validateErr))
		return
	}

	rentalID := chi.URLParam(r, "id")
	result, err := h.service.ToggleAction(r.Context(), userUID, rentalID, req.Action)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			log.Error("rental not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("rental not found"))
		default:
			log.Error("failed to toggle rental action", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not toggle rental action"))
		}
		return
	}

	render.JSON(w, r, response.StatusOKWithData(result))
}
