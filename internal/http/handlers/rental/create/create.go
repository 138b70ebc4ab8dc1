// Package create реализует HTTP-обработчик долгосрочной аренды номера.
package create

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/pcinfobro/numvault/internal/http/middlewarectx"
	"github.com/pcinfobro/numvault/internal/http/response"
	"github.com/pcinfobro/numvault/internal/lib/sl"
	"github.com/pcinfobro/numvault/internal/models"
	"github.com/pcinfobro/numvault/internal/provider/tellabot"
	"github.com/pcinfobro/numvault/internal/services/rental"
	"github.com/pcinfobro/numvault/internal/storage/repository"
)

// Handler управляет HTTP-запросами на создание аренды.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики аренды номеров.
type Service interface {
	Create(ctx context.Context, userUID string, req models.DummyCreateRental) (*models.Rental, error)
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
// @Summary Арендовать номер
// @Description Резервирует номер у провайдера на 3 или 30 дней и списывает стоимость с баланса.
// @Tags Rentals
// @Security BearerAuth
// @Accept  json
// @Produce  json
// @Param input body models.DummyCreateRental true "Параметры аренды"
// @Success 200 {object} response.Response "Созданная аренда"
// @Failure 400 {object} response.ErrorResponse "Недостаточно средств или неизвестный сервис"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /rentals [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.rental.create"
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

	var req models.DummyCreateRental
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

	result, err := h.service.Create(r.Context(), userUID, req)
	if err != nil {
		var provErr *tellabot.ProviderError
		switch {
		case errors.Is(err, rental.ErrUnknownService):
			log.Error("unknown service", slog.String("service", req.Service))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("unknown service"))
		case errors.Is(err, repository.ErrInsufficientFunds):
			log.Error("insufficient funds")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("insufficient funds"))
		case errors.As(err, &provErr):
			log.Error("provider error", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(provErr.Message))
		default:
			log.Error("failed to create rental", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not create rental"))
		}
		return
	}

	log.Info("rental created", slog.String("id", result.ID), slog.String("service", result.Service))
	render.JSON(w, r, response.StatusOKWithData(result))
}
