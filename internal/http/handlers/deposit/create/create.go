// Package create реализует HTTP-обработчик создания криптовалютного депозита.
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
	"github.com/pcinfobro/numvault/internal/services/deposit"
)

// Handler управляет HTTP-запросами на создание депозита.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики депозитов.
type Service interface {
	Create(ctx context.Context, userUID string, req models.DummyCreateDeposit) (*models.Deposit, error)
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
// @Summary Создать депозит
// @Description Выставляет счёт в платёжном шлюзе и возвращает ссылку на оплату.
// @Tags Payments
// @Security BearerAuth
// @Accept  json
// @Produce  json
// @Param input body models.DummyCreateDeposit true "Сумма в USD, валюта и сеть"
// @Success 200 {object} response.Response "Депозит со ссылкой на оплату"
// @Failure 400 {object} response.ErrorResponse "Недопустимая сеть для валюты"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /payments/deposit [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.deposit.create"
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

	var req models.DummyCreateDeposit
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
		switch {
		case errors.Is(err, deposit.ErrInvalidNetwork):
			log.Error("invalid network for currency",
				slog.String("currency", req.Currency),
				slog.String("network", req.Network))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid network for currency"))
		default:
			log.Error("failed to create deposit", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not create deposit"))
		}
		return
	}

	log.Info("deposit created", slog.String("transaction_id", result.TransactionID))
	render.JSON(w, r, response.StatusOKWithData(result))
}
