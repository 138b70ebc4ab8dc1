// Package buy реализует HTTP-обработчик покупки одноразового номера.
//
// Handler валидирует запрос, вызывает бизнес-логику покупки и возвращает
// созданный заказ. Ошибка провайдера передаётся пользователю без списания
// средств.
package buy

import (
	"context"
	"encoding/json"
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
	"github.com/pcinfobro/numvault/internal/services/order"
	"github.com/pcinfobro/numvault/internal/storage/repository"
)

// Handler управляет HTTP-запросами на покупку номера.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики покупки.
type Service interface {
	Buy(ctx context.Context, userUID string, req models.DummyBuyOrder) (*models.Order, error)
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
// @Summary Купить одноразовый номер
// @Description Покупает номер для приёма SMS выбранного сервиса. Средства списываются после успешного ответа провайдера.
// @Tags Orders
// @Security BearerAuth
// @Accept  json
// @Produce  json
// @Param request body models.DummyBuyOrder true "Параметры покупки"
// @Success 200 {object} response.Response "Созданный заказ"
// @Failure 400 {object} response.ErrorResponse "Недостаточно средств или ошибка провайдера"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /orders [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.order.buy"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyBuyOrder
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	created, err := h.service.Buy(r.Context(), userUID, req)
	if err != nil {
		var provErr *tellabot.ProviderError
		switch {
		case errors.Is(err, order.ErrUnknownService):
			log.Error("unknown service")
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
			log.Error("failed to buy number", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not buy number"))
		}
		return
	}

	log.Info("order created", slog.String("id", created.ID))
	render.JSON(w, r, response.StatusOKWithData(created))
}
