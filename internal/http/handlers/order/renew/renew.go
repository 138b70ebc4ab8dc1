// Package renew реализует HTTP-обработчик продления заказа на тот же номер.
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
	"github.com/pcinfobro/numvault/internal/services/order"
	"github.com/pcinfobro/numvault/internal/storage/repository"
)

// Handler управляет HTTP-запросами на продление заказа.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики продления заказа.
type Service interface {
	Renew(ctx context.Context, userUID, orderID string) (*models.Order, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Продлить заказ
// @Description Создаёт новый заказ на тот же номер, срок действия суммируется с остатком.
// @Tags Orders
// @Security BearerAuth
// @Produce  json
// @Param id path string true "ID исходного заказа"
// @Success 200 {object} response.Response "Новый связанный заказ"
// @Failure 400 {object} response.ErrorResponse "Недостаточно средств или номер не выделен"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Заказ не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /orders/{id}/renew [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.order.renew"
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

	orderID := chi.URLParam(r, "id")
	result, err := h.service.Renew(r.Context(), userUID, orderID)
	if err != nil {
		var provErr *tellabot.ProviderError
		switch {
		case errors.Is(err, repository.ErrNotFound):
			log.Error("order not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("order not found"))
		case errors.Is(err, repository.ErrInsufficientFunds):
			log.Error("insufficient funds")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("insufficient funds"))
		case errors.Is(err, order.ErrNumberNotAssigned):
			log.Error("number is not assigned yet")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("number is not assigned yet"))
		case errors.Is(err, order.ErrUnknownService):
			log.Error("unknown service")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("unknown service"))
		case errors.As(err, &provErr):
			log.Error("provider error", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(provErr.Message))
		default:
			log.Error("failed to renew order", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not renew order"))
		}
		return
	}

	render.JSON(w, r, response.StatusOKWithData(result))
}
