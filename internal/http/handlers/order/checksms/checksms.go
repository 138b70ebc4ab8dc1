// Package checksms реализует HTTP-обработчик опроса входящих SMS заказа.
//
// Отсутствие сообщений — штатный ответ: заказ возвращается без изменений.
// Полученное сообщение переводит заказ в completed.
package checksms

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

// Handler управляет HTTP-запросами на опрос SMS.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики опроса SMS.
type Service interface {
	CheckSMS(ctx context.Context, userUID, orderID string) (*models.Order, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Проверить SMS заказа
// @Description Опрашивает провайдера. Полученное сообщение сохраняется и завершает заказ.
// @Tags Orders
// @Security BearerAuth
// @Produce  json
// @Param id path string true "ID заказа"
// @Success 200 {object} response.Response "Заказ с сообщением или без"
// @Failure 400 {object} response.ErrorResponse "Номер ещё не выделен"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Заказ не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /orders/{id}/sms [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.order.checksms"
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
	result, err := h.service.CheckSMS(r.Context(), userUID, orderID)
	if err != nil {
		var provErr *tellabot.ProviderError
		switch {
		case errors.Is(err, repository.ErrNotFound):
			log.Error("order not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("order not found"))
		case errors.Is(err, order.ErrNumberNotAssigned):
			log.Error("number is not assigned yet")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("number is not assigned yet"))
		case errors.As(err, &provErr):
			log.Error("provider error", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(provErr.Message))
		default:
			log.Error("failed to check sms", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not check sms"))
		}
		return
	}

	render.JSON(w, r, response.StatusOKWithData(result))
}
