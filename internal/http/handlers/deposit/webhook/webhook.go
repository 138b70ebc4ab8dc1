// Package webhook реализует HTTP-обработчик уведомлений платёжного шлюза.
//
// Подпись из HTTP-заголовка sign проверяется по сырому телу запроса
// до какой-либо обработки. Повторная доставка уже зачисленного платежа
// отвечает 200 без изменений.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/pcinfobro/numvault/internal/http/response"
	"github.com/pcinfobro/numvault/internal/lib/sl"
	"github.com/pcinfobro/numvault/internal/provider/cryptomus"
	"github.com/pcinfobro/numvault/internal/storage/repository"
)

// Handler управляет HTTP-уведомлениями платёжного шлюза.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики обработки платёжных уведомлений.
type Service interface {
	VerifyWebhook(rawBody []byte, sign string) bool
	HandleWebhook(ctx context.Context, rawBody []byte, payload cryptomus.WebhookPayload) error
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Вебхук платёжного шлюза
// @Description Принимает уведомление об оплате, проверяет подпись и зачисляет средства ровно один раз.
// @Tags Payments
// @Accept  json
// @Produce  json
// @Param sign header string true "Подпись сырого тела запроса"
// @Success 200 {object} response.Response "Уведомление обработано"
// @Failure 400 {object} response.ErrorResponse "Неверная подпись или тело запроса"
// @Failure 404 {object} response.ErrorResponse "Депозит не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /payments/webhook [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.deposit.webhook"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	rawBody, err := io.ReadAll(r.Body)
	if err != nil {
		log.Error("failed to read request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to read request"))
		return
	}

	var payload cryptomus.WebhookPayload
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		log.Error("failed to decode webhook payload", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode request"))
		return
	}

	if !h.service.VerifyWebhook(rawBody, r.Header.Get("sign")) {
		log.Error("webhook signature mismatch", slog.String("order_id", payload.OrderID))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid signature"))
		return
	}

	if err := h.service.HandleWebhook(r.Context(), rawBody, payload); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			log.Error("deposit not found", slog.String("order_id", payload.OrderID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("deposit not found"))
		default:
			log.Error("failed to handle webhook", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not handle webhook"))
		}
		return
	}

	log.Info("webhook processed",
		slog.String("order_id", payload.OrderID),
		slog.String("payment_status", payload.Status))
	render.JSON(w, r, response.StatusOKWithData(nil))
}
