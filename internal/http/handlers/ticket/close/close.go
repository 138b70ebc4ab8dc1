// Package close реализует HTTP-обработчик закрытия тикета поддержки.
package close

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/pcinfobro/numvault/internal/http/middlewarectx"
	"github.com/pcinfobro/numvault/internal/http/response"
	"github.com/pcinfobro/numvault/internal/lib/sl"
	"github.com/pcinfobro/numvault/internal/storage/repository"
)

// Handler управляет HTTP-запросами на закрытие тикета.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики закрытия тикета.
type Service interface {
	Close(ctx context.Context, userUID string, ticketID int64) error
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Закрыть тикет
// @Description Помечает обращение закрытым.
// @Tags Support
// @Security BearerAuth
// @Produce  json
// @Param id path int true "ID тикета"
// @Success 200 {object} response.Response "Тикет закрыт"
// @Failure 400 {object} response.ErrorResponse "Неверный ID"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Тикет не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /tickets/{id}/close [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.ticket.close"
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

	ticketID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		log.Error("invalid ticket id", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid ticket id"))
		return
	}

	if err := h.service.Close(r.Context(), userUID, ticketID); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			log.Error("ticket not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("ticket not found"))
		default:
			log.Error("failed to close ticket", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not close ticket"))
		}
		return
	}

	render.JSON(w, r, response.StatusOKWithData(nil))
}
