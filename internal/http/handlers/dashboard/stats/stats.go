// Package stats реализует HTTP-обработчик сводки личного кабинета.
package stats

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/pcinfobro/numvault/internal/http/middlewarectx"
	"github.com/pcinfobro/numvault/internal/http/response"
	"github.com/pcinfobro/numvault/internal/lib/sl"
	"github.com/pcinfobro/numvault/internal/models"
)

// Handler управляет HTTP-запросами на сводку личного кабинета.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс данных для сводки личного кабинета.
type Service interface {
	GetDashboardStats(ctx context.Context, userUID string) (*models.DashboardStats, error)
	ListRecentActivity(ctx context.Context, userUID string, limit int) ([]*models.ActivityItem, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Сводка личного кабинета
// @Description Возвращает агрегаты по заказам, арендам и балансу плюс последние события.
// @Tags Dashboard
// @Security BearerAuth
// @Produce  json
// @Param limit query int false "Количество событий в ленте"
// @Success 200 {object} response.Response "Сводка и лента активности"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /dashboard [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.dashboard.stats"
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

	stats, err := h.service.GetDashboardStats(r.Context(), userUID)
	if err != nil {
		log.Error("failed to get dashboard stats", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not get dashboard stats"))
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 10
	}
	activity, err := h.service.ListRecentActivity(r.Context(), userUID, limit)
	if err != nil {
		log.Error("failed to list recent activity", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list recent activity"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"stats":    stats,
		"activity": activity,
	}))
}
