// Package numvault предоставляет маршруты для основного приложения.
package numvault

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/pcinfobro/numvault/internal/http/handlers/auth/changepassword"
	"github.com/pcinfobro/numvault/internal/http/handlers/auth/deactivate"
	"github.com/pcinfobro/numvault/internal/http/handlers/auth/forgot"
	"github.com/pcinfobro/numvault/internal/http/handlers/auth/login"
	"github.com/pcinfobro/numvault/internal/http/handlers/auth/profile"
	"github.com/pcinfobro/numvault/internal/http/handlers/auth/register"
	"github.com/pcinfobro/numvault/internal/http/handlers/auth/resend"
	"github.com/pcinfobro/numvault/internal/http/handlers/auth/reset"
	"github.com/pcinfobro/numvault/internal/http/handlers/auth/updateprofile"
	"github.com/pcinfobro/numvault/internal/http/handlers/auth/verify"
	balancehistory "github.com/pcinfobro/numvault/internal/http/handlers/balance/history"
	cataloglist "github.com/pcinfobro/numvault/internal/http/handlers/catalog/list"
	"github.com/pcinfobro/numvault/internal/http/handlers/dashboard/stats"
	depositcreate "github.com/pcinfobro/numvault/internal/http/handlers/deposit/create"
	depositlist "github.com/pcinfobro/numvault/internal/http/handlers/deposit/list"
	"github.com/pcinfobro/numvault/internal/http/handlers/deposit/webhook"
	"github.com/pcinfobro/numvault/internal/http/handlers/order/action"
	"github.com/pcinfobro/numvault/internal/http/handlers/order/buy"
	"github.com/pcinfobro/numvault/internal/http/handlers/order/checksms"
	orderlist "github.com/pcinfobro/numvault/internal/http/handlers/order/list"
	orderreject "github.com/pcinfobro/numvault/internal/http/handlers/order/reject"
	orderrenew "github.com/pcinfobro/numvault/internal/http/handlers/order/renew"
	orderstatus "github.com/pcinfobro/numvault/internal/http/handlers/order/status"
	rentalaction "github.com/pcinfobro/numvault/internal/http/handlers/rental/action"
	"github.com/pcinfobro/numvault/internal/http/handlers/rental/activate"
	"github.com/pcinfobro/numvault/internal/http/handlers/rental/cancel"
	rentalcreate "github.com/pcinfobro/numvault/internal/http/handlers/rental/create"
	"github.com/pcinfobro/numvault/internal/http/handlers/rental/extend"
	rentallist "github.com/pcinfobro/numvault/internal/http/handlers/rental/list"
	"github.com/pcinfobro/numvault/internal/http/handlers/rental/messages"
	"github.com/pcinfobro/numvault/internal/http/handlers/rental/release"
	rentalrenew "github.com/pcinfobro/numvault/internal/http/handlers/rental/renew"
	rentalstatus "github.com/pcinfobro/numvault/internal/http/handlers/rental/status"
	ticketclose "github.com/pcinfobro/numvault/internal/http/handlers/ticket/close"
	ticketcreate "github.com/pcinfobro/numvault/internal/http/handlers/ticket/create"
	ticketlist "github.com/pcinfobro/numvault/internal/http/handlers/ticket/list"
	ticketreply "github.com/pcinfobro/numvault/internal/http/handlers/ticket/reply"
	"github.com/pcinfobro/numvault/internal/http/middlewarectx"
	authservice "github.com/pcinfobro/numvault/internal/services/auth"
	balanceservice "github.com/pcinfobro/numvault/internal/services/balance"
	catalogservice "github.com/pcinfobro/numvault/internal/services/catalog"
	depositservice "github.com/pcinfobro/numvault/internal/services/deposit"
	orderservice "github.com/pcinfobro/numvault/internal/services/order"
	rentalservice "github.com/pcinfobro/numvault/internal/services/rental"
	ticketservice "github.com/pcinfobro/numvault/internal/services/ticket"
	"github.com/pcinfobro/numvault/internal/storage/repository"
)

// Services собирает зависимости HTTP-слоя.
type Services struct {
	Auth    *authservice.AuthService
	Balance *balanceservice.Service
	Order   *orderservice.Service
	Rental  *rentalservice.Service
	Deposit *depositservice.Service
	Catalog *catalogservice.Service
	Ticket  *ticketservice.Service
	Store   *repository.Storage
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, svc *Services) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/auth/register", register.New(logger, svc.Auth).ServeHTTP)
		r.Post("/auth/login", login.New(logger, svc.Auth).ServeHTTP)
		r.Post("/auth/verify", verify.New(logger, svc.Auth).ServeHTTP)
		r.Post("/auth/resend", resend.New(logger, svc.Auth).ServeHTTP)
		r.Post("/auth/forgot", forgot.New(logger, svc.Auth).ServeHTTP)
		r.Post("/auth/reset", reset.New(logger, svc.Auth).ServeHTTP)
		r.Get("/services", cataloglist.New(logger, svc.Catalog).ServeHTTP)

		// Webhook платёжного шлюза (без аутентификации, подпись в теле)
		r.Post("/payments/webhook", webhook.New(logger, svc.Deposit).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(svc.Auth, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))

			r.Post("/auth/change-password", changepassword.New(logger, svc.Auth).ServeHTTP)
			r.Get("/auth/profile", profile.New(logger, svc.Auth).ServeHTTP)
			r.Put("/auth/profile", updateprofile.New(logger, svc.Auth).ServeHTTP)
			r.Delete("/auth/profile", deactivate.New(logger, svc.Auth).ServeHTTP)

			r.Get("/dashboard", stats.New(logger, svc.Store).ServeHTTP)
			r.Get("/balance", balancehistory.New(logger, svc.Balance).ServeHTTP)

			r.Post("/orders", buy.New(logger, svc.Order).ServeHTTP)
			r.Get("/orders", orderlist.New(logger, svc.Order).ServeHTTP)
			r.Get("/orders/{id}/sms", checksms.New(logger, svc.Order).ServeHTTP)
			r.Get("/orders/{id}/status", orderstatus.New(logger, svc.Order).ServeHTTP)
			r.Post("/orders/{id}/reject", orderreject.New(logger, svc.Order).ServeHTTP)
			r.Post("/orders/{id}/renew", orderrenew.New(logger, svc.Order).ServeHTTP)
			r.Post("/orders/{id}/action", action.New(logger, svc.Order).ServeHTTP)

			r.Post("/rentals", rentalcreate.New(logger, svc.Rental).ServeHTTP)
			r.Get("/rentals", rentallist.New(logger, svc.Rental).ServeHTTP)
			r.Post("/rentals/{id}/extend", extend.New(logger, svc.Rental).ServeHTTP)
			r.Post("/rentals/{id}/renew", rentalrenew.New(logger, svc.Rental).ServeHTTP)
			r.Post("/rentals/{id}/cancel", cancel.New(logger, svc.Rental).ServeHTTP)
			r.Post("/rentals/{id}/release", release.New(logger, svc.Rental).ServeHTTP)
			r.Get("/rentals/{id}/messages", messages.New(logger, svc.Rental).ServeHTTP)
			r.Get("/rentals/{id}/status", rentalstatus.New(logger, svc.Rental).ServeHTTP)
			r.Post("/rentals/{id}/activate", activate.New(logger, svc.Rental).ServeHTTP)
			r.Post("/rentals/{id}/action", rentalaction.New(logger, svc.Rental).ServeHTTP)

			r.Post("/payments/deposit", depositcreate.New(logger, svc.Deposit).ServeHTTP)
			r.Get("/payments/deposits", depositlist.New(logger, svc.Deposit).ServeHTTP)

			r.Post("/tickets", ticketcreate.New(logger, svc.Ticket).ServeHTTP)
			r.Get("/tickets", ticketlist.New(logger, svc.Ticket).ServeHTTP)
			r.Post("/tickets/{id}/reply", ticketreply.New(logger, svc.Ticket).ServeHTTP)
			r.Post("/tickets/{id}/close", ticketclose.New(logger, svc.Ticket).ServeHTTP)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
