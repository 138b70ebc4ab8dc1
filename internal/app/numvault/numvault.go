package numvault

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/pcinfobro/numvault/internal/cache"
	"github.com/pcinfobro/numvault/internal/config"
	"github.com/pcinfobro/numvault/internal/lib/jwt"
	"github.com/pcinfobro/numvault/internal/lib/rabbitmq"
	"github.com/pcinfobro/numvault/internal/migrations"
	"github.com/pcinfobro/numvault/internal/provider/cryptomus"
	"github.com/pcinfobro/numvault/internal/provider/rates"
	"github.com/pcinfobro/numvault/internal/provider/tellabot"
	authservice "github.com/pcinfobro/numvault/internal/services/auth"
	balanceservice "github.com/pcinfobro/numvault/internal/services/balance"
	catalogservice "github.com/pcinfobro/numvault/internal/services/catalog"
	depositservice "github.com/pcinfobro/numvault/internal/services/deposit"
	orderservice "github.com/pcinfobro/numvault/internal/services/order"
	rentalservice "github.com/pcinfobro/numvault/internal/services/rental"
	ticketservice "github.com/pcinfobro/numvault/internal/services/ticket"
	"github.com/pcinfobro/numvault/internal/storage/repository"
)

type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	conn   *amqp.Connection
	ch     *amqp.Channel
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, "./migrations"); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetMailQueues())
	if err != nil {
		conn.Close()
		return nil, err
	}

	providerClient := tellabot.NewClient(cfg.TellabotEndpoint, cfg.TellabotUser, cfg.TellabotAPIKey, cfg.TellabotTimeout)
	gatewayClient := cryptomus.NewClient(cfg.CryptomusMerchantID, cfg.CryptomusAPIKey, cfg.CryptomusBaseURL)
	ratesClient := rates.NewClient(cfg.RatesAPIURL)

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)

	authService := authservice.NewAuthService(db, jwtMaker, ch, logger)
	balanceService := balanceservice.New(db, logger)
	orderService := orderservice.New(db, balanceService, providerClient, logger)
	rentalService := rentalservice.New(db, balanceService, providerClient, logger)
	depositService := depositservice.New(db, gatewayClient, ratesClient, cfg.Cryptomus, logger)
	catalogService := catalogservice.New(db, cacheRedis, providerClient, logger)
	ticketService := ticketservice.New(db, ch, cfg.AdminEmail, logger)

	router := chi.NewRouter()

	RegisterRoutes(router, logger, &Services{
		Auth:    authService,
		Balance: balanceService,
		Order:   orderService,
		Rental:  rentalService,
		Deposit: depositService,
		Catalog: catalogService,
		Ticket:  ticketService,
		Store:   db,
	})

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		conn:   conn,
		ch:     ch,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		_ = a.ch.Close()
		_ = a.conn.Close()
		a.db.DB.Close()
		return err
	}
}
