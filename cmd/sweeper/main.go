package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/pcinfobro/numvault/internal/cache"
	"github.com/pcinfobro/numvault/internal/config"
	"github.com/pcinfobro/numvault/internal/lib/rabbitmq"
	"github.com/pcinfobro/numvault/internal/lib/sl"
	"github.com/pcinfobro/numvault/internal/provider/tellabot"
	catalogservice "github.com/pcinfobro/numvault/internal/services/catalog"
	services "github.com/pcinfobro/numvault/internal/services/scheduler"
	"github.com/pcinfobro/numvault/internal/storage/repository"
)

func waitForDB(db *repository.Storage) error {
	for range 10 {
		err := repository.CheckDatabaseReady(db)
		if err == nil {
			return nil // готово
		}
		time.Sleep(3 * time.Second)
	}
	return fmt.Errorf("database not ready after retries")
}

func main() {
	cfg := config.MustLoad()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	logger.Info("starting sweeper", slog.String("env", cfg.Env))
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		logger.Error("failed to connect to RabbitMQ", sl.Err(err))
		os.Exit(1)
	}
	logger.Info("success to connect to RabbitMQ:", slog.String("URL", cfg.RabbitMQURL))
	defer func() {
		_ = conn.Close()
	}()

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetMailQueues())
	if err != nil {
		logger.Error("failed to setup RabbitMQ channel", sl.Err(err))
		os.Exit(1)
	}
	logger.Info("success to setup RabbitMQ channel")
	defer func() {
		_ = ch.Close()
	}()
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		logger.Error("failed to connect to storage", sl.Err(err))
		os.Exit(1)
	}
	defer func() {
		_ = db.DB.Close()
	}()
	err = waitForDB(db)
	if err != nil {
		logger.Error("database is not ready:", sl.Err(err))
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		logger.Error("failed to connect to redis", sl.Err(err))
		os.Exit(1)
	}

	providerClient := tellabot.NewClient(cfg.TellabotEndpoint, cfg.TellabotUser, cfg.TellabotAPIKey, cfg.TellabotTimeout)
	catalogService := catalogservice.New(db, cacheRedis, providerClient, logger)

	schedulerService := services.NewSchedulerService(db, catalogService, logger)

	go schedulerService.RunExpirySweep(ctx, time.Minute)
	go schedulerService.NotifyExpiringRentals(ctx, ch)
	go schedulerService.RunCatalogSync(ctx)
	select {}
}
