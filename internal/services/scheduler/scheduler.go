// Package scheduler содержит фоновые процессы: перевод просроченных
// заказов и аренд в expired, предупреждения об истекающих арендах
// и периодическую синхронизацию каталога.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/pcinfobro/numvault/internal/lib/rabbitmq"
	"github.com/pcinfobro/numvault/internal/lib/sl"
	"github.com/pcinfobro/numvault/internal/models"
	"github.com/pcinfobro/numvault/internal/storage/repository"
)

// Repository определяет методы хранилища, используемые фоновыми процессами.
type Repository interface {
	ExpireOrders(ctx context.Context, now time.Time) (int64, error)
	ExpireRentals(ctx context.Context, now time.Time) (int64, error)
	FindRentalsExpiringSoon(ctx context.Context, now time.Time) ([]*repository.RentalExpiryInfo, error)
}

// Catalog определяет синхронизацию каталога с провайдером.
type Catalog interface {
	SyncFromProvider(ctx context.Context) error
}

// SchedulerService выполняет периодические фоновые задачи.
type SchedulerService struct {
	repo    Repository
	catalog Catalog
	log     *slog.Logger
}

// NewSchedulerService создает новый экземпляр SchedulerService.
func NewSchedulerService(repo Repository, catalog Catalog, log *slog.Logger) *SchedulerService {
	return &SchedulerService{
		repo:    repo,
		catalog: catalog,
		log:     log,
	}
}

// RunExpirySweep периодически помечает просроченные заказы и аренды.
func (s *SchedulerService) RunExpirySweep(ctx context.Context, interval time.Duration) {
	s.sweepExpired(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepExpired(ctx)
		}
	}
}

func (s *SchedulerService) sweepExpired(ctx context.Context) {
	now := time.Now()

	orders, err := s.repo.ExpireOrders(ctx, now)
	if err != nil {
		s.log.Error("failed to expire orders", sl.Err(err))
	} else if orders > 0 {
		s.log.Info("expired orders", slog.Int64("count", orders))
	}

	rentals, err := s.repo.ExpireRentals(ctx, now)
	if err != nil {
		s.log.Error("failed to expire rentals", sl.Err(err))
	} else if rentals > 0 {
		s.log.Info("expired rentals", slog.Int64("count", rentals))
	}
}

// NotifyExpiringRentals раз в 12 часов публикует в почтовую очередь
// предупреждения об арендах, истекающих в ближайшие сутки.
func (s *SchedulerService) NotifyExpiringRentals(ctx context.Context, channel *amqp.Channel) {
	s.runNotifyExpiringRentals(ctx, channel)

	ticker := time.NewTicker(12 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runNotifyExpiringRentals(ctx, channel)
		}
	}
}

func (s *SchedulerService) runNotifyExpiringRentals(ctx context.Context, channel *amqp.Channel) {
	s.log.Info("starting service to find expiring rentals")
	infos, err := s.repo.FindRentalsExpiringSoon(ctx, time.Now())
	if err != nil {
		s.log.Error("failed to find expiring rentals", sl.Err(err))
		return
	}
	if len(infos) == 0 {
		s.log.Info("no expiring rentals found")
		return
	}
	s.log.Info("found expiring rentals", "count", len(infos))
	for _, info := range infos {
		msg := models.MailMessage{
			Email:   info.Email,
			Subject: "Аренда номера скоро закончится",
			Body: "Здравствуйте!\n\nАренда номера " + info.Number + " для сервиса " +
				info.Service + " заканчивается " + info.ExpiresAt.Format("02.01.2006 15:04") +
				".\n\nПродлите её заранее, чтобы не потерять номер.",
		}
		if err = rabbitmq.PublishMessage(channel, rabbitmq.MailExchange, rabbitmq.RouteExpiryNotify, msg); err != nil {
			s.log.Error("failed to publish message", sl.Err(err))
		}
	}
}

// RunCatalogSync раз в 12 часов обновляет каталог данными провайдера.
func (s *SchedulerService) RunCatalogSync(ctx context.Context) {
	if err := s.catalog.SyncFromProvider(ctx); err != nil {
		s.log.Error("failed to sync catalog", sl.Err(err))
	}

	ticker := time.NewTicker(12 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.catalog.SyncFromProvider(ctx); err != nil {
				s.log.Error("failed to sync catalog", sl.Err(err))
			}
		}
	}
}
