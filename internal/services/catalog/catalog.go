// Package catalog содержит бизнес-логику каталога сервисов:
// выдачу с кешированием и синхронизацию с провайдером.
package catalog

import (
	"context"
	"log/slog"
	"time"

	"github.com/pcinfobro/numvault/internal/models"
	"github.com/pcinfobro/numvault/internal/provider/tellabot"
)

const cacheKey = "catalog:services"

// Repository определяет методы хранилища для работы с каталогом.
type Repository interface {
	UpsertServices(ctx context.Context, services []models.Service) error
	ListServices(ctx context.Context, search string) ([]*models.Service, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// Provider определяет получение каталога у провайдера.
type Provider interface {
	ListServices(ctx context.Context) ([]tellabot.ServiceInfo, error)
}

// Service реализует работу с каталогом сервисов.
type Service struct {
	repo     Repository
	cache    Cache
	provider Provider
	log      *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo Repository, cache Cache, provider Provider, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		cache:    cache,
		provider: provider,
		log:      log,
	}
}

// List возвращает каталог. Запросы без поиска обслуживаются из кеша.
func (s *Service) List(ctx context.Context, search string) ([]*models.Service, error) {
	if search == "" {
		var cached []*models.Service
		found, err := s.cache.Get(cacheKey, &cached)
		if err != nil {
			s.log.Warn("failed to read catalog cache", slog.Any("err", err))
		}
		if found {
			return cached, nil
		}
	}

	services, err := s.repo.ListServices(ctx, search)
	if err != nil {
		return nil, err
	}

	if search == "" {
		if err := s.cache.Set(cacheKey, services, 10*time.Minute); err != nil {
			s.log.Warn("failed to cache catalog", slog.Any("err", err))
		}
	}
	return services, nil
}

// SyncFromProvider обновляет каталог данными list_services провайдера
// и инвалидирует кеш.
func (s *Service) SyncFromProvider(ctx context.Context) error {
	providerServices, err := s.provider.ListServices(ctx)
	if err != nil {
		return err
	}

	services := make([]models.Service, 0, len(providerServices))
	for _, ps := range providerServices {
		price, _ := ps.Price.Float64()
		available, _ := ps.Available.Int64()
		ltrAvailable, _ := ps.LTRAvailable.Int64()
		ltrPrice, _ := ps.LTRPrice.Float64()
		ltrShortPrice, _ := ps.LTRShortPrice.Float64()
		markup, _ := ps.RecommendedMarkup.Float64()
		services = append(services, models.Service{
			Name:              ps.Name,
			Price:             price,
			Available:         available > 0,
			LTRAvailable:      ltrAvailable > 0,
			LTRPrice:          ltrPrice,
			LTRShortPrice:     ltrShortPrice,
			RecommendedMarkup: markup,
		})
	}

	if err = s.repo.UpsertServices(ctx, services); err != nil {
		return err
	}
	if err = s.cache.Invalidate(cacheKey); err != nil {
		s.log.Warn("failed to invalidate catalog cache", slog.Any("err", err))
	}

	s.log.Info("catalog synced", slog.Int("count", len(services)))
	return nil
}
