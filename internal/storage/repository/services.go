package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pcinfobro/numvault/internal/models"
)

// UpsertServices обновляет каталог сервисов данными провайдера.
func (s *Storage) UpsertServices(ctx context.Context, services []models.Service) error {
	const op = "storage.UpsertServices"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `INSERT INTO services (name, price, available, ltr_available,
			      ltr_price, ltr_short_price, recommended_markup, last_updated)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, now())
			  ON CONFLICT (name) DO UPDATE SET
			      price = EXCLUDED.price,
			      available = EXCLUDED.available,
			      ltr_available = EXCLUDED.ltr_available,
			      ltr_price = EXCLUDED.ltr_price,
			      ltr_short_price = EXCLUDED.ltr_short_price,
			      recommended_markup = EXCLUDED.recommended_markup,
			      last_updated = now()`
	for _, svc := range services {
		if _, err = tx.ExecContext(ctx, query,
			svc.Name, svc.Price, svc.Available, svc.LTRAvailable,
			svc.LTRPrice, svc.LTRShortPrice, svc.RecommendedMarkup); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListServices возвращает каталог, опционально отфильтрованный по имени.
func (s *Storage) ListServices(ctx context.Context, search string) ([]*models.Service, error) {
	const op = "storage.ListServices"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT name, price, available, ltr_available, ltr_price,
			      ltr_short_price, recommended_markup, last_updated
			  FROM services
			  WHERE ($1 = '' OR name ILIKE '%' || $1 || '%')
			  ORDER BY name`
	rows, err := s.DB.QueryContext(ctx, query, search)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Service
	for rows.Next() {
		var svc models.Service
		if err = rows.Scan(&svc.Name, &svc.Price, &svc.Available, &svc.LTRAvailable,
			&svc.LTRPrice, &svc.LTRShortPrice, &svc.RecommendedMarkup,
			&svc.LastUpdated); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &svc)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// GetService возвращает позицию каталога по имени.
func (s *Storage) GetService(ctx context.Context, name string) (*models.Service, error) {
	const op = "storage.GetService"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	svc := &models.Service{}
	query := `SELECT name, price, available, ltr_available, ltr_price,
			      ltr_short_price, recommended_markup, last_updated
			  FROM services
			  WHERE name = $1`
	if err := s.DB.QueryRowContext(ctx, query, name).Scan(
		&svc.Name, &svc.Price, &svc.Available, &svc.LTRAvailable,
		&svc.LTRPrice, &svc.LTRShortPrice, &svc.RecommendedMarkup,
		&svc.LastUpdated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return svc, nil
}
