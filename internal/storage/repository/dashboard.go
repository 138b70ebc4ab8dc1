package repository

import (
	"context"
	"fmt"

	"github.com/pcinfobro/numvault/internal/models"
)

// GetDashboardStats собирает сводную статистику пользователя.
func (s *Storage) GetDashboardStats(ctx context.Context, userUID string) (*models.DashboardStats, error) {
	const op = "storage.GetDashboardStats"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	stats := &models.DashboardStats{}
	query := `SELECT
			      (SELECT balance FROM users WHERE uid = $1),
			      (SELECT count(*) FROM orders WHERE user_uid = $1),
			      (SELECT count(*) FROM orders WHERE user_uid = $1 AND status = 'completed'),
			      (SELECT count(*) FROM orders WHERE user_uid = $1 AND status = 'pending'),
			      (SELECT count(*) FROM rentals WHERE user_uid = $1),
			      (SELECT count(*) FROM rentals WHERE user_uid = $1 AND status = 'active'),
			      (SELECT COALESCE(sum(amount), 0) FROM ledger_entries WHERE user_uid = $1 AND kind = 'debit'),
			      (SELECT COALESCE(sum(amount), 0) FROM deposits WHERE user_uid = $1 AND status = 'completed')`
	if err := s.DB.QueryRowContext(ctx, query, userUID).Scan(
		&stats.Balance, &stats.OrdersTotal, &stats.OrdersCompleted,
		&stats.OrdersPending, &stats.RentalsTotal, &stats.RentalsActive,
		&stats.TotalSpent, &stats.TotalDeposited); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if stats.OrdersTotal > 0 {
		stats.SuccessRate = float64(stats.OrdersCompleted) / float64(stats.OrdersTotal) * 100
	}
	return stats, nil
}

// ListRecentActivity возвращает последние действия пользователя:
// заказы, аренды и депозиты вперемешку, новые первыми.
func (s *Storage) ListRecentActivity(ctx context.Context, userUID string, limit int) ([]*models.ActivityItem, error) {
	const op = "storage.ListRecentActivity"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT * FROM (
			      SELECT 'order' AS type, service, amount, status, created_at
			      FROM orders WHERE user_uid = $1
			      UNION ALL
			      SELECT 'rental', service, price, status, created_at
			      FROM rentals WHERE user_uid = $1
			      UNION ALL
			      SELECT 'deposit', '', amount, status, created_at
			      FROM deposits WHERE user_uid = $1
			  ) activity
			  ORDER BY created_at DESC
			  LIMIT $2`
	rows, err := s.DB.QueryContext(ctx, query, userUID, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.ActivityItem
	for rows.Next() {
		var item models.ActivityItem
		if err = rows.Scan(&item.Type, &item.Service, &item.Amount,
			&item.Status, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
