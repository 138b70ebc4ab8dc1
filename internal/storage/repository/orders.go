package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pcinfobro/numvault/internal/models"
)

const orderColumns = `id, user_uid, service, state, amount, status, transaction_id,
		number, sms, pin, last_message_time, reply_from, reply_date_time,
		expires_at, is_premium, markup_percentage, is_renewal, original_order_id,
		hotspot, dislike, add_to_cart, renew, created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }) (*models.Order, error) {
	o := &models.Order{}
	var sms, pin, replyFrom, replyDateTime, originalOrderID sql.NullString
	var lastMessageTime, expiresAt sql.NullTime
	if err := row.Scan(&o.ID, &o.UserUID, &o.Service, &o.State, &o.Amount, &o.Status,
		&o.TransactionID, &o.Number, &sms, &pin, &lastMessageTime, &replyFrom,
		&replyDateTime, &expiresAt, &o.IsPremium, &o.MarkupPercentage,
		&o.IsRenewal, &originalOrderID, &o.Hotspot, &o.Dislike, &o.AddToCart,
		&o.Renew, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	if sms.Valid {
		o.SMS = &sms.String
	}
	if pin.Valid {
		o.Pin = &pin.String
	}
	if lastMessageTime.Valid {
		o.LastMessageTime = &lastMessageTime.Time
	}
	if replyFrom.Valid {
		o.ReplyFrom = &replyFrom.String
	}
	if replyDateTime.Valid {
		o.ReplyDateTime = &replyDateTime.String
	}
	if expiresAt.Valid {
		o.ExpiresAt = &expiresAt.Time
	}
	if originalOrderID.Valid {
		o.OriginalOrderID = &originalOrderID.String
	}
	return o, nil
}

// CreateOrder сохраняет новый заказ и возвращает его ID.
func (s *Storage) CreateOrder(ctx context.Context, order models.Order) (string, error) {
	const op = "storage.CreateOrder"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newID string
	query := `INSERT INTO orders (user_uid, service, state, amount, status,
			      transaction_id, number, expires_at, is_premium, markup_percentage,
			      is_renewal, original_order_id)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			  RETURNING id;`
	if err := s.DB.QueryRowContext(ctx, query,
		order.UserUID, order.Service, order.State, order.Amount, order.Status,
		order.TransactionID, order.Number, order.ExpiresAt, order.IsPremium,
		order.MarkupPercentage, order.IsRenewal, order.OriginalOrderID).Scan(&newID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetOrder возвращает заказ пользователя по ID.
func (s *Storage) GetOrder(ctx context.Context, orderID, userUID string) (*models.Order, error) {
	const op = "storage.GetOrder"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 AND user_uid = $2`
	o, err := scanOrder(s.DB.QueryRowContext(ctx, query, orderID, userUID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return o, nil
}

// ListOrders возвращает заказы пользователя с фильтрами по поиску,
// статусу и периоду, новые первыми.
func (s *Storage) ListOrders(ctx context.Context, filter models.OrderFilter) ([]*models.Order, error) {
	const op = "storage.ListOrders"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + orderColumns + ` FROM orders
			  WHERE user_uid = $1
			    AND ($2 = '' OR service ILIKE '%' || $2 || '%' OR number ILIKE '%' || $2 || '%')
			    AND ($3 = '' OR status = $3)
			    AND ($4::timestamptz IS NULL OR created_at >= $4)
			    AND ($5::timestamptz IS NULL OR created_at <= $5)
			  ORDER BY created_at DESC
			  LIMIT $6 OFFSET $7`
	rows, err := s.DB.QueryContext(ctx, query,
		filter.UserUID, filter.Search, filter.Status,
		filter.StartDate, filter.EndDate, filter.Limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, o)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CompleteOrderWithMessage сохраняет полученное SMS, извлечённый PIN
// и переводит заказ в completed.
func (s *Storage) CompleteOrderWithMessage(ctx context.Context, orderID, sms, pin, replyFrom, replyDateTime string, messageTime time.Time) error {
	const op = "storage.CompleteOrderWithMessage"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE orders
			  SET sms = $1, pin = $2, reply_from = $3, reply_date_time = $4,
			      last_message_time = $5, status = $6, updated_at = now()
			  WHERE id = $7`
	if _, err := s.DB.ExecContext(ctx, query,
		sms, pin, replyFrom, replyDateTime, messageTime,
		models.OrderStatusCompleted, orderID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// UpdateOrderStatus изменяет статус заказа.
func (s *Storage) UpdateOrderStatus(ctx context.Context, orderID, status string) error {
	const op = "storage.UpdateOrderStatus"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE orders SET status = $1, updated_at = now() WHERE id = $2`
	if _, err := s.DB.ExecContext(ctx, query, status, orderID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// UpdateOrderNumber обновляет выделенный провайдером номер.
func (s *Storage) UpdateOrderNumber(ctx context.Context, orderID, number string) error {
	const op = "storage.UpdateOrderNumber"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE orders SET number = $1, updated_at = now() WHERE id = $2`
	if _, err := s.DB.ExecContext(ctx, query, number, orderID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ToggleOrderAction переключает пользовательский флаг заказа.
// Допустимые имена колонок фиксированы вызывающей стороной.
func (s *Storage) ToggleOrderAction(ctx context.Context, orderID, userUID, column string) error {
	const op = "storage.ToggleOrderAction"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	switch column {
	case "hotspot", "dislike", "add_to_cart", "renew":
	default:
		return fmt.Errorf("%s: unknown action column %q", op, column)
	}

	query := fmt.Sprintf(`UPDATE orders SET %s = NOT %s, updated_at = now()
			  WHERE id = $1 AND user_uid = $2`, column, column)
	res, err := s.DB.ExecContext(ctx, query, orderID, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// ExpireOrders переводит просроченные pending-заказы в expired.
// Возвращает количество затронутых строк.
func (s *Storage) ExpireOrders(ctx context.Context, now time.Time) (int64, error) {
	const op = "storage.ExpireOrders"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE orders
			  SET status = $1, updated_at = now()
			  WHERE status = $2 AND expires_at IS NOT NULL AND expires_at < $3`
	res, err := s.DB.ExecContext(ctx, query,
		models.OrderStatusExpired, models.OrderStatusPending, now)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return affected, nil
}
