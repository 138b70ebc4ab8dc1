package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pcinfobro/numvault/internal/models"
)

const rentalColumns = `id, user_uid, service, state, duration, number, transaction_id,
		start_date, expires_at, status, price, is_renewal, original_rental_id,
		hotspot, dislike, add_to_cart, last_message_time, created_at`

func scanRental(row interface{ Scan(...any) error }) (*models.Rental, error) {
	r := &models.Rental{}
	var originalRentalID sql.NullString
	var lastMessageTime sql.NullTime
	if err := row.Scan(&r.ID, &r.UserUID, &r.Service, &r.State, &r.Duration,
		&r.Number, &r.TransactionID, &r.StartDate, &r.ExpiresAt, &r.Status,
		&r.Price, &r.IsRenewal, &originalRentalID, &r.Hotspot, &r.Dislike,
		&r.AddToCart, &lastMessageTime, &r.CreatedAt); err != nil {
		return nil, err
	}
	if originalRentalID.Valid {
		r.OriginalRentalID = &originalRentalID.String
	}
	if lastMessageTime.Valid {
		r.LastMessageTime = &lastMessageTime.Time
	}
	return r, nil
}

// CreateRental сохраняет новую аренду и возвращает её ID.
func (s *Storage) CreateRental(ctx context.Context, rental models.Rental) (string, error) {
	const op = "storage.CreateRental"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newID string
	query := `INSERT INTO rentals (user_uid, service, state, duration, number,
			      transaction_id, start_date, expires_at, status, price,
			      is_renewal, original_rental_id)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			  RETURNING id;`
	if err := s.DB.QueryRowContext(ctx, query,
		rental.UserUID, rental.Service, rental.State, rental.Duration,
		rental.Number, rental.TransactionID, rental.StartDate, rental.ExpiresAt,
		rental.Status, rental.Price, rental.IsRenewal, rental.OriginalRentalID).Scan(&newID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetRental возвращает аренду пользователя по ID.
func (s *Storage) GetRental(ctx context.Context, rentalID, userUID string) (*models.Rental, error) {
	const op = "storage.GetRental"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + rentalColumns + ` FROM rentals WHERE id = $1 AND user_uid = $2`
	r, err := scanRental(s.DB.QueryRowContext(ctx, query, rentalID, userUID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return r, nil
}

// ListRentals возвращает аренды пользователя с фильтрами, новые первыми.
func (s *Storage) ListRentals(ctx context.Context, filter models.RentalFilter) ([]*models.Rental, error) {
	const op = "storage.ListRentals"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + rentalColumns + ` FROM rentals
			  WHERE user_uid = $1
			    AND ($2 = '' OR service ILIKE '%' || $2 || '%' OR number ILIKE '%' || $2 || '%')
			    AND ($3 = '' OR status = $3)
			    AND ($4 = '' OR duration = $4)
			  ORDER BY created_at DESC
			  LIMIT $5 OFFSET $6`
	rows, err := s.DB.QueryContext(ctx, query,
		filter.UserUID, filter.Search, filter.Status, filter.Duration,
		filter.Limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Rental
	for rows.Next() {
		r, err := scanRental(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, r)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateRentalStatus изменяет статус аренды.
func (s *Storage) UpdateRentalStatus(ctx context.Context, rentalID, status string) error {
	const op = "storage.UpdateRentalStatus"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE rentals SET status = $1 WHERE id = $2`
	if _, err := s.DB.ExecContext(ctx, query, status, rentalID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ExtendRentalAndDebit сдвигает дату окончания активной аренды и
// списывает стоимость продления в одной транзакции. Условный UPDATE
// по статусу не продлевает аренду, успевшую истечь или отмениться,
// а при нехватке средств срок не сдвигается вовсе.
func (s *Storage) ExtendRentalAndDebit(ctx context.Context, rentalID, userUID string, days int, amount float64, reason string) (time.Time, error) {
	const op = "storage.ExtendRentalAndDebit"
	select {
	case <-ctx.Done():
		return time.Time{}, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var newExpiry time.Time
	query := `UPDATE rentals
			  SET expires_at = expires_at + make_interval(days => $1)
			  WHERE id = $2 AND user_uid = $3 AND status = $4
			  RETURNING expires_at`
	if err = tx.QueryRowContext(ctx, query,
		days, rentalID, userUID, models.RentalStatusActive).Scan(&newExpiry); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	if _, err = debitTx(ctx, tx, userUID, amount, reason, rentalID); err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	return newExpiry, nil
}

// ToggleRentalAction переключает пользовательский флаг аренды.
// Допустимые имена колонок фиксированы вызывающей стороной.
func (s *Storage) ToggleRentalAction(ctx context.Context, rentalID, userUID, column string) error {
	const op = "storage.ToggleRentalAction"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	switch column {
	case "hotspot", "dislike", "add_to_cart":
	default:
		return fmt.Errorf("%s: unknown action column %q", op, column)
	}

	query := fmt.Sprintf(`UPDATE rentals SET %s = NOT %s
			  WHERE id = $1 AND user_uid = $2`, column, column)
	res, err := s.DB.ExecContext(ctx, query, rentalID, userUID)
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

// UpdateRentalMessageTime фиксирует время последнего полученного сообщения.
func (s *Storage) UpdateRentalMessageTime(ctx context.Context, rentalID string, messageTime time.Time) error {
	const op = "storage.UpdateRentalMessageTime"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE rentals SET last_message_time = $1 WHERE id = $2`
	if _, err := s.DB.ExecContext(ctx, query, messageTime, rentalID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ExpireRentals переводит просроченные активные аренды в expired.
func (s *Storage) ExpireRentals(ctx context.Context, now time.Time) (int64, error) {
	const op = "storage.ExpireRentals"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE rentals
			  SET status = $1
			  WHERE status = $2 AND expires_at < $3`
	res, err := s.DB.ExecContext(ctx, query,
		models.RentalStatusExpired, models.RentalStatusActive, now)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return affected, nil
}

// RentalExpiryInfo строка выборки аренд, истекающих в ближайшие сутки.
type RentalExpiryInfo struct {
	RentalID  string
	Service   string
	Number    string
	Email     string
	ExpiresAt time.Time
}

// FindRentalsExpiringSoon возвращает активные аренды, истекающие
// в ближайшие 24 часа, вместе с почтой владельца.
func (s *Storage) FindRentalsExpiringSoon(ctx context.Context, now time.Time) ([]*RentalExpiryInfo, error) {
	const op = "storage.FindRentalsExpiringSoon"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT r.id, r.service, r.number, u.email, r.expires_at
			  FROM rentals r
			  JOIN users u ON u.uid = r.user_uid
			  WHERE r.status = $1
			    AND r.expires_at > $2
			    AND r.expires_at < $2 + interval '24 hours'`
	rows, err := s.DB.QueryContext(ctx, query, models.RentalStatusActive, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*RentalExpiryInfo
	for rows.Next() {
		var info RentalExpiryInfo
		if err = rows.Scan(&info.RentalID, &info.Service, &info.Number,
			&info.Email, &info.ExpiresAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &info)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
