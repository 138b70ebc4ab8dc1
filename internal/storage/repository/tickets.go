package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pcinfobro/numvault/internal/models"
)

// CreateTicket сохраняет новый тикет с первым сообщением пользователя.
func (s *Storage) CreateTicket(ctx context.Context, ticket models.Ticket) (int64, error) {
	const op = "storage.CreateTicket"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	messages, err := json.Marshal(ticket.Messages)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	var newID int64
	query := `INSERT INTO tickets (user_uid, title, category, priority, status, messages)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING id;`
	if err := s.DB.QueryRowContext(ctx, query,
		ticket.UserUID, ticket.Title, ticket.Category, ticket.Priority,
		ticket.Status, messages).Scan(&newID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetTicket возвращает тикет пользователя по ID.
func (s *Storage) GetTicket(ctx context.Context, ticketID int64, userUID string) (*models.Ticket, error) {
	const op = "storage.GetTicket"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	t := &models.Ticket{}
	var messages []byte
	query := `SELECT id, user_uid, title, category, priority, status, messages, created_at
			  FROM tickets
			  WHERE id = $1 AND user_uid = $2`
	if err := s.DB.QueryRowContext(ctx, query, ticketID, userUID).Scan(
		&t.ID, &t.UserUID, &t.Title, &t.Category, &t.Priority,
		&t.Status, &messages, &t.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := json.Unmarshal(messages, &t.Messages); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return t, nil
}

// ListTickets возвращает тикеты пользователя, новые первыми.
func (s *Storage) ListTickets(ctx context.Context, userUID string) ([]*models.Ticket, error) {
	const op = "storage.ListTickets"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, title, category, priority, status, messages, created_at
			  FROM tickets
			  WHERE user_uid = $1
			  ORDER BY created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Ticket
	for rows.Next() {
		var t models.Ticket
		var messages []byte
		if err = rows.Scan(&t.ID, &t.UserUID, &t.Title, &t.Category,
			&t.Priority, &t.Status, &messages, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err = json.Unmarshal(messages, &t.Messages); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// AppendTicketMessage добавляет сообщение в переписку тикета.
// Закрытый тикет при ответе снова открывается.
func (s *Storage) AppendTicketMessage(ctx context.Context, ticketID int64, userUID string, message models.TicketMessage) error {
	const op = "storage.AppendTicketMessage"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	raw, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := `UPDATE tickets
			  SET messages = messages || $1::jsonb, status = $2
			  WHERE id = $3 AND user_uid = $4`
	res, err := s.DB.ExecContext(ctx, query, raw, models.TicketStatusOpen, ticketID, userUID)
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

// CloseTicket закрывает тикет пользователя.
func (s *Storage) CloseTicket(ctx context.Context, ticketID int64, userUID string) error {
	const op = "storage.CloseTicket"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE tickets SET status = $1 WHERE id = $2 AND user_uid = $3`
	res, err := s.DB.ExecContext(ctx, query, models.TicketStatusClosed, ticketID, userUID)
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
