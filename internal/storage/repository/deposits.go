package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pcinfobro/numvault/internal/models"
)

// CreateDeposit сохраняет новый депозит и возвращает его ID.
func (s *Storage) CreateDeposit(ctx context.Context, deposit models.Deposit, payload []byte) (string, error) {
	const op = "storage.CreateDeposit"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newID string
	query := `INSERT INTO deposits (user_uid, amount, method, status,
			      transaction_id, payment_url, payment_payload)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING id;`
	if err := s.DB.QueryRowContext(ctx, query,
		deposit.UserUID, deposit.Amount, deposit.Method, deposit.Status,
		deposit.TransactionID, deposit.PaymentURL, payload).Scan(&newID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetDepositByTransactionID возвращает депозит по merchant order id.
func (s *Storage) GetDepositByTransactionID(ctx context.Context, transactionID string) (*models.Deposit, error) {
	const op = "storage.GetDepositByTransactionID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	d := &models.Deposit{}
	query := `SELECT id, user_uid, amount, method, status, transaction_id, payment_url, created_at
			  FROM deposits
			  WHERE transaction_id = $1`
	if err := s.DB.QueryRowContext(ctx, query, transactionID).Scan(
		&d.ID, &d.UserUID, &d.Amount, &d.Method, &d.Status,
		&d.TransactionID, &d.PaymentURL, &d.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return d, nil
}

// ListDeposits возвращает депозиты пользователя, новые первыми.
func (s *Storage) ListDeposits(ctx context.Context, userUID string, limit, offset int) ([]*models.Deposit, error) {
	const op = "storage.ListDeposits"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, amount, method, status, transaction_id, payment_url, created_at
			  FROM deposits
			  WHERE user_uid = $1
			  ORDER BY created_at DESC
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, userUID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Deposit
	for rows.Next() {
		var d models.Deposit
		if err = rows.Scan(&d.ID, &d.UserUID, &d.Amount, &d.Method,
			&d.Status, &d.TransactionID, &d.PaymentURL, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &d)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CompleteDepositAndCredit переводит депозит в completed, сохраняет
// сырое тело уведомления и зачисляет сумму на баланс в одной
// транзакции. Условный UPDATE служит барьером против конкурентных
// доставок вебхука: зачисление происходит ровно один раз. Возвращает
// false, если депозит уже был завершён.
func (s *Storage) CompleteDepositAndCredit(ctx context.Context, transactionID string, payload []byte) (bool, error) {
	const op = "storage.CompleteDepositAndCredit"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var depositID, userUID string
	var amount float64
	query := `UPDATE deposits
			  SET status = $1, payment_payload = $3
			  WHERE transaction_id = $2 AND status <> $1
			  RETURNING id, user_uid, amount`
	if err = tx.QueryRowContext(ctx, query,
		models.DepositStatusCompleted, transactionID, payload).Scan(&depositID, &userUID, &amount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Депозит уже завершён, повторная доставка игнорируется.
			return false, nil
		}
		return false, fmt.Errorf("%s: %w", op, err)
	}

	if _, err = creditTx(ctx, tx, userUID, amount, "deposit", depositID); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

// UpdateDepositStatus сохраняет статус депозита, пришедший от провайдера.
// Завершённые депозиты не перезаписываются.
func (s *Storage) UpdateDepositStatus(ctx context.Context, transactionID, status string, payload []byte) error {
	const op = "storage.UpdateDepositStatus"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE deposits
			  SET status = $1, payment_payload = $4
			  WHERE transaction_id = $2 AND status <> $3`
	if _, err := s.DB.ExecContext(ctx, query,
		status, transactionID, models.DepositStatusCompleted, payload); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
