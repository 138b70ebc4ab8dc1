package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pcinfobro/numvault/internal/models"
)

// Debit атомарно списывает amount с баланса пользователя и добавляет
// запись в журнал. Списание выполняется условным UPDATE с проверкой
// balance >= amount, поэтому конкурентные списания не могут увести
// баланс в минус. Возвращает ErrInsufficientFunds при нехватке средств.
func (s *Storage) Debit(ctx context.Context, userUID string, amount float64, reason, reference string) (float64, error) {
	const op = "storage.Debit"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	balanceAfter, err := debitTx(ctx, tx, userUID, amount, reason, reference)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return balanceAfter, nil
}

// debitTx списывает средства в рамках уже открытой транзакции.
// Условный UPDATE с проверкой balance >= amount не даёт балансу
// уйти в минус.
func debitTx(ctx context.Context, tx *sql.Tx, userUID string, amount float64, reason, reference string) (float64, error) {
	var balanceAfter float64
	query := `UPDATE users
			  SET balance = balance - $1, updated_at = now()
			  WHERE uid = $2 AND balance >= $1
			  RETURNING balance`
	if err := tx.QueryRowContext(ctx, query, amount, userUID).Scan(&balanceAfter); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrInsufficientFunds
		}
		return 0, err
	}

	insert := `INSERT INTO ledger_entries (user_uid, kind, amount, balance_after, reason, reference)
			   VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := tx.ExecContext(ctx, insert,
		userUID, models.LedgerDebit, amount, balanceAfter, reason, reference); err != nil {
		return 0, err
	}
	return balanceAfter, nil
}

// Credit атомарно зачисляет amount на баланс пользователя и добавляет
// запись в журнал.
func (s *Storage) Credit(ctx context.Context, userUID string, amount float64, reason, reference string) (float64, error) {
	const op = "storage.Credit"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	balanceAfter, err := creditTx(ctx, tx, userUID, amount, reason, reference)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return balanceAfter, nil
}

// creditTx зачисляет средства в рамках уже открытой транзакции.
func creditTx(ctx context.Context, tx *sql.Tx, userUID string, amount float64, reason, reference string) (float64, error) {
	var balanceAfter float64
	query := `UPDATE users
			  SET balance = balance + $1, updated_at = now()
			  WHERE uid = $2
			  RETURNING balance`
	if err := tx.QueryRowContext(ctx, query, amount, userUID).Scan(&balanceAfter); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}

	insert := `INSERT INTO ledger_entries (user_uid, kind, amount, balance_after, reason, reference)
			   VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := tx.ExecContext(ctx, insert,
		userUID, models.LedgerCredit, amount, balanceAfter, reason, reference); err != nil {
		return 0, err
	}
	return balanceAfter, nil
}

// ListLedgerEntries возвращает записи журнала пользователя, новые первыми.
func (s *Storage) ListLedgerEntries(ctx context.Context, userUID string, limit, offset int) ([]*models.LedgerEntry, error) {
	const op = "storage.ListLedgerEntries"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, kind, amount, balance_after, reason, reference, created_at
			  FROM ledger_entries
			  WHERE user_uid = $1
			  ORDER BY created_at DESC, id DESC
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, userUID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.LedgerEntry
	for rows.Next() {
		var e models.LedgerEntry
		if err = rows.Scan(&e.ID, &e.UserUID, &e.Kind, &e.Amount,
			&e.BalanceAfter, &e.Reason, &e.Reference, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// GetBalance возвращает текущий баланс пользователя.
func (s *Storage) GetBalance(ctx context.Context, userUID string) (float64, error) {
	const op = "storage.GetBalance"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var balance float64
	query := `SELECT balance FROM users WHERE uid = $1`
	if err := s.DB.QueryRowContext(ctx, query, userUID).Scan(&balance); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return balance, nil
}
