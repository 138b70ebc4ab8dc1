// Package balance содержит бизнес-логику работы с балансом пользователя
// и журналом движений средств.
package balance

import (
	"context"
	"log/slog"

	"github.com/pcinfobro/numvault/internal/models"
)

// Repository определяет методы хранилища для работы с балансом и журналом.
type Repository interface {
	// Debit атомарно списывает средства с проверкой достаточности баланса.
	Debit(ctx context.Context, userUID string, amount float64, reason, reference string) (float64, error)
	// Credit атомарно зачисляет средства.
	Credit(ctx context.Context, userUID string, amount float64, reason, reference string) (float64, error)
	// ListLedgerEntries возвращает записи журнала с пагинацией.
	ListLedgerEntries(ctx context.Context, userUID string, limit, offset int) ([]*models.LedgerEntry, error)
	// GetBalance возвращает текущий баланс.
	GetBalance(ctx context.Context, userUID string) (float64, error)
}

// Service реализует операции с балансом поверх журнала движений.
type Service struct {
	repo Repository
	log  *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo Repository, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log,
	}
}

// Debit списывает средства. Возвращает баланс после списания.
func (s *Service) Debit(ctx context.Context, userUID string, amount float64, reason, reference string) (float64, error) {
	balance, err := s.repo.Debit(ctx, userUID, amount, reason, reference)
	if err != nil {
		return 0, err
	}
	s.log.Info("debited balance",
		slog.String("user_uid", userUID),
		slog.Float64("amount", amount),
		slog.String("reason", reason))
	return balance, nil
}

// Credit зачисляет средства. Возвращает баланс после зачисления.
func (s *Service) Credit(ctx context.Context, userUID string, amount float64, reason, reference string) (float64, error) {
	balance, err := s.repo.Credit(ctx, userUID, amount, reason, reference)
	if err != nil {
		return 0, err
	}
	s.log.Info("credited balance",
		slog.String("user_uid", userUID),
		slog.Float64("amount", amount),
		slog.String("reason", reason))
	return balance, nil
}

// Current возвращает текущий баланс пользователя.
func (s *Service) Current(ctx context.Context, userUID string) (float64, error) {
	return s.repo.GetBalance(ctx, userUID)
}

// History возвращает записи журнала, новые первыми.
func (s *Service) History(ctx context.Context, userUID string, limit, offset int) ([]*models.LedgerEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.ListLedgerEntries(ctx, userUID, limit, offset)
}
