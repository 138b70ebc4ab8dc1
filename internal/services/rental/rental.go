// Package rental содержит бизнес-логику долгосрочной аренды номеров:
// создание, продление, отмена, освобождение и чтение сообщений.
package rental

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/pcinfobro/numvault/internal/metrics"
	"github.com/pcinfobro/numvault/internal/models"
	"github.com/pcinfobro/numvault/internal/provider/tellabot"
	"github.com/pcinfobro/numvault/internal/storage/repository"
)

// Ошибки бизнес-логики аренды.
var (
	ErrUnknownService    = errors.New("unknown service")
	ErrNotActive         = errors.New("rental is not active")
	ErrNumberNotAssigned = errors.New("number is not assigned yet")
)

// Repository определяет методы хранилища для работы с арендами.
type Repository interface {
	CreateRental(ctx context.Context, rental models.Rental) (string, error)
	GetRental(ctx context.Context, rentalID, userUID string) (*models.Rental, error)
	ListRentals(ctx context.Context, filter models.RentalFilter) ([]*models.Rental, error)
	UpdateRentalStatus(ctx context.Context, rentalID, status string) error
	ExtendRentalAndDebit(ctx context.Context, rentalID, userUID string, days int, amount float64, reason string) (time.Time, error)
	ToggleRentalAction(ctx context.Context, rentalID, userUID, column string) error
	UpdateRentalMessageTime(ctx context.Context, rentalID string, messageTime time.Time) error
	GetService(ctx context.Context, name string) (*models.Service, error)
}

// Ledger определяет операции с балансом пользователя.
type Ledger interface {
	Debit(ctx context.Context, userUID string, amount float64, reason, reference string) (float64, error)
	Current(ctx context.Context, userUID string) (float64, error)
}

// Provider определяет вызовы API провайдера номеров для аренды.
type Provider interface {
	RentNumber(ctx context.Context, service, state string, days int, mdn string) (*tellabot.RentResult, error)
	ReadSMS(ctx context.Context, service, mdn string) ([]tellabot.SMSMessage, error)
	ReleaseRental(ctx context.Context, id, mdn, service string) error
	RentalStatus(ctx context.Context, mdn string) (*tellabot.LTRStatusResult, error)
	ActivateRental(ctx context.Context, mdn, service string) error
}

// Service реализует бизнес-логику аренды номеров.
type Service struct {
	repo     Repository
	ledger   Ledger
	provider Provider
	log      *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo Repository, ledger Ledger, provider Provider, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		ledger:   ledger,
		provider: provider,
		log:      log,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// durationPrice вычисляет цену аренды по каталогу. При отсутствии
// тарифа аренды применяется запасной расчёт от базовой цены сервиса.
func durationPrice(svc *models.Service, duration string) float64 {
	if duration == models.RentalDurationShort {
		if svc.LTRShortPrice > 0 {
			return round2(svc.LTRShortPrice)
		}
		return round2(svc.Price * 0.5)
	}
	if svc.LTRPrice > 0 {
		return round2(svc.LTRPrice)
	}
	return round2(svc.Price * 2)
}

// Create арендует номер. Средства списываются только после успешного
// ответа провайдера.
func (s *Service) Create(ctx context.Context, userUID string, req models.DummyCreateRental) (*models.Rental, error) {
	svc, err := s.repo.GetService(ctx, req.Service)
	if err != nil {
		return nil, ErrUnknownService
	}

	price := durationPrice(svc, req.Duration)
	balance, err := s.ledger.Current(ctx, userUID)
	if err != nil {
		return nil, err
	}
	if balance < price {
		return nil, repository.ErrInsufficientFunds
	}

	state := req.State
	if state == "" {
		state = "random"
	}
	days := models.RentalDays(req.Duration)

	result, err := s.provider.RentNumber(ctx, req.Service, state, days, "")
	if err != nil {
		return nil, err
	}

	if _, err = s.ledger.Debit(ctx, userUID, price, "rental: "+req.Service, result.ID); err != nil {
		return nil, err
	}

	now := time.Now()
	rental := models.Rental{
		UserUID:       userUID,
		Service:       req.Service,
		State:         state,
		Duration:      req.Duration,
		Number:        result.MDN,
		TransactionID: result.ID,
		StartDate:     now,
		ExpiresAt:     now.AddDate(0, 0, days),
		Status:        models.RentalStatusActive,
		Price:         price,
	}
	newID, err := s.repo.CreateRental(ctx, rental)
	if err != nil {
		return nil, err
	}
	rental.ID = newID
	rental.CreatedAt = now

	metrics.RentalsCreated.Inc()
	s.log.Info("created rental",
		slog.String("id", newID),
		slog.String("service", req.Service),
		slog.String("duration", req.Duration))
	return &rental, nil
}

// List возвращает аренды пользователя с фильтрами.
func (s *Service) List(ctx context.Context, filter models.RentalFilter) ([]*models.Rental, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}
	return s.repo.ListRentals(ctx, filter)
}

// Extend продлевает активную аренду локально, без обращения к
// провайдеру. Сдвиг срока и списание выполняются в одной транзакции:
// списания без продления (и наоборот) не бывает.
func (s *Service) Extend(ctx context.Context, userUID, rentalID string, req models.DummyExtendRental) (*models.Rental, error) {
	rental, err := s.repo.GetRental(ctx, rentalID, userUID)
	if err != nil {
		return nil, err
	}
	if rental.Status != models.RentalStatusActive {
		return nil, ErrNotActive
	}

	price := rental.Price
	if svc, err := s.repo.GetService(ctx, rental.Service); err == nil {
		price = durationPrice(svc, req.Duration)
	}

	days := models.RentalDays(req.Duration)
	if _, err = s.repo.ExtendRentalAndDebit(ctx, rental.ID, userUID, days, price,
		"rental extension: "+rental.Service); err != nil {
		return nil, err
	}

	s.log.Info("extended rental",
		slog.String("id", rental.ID),
		slog.Int("days", days))
	return s.repo.GetRental(ctx, rentalID, userUID)
}

// Renew арендует тот же номер заново: создаётся новая связанная аренда,
// срок отсчитывается от более позднего из текущего момента и прежнего
// срока окончания.
func (s *Service) Renew(ctx context.Context, userUID, rentalID string) (*models.Rental, error) {
	rental, err := s.repo.GetRental(ctx, rentalID, userUID)
	if err != nil {
		return nil, err
	}
	if rental.Number == "" {
		return nil, ErrNumberNotAssigned
	}

	balance, err := s.ledger.Current(ctx, userUID)
	if err != nil {
		return nil, err
	}
	if balance < rental.Price {
		return nil, repository.ErrInsufficientFunds
	}

	days := models.RentalDays(rental.Duration)
	result, err := s.provider.RentNumber(ctx, rental.Service, rental.State, days, rental.Number)
	if err != nil {
		return nil, err
	}

	if _, err = s.ledger.Debit(ctx, userUID, rental.Price,
		"rental renewal: "+rental.Service, result.ID); err != nil {
		return nil, err
	}

	now := time.Now()
	base := now
	if rental.ExpiresAt.After(base) {
		base = rental.ExpiresAt
	}
	renewal := models.Rental{
		UserUID:          userUID,
		Service:          rental.Service,
		State:            rental.State,
		Duration:         rental.Duration,
		Number:           result.MDN,
		TransactionID:    result.ID,
		StartDate:        now,
		ExpiresAt:        base.AddDate(0, 0, days),
		Status:           models.RentalStatusActive,
		Price:            rental.Price,
		IsRenewal:        true,
		OriginalRentalID: &rental.ID,
	}
	newID, err := s.repo.CreateRental(ctx, renewal)
	if err != nil {
		return nil, err
	}

	s.log.Info("created renewal rental",
		slog.String("id", newID),
		slog.String("original_id", rental.ID))
	return s.repo.GetRental(ctx, newID, userUID)
}

// Cancel переводит активную аренду в cancelled без обращения к провайдеру.
func (s *Service) Cancel(ctx context.Context, userUID, rentalID string) (*models.Rental, error) {
	rental, err := s.repo.GetRental(ctx, rentalID, userUID)
	if err != nil {
		return nil, err
	}
	if rental.Status != models.RentalStatusActive {
		return nil, ErrNotActive
	}
	if err = s.repo.UpdateRentalStatus(ctx, rental.ID, models.RentalStatusCancelled); err != nil {
		return nil, err
	}
	s.log.Info("cancelled rental", slog.String("id", rental.ID))
	return s.repo.GetRental(ctx, rentalID, userUID)
}

// Release освобождает номер у провайдера. Средства не возвращаются.
func (s *Service) Release(ctx context.Context, userUID, rentalID string) (*models.Rental, error) {
	rental, err := s.repo.GetRental(ctx, rentalID, userUID)
	if err != nil {
		return nil, err
	}
	if rental.Status != models.RentalStatusActive {
		return nil, ErrNotActive
	}

	if err = s.provider.ReleaseRental(ctx, rental.TransactionID, rental.Number, rental.Service); err != nil {
		return nil, err
	}
	if err = s.repo.UpdateRentalStatus(ctx, rental.ID, models.RentalStatusRejected); err != nil {
		return nil, err
	}
	s.log.Info("released rental", slog.String("id", rental.ID))
	return s.repo.GetRental(ctx, rentalID, userUID)
}

// Messages читает входящие сообщения арендованного номера.
// Чтение транзитное: статус аренды не изменяется, отсутствие
// сообщений возвращает пустой список.
func (s *Service) Messages(ctx context.Context, userUID, rentalID string) ([]tellabot.SMSMessage, error) {
	rental, err := s.repo.GetRental(ctx, rentalID, userUID)
	if err != nil {
		return nil, err
	}
	if rental.Number == "" {
		return nil, ErrNumberNotAssigned
	}

	messages, err := s.provider.ReadSMS(ctx, rental.Service, rental.Number)
	if err != nil {
		if errors.Is(err, tellabot.ErrNoMessages) {
			return []tellabot.SMSMessage{}, nil
		}
		return nil, err
	}
	if len(messages) > 0 {
		if err = s.repo.UpdateRentalMessageTime(ctx, rental.ID, time.Now()); err != nil {
			s.log.Warn("failed to update rental message time",
				slog.String("id", rental.ID), slog.Any("err", err))
		}
	}
	return messages, nil
}

// Status запрашивает у провайдера состояние арендованного номера.
func (s *Service) Status(ctx context.Context, userUID, rentalID string) (*tellabot.LTRStatusResult, error) {
	rental, err := s.repo.GetRental(ctx, rentalID, userUID)
	if err != nil {
		return nil, err
	}
	if rental.Number == "" {
		return nil, ErrNumberNotAssigned
	}
	return s.provider.RentalStatus(ctx, rental.Number)
}

// Activate активирует арендованный номер для сервиса.
func (s *Service) Activate(ctx context.Context, userUID, rentalID string) error {
	rental, err := s.repo.GetRental(ctx, rentalID, userUID)
	if err != nil {
		return err
	}
	if rental.Status != models.RentalStatusActive {
		return ErrNotActive
	}
	if rental.Number == "" {
		return ErrNumberNotAssigned
	}
	return s.provider.ActivateRental(ctx, rental.Number, rental.Service)
}

// ToggleAction инвертирует пользовательский флаг аренды и возвращает
// аренду с обновлённым состоянием.
func (s *Service) ToggleAction(ctx context.Context, userUID, rentalID, action string) (*models.Rental, error) {
	const op = "services.rental.ToggleAction"

	columns := map[string]string{
		"hotspot":   "hotspot",
		"dislike":   "dislike",
		"addToCart": "add_to_cart",
	}
	column, ok := columns[action]
	if !ok {
		return nil, fmt.Errorf("%s: unknown action %q", op, action)
	}
	if err := s.repo.ToggleRentalAction(ctx, rentalID, userUID, column); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.repo.GetRental(ctx, rentalID, userUID)
}
