// Package order содержит бизнес-логику покупки одноразовых номеров:
// покупка, опрос SMS, статус, отмена, продление и пользовательские флаги.
package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/pcinfobro/numvault/internal/lib/pin"
	"github.com/pcinfobro/numvault/internal/metrics"
	"github.com/pcinfobro/numvault/internal/models"
	"github.com/pcinfobro/numvault/internal/provider/tellabot"
	"github.com/pcinfobro/numvault/internal/storage/repository"
)

// Ошибки бизнес-логики заказов.
var (
	ErrUnknownService    = errors.New("unknown service")
	ErrNotPending        = errors.New("can only reject pending orders")
	ErrNoTransactionID   = errors.New("order has no provider transaction")
	ErrNumberNotAssigned = errors.New("number is not assigned yet")
)

// Repository определяет методы хранилища для работы с заказами.
type Repository interface {
	CreateOrder(ctx context.Context, order models.Order) (string, error)
	GetOrder(ctx context.Context, orderID, userUID string) (*models.Order, error)
	ListOrders(ctx context.Context, filter models.OrderFilter) ([]*models.Order, error)
	CompleteOrderWithMessage(ctx context.Context, orderID, sms, pin, replyFrom, replyDateTime string, messageTime time.Time) error
	UpdateOrderStatus(ctx context.Context, orderID, status string) error
	UpdateOrderNumber(ctx context.Context, orderID, number string) error
	ToggleOrderAction(ctx context.Context, orderID, userUID, column string) error
	GetService(ctx context.Context, name string) (*models.Service, error)
}

// Ledger определяет операции с балансом пользователя.
type Ledger interface {
	Debit(ctx context.Context, userUID string, amount float64, reason, reference string) (float64, error)
	Credit(ctx context.Context, userUID string, amount float64, reason, reference string) (float64, error)
	Current(ctx context.Context, userUID string) (float64, error)
}

// Provider определяет вызовы API провайдера номеров.
type Provider interface {
	RequestNumber(ctx context.Context, service, state string) (*tellabot.RequestResult, error)
	ReadSMS(ctx context.Context, service, mdn string) ([]tellabot.SMSMessage, error)
	RequestStatus(ctx context.Context, id string) (*tellabot.StatusResult, error)
	Reject(ctx context.Context, id string) error
}

// Service реализует бизнес-логику заказов.
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

// quote вычисляет цену покупки по каталогу с учётом премиум-наценки.
func (s *Service) quote(ctx context.Context, req models.DummyBuyOrder) (float64, error) {
	svc, err := s.repo.GetService(ctx, req.Service)
	if err != nil {
		return 0, ErrUnknownService
	}
	if !svc.Available {
		return 0, ErrUnknownService
	}

	price := svc.Price
	if req.IsPremium {
		markup := req.MarkupPercentage
		if markup == 0 {
			markup = svc.RecommendedMarkup
		}
		price = price * (1 + markup/100)
	}
	return round2(price), nil
}

// Buy покупает одноразовый номер. Средства списываются только после
// успешного ответа провайдера; ошибка провайдера передаётся
// пользователю без списания.
func (s *Service) Buy(ctx context.Context, userUID string, req models.DummyBuyOrder) (*models.Order, error) {
	price, err := s.quote(ctx, req)
	if err != nil {
		return nil, err
	}

	balance, err := s.ledger.Current(ctx, userUID)
	if err != nil {
		return nil, err
	}
	if balance < price {
		return nil, fmt.Errorf("balance %.2f is less than price %.2f: %w",
			balance, price, repository.ErrInsufficientFunds)
	}

	state := req.State
	if state == "" {
		state = "random"
	}

	result, err := s.provider.RequestNumber(ctx, req.Service, state)
	if err != nil {
		return nil, err
	}

	if _, err = s.ledger.Debit(ctx, userUID, price, "order: "+req.Service, result.ID); err != nil {
		return nil, err
	}

	expiresAt := time.Now().Add(expiryWindow(result.TillExpiration.String()))
	order := models.Order{
		UserUID:          userUID,
		Service:          req.Service,
		State:            state,
		Amount:           price,
		Status:           models.OrderStatusPending,
		TransactionID:    result.ID,
		Number:           result.MDN,
		ExpiresAt:        &expiresAt,
		IsPremium:        req.IsPremium,
		MarkupPercentage: req.MarkupPercentage,
	}
	newID, err := s.repo.CreateOrder(ctx, order)
	if err != nil {
		return nil, err
	}
	order.ID = newID
	order.CreatedAt = time.Now()

	metrics.OrdersCreated.Inc()
	s.log.Info("created order",
		slog.String("id", newID),
		slog.String("service", req.Service),
		slog.Float64("amount", price))
	return &order, nil
}

// expiryWindow переводит till_expiration провайдера (секунды) в Duration.
// При нечитаемом значении используется окно по умолчанию.
func expiryWindow(tillExpiration string) time.Duration {
	var seconds int
	if _, err := fmt.Sscanf(tillExpiration, "%d", &seconds); err != nil || seconds <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(seconds) * time.Second
}

// List возвращает заказы пользователя с фильтрами.
func (s *Service) List(ctx context.Context, filter models.OrderFilter) ([]*models.Order, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}
	return s.repo.ListOrders(ctx, filter)
}

// CheckSMS опрашивает провайдера на предмет входящего сообщения.
// Отсутствие сообщений не изменяет заказ; полученное сообщение
// сохраняется и переводит заказ в completed.
func (s *Service) CheckSMS(ctx context.Context, userUID, orderID string) (*models.Order, error) {
	order, err := s.repo.GetOrder(ctx, orderID, userUID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderStatusPending {
		return order, nil
	}
	if order.Number == "" {
		return nil, ErrNumberNotAssigned
	}

	messages, err := s.provider.ReadSMS(ctx, order.Service, order.Number)
	if err != nil {
		if errors.Is(err, tellabot.ErrNoMessages) {
			return order, nil
		}
		return nil, err
	}
	if len(messages) == 0 {
		return order, nil
	}

	// Провайдер отдаёт сообщения в порядке получения, заказ
	// завершается последним из них.
	msg := messages[len(messages)-1]
	code := msg.Pin
	if code == "" {
		code = pin.Extract(msg.Reply)
	}
	messageTime := time.Now()
	if ts, err := msg.Timestamp.Int64(); err == nil && ts > 0 {
		messageTime = time.Unix(ts, 0)
	}
	if err = s.repo.CompleteOrderWithMessage(ctx, order.ID,
		msg.Reply, code, msg.From, msg.DateTime, messageTime); err != nil {
		return nil, err
	}

	s.log.Info("order completed with sms", slog.String("id", order.ID))
	return s.repo.GetOrder(ctx, orderID, userUID)
}

// Status запрашивает статус заказа у провайдера и синхронизирует
// локальное состояние.
func (s *Service) Status(ctx context.Context, userUID, orderID string) (*models.Order, error) {
	order, err := s.repo.GetOrder(ctx, orderID, userUID)
	if err != nil {
		return nil, err
	}
	if order.TransactionID == "" {
		return nil, ErrNoTransactionID
	}

	result, err := s.provider.RequestStatus(ctx, order.TransactionID)
	if err != nil {
		return nil, err
	}

	if result.MDN != "" && result.MDN != order.Number {
		if err = s.repo.UpdateOrderNumber(ctx, order.ID, result.MDN); err != nil {
			return nil, err
		}
	}
	if result.Status == "completed" && order.Status == models.OrderStatusPending {
		if err = s.repo.UpdateOrderStatus(ctx, order.ID, models.OrderStatusCompleted); err != nil {
			return nil, err
		}
	}
	return s.repo.GetOrder(ctx, orderID, userUID)
}

// Reject отменяет заказ. Успешная отмена у провайдера не возвращает
// средства; если провайдер не смог отменить заказ, он отклоняется
// локально с полным возвратом средств.
func (s *Service) Reject(ctx context.Context, userUID, orderID string) (*models.Order, error) {
	order, err := s.repo.GetOrder(ctx, orderID, userUID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderStatusPending {
		return nil, ErrNotPending
	}
	if order.TransactionID == "" {
		return nil, ErrNoTransactionID
	}

	if err = s.provider.Reject(ctx, order.TransactionID); err != nil {
		if tellabot.IsUnableToReject(err) {
			if err = s.repo.UpdateOrderStatus(ctx, order.ID, models.OrderStatusRejected); err != nil {
				return nil, err
			}
			if _, err = s.ledger.Credit(ctx, userUID, order.Amount,
				"refund: "+order.Service, order.ID); err != nil {
				return nil, err
			}
			s.log.Info("order rejected locally with refund", slog.String("id", order.ID))
			return s.repo.GetOrder(ctx, orderID, userUID)
		}
		return nil, err
	}

	if err = s.repo.UpdateOrderStatus(ctx, order.ID, models.OrderStatusRejected); err != nil {
		return nil, err
	}
	s.log.Info("order rejected", slog.String("id", order.ID))
	return s.repo.GetOrder(ctx, orderID, userUID)
}

// Renew покупает тот же номер повторно: создаётся новый связанный
// заказ, окно действия отсчитывается от более позднего из текущего
// момента и прежнего срока.
func (s *Service) Renew(ctx context.Context, userUID, orderID string) (*models.Order, error) {
	order, err := s.repo.GetOrder(ctx, orderID, userUID)
	if err != nil {
		return nil, err
	}
	if order.Number == "" {
		return nil, ErrNumberNotAssigned
	}

	balance, err := s.ledger.Current(ctx, userUID)
	if err != nil {
		return nil, err
	}
	if balance < order.Amount {
		return nil, repository.ErrInsufficientFunds
	}

	result, err := s.provider.RequestNumber(ctx, order.Service, order.State)
	if err != nil {
		return nil, err
	}

	if _, err = s.ledger.Debit(ctx, userUID, order.Amount,
		"order renewal: "+order.Service, result.ID); err != nil {
		return nil, err
	}

	base := time.Now()
	if order.ExpiresAt != nil && order.ExpiresAt.After(base) {
		base = *order.ExpiresAt
	}
	expiresAt := base.Add(expiryWindow(result.TillExpiration.String()))

	renewal := models.Order{
		UserUID:          userUID,
		Service:          order.Service,
		State:            order.State,
		Amount:           order.Amount,
		Status:           models.OrderStatusPending,
		TransactionID:    result.ID,
		Number:           result.MDN,
		ExpiresAt:        &expiresAt,
		IsPremium:        order.IsPremium,
		MarkupPercentage: order.MarkupPercentage,
		IsRenewal:        true,
		OriginalOrderID:  &order.ID,
	}
	newID, err := s.repo.CreateOrder(ctx, renewal)
	if err != nil {
		return nil, err
	}

	s.log.Info("created renewal order",
		slog.String("id", newID),
		slog.String("original_id", order.ID))
	return s.repo.GetOrder(ctx, newID, userUID)
}

// ToggleAction переключает пользовательский флаг заказа и возвращает
// заказ с обновлённым значением.
func (s *Service) ToggleAction(ctx context.Context, userUID, orderID, action string) (*models.Order, error) {
	const op = "services.order.ToggleAction"

	columns := map[string]string{
		"hotspot":   "hotspot",
		"dislike":   "dislike",
		"addToCart": "add_to_cart",
		"renew":     "renew",
	}
	column, ok := columns[action]
	if !ok {
		return nil, fmt.Errorf("%s: unknown action %q", op, action)
	}
	if err := s.repo.ToggleOrderAction(ctx, orderID, userUID, column); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.repo.GetOrder(ctx, orderID, userUID)
}
