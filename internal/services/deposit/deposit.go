// Package deposit содержит бизнес-логику пополнения баланса через
// криптоплатежи: создание платежа и обработку вебхуков шлюза.
package deposit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"

	"github.com/pcinfobro/numvault/internal/config"
	"github.com/pcinfobro/numvault/internal/metrics"
	"github.com/pcinfobro/numvault/internal/models"
	"github.com/pcinfobro/numvault/internal/provider/cryptomus"
)

// ErrInvalidNetwork возвращается при недопустимой паре валюта/сеть.
var ErrInvalidNetwork = errors.New("invalid network for currency")

// validNetworks допустимые сети для каждой валюты.
var validNetworks = map[string][]string{
	"BTC":  {"BTC"},
	"ETH":  {"ETH"},
	"LTC":  {"LTC"},
	"USDT": {"ETH", "TRC20", "POLYGON"},
	"USDC": {"ETH", "POLYGON"},
}

// Repository определяет методы хранилища для работы с депозитами.
type Repository interface {
	CreateDeposit(ctx context.Context, deposit models.Deposit, payload []byte) (string, error)
	GetDepositByTransactionID(ctx context.Context, transactionID string) (*models.Deposit, error)
	ListDeposits(ctx context.Context, userUID string, limit, offset int) ([]*models.Deposit, error)
	CompleteDepositAndCredit(ctx context.Context, transactionID string, payload []byte) (bool, error)
	UpdateDepositStatus(ctx context.Context, transactionID, status string, payload []byte) error
}

// Gateway определяет вызовы платёжного шлюза.
type Gateway interface {
	CreatePayment(ctx context.Context, reqParams cryptomus.CreatePaymentRequest) (*cryptomus.PaymentResult, error)
	VerifyWebhook(rawBody []byte, sign string) bool
}

// Rates определяет конвертацию USD в криптовалюту.
type Rates interface {
	USDToCrypto(ctx context.Context, amountUSD float64, currency string) (float64, error)
}

// Service реализует бизнес-логику депозитов.
type Service struct {
	repo    Repository
	gateway Gateway
	rates   Rates
	cfg     config.Cryptomus
	log     *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo Repository, gateway Gateway, rates Rates, cfg config.Cryptomus, log *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		gateway: gateway,
		rates:   rates,
		cfg:     cfg,
		log:     log,
	}
}

// Create создаёт криптоплатёж и pending-депозит. Сумма хранится в USD,
// количество криптовалюты передаётся шлюзу с точностью 8 знаков.
func (s *Service) Create(ctx context.Context, userUID string, req models.DummyCreateDeposit) (*models.Deposit, error) {
	networks, ok := validNetworks[req.Currency]
	if !ok {
		return nil, ErrInvalidNetwork
	}
	valid := false
	for _, n := range networks {
		if n == req.Network {
			valid = true
			break
		}
	}
	if !valid {
		return nil, ErrInvalidNetwork
	}

	cryptoAmount, err := s.rates.USDToCrypto(ctx, req.Amount, req.Currency)
	if err != nil {
		return nil, err
	}

	orderID := uuid.NewString()
	payment := cryptomus.CreatePaymentRequest{
		Amount:      strconv.FormatFloat(cryptoAmount, 'f', 8, 64),
		Currency:    req.Currency,
		Network:     req.Network,
		OrderID:     orderID,
		URLCallback: s.cfg.CallbackURL,
		URLReturn:   s.cfg.ReturnURL,
		URLSuccess:  s.cfg.SuccessURL,
		Lifetime:    1800,
	}
	result, err := s.gateway.CreatePayment(ctx, payment)
	if err != nil {
		return nil, err
	}

	deposit := models.Deposit{
		UserUID:       userUID,
		Amount:        req.Amount,
		Method:        fmt.Sprintf("%s (%s)", req.Currency, req.Network),
		Status:        models.DepositStatusPending,
		TransactionID: orderID,
		PaymentURL:    result.URL,
	}
	payload := []byte(fmt.Sprintf(`{"uuid":%q,"status":%q}`, result.UUID, result.Status))
	newID, err := s.repo.CreateDeposit(ctx, deposit, payload)
	if err != nil {
		return nil, err
	}
	deposit.ID = newID

	s.log.Info("created deposit",
		slog.String("id", newID),
		slog.Float64("amount", req.Amount),
		slog.String("method", deposit.Method))
	return &deposit, nil
}

// List возвращает депозиты пользователя.
func (s *Service) List(ctx context.Context, userUID string, limit, offset int) ([]*models.Deposit, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.ListDeposits(ctx, userUID, limit, offset)
}

// VerifyWebhook проверяет подпись вебхука по сырому телу.
func (s *Service) VerifyWebhook(rawBody []byte, sign string) bool {
	return s.gateway.VerifyWebhook(rawBody, sign)
}

// HandleWebhook обрабатывает уведомление шлюза об изменении статуса
// платежа. Оплаченный депозит завершается и зачисляется ровно один раз,
// повторные доставки игнорируются. Остальные статусы сохраняются
// без зачисления. Сырое тело уведомления сохраняется при каждой смене
// статуса.
func (s *Service) HandleWebhook(ctx context.Context, rawBody []byte, payload cryptomus.WebhookPayload) error {
	if _, err := s.repo.GetDepositByTransactionID(ctx, payload.OrderID); err != nil {
		return err
	}

	if cryptomus.IsPaid(payload.Status) {
		credited, err := s.repo.CompleteDepositAndCredit(ctx, payload.OrderID, rawBody)
		if err != nil {
			return err
		}
		if credited {
			metrics.DepositsCompleted.Inc()
			s.log.Info("deposit completed",
				slog.String("order_id", payload.OrderID),
				slog.String("status", payload.Status))
		} else {
			s.log.Info("duplicate webhook ignored",
				slog.String("order_id", payload.OrderID))
		}
		return nil
	}

	if err := s.repo.UpdateDepositStatus(ctx, payload.OrderID, payload.Status, rawBody); err != nil {
		return err
	}
	s.log.Info("deposit status updated",
		slog.String("order_id", payload.OrderID),
		slog.String("status", payload.Status))
	return nil
}
