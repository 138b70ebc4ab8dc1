package deposit

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pcinfobro/numvault/internal/config"
	"github.com/pcinfobro/numvault/internal/models"
	"github.com/pcinfobro/numvault/internal/provider/cryptomus"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateDeposit(ctx context.Context, deposit models.Deposit, payload []byte) (string, error) {
	args := m.Called(ctx, deposit, payload)
	return args.String(0), args.Error(1)
}

func (m *MockRepository) GetDepositByTransactionID(ctx context.Context, transactionID string) (*models.Deposit, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Deposit), args.Error(1)
}

func (m *MockRepository) ListDeposits(ctx context.Context, userUID string, limit, offset int) ([]*models.Deposit, error) {
	args := m.Called(ctx, userUID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Deposit), args.Error(1)
}

func (m *MockRepository) CompleteDepositAndCredit(ctx context.Context, transactionID string, payload []byte) (bool, error) {
	args := m.Called(ctx, transactionID, payload)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) UpdateDepositStatus(ctx context.Context, transactionID, status string, payload []byte) error {
	args := m.Called(ctx, transactionID, status, payload)
	return args.Error(0)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreatePayment(ctx context.Context, reqParams cryptomus.CreatePaymentRequest) (*cryptomus.PaymentResult, error) {
	args := m.Called(ctx, reqParams)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cryptomus.PaymentResult), args.Error(1)
}

func (m *MockGateway) VerifyWebhook(rawBody []byte, sign string) bool {
	args := m.Called(rawBody, sign)
	return args.Bool(0)
}

type MockRates struct {
	mock.Mock
}

func (m *MockRates) USDToCrypto(ctx context.Context, amountUSD float64, currency string) (float64, error) {
	args := m.Called(ctx, amountUSD, currency)
	return args.Get(0).(float64), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func testConfig() config.Cryptomus {
	return config.Cryptomus{
		CallbackURL: "https://example.com/api/v1/payments/webhook",
		ReturnURL:   "https://example.com/deposit",
		SuccessURL:  "https://example.com/deposit/success",
	}
}

func TestService_Create(t *testing.T) {
	t.Run("success - amount converted and sent with 8 decimals", func(t *testing.T) {
		repo := new(MockRepository)
		gateway := new(MockGateway)
		rates := new(MockRates)
		rates.On("USDToCrypto", mock.Anything, 50.0, "USDT").Return(50.0, nil).Once()
		gateway.On("CreatePayment", mock.Anything, mock.MatchedBy(func(p cryptomus.CreatePaymentRequest) bool {
			return p.Amount == "50.00000000" &&
				p.Currency == "USDT" &&
				p.Network == "TRC20" &&
				p.Lifetime == 1800 &&
				p.OrderID != ""
		})).Return(&cryptomus.PaymentResult{
			UUID:   "pay-uuid",
			Status: "check",
			URL:    "https://pay.example.com/invoice",
		}, nil).Once()
		repo.On("CreateDeposit", mock.Anything, mock.MatchedBy(func(d models.Deposit) bool {
			return d.Amount == 50.0 &&
				d.Method == "USDT (TRC20)" &&
				d.Status == models.DepositStatusPending
		}), mock.Anything).Return("dep-1", nil).Once()

		svc := New(repo, gateway, rates, testConfig(), newNoopLogger())
		deposit, err := svc.Create(context.Background(), "user123",
			models.DummyCreateDeposit{Amount: 50.0, Currency: "USDT", Network: "TRC20"})

		require.NoError(t, err)
		assert.Equal(t, "dep-1", deposit.ID)
		assert.Equal(t, "https://pay.example.com/invoice", deposit.PaymentURL)
		repo.AssertExpectations(t)
		gateway.AssertExpectations(t)
	})

	t.Run("invalid network for currency", func(t *testing.T) {
		svc := New(new(MockRepository), new(MockGateway), new(MockRates), testConfig(), newNoopLogger())

		_, err := svc.Create(context.Background(), "user123",
			models.DummyCreateDeposit{Amount: 50.0, Currency: "BTC", Network: "TRC20"})
		assert.ErrorIs(t, err, ErrInvalidNetwork)

		_, err = svc.Create(context.Background(), "user123",
			models.DummyCreateDeposit{Amount: 50.0, Currency: "DOGE", Network: "DOGE"})
		assert.ErrorIs(t, err, ErrInvalidNetwork)
	})

	t.Run("valid network matrix", func(t *testing.T) {
		valid := map[string][]string{
			"BTC":  {"BTC"},
			"ETH":  {"ETH"},
			"LTC":  {"LTC"},
			"USDT": {"ETH", "TRC20", "POLYGON"},
			"USDC": {"ETH", "POLYGON"},
		}
		for currency, networks := range valid {
			for _, network := range networks {
				repo := new(MockRepository)
				gateway := new(MockGateway)
				rates := new(MockRates)
				rates.On("USDToCrypto", mock.Anything, 10.0, currency).Return(0.001, nil).Once()
				gateway.On("CreatePayment", mock.Anything, mock.Anything).
					Return(&cryptomus.PaymentResult{UUID: "u", Status: "check", URL: "https://pay"}, nil).Once()
				repo.On("CreateDeposit", mock.Anything, mock.Anything, mock.Anything).Return("dep", nil).Once()

				svc := New(repo, gateway, rates, testConfig(), newNoopLogger())
				_, err := svc.Create(context.Background(), "user123",
					models.DummyCreateDeposit{Amount: 10.0, Currency: currency, Network: network})
				assert.NoError(t, err, "%s on %s", currency, network)
			}
		}
	})
}

func TestService_HandleWebhook(t *testing.T) {
	paidPayload := cryptomus.WebhookPayload{
		OrderID: "order-1",
		Status:  "paid",
	}
	rawBody := []byte(`{"order_id":"order-1","status":"paid"}`)

	t.Run("paid - credits exactly once and stores the raw body", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetDepositByTransactionID", mock.Anything, "order-1").
			Return(&models.Deposit{TransactionID: "order-1"}, nil).Once()
		repo.On("CompleteDepositAndCredit", mock.Anything, "order-1", rawBody).Return(true, nil).Once()

		svc := New(repo, new(MockGateway), new(MockRates), testConfig(), newNoopLogger())
		err := svc.HandleWebhook(context.Background(), rawBody, paidPayload)

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("replayed paid webhook is a no-op", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetDepositByTransactionID", mock.Anything, "order-1").
			Return(&models.Deposit{TransactionID: "order-1"}, nil).Once()
		repo.On("CompleteDepositAndCredit", mock.Anything, "order-1", rawBody).Return(false, nil).Once()

		svc := New(repo, new(MockGateway), new(MockRates), testConfig(), newNoopLogger())
		err := svc.HandleWebhook(context.Background(), rawBody, paidPayload)

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("non-final status stored with raw body, without credit", func(t *testing.T) {
		cancelBody := []byte(`{"order_id":"order-1","status":"cancel"}`)
		repo := new(MockRepository)
		repo.On("GetDepositByTransactionID", mock.Anything, "order-1").
			Return(&models.Deposit{TransactionID: "order-1"}, nil).Once()
		repo.On("UpdateDepositStatus", mock.Anything, "order-1", "cancel", cancelBody).Return(nil).Once()

		svc := New(repo, new(MockGateway), new(MockRates), testConfig(), newNoopLogger())
		err := svc.HandleWebhook(context.Background(), cancelBody, cryptomus.WebhookPayload{
			OrderID: "order-1",
			Status:  "cancel",
		})

		require.NoError(t, err)
		repo.AssertNotCalled(t, "CompleteDepositAndCredit", mock.Anything, mock.Anything, mock.Anything)
	})
}
