package order

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pcinfobro/numvault/internal/models"
	"github.com/pcinfobro/numvault/internal/provider/tellabot"
	"github.com/pcinfobro/numvault/internal/storage/repository"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateOrder(ctx context.Context, order models.Order) (string, error) {
	args := m.Called(ctx, order)
	return args.String(0), args.Error(1)
}

func (m *MockRepository) GetOrder(ctx context.Context, orderID, userUID string) (*models.Order, error) {
	args := m.Called(ctx, orderID, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockRepository) ListOrders(ctx context.Context, filter models.OrderFilter) ([]*models.Order, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Order), args.Error(1)
}

func (m *MockRepository) CompleteOrderWithMessage(ctx context.Context, orderID, sms, pin, replyFrom, replyDateTime string, messageTime time.Time) error {
	args := m.Called(ctx, orderID, sms, pin, replyFrom, replyDateTime, messageTime)
	return args.Error(0)
}

func (m *MockRepository) UpdateOrderStatus(ctx context.Context, orderID, status string) error {
	args := m.Called(ctx, orderID, status)
	return args.Error(0)
}

func (m *MockRepository) UpdateOrderNumber(ctx context.Context, orderID, number string) error {
	args := m.Called(ctx, orderID, number)
	return args.Error(0)
}

func (m *MockRepository) ToggleOrderAction(ctx context.Context, orderID, userUID, column string) error {
	args := m.Called(ctx, orderID, userUID, column)
	return args.Error(0)
}

func (m *MockRepository) GetService(ctx context.Context, name string) (*models.Service, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Service), args.Error(1)
}

type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) Debit(ctx context.Context, userUID string, amount float64, reason, reference string) (float64, error) {
	args := m.Called(ctx, userUID, amount, reason, reference)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockLedger) Credit(ctx context.Context, userUID string, amount float64, reason, reference string) (float64, error) {
	args := m.Called(ctx, userUID, amount, reason, reference)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockLedger) Current(ctx context.Context, userUID string) (float64, error) {
	args := m.Called(ctx, userUID)
	return args.Get(0).(float64), args.Error(1)
}

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) RequestNumber(ctx context.Context, service, state string) (*tellabot.RequestResult, error) {
	args := m.Called(ctx, service, state)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tellabot.RequestResult), args.Error(1)
}

func (m *MockProvider) ReadSMS(ctx context.Context, service, mdn string) ([]tellabot.SMSMessage, error) {
	args := m.Called(ctx, service, mdn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]tellabot.SMSMessage), args.Error(1)
}

func (m *MockProvider) RequestStatus(ctx context.Context, id string) (*tellabot.StatusResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tellabot.StatusResult), args.Error(1)
}

func (m *MockProvider) Reject(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestService_Buy(t *testing.T) {
	tests := []struct {
		name           string
		req            models.DummyBuyOrder
		setupMocks     func(*MockRepository, *MockLedger, *MockProvider)
		expectedAmount float64
		expectedError  error
	}{
		{
			name: "success - debits catalog price after provider answers",
			req:  models.DummyBuyOrder{Service: "telegram"},
			setupMocks: func(r *MockRepository, l *MockLedger, p *MockProvider) {
				r.On("GetService", mock.Anything, "telegram").
					Return(&models.Service{Name: "telegram", Price: 0.5, Available: true}, nil).Once()
				l.On("Current", mock.Anything, "user123").Return(10.0, nil).Once()
				p.On("RequestNumber", mock.Anything, "telegram", "random").
					Return(&tellabot.RequestResult{ID: "tx-1", MDN: "15550001111", TillExpiration: "900"}, nil).Once()
				l.On("Debit", mock.Anything, "user123", 0.5, "order: telegram", "tx-1").
					Return(9.5, nil).Once()
				r.On("CreateOrder", mock.Anything, mock.MatchedBy(func(o models.Order) bool {
					return o.Status == models.OrderStatusPending &&
						o.TransactionID == "tx-1" &&
						o.Number == "15550001111" &&
						o.Amount == 0.5
				})).Return("order-1", nil).Once()
			},
			expectedAmount: 0.5,
		},
		{
			name: "premium markup applied to price",
			req:  models.DummyBuyOrder{Service: "telegram", IsPremium: true, MarkupPercentage: 20},
			setupMocks: func(r *MockRepository, l *MockLedger, p *MockProvider) {
				r.On("GetService", mock.Anything, "telegram").
					Return(&models.Service{Name: "telegram", Price: 1.0, Available: true}, nil).Once()
				l.On("Current", mock.Anything, "user123").Return(10.0, nil).Once()
				p.On("RequestNumber", mock.Anything, "telegram", "random").
					Return(&tellabot.RequestResult{ID: "tx-2", MDN: "15550002222", TillExpiration: "900"}, nil).Once()
				l.On("Debit", mock.Anything, "user123", 1.2, "order: telegram", "tx-2").
					Return(8.8, nil).Once()
				r.On("CreateOrder", mock.Anything, mock.Anything).Return("order-2", nil).Once()
			},
			expectedAmount: 1.2,
		},
		{
			name: "unknown service",
			req:  models.DummyBuyOrder{Service: "nosuch"},
			setupMocks: func(r *MockRepository, l *MockLedger, p *MockProvider) {
				r.On("GetService", mock.Anything, "nosuch").
					Return(nil, repository.ErrNotFound).Once()
			},
			expectedError: ErrUnknownService,
		},
		{
			name: "insufficient funds - provider never called",
			req:  models.DummyBuyOrder{Service: "telegram"},
			setupMocks: func(r *MockRepository, l *MockLedger, p *MockProvider) {
				r.On("GetService", mock.Anything, "telegram").
					Return(&models.Service{Name: "telegram", Price: 5.0, Available: true}, nil).Once()
				l.On("Current", mock.Anything, "user123").Return(1.0, nil).Once()
			},
			expectedError: repository.ErrInsufficientFunds,
		},
		{
			name: "provider error - no debit happens",
			req:  models.DummyBuyOrder{Service: "telegram"},
			setupMocks: func(r *MockRepository, l *MockLedger, p *MockProvider) {
				r.On("GetService", mock.Anything, "telegram").
					Return(&models.Service{Name: "telegram", Price: 0.5, Available: true}, nil).Once()
				l.On("Current", mock.Anything, "user123").Return(10.0, nil).Once()
				p.On("RequestNumber", mock.Anything, "telegram", "random").
					Return(nil, &tellabot.ProviderError{Message: "Out of stock"}).Once()
			},
			expectedError: &tellabot.ProviderError{Message: "Out of stock"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			ledger := new(MockLedger)
			provider := new(MockProvider)
			tt.setupMocks(repo, ledger, provider)

			svc := New(repo, ledger, provider, newNoopLogger())
			order, err := svc.Buy(context.Background(), "user123", tt.req)

			if tt.expectedError != nil {
				require.Error(t, err)
				var provErr *tellabot.ProviderError
				if errors.As(tt.expectedError, &provErr) {
					assert.ErrorAs(t, err, &provErr)
				} else {
					assert.ErrorIs(t, err, tt.expectedError)
				}
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expectedAmount, order.Amount)
				assert.Equal(t, models.OrderStatusPending, order.Status)
			}

			repo.AssertExpectations(t)
			ledger.AssertExpectations(t)
			provider.AssertExpectations(t)
		})
	}
}

func TestService_CheckSMS(t *testing.T) {
	pendingOrder := func() *models.Order {
		return &models.Order{
			ID:      "order-1",
			UserUID: "user123",
			Service: "telegram",
			Status:  models.OrderStatusPending,
			Number:  "15550001111",
		}
	}

	t.Run("no messages leaves order untouched", func(t *testing.T) {
		repo := new(MockRepository)
		provider := new(MockProvider)
		repo.On("GetOrder", mock.Anything, "order-1", "user123").Return(pendingOrder(), nil).Once()
		provider.On("ReadSMS", mock.Anything, "telegram", "15550001111").
			Return(nil, tellabot.ErrNoMessages).Once()

		svc := New(repo, new(MockLedger), provider, newNoopLogger())
		order, err := svc.CheckSMS(context.Background(), "user123", "order-1")

		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusPending, order.Status)
		repo.AssertExpectations(t)
		provider.AssertExpectations(t)
	})

	t.Run("message completes order with extracted pin", func(t *testing.T) {
		repo := new(MockRepository)
		provider := new(MockProvider)
		repo.On("GetOrder", mock.Anything, "order-1", "user123").Return(pendingOrder(), nil).Once()
		provider.On("ReadSMS", mock.Anything, "telegram", "15550001111").
			Return([]tellabot.SMSMessage{{
				From:     "Telegram",
				Reply:    "Your code is 4821",
				DateTime: "2026-02-10 12:00:00",
			}}, nil).Once()
		repo.On("CompleteOrderWithMessage", mock.Anything, "order-1",
			"Your code is 4821", "4821", "Telegram", "2026-02-10 12:00:00", mock.Anything).
			Return(nil).Once()
		completed := pendingOrder()
		completed.Status = models.OrderStatusCompleted
		repo.On("GetOrder", mock.Anything, "order-1", "user123").Return(completed, nil).Once()

		svc := New(repo, new(MockLedger), provider, newNoopLogger())
		order, err := svc.CheckSMS(context.Background(), "user123", "order-1")

		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusCompleted, order.Status)
		repo.AssertExpectations(t)
		provider.AssertExpectations(t)
	})

	t.Run("several messages complete order with the latest one", func(t *testing.T) {
		repo := new(MockRepository)
		provider := new(MockProvider)
		repo.On("GetOrder", mock.Anything, "order-1", "user123").Return(pendingOrder(), nil).Once()
		provider.On("ReadSMS", mock.Anything, "telegram", "15550001111").
			Return([]tellabot.SMSMessage{
				{From: "Telegram", Reply: "Your code is 1111", DateTime: "2026-02-10 12:00:00"},
				{From: "Telegram", Reply: "Your code is 9999", DateTime: "2026-02-10 12:05:00"},
			}, nil).Once()
		repo.On("CompleteOrderWithMessage", mock.Anything, "order-1",
			"Your code is 9999", "9999", "Telegram", "2026-02-10 12:05:00", mock.Anything).
			Return(nil).Once()
		completed := pendingOrder()
		completed.Status = models.OrderStatusCompleted
		repo.On("GetOrder", mock.Anything, "order-1", "user123").Return(completed, nil).Once()

		svc := New(repo, new(MockLedger), provider, newNoopLogger())
		order, err := svc.CheckSMS(context.Background(), "user123", "order-1")

		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusCompleted, order.Status)
		repo.AssertExpectations(t)
	})

	t.Run("completed order returned without provider call", func(t *testing.T) {
		repo := new(MockRepository)
		provider := new(MockProvider)
		completed := pendingOrder()
		completed.Status = models.OrderStatusCompleted
		repo.On("GetOrder", mock.Anything, "order-1", "user123").Return(completed, nil).Once()

		svc := New(repo, new(MockLedger), provider, newNoopLogger())
		order, err := svc.CheckSMS(context.Background(), "user123", "order-1")

		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusCompleted, order.Status)
		provider.AssertNotCalled(t, "ReadSMS", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("order without number", func(t *testing.T) {
		repo := new(MockRepository)
		o := pendingOrder()
		o.Number = ""
		repo.On("GetOrder", mock.Anything, "order-1", "user123").Return(o, nil).Once()

		svc := New(repo, new(MockLedger), new(MockProvider), newNoopLogger())
		_, err := svc.CheckSMS(context.Background(), "user123", "order-1")

		assert.ErrorIs(t, err, ErrNumberNotAssigned)
	})
}

func TestService_Reject(t *testing.T) {
	pendingOrder := func() *models.Order {
		return &models.Order{
			ID:            "order-1",
			UserUID:       "user123",
			Service:       "telegram",
			Amount:        0.5,
			Status:        models.OrderStatusPending,
			TransactionID: "tx-1",
			Number:        "15550001111",
		}
	}

	t.Run("provider success - no refund", func(t *testing.T) {
		repo := new(MockRepository)
		ledger := new(MockLedger)
		provider := new(MockProvider)
		repo.On("GetOrder", mock.Anything, "order-1", "user123").Return(pendingOrder(), nil).Once()
		provider.On("Reject", mock.Anything, "tx-1").Return(nil).Once()
		repo.On("UpdateOrderStatus", mock.Anything, "order-1", models.OrderStatusRejected).Return(nil).Once()
		rejected := pendingOrder()
		rejected.Status = models.OrderStatusRejected
		repo.On("GetOrder", mock.Anything, "order-1", "user123").Return(rejected, nil).Once()

		svc := New(repo, ledger, provider, newNoopLogger())
		order, err := svc.Reject(context.Background(), "user123", "order-1")

		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusRejected, order.Status)
		ledger.AssertNotCalled(t, "Credit", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unable to reject - local reject with full refund", func(t *testing.T) {
		repo := new(MockRepository)
		ledger := new(MockLedger)
		provider := new(MockProvider)
		repo.On("GetOrder", mock.Anything, "order-1", "user123").Return(pendingOrder(), nil).Once()
		provider.On("Reject", mock.Anything, "tx-1").
			Return(&tellabot.ProviderError{Message: "Unable to reject this number"}).Once()
		repo.On("UpdateOrderStatus", mock.Anything, "order-1", models.OrderStatusRejected).Return(nil).Once()
		ledger.On("Credit", mock.Anything, "user123", 0.5, "refund: telegram", "order-1").
			Return(10.0, nil).Once()
		rejected := pendingOrder()
		rejected.Status = models.OrderStatusRejected
		repo.On("GetOrder", mock.Anything, "order-1", "user123").Return(rejected, nil).Once()

		svc := New(repo, ledger, provider, newNoopLogger())
		order, err := svc.Reject(context.Background(), "user123", "order-1")

		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusRejected, order.Status)
		ledger.AssertExpectations(t)
	})

	t.Run("completed order cannot be rejected", func(t *testing.T) {
		repo := new(MockRepository)
		completed := pendingOrder()
		completed.Status = models.OrderStatusCompleted
		repo.On("GetOrder", mock.Anything, "order-1", "user123").Return(completed, nil).Once()

		svc := New(repo, new(MockLedger), new(MockProvider), newNoopLogger())
		_, err := svc.Reject(context.Background(), "user123", "order-1")

		assert.ErrorIs(t, err, ErrNotPending)
	})
}

func TestService_Renew(t *testing.T) {
	expires := time.Now().Add(-time.Hour)
	original := &models.Order{
		ID:            "order-1",
		UserUID:       "user123",
		Service:       "telegram",
		State:         "random",
		Amount:        0.5,
		Status:        models.OrderStatusExpired,
		TransactionID: "tx-1",
		Number:        "15550001111",
		ExpiresAt:     &expires,
	}

	t.Run("creates linked renewal order", func(t *testing.T) {
		repo := new(MockRepository)
		ledger := new(MockLedger)
		provider := new(MockProvider)
		repo.On("GetOrder", mock.Anything, "order-1", "user123").Return(original, nil).Once()
		ledger.On("Current", mock.Anything, "user123").Return(10.0, nil).Once()
		provider.On("RequestNumber", mock.Anything, "telegram", "random").
			Return(&tellabot.RequestResult{ID: "tx-2", MDN: "15550001111", TillExpiration: "900"}, nil).Once()
		ledger.On("Debit", mock.Anything, "user123", 0.5, "order renewal: telegram", "tx-2").
			Return(9.5, nil).Once()
		repo.On("CreateOrder", mock.Anything, mock.MatchedBy(func(o models.Order) bool {
			return o.IsRenewal &&
				o.OriginalOrderID != nil && *o.OriginalOrderID == "order-1" &&
				o.TransactionID == "tx-2"
		})).Return("order-2", nil).Once()
		repo.On("GetOrder", mock.Anything, "order-2", "user123").
			Return(&models.Order{ID: "order-2", IsRenewal: true}, nil).Once()

		svc := New(repo, ledger, provider, newNoopLogger())
		order, err := svc.Renew(context.Background(), "user123", "order-1")

		require.NoError(t, err)
		assert.Equal(t, "order-2", order.ID)
		assert.True(t, order.IsRenewal)
		repo.AssertExpectations(t)
	})

	t.Run("insufficient funds", func(t *testing.T) {
		repo := new(MockRepository)
		ledger := new(MockLedger)
		repo.On("GetOrder", mock.Anything, "order-1", "user123").Return(original, nil).Once()
		ledger.On("Current", mock.Anything, "user123").Return(0.1, nil).Once()

		svc := New(repo, ledger, new(MockProvider), newNoopLogger())
		_, err := svc.Renew(context.Background(), "user123", "order-1")

		assert.ErrorIs(t, err, repository.ErrInsufficientFunds)
	})
}

func TestService_ToggleAction(t *testing.T) {
	t.Run("maps addToCart to column", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("ToggleOrderAction", mock.Anything, "order-1", "user123", "add_to_cart").Return(nil).Once()
		repo.On("GetOrder", mock.Anything, "order-1", "user123").
			Return(&models.Order{ID: "order-1", AddToCart: true}, nil).Once()

		svc := New(repo, new(MockLedger), new(MockProvider), newNoopLogger())
		order, err := svc.ToggleAction(context.Background(), "user123", "order-1", "addToCart")

		require.NoError(t, err)
		assert.True(t, order.AddToCart)
		repo.AssertExpectations(t)
	})

	t.Run("unknown action", func(t *testing.T) {
		svc := New(new(MockRepository), new(MockLedger), new(MockProvider), newNoopLogger())
		_, err := svc.ToggleAction(context.Background(), "user123", "order-1", "drop")
		assert.Error(t, err)
	})
}

func TestExpiryWindow(t *testing.T) {
	assert.Equal(t, 900*time.Second, expiryWindow("900"))
	assert.Equal(t, 15*time.Minute, expiryWindow(""))
	assert.Equal(t, 15*time.Minute, expiryWindow("abc"))
	assert.Equal(t, 15*time.Minute, expiryWindow("-5"))
}
