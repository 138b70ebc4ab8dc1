package rental

import (
	"context"
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

func (m *MockRepository) CreateRental(ctx context.Context, rental models.Rental) (string, error) {
	args := m.Called(ctx, rental)
	return args.String(0), args.Error(1)
}

func (m *MockRepository) GetRental(ctx context.Context, rentalID, userUID string) (*models.Rental, error) {
	args := m.Called(ctx, rentalID, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Rental), args.Error(1)
}

func (m *MockRepository) ListRentals(ctx context.Context, filter models.RentalFilter) ([]*models.Rental, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Rental), args.Error(1)
}

func (m *MockRepository) UpdateRentalStatus(ctx context.Context, rentalID, status string) error {
	args := m.Called(ctx, rentalID, status)
	return args.Error(0)
}

func (m *MockRepository) ExtendRentalAndDebit(ctx context.Context, rentalID, userUID string, days int, amount float64, reason string) (time.Time, error) {
	args := m.Called(ctx, rentalID, userUID, days, amount, reason)
	return args.Get(0).(time.Time), args.Error(1)
}

func (m *MockRepository) ToggleRentalAction(ctx context.Context, rentalID, userUID, column string) error {
	args := m.Called(ctx, rentalID, userUID, column)
	return args.Error(0)
}

func (m *MockRepository) UpdateRentalMessageTime(ctx context.Context, rentalID string, messageTime time.Time) error {
	args := m.Called(ctx, rentalID, messageTime)
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

func (m *MockLedger) Current(ctx context.Context, userUID string) (float64, error) {
	args := m.Called(ctx, userUID)
	return args.Get(0).(float64), args.Error(1)
}

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) RentNumber(ctx context.Context, service, state string, days int, mdn string) (*tellabot.RentResult, error) {
	args := m.Called(ctx, service, state, days, mdn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tellabot.RentResult), args.Error(1)
}

func (m *MockProvider) ReadSMS(ctx context.Context, service, mdn string) ([]tellabot.SMSMessage, error) {
	args := m.Called(ctx, service, mdn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]tellabot.SMSMessage), args.Error(1)
}

func (m *MockProvider) ReleaseRental(ctx context.Context, id, mdn, service string) error {
	args := m.Called(ctx, id, mdn, service)
	return args.Error(0)
}

func (m *MockProvider) RentalStatus(ctx context.Context, mdn string) (*tellabot.LTRStatusResult, error) {
	args := m.Called(ctx, mdn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tellabot.LTRStatusResult), args.Error(1)
}

func (m *MockProvider) ActivateRental(ctx context.Context, mdn, service string) error {
	args := m.Called(ctx, mdn, service)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func activeRental() *models.Rental {
	return &models.Rental{
		ID:            "rental-1",
		UserUID:       "user123",
		Service:       "telegram",
		State:         "random",
		Duration:      models.RentalDurationShort,
		Number:        "15550001111",
		TransactionID: "ltr-1",
		StartDate:     time.Now().Add(-24 * time.Hour),
		ExpiresAt:     time.Now().Add(48 * time.Hour),
		Status:        models.RentalStatusActive,
		Price:         2.5,
	}
}

func TestDurationPrice(t *testing.T) {
	tests := []struct {
		name     string
		svc      models.Service
		duration string
		expected float64
	}{
		{
			name:     "short uses ltr short price",
			svc:      models.Service{Price: 1.0, LTRShortPrice: 2.5},
			duration: models.RentalDurationShort,
			expected: 2.5,
		},
		{
			name:     "short falls back to half base price",
			svc:      models.Service{Price: 1.0},
			duration: models.RentalDurationShort,
			expected: 0.5,
		},
		{
			name:     "long uses ltr price",
			svc:      models.Service{Price: 1.0, LTRPrice: 12.0},
			duration: models.RentalDurationLong,
			expected: 12.0,
		},
		{
			name:     "long falls back to double base price",
			svc:      models.Service{Price: 1.0},
			duration: models.RentalDurationLong,
			expected: 2.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, durationPrice(&tt.svc, tt.duration))
		})
	}
}

func TestService_Create(t *testing.T) {
	t.Run("success - debits after provider answers", func(t *testing.T) {
		repo := new(MockRepository)
		ledger := new(MockLedger)
		provider := new(MockProvider)
		repo.On("GetService", mock.Anything, "telegram").
			Return(&models.Service{Name: "telegram", Price: 1.0, LTRShortPrice: 2.5}, nil).Once()
		ledger.On("Current", mock.Anything, "user123").Return(10.0, nil).Once()
		provider.On("RentNumber", mock.Anything, "telegram", "random", 3, "").
			Return(&tellabot.RentResult{ID: "ltr-1", MDN: "15550001111"}, nil).Once()
		ledger.On("Debit", mock.Anything, "user123", 2.5, "rental: telegram", "ltr-1").
			Return(7.5, nil).Once()
		repo.On("CreateRental", mock.Anything, mock.MatchedBy(func(r models.Rental) bool {
			return r.Status == models.RentalStatusActive &&
				r.Number == "15550001111" &&
				r.Duration == models.RentalDurationShort
		})).Return("rental-1", nil).Once()

		svc := New(repo, ledger, provider, newNoopLogger())
		rental, err := svc.Create(context.Background(), "user123",
			models.DummyCreateRental{Service: "telegram", Duration: models.RentalDurationShort})

		require.NoError(t, err)
		assert.Equal(t, "rental-1", rental.ID)
		assert.Equal(t, 2.5, rental.Price)
		repo.AssertExpectations(t)
		ledger.AssertExpectations(t)
		provider.AssertExpectations(t)
	})

	t.Run("insufficient funds - provider never called", func(t *testing.T) {
		repo := new(MockRepository)
		ledger := new(MockLedger)
		provider := new(MockProvider)
		repo.On("GetService", mock.Anything, "telegram").
			Return(&models.Service{Name: "telegram", Price: 1.0, LTRShortPrice: 2.5}, nil).Once()
		ledger.On("Current", mock.Anything, "user123").Return(1.0, nil).Once()

		svc := New(repo, ledger, provider, newNoopLogger())
		_, err := svc.Create(context.Background(), "user123",
			models.DummyCreateRental{Service: "telegram", Duration: models.RentalDurationShort})

		assert.ErrorIs(t, err, repository.ErrInsufficientFunds)
		provider.AssertNotCalled(t, "RentNumber",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown service", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetService", mock.Anything, "nosuch").Return(nil, repository.ErrNotFound).Once()

		svc := New(repo, new(MockLedger), new(MockProvider), newNoopLogger())
		_, err := svc.Create(context.Background(), "user123",
			models.DummyCreateRental{Service: "nosuch", Duration: models.RentalDurationLong})

		assert.ErrorIs(t, err, ErrUnknownService)
	})
}

func TestService_Extend(t *testing.T) {
	t.Run("debits and shifts expiry atomically, without provider", func(t *testing.T) {
		repo := new(MockRepository)
		ledger := new(MockLedger)
		provider := new(MockProvider)
		rental := activeRental()
		repo.On("GetRental", mock.Anything, "rental-1", "user123").Return(rental, nil).Once()
		repo.On("GetService", mock.Anything, "telegram").
			Return(&models.Service{Name: "telegram", Price: 1.0, LTRShortPrice: 2.5}, nil).Once()
		repo.On("ExtendRentalAndDebit", mock.Anything, "rental-1", "user123", 3, 2.5,
			"rental extension: telegram").
			Return(rental.ExpiresAt.AddDate(0, 0, 3), nil).Once()
		extended := activeRental()
		extended.ExpiresAt = rental.ExpiresAt.AddDate(0, 0, 3)
		repo.On("GetRental", mock.Anything, "rental-1", "user123").Return(extended, nil).Once()

		svc := New(repo, ledger, provider, newNoopLogger())
		result, err := svc.Extend(context.Background(), "user123", "rental-1",
			models.DummyExtendRental{Duration: models.RentalDurationShort})

		require.NoError(t, err)
		assert.Equal(t, extended.ExpiresAt, result.ExpiresAt)
		provider.AssertNotCalled(t, "RentNumber",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		ledger.AssertNotCalled(t, "Debit",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		repo.AssertExpectations(t)
	})

	t.Run("insufficient funds leaves the expiry untouched", func(t *testing.T) {
		repo := new(MockRepository)
		rental := activeRental()
		repo.On("GetRental", mock.Anything, "rental-1", "user123").Return(rental, nil).Once()
		repo.On("GetService", mock.Anything, "telegram").
			Return(&models.Service{Name: "telegram", Price: 1.0, LTRShortPrice: 2.5}, nil).Once()
		repo.On("ExtendRentalAndDebit", mock.Anything, "rental-1", "user123", 3, 2.5,
			"rental extension: telegram").
			Return(time.Time{}, repository.ErrInsufficientFunds).Once()

		svc := New(repo, new(MockLedger), new(MockProvider), newNoopLogger())
		_, err := svc.Extend(context.Background(), "user123", "rental-1",
			models.DummyExtendRental{Duration: models.RentalDurationShort})

		assert.ErrorIs(t, err, repository.ErrInsufficientFunds)
		repo.AssertExpectations(t)
	})

	t.Run("expired rental cannot be extended", func(t *testing.T) {
		repo := new(MockRepository)
		rental := activeRental()
		rental.Status = models.RentalStatusExpired
		repo.On("GetRental", mock.Anything, "rental-1", "user123").Return(rental, nil).Once()

		svc := New(repo, new(MockLedger), new(MockProvider), newNoopLogger())
		_, err := svc.Extend(context.Background(), "user123", "rental-1",
			models.DummyExtendRental{Duration: models.RentalDurationShort})

		assert.ErrorIs(t, err, ErrNotActive)
	})
}

func TestService_Renew(t *testing.T) {
	t.Run("rents same number and stacks expiry", func(t *testing.T) {
		repo := new(MockRepository)
		ledger := new(MockLedger)
		provider := new(MockProvider)
		rental := activeRental()
		repo.On("GetRental", mock.Anything, "rental-1", "user123").Return(rental, nil).Once()
		ledger.On("Current", mock.Anything, "user123").Return(10.0, nil).Once()
		provider.On("RentNumber", mock.Anything, "telegram", "random", 3, "15550001111").
			Return(&tellabot.RentResult{ID: "ltr-2", MDN: "15550001111"}, nil).Once()
		ledger.On("Debit", mock.Anything, "user123", 2.5, "rental renewal: telegram", "ltr-2").
			Return(7.5, nil).Once()
		repo.On("CreateRental", mock.Anything, mock.MatchedBy(func(r models.Rental) bool {
			return r.IsRenewal &&
				r.OriginalRentalID != nil && *r.OriginalRentalID == "rental-1" &&
				r.ExpiresAt.After(rental.ExpiresAt)
		})).Return("rental-2", nil).Once()
		repo.On("GetRental", mock.Anything, "rental-2", "user123").
			Return(&models.Rental{ID: "rental-2", IsRenewal: true}, nil).Once()

		svc := New(repo, ledger, provider, newNoopLogger())
		result, err := svc.Renew(context.Background(), "user123", "rental-1")

		require.NoError(t, err)
		assert.Equal(t, "rental-2", result.ID)
		repo.AssertExpectations(t)
	})
}

func TestService_Messages(t *testing.T) {
	t.Run("no messages returns empty slice", func(t *testing.T) {
		repo := new(MockRepository)
		provider := new(MockProvider)
		repo.On("GetRental", mock.Anything, "rental-1", "user123").Return(activeRental(), nil).Once()
		provider.On("ReadSMS", mock.Anything, "telegram", "15550001111").
			Return(nil, tellabot.ErrNoMessages).Once()

		svc := New(repo, new(MockLedger), provider, newNoopLogger())
		messages, err := svc.Messages(context.Background(), "user123", "rental-1")

		require.NoError(t, err)
		assert.Empty(t, messages)
	})

	t.Run("messages update last message time", func(t *testing.T) {
		repo := new(MockRepository)
		provider := new(MockProvider)
		repo.On("GetRental", mock.Anything, "rental-1", "user123").Return(activeRental(), nil).Once()
		provider.On("ReadSMS", mock.Anything, "telegram", "15550001111").
			Return([]tellabot.SMSMessage{{From: "Telegram", Reply: "code 1234"}}, nil).Once()
		repo.On("UpdateRentalMessageTime", mock.Anything, "rental-1", mock.Anything).Return(nil).Once()

		svc := New(repo, new(MockLedger), provider, newNoopLogger())
		messages, err := svc.Messages(context.Background(), "user123", "rental-1")

		require.NoError(t, err)
		assert.Len(t, messages, 1)
		repo.AssertExpectations(t)
	})
}

func TestService_Release(t *testing.T) {
	t.Run("marks rejected after provider release", func(t *testing.T) {
		repo := new(MockRepository)
		provider := new(MockProvider)
		rental := activeRental()
		repo.On("GetRental", mock.Anything, "rental-1", "user123").Return(rental, nil).Once()
		provider.On("ReleaseRental", mock.Anything, "ltr-1", "15550001111", "telegram").Return(nil).Once()
		repo.On("UpdateRentalStatus", mock.Anything, "rental-1", models.RentalStatusRejected).Return(nil).Once()
		released := activeRental()
		released.Status = models.RentalStatusRejected
		repo.On("GetRental", mock.Anything, "rental-1", "user123").Return(released, nil).Once()

		svc := New(repo, new(MockLedger), provider, newNoopLogger())
		result, err := svc.Release(context.Background(), "user123", "rental-1")

		require.NoError(t, err)
		assert.Equal(t, models.RentalStatusRejected, result.Status)
	})

	t.Run("cancelled rental cannot be released", func(t *testing.T) {
		repo := new(MockRepository)
		rental := activeRental()
		rental.Status = models.RentalStatusCancelled
		repo.On("GetRental", mock.Anything, "rental-1", "user123").Return(rental, nil).Once()

		svc := New(repo, new(MockLedger), new(MockProvider), newNoopLogger())
		_, err := svc.Release(context.Background(), "user123", "rental-1")

		assert.ErrorIs(t, err, ErrNotActive)
	})
}

func TestService_ToggleAction(t *testing.T) {
	t.Run("toggles cart flag by column name", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("ToggleRentalAction", mock.Anything, "rental-1", "user123", "add_to_cart").Return(nil).Once()
		repo.On("GetRental", mock.Anything, "rental-1", "user123").Return(activeRental(), nil).Once()

		svc := New(repo, new(MockLedger), new(MockProvider), newNoopLogger())
		result, err := svc.ToggleAction(context.Background(), "user123", "rental-1", "addToCart")

		require.NoError(t, err)
		assert.Equal(t, "rental-1", result.ID)
		repo.AssertExpectations(t)
	})

	t.Run("unknown action rejected before repository call", func(t *testing.T) {
		repo := new(MockRepository)

		svc := New(repo, new(MockLedger), new(MockProvider), newNoopLogger())
		_, err := svc.ToggleAction(context.Background(), "user123", "rental-1", "renew")

		require.Error(t, err)
		repo.AssertNotCalled(t, "ToggleRentalAction", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("foreign rental reports not found", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("ToggleRentalAction", mock.Anything, "rental-1", "user123", "hotspot").
			Return(repository.ErrNotFound).Once()

		svc := New(repo, new(MockLedger), new(MockProvider), newNoopLogger())
		_, err := svc.ToggleAction(context.Background(), "user123", "rental-1", "hotspot")

		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}
