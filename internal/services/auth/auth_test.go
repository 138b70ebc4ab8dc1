package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pcinfobro/numvault/internal/lib/jwt"
	"github.com/pcinfobro/numvault/internal/lib/password"
	"github.com/pcinfobro/numvault/internal/models"
	"github.com/pcinfobro/numvault/internal/storage/repository"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) RegisterUser(ctx context.Context, user models.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}

func (m *MockUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) VerifyUserByToken(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateVerificationToken(ctx context.Context, userUID, token string, exp time.Time) error {
	args := m.Called(ctx, userUID, token, exp)
	return args.Error(0)
}

func (m *MockUserRepository) SetResetToken(ctx context.Context, userUID, token string, exp time.Time) error {
	args := m.Called(ctx, userUID, token, exp)
	return args.Error(0)
}

func (m *MockUserRepository) GetUserByResetToken(ctx context.Context, token string) (*models.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, userUID, passwordHash string) error {
	args := m.Called(ctx, userUID, passwordHash)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateLastLogin(ctx context.Context, userUID string) error {
	args := m.Called(ctx, userUID)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, userUID string, upd models.DummyUpdateProfile) error {
	args := m.Called(ctx, userUID, upd)
	return args.Error(0)
}

func (m *MockUserRepository) DeactivateUser(ctx context.Context, userUID string) error {
	args := m.Called(ctx, userUID)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func newTestService(users UserRepository) *AuthService {
	maker := jwt.NewJWTMaker("test-secret-key", time.Hour)
	return NewAuthService(users, maker, nil, newNoopLogger())
}

func verifiedUser(t *testing.T, rawPassword string) *models.User {
	t.Helper()
	hash, err := password.GetHash(rawPassword)
	require.NoError(t, err)
	return &models.User{
		UID:          "uid-1",
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: hash,
		IsVerified:   true,
		Role:         "Member",
		Active:       true,
	}
}

func TestAuthService_Register(t *testing.T) {
	users := new(MockUserRepository)
	users.On("RegisterUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
		return u.Email == "alice@example.com" &&
			u.Role == "Member" &&
			u.PasswordHash != "" &&
			u.PasswordHash != "password123" &&
			u.VerificationToken != nil &&
			u.VerificationExp != nil
	})).Return("uid-1", nil).Once()

	svc := newTestService(users)
	uid, err := svc.Register(context.Background(), models.DummyRegister{
		Username:      "alice",
		Email:         "alice@example.com",
		Password:      "password123",
		ContactMethod: "email",
		ContactValue:  "alice@example.com",
	})

	require.NoError(t, err)
	assert.Equal(t, "uid-1", uid)
	users.AssertExpectations(t)
}

func TestAuthService_Login(t *testing.T) {
	t.Run("success returns token and role", func(t *testing.T) {
		users := new(MockUserRepository)
		users.On("GetUserByEmail", mock.Anything, "alice@example.com").
			Return(verifiedUser(t, "password123"), nil).Once()
		users.On("UpdateLastLogin", mock.Anything, "uid-1").Return(nil).Once()

		svc := newTestService(users)
		token, role, err := svc.Login(context.Background(), "alice@example.com", "password123")

		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.Equal(t, "Member", role)
	})

	t.Run("wrong password", func(t *testing.T) {
		users := new(MockUserRepository)
		users.On("GetUserByEmail", mock.Anything, "alice@example.com").
			Return(verifiedUser(t, "password123"), nil).Once()

		svc := newTestService(users)
		_, _, err := svc.Login(context.Background(), "alice@example.com", "wrong")

		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		users := new(MockUserRepository)
		users.On("GetUserByEmail", mock.Anything, "nobody@example.com").
			Return(nil, repository.ErrNotFound).Once()

		svc := newTestService(users)
		_, _, err := svc.Login(context.Background(), "nobody@example.com", "password123")

		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unverified email", func(t *testing.T) {
		users := new(MockUserRepository)
		user := verifiedUser(t, "password123")
		user.IsVerified = false
		users.On("GetUserByEmail", mock.Anything, "alice@example.com").Return(user, nil).Once()

		svc := newTestService(users)
		_, _, err := svc.Login(context.Background(), "alice@example.com", "password123")

		assert.ErrorIs(t, err, ErrNotVerified)
	})

	t.Run("deactivated account", func(t *testing.T) {
		users := new(MockUserRepository)
		user := verifiedUser(t, "password123")
		user.Active = false
		users.On("GetUserByEmail", mock.Anything, "alice@example.com").Return(user, nil).Once()

		svc := newTestService(users)
		_, _, err := svc.Login(context.Background(), "alice@example.com", "password123")

		assert.ErrorIs(t, err, ErrDeactivated)
	})
}

func TestAuthService_ValidateToken(t *testing.T) {
	users := new(MockUserRepository)
	users.On("GetUserByEmail", mock.Anything, "alice@example.com").
		Return(verifiedUser(t, "password123"), nil).Once()
	users.On("UpdateLastLogin", mock.Anything, "uid-1").Return(nil).Once()

	svc := newTestService(users)
	token, _, err := svc.Login(context.Background(), "alice@example.com", "password123")
	require.NoError(t, err)

	user, role, valid, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.True(t, valid)
	assert.Equal(t, "Member", role)
	assert.Equal(t, "uid-1", user.UID)
	assert.Equal(t, "alice@example.com", user.Email)

	_, _, valid, err = svc.ValidateToken(context.Background(), "not-a-token")
	assert.Error(t, err)
	assert.False(t, valid)
}

func TestAuthService_ResendVerification(t *testing.T) {
	t.Run("already verified", func(t *testing.T) {
		users := new(MockUserRepository)
		users.On("GetUserByEmail", mock.Anything, "alice@example.com").
			Return(verifiedUser(t, "password123"), nil).Once()

		svc := newTestService(users)
		err := svc.ResendVerification(context.Background(), "alice@example.com")

		assert.ErrorIs(t, err, ErrAlreadyVerified)
	})

	t.Run("issues fresh token", func(t *testing.T) {
		users := new(MockUserRepository)
		user := verifiedUser(t, "password123")
		user.IsVerified = false
		users.On("GetUserByEmail", mock.Anything, "alice@example.com").Return(user, nil).Once()
		users.On("UpdateVerificationToken", mock.Anything, "uid-1", mock.Anything, mock.Anything).
			Return(nil).Once()

		svc := newTestService(users)
		err := svc.ResendVerification(context.Background(), "alice@example.com")

		require.NoError(t, err)
		users.AssertExpectations(t)
	})
}

func TestAuthService_ForgotPassword(t *testing.T) {
	t.Run("unknown email is silent", func(t *testing.T) {
		users := new(MockUserRepository)
		users.On("GetUserByEmail", mock.Anything, "nobody@example.com").
			Return(nil, repository.ErrNotFound).Once()

		svc := newTestService(users)
		err := svc.ForgotPassword(context.Background(), "nobody@example.com")

		assert.NoError(t, err)
		users.AssertNotCalled(t, "SetResetToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("known email gets reset token", func(t *testing.T) {
		users := new(MockUserRepository)
		users.On("GetUserByEmail", mock.Anything, "alice@example.com").
			Return(verifiedUser(t, "password123"), nil).Once()
		users.On("SetResetToken", mock.Anything, "uid-1", mock.Anything, mock.Anything).
			Return(nil).Once()

		svc := newTestService(users)
		err := svc.ForgotPassword(context.Background(), "alice@example.com")

		require.NoError(t, err)
		users.AssertExpectations(t)
	})
}

func TestAuthService_ChangePassword(t *testing.T) {
	t.Run("wrong old password", func(t *testing.T) {
		users := new(MockUserRepository)
		users.On("GetUser", mock.Anything, "uid-1").
			Return(verifiedUser(t, "password123"), nil).Once()

		svc := newTestService(users)
		err := svc.ChangePassword(context.Background(), "uid-1", models.DummyChangePassword{
			OldPassword: "wrong",
			NewPassword: "newpassword",
		})

		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("same password rejected", func(t *testing.T) {
		users := new(MockUserRepository)
		users.On("GetUser", mock.Anything, "uid-1").
			Return(verifiedUser(t, "password123"), nil).Once()

		svc := newTestService(users)
		err := svc.ChangePassword(context.Background(), "uid-1", models.DummyChangePassword{
			OldPassword: "password123",
			NewPassword: "password123",
		})

		assert.ErrorIs(t, err, ErrSamePassword)
	})

	t.Run("success stores new hash", func(t *testing.T) {
		users := new(MockUserRepository)
		users.On("GetUser", mock.Anything, "uid-1").
			Return(verifiedUser(t, "password123"), nil).Once()
		users.On("UpdatePassword", mock.Anything, "uid-1", mock.MatchedBy(func(hash string) bool {
			return hash != "" && hash != "newpassword"
		})).Return(nil).Once()

		svc := newTestService(users)
		err := svc.ChangePassword(context.Background(), "uid-1", models.DummyChangePassword{
			OldPassword: "password123",
			NewPassword: "newpassword",
		})

		require.NoError(t, err)
		users.AssertExpectations(t)
	})
}
