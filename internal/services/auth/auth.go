// Package auth содержит логику бизнес-уровня для работы с пользователями:
// регистрация, подтверждение почты, вход, восстановление пароля и профиль.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"

	"github.com/pcinfobro/numvault/internal/lib/jwt"
	"github.com/pcinfobro/numvault/internal/lib/password"
	"github.com/pcinfobro/numvault/internal/lib/rabbitmq"
	"github.com/pcinfobro/numvault/internal/models"
)

// Ошибки аутентификации.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotVerified        = errors.New("email is not verified")
	ErrDeactivated        = errors.New("account is deactivated")
	ErrAlreadyVerified    = errors.New("email is already verified")
	ErrSamePassword       = errors.New("new password must differ from the old one")
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	RegisterUser(ctx context.Context, user models.User) (string, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	VerifyUserByToken(ctx context.Context, token string) error
	UpdateVerificationToken(ctx context.Context, userUID, token string, exp time.Time) error
	SetResetToken(ctx context.Context, userUID, token string, exp time.Time) error
	GetUserByResetToken(ctx context.Context, token string) (*models.User, error)
	UpdatePassword(ctx context.Context, userUID, passwordHash string) error
	UpdateLastLogin(ctx context.Context, userUID string) error
	UpdateProfile(ctx context.Context, userUID string, upd models.DummyUpdateProfile) error
	DeactivateUser(ctx context.Context, userUID string) error
}

// AuthService отвечает за регистрацию, авторизацию и жизненный цикл
// учётной записи. Почтовые уведомления публикуются в очередь.
type AuthService struct {
	users    UserRepository
	jwtMaker jwt.Maker
	mailCh   *amqp.Channel
	log      *slog.Logger
}

// NewAuthService создает новый экземпляр AuthService.
// mailCh может быть nil: тогда письма не отправляются.
func NewAuthService(users UserRepository, jwtMaker jwt.Maker, mailCh *amqp.Channel, log *slog.Logger) *AuthService {
	return &AuthService{
		users:    users,
		jwtMaker: jwtMaker,
		mailCh:   mailCh,
		log:      log,
	}
}

func (s *AuthService) publishMail(route string, msg models.MailMessage) {
	if s.mailCh == nil {
		return
	}
	if err := rabbitmq.PublishMessage(s.mailCh, rabbitmq.MailExchange, route, msg); err != nil {
		s.log.Error("failed to publish mail message", slog.Any("err", err))
	}
}

// Register создает нового пользователя с хэшированием пароля, ролью Member
// и токеном подтверждения почты на 24 часа.
func (s *AuthService) Register(ctx context.Context, req models.DummyRegister) (string, error) {
	hashed, err := password.GetHash(req.Password)
	if err != nil {
		return "", err
	}

	token := uuid.NewString()
	exp := time.Now().UTC().Add(24 * time.Hour)
	user := models.User{
		Username:          req.Username,
		Email:             req.Email,
		PasswordHash:      hashed,
		Role:              "Member",
		VerificationToken: &token,
		VerificationExp:   &exp,
		ContactMethod:     req.ContactMethod,
		ContactValue:      req.ContactValue,
	}
	newID, err := s.users.RegisterUser(ctx, user)
	if err != nil {
		return "", err
	}

	s.publishMail(rabbitmq.RouteVerification, models.MailMessage{
		Email:   req.Email,
		Subject: "Подтверждение адреса электронной почты",
		Body:    "Здравствуйте, " + req.Username + "!\n\nДля подтверждения почты используйте код: " + token,
	})
	return newID, nil
}

// VerifyEmail подтверждает почту по токену из письма.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	return s.users.VerifyUserByToken(ctx, token)
}

// ResendVerification выпускает новый токен подтверждения.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.IsVerified {
		return ErrAlreadyVerified
	}

	token := uuid.NewString()
	exp := time.Now().UTC().Add(24 * time.Hour)
	if err = s.users.UpdateVerificationToken(ctx, user.UID, token, exp); err != nil {
		return err
	}

	s.publishMail(rabbitmq.RouteVerification, models.MailMessage{
		Email:   user.Email,
		Subject: "Подтверждение адреса электронной почты",
		Body:    "Здравствуйте, " + user.Username + "!\n\nДля подтверждения почты используйте код: " + token,
	})
	return nil
}

// Login проверяет учётные данные, подтверждение почты и активность
// учётной записи, фиксирует вход и генерирует JWT.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (token, role string, err error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return "", "", ErrInvalidCredentials
	}
	if err = password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return "", "", ErrInvalidCredentials
	}
	if !user.IsVerified {
		return "", "", ErrNotVerified
	}
	if !user.Active {
		return "", "", ErrDeactivated
	}

	if err = s.users.UpdateLastLogin(ctx, user.UID); err != nil {
		s.log.Warn("failed to update last login", slog.Any("err", err))
	}

	token, err = s.jwtMaker.GenerateToken(user.Email, user.Role, user.UID)
	if err != nil {
		return "", "", err
	}
	return token, user.Role, nil
}

// ForgotPassword выпускает токен сброса пароля на 1 час. Ответ
// одинаков для существующих и несуществующих адресов.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		// Не раскрываем, зарегистрирован ли адрес.
		return nil
	}

	token := uuid.NewString()
	exp := time.Now().UTC().Add(time.Hour)
	if err = s.users.SetResetToken(ctx, user.UID, token, exp); err != nil {
		return err
	}

	s.publishMail(rabbitmq.RoutePasswordInfo, models.MailMessage{
		Email:   user.Email,
		Subject: "Восстановление пароля",
		Body:    "Здравствуйте, " + user.Username + "!\n\nДля сброса пароля используйте код: " + token + "\nКод действует один час.",
	})
	return nil
}

// ResetPassword устанавливает новый пароль по действующему токену сброса.
func (s *AuthService) ResetPassword(ctx context.Context, req models.DummyResetPassword) error {
	user, err := s.users.GetUserByResetToken(ctx, req.Token)
	if err != nil {
		return err
	}
	hashed, err := password.GetHash(req.NewPassword)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, user.UID, hashed)
}

// ChangePassword меняет пароль авторизованного пользователя
// после проверки старого.
func (s *AuthService) ChangePassword(ctx context.Context, userUID string, req models.DummyChangePassword) error {
	user, err := s.users.GetUser(ctx, userUID)
	if err != nil {
		return err
	}
	if err = password.CompareHash(user.PasswordHash, req.OldPassword); err != nil {
		return ErrInvalidCredentials
	}
	if req.OldPassword == req.NewPassword {
		return ErrSamePassword
	}
	hashed, err := password.GetHash(req.NewPassword)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, userUID, hashed)
}

// GetProfile возвращает профиль пользователя.
func (s *AuthService) GetProfile(ctx context.Context, userUID string) (*models.User, error) {
	return s.users.GetUser(ctx, userUID)
}

// UpdateProfile обновляет контактные данные и флаги уведомлений.
func (s *AuthService) UpdateProfile(ctx context.Context, userUID string, upd models.DummyUpdateProfile) error {
	return s.users.UpdateProfile(ctx, userUID, upd)
}

// Deactivate мягко деактивирует учётную запись.
func (s *AuthService) Deactivate(ctx context.Context, userUID string) error {
	return s.users.DeactivateUser(ctx, userUID)
}

// ValidateToken проверяет JWT и возвращает информацию о пользователе.
func (s *AuthService) ValidateToken(_ context.Context, token string) (*models.User, string, bool, error) {
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return nil, "", false, err
	}
	user := &models.User{
		Email: claims.Email,
		Role:  claims.Role,
		UID:   claims.UserUID,
	}
	return user, claims.Role, true, nil
}
