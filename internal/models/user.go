// Package models содержит доменную модель пользователя системы,
// включающую данные учётной записи, хэш пароля, баланс и контакты.
// Структуры используются в бизнес‑логике и при работе с хранилищем.
package models

import "time"

// User представляет зарегистрированного пользователя системы.
type User struct {
	UID               string     `json:"uid"`
	Username          string     `json:"username"`
	Email             string     `json:"email"`
	PasswordHash      string     `json:"-"`
	IsVerified        bool       `json:"is_verified"`
	VerificationToken *string    `json:"-"`
	VerificationExp   *time.Time `json:"-"`
	ResetToken        *string    `json:"-"`
	ResetExp          *time.Time `json:"-"`
	Balance           float64    `json:"balance"`
	Role              string     `json:"role"` // Member или Admin
	ContactMethod     string     `json:"contact_method"`
	ContactValue      string     `json:"contact_value"`
	NotifyOrderStatus bool       `json:"notify_order_status"`
	NotifyLowBalance  bool       `json:"notify_low_balance"`
	Active            bool       `json:"active"`
	DeactivatedAt     *time.Time `json:"deactivated_at,omitempty"`
	LastLogin         *time.Time `json:"last_login,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// DummyRegister используется для приёма данных регистрации из JSON-запроса.
type DummyRegister struct {
	Username        string `json:"username" validate:"required,min=3,max=32"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
	ContactMethod   string `json:"contact_method" validate:"required,oneof=telegram teams whatsapp slack discord"`
	ContactValue    string `json:"contact_value" validate:"required"`
}

// DummyLogin используется для приёма данных входа из JSON-запроса.
type DummyLogin struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// DummyChangePassword используется для смены пароля авторизованным пользователем.
type DummyChangePassword struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,nefield=OldPassword"`
}

// DummyResetPassword используется для сброса пароля по токену из письма.
type DummyResetPassword struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// DummyUpdateProfile используется для обновления профиля.
type DummyUpdateProfile struct {
	ContactMethod     *string `json:"contact_method,omitempty" validate:"omitempty,oneof=telegram teams whatsapp slack discord"`
	ContactValue      *string `json:"contact_value,omitempty"`
	NotifyOrderStatus *bool   `json:"notify_order_status,omitempty"`
	NotifyLowBalance  *bool   `json:"notify_low_balance,omitempty"`
}
