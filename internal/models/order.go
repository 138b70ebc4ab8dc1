// Package models содержит доменные структуры заказов на одноразовые номера,
// а также вспомогательные типы для приёма данных из JSON-запросов.
package models

import "time"

// Статусы заказа.
const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
	OrderStatusFailed    = "failed"
	OrderStatusExpired   = "expired"
	OrderStatusRejected  = "rejected"
)

// Order представляет заказ одноразового номера для приёма SMS.
// Номер Number может быть пустым, пока провайдер не выделил mdn.
type Order struct {
	ID               string     `json:"id"`
	UserUID          string     `json:"user_uid"`
	Service          string     `json:"service"`
	State            string     `json:"state"` // гео-регион, по умолчанию random
	Amount           float64    `json:"amount"`
	Status           string     `json:"status"`
	TransactionID    string     `json:"transaction_id,omitempty"`
	Number           string     `json:"number,omitempty"`
	SMS              *string    `json:"sms,omitempty"`
	Pin              *string    `json:"pin,omitempty"`
	LastMessageTime  *time.Time `json:"last_message_time,omitempty"`
	ReplyFrom        *string    `json:"reply_from,omitempty"`
	ReplyDateTime    *string    `json:"reply_date_time,omitempty"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
	IsPremium        bool       `json:"is_premium"`
	MarkupPercentage float64    `json:"markup_percentage"`
	IsRenewal        bool       `json:"is_renewal"`
	OriginalOrderID  *string    `json:"original_order_id,omitempty"`
	Hotspot          bool       `json:"hotspot"`
	Dislike          bool       `json:"dislike"`
	AddToCart        bool       `json:"add_to_cart"`
	Renew            bool       `json:"renew"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// DummyBuyOrder используется для приёма данных покупки номера из JSON-запроса.
type DummyBuyOrder struct {
	Service          string  `json:"service" validate:"required"`
	State            string  `json:"state,omitempty" validate:"omitempty"`
	IsPremium        bool    `json:"is_premium,omitempty"`
	MarkupPercentage float64 `json:"markup_percentage,omitempty" validate:"omitempty,gte=0,lte=100"`
}

// DummyOrderAction используется для переключения пользовательских флагов заказа.
type DummyOrderAction struct {
	Action string `json:"action" validate:"required,oneof=hotspot dislike addToCart renew"`
}

// OrderFilter параметры фильтрации списка заказов.
type OrderFilter struct {
	UserUID   string
	Search    string
	Status    string
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
	Offset    int
}
