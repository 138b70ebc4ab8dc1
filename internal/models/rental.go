package models

import "time"

// Статусы и длительности аренды.
const (
	RentalStatusActive    = "active"
	RentalStatusExpired   = "expired"
	RentalStatusCancelled = "cancelled"
	RentalStatusRejected  = "rejected"

	RentalDurationShort = "3days"
	RentalDurationLong  = "30days"
)

// RentalDays возвращает число дней для длительности аренды.
func RentalDays(duration string) int {
	if duration == RentalDurationShort {
		return 3
	}
	return 30
}

// Rental представляет долгосрочную аренду номера.
type Rental struct {
	ID               string     `json:"id"`
	UserUID          string     `json:"user_uid"`
	Service          string     `json:"service"`
	State            string     `json:"state"`
	Duration         string     `json:"duration"` // 3days или 30days
	Number           string     `json:"number,omitempty"`
	TransactionID    string     `json:"transaction_id,omitempty"`
	StartDate        time.Time  `json:"start_date"`
	ExpiresAt        time.Time  `json:"expires_at"`
	Status           string     `json:"status"`
	Price            float64    `json:"price"`
	IsRenewal        bool       `json:"is_renewal"`
	OriginalRentalID *string    `json:"original_rental_id,omitempty"`
	Hotspot          bool       `json:"hotspot"`
	Dislike          bool       `json:"dislike"`
	AddToCart        bool       `json:"add_to_cart"`
	LastMessageTime  *time.Time `json:"last_message_time,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// DummyCreateRental используется для приёма данных создания аренды из JSON-запроса.
type DummyCreateRental struct {
	Service  string `json:"service" validate:"required"`
	State    string `json:"state,omitempty"`
	Duration string `json:"duration" validate:"required,oneof=3days 30days"`
}

// DummyExtendRental используется для продления аренды.
type DummyExtendRental struct {
	Duration string `json:"duration" validate:"required,oneof=3days 30days"`
}

// DummyRentalAction используется для переключения пользовательских флагов аренды.
type DummyRentalAction struct {
	Action string `json:"action" validate:"required,oneof=hotspot dislike addToCart"`
}

// RentalFilter параметры фильтрации списка аренд.
type RentalFilter struct {
	UserUID  string
	Search   string
	Status   string
	Duration string
	Limit    int
	Offset   int
}
