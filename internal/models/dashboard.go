package models

import "time"

// DashboardStats сводная статистика пользователя для главной страницы.
type DashboardStats struct {
	Balance         float64 `json:"balance"`
	OrdersTotal     int     `json:"orders_total"`
	OrdersCompleted int     `json:"orders_completed"`
	OrdersPending   int     `json:"orders_pending"`
	RentalsTotal    int     `json:"rentals_total"`
	RentalsActive   int     `json:"rentals_active"`
	TotalSpent      float64 `json:"total_spent"`
	TotalDeposited  float64 `json:"total_deposited"`
	SuccessRate     float64 `json:"success_rate"`
}

// ActivityItem одна запись ленты последних действий пользователя.
type ActivityItem struct {
	Type      string    `json:"type"` // order, rental или deposit
	Service   string    `json:"service,omitempty"`
	Amount    float64   `json:"amount"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}
