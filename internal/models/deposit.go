package models

import "time"

// Статусы депозита. Провайдер может присылать и другие строки,
// они сохраняются как есть.
const (
	DepositStatusPending   = "pending"
	DepositStatusCompleted = "completed"
	DepositStatusFailed    = "failed"
)

// Deposit представляет пополнение баланса через криптоплатёж.
// Amount хранится в USD, метод - в виде "BTC (BTC)".
type Deposit struct {
	ID            string    `json:"id"`
	UserUID       string    `json:"user_uid"`
	Amount        float64   `json:"amount"`
	Method        string    `json:"method"`
	Status        string    `json:"status"`
	TransactionID string    `json:"transaction_id"`
	PaymentURL    string    `json:"payment_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// DummyCreateDeposit используется для приёма данных пополнения из JSON-запроса.
type DummyCreateDeposit struct {
	Amount   float64 `json:"amount" validate:"required,gt=0"`
	Currency string  `json:"currency" validate:"required,oneof=BTC ETH USDT LTC USDC"`
	Network  string  `json:"network" validate:"required"`
}
