package models

import "time"

// Виды движений по балансу.
const (
	LedgerDebit  = "debit"
	LedgerCredit = "credit"
)

// LedgerEntry представляет одну запись журнала движений по балансу.
// Журнал append-only: записи создаются в той же транзакции,
// что и изменение баланса, и никогда не изменяются.
type LedgerEntry struct {
	ID           int64     `json:"id"`
	UserUID      string    `json:"user_uid"`
	Kind         string    `json:"kind"` // debit или credit
	Amount       float64   `json:"amount"`
	BalanceAfter float64   `json:"balance_after"`
	Reason       string    `json:"reason"`
	Reference    string    `json:"reference,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
