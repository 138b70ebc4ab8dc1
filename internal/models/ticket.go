package models

import "time"

// Статусы тикета поддержки.
const (
	TicketStatusOpen   = "open"
	TicketStatusClosed = "closed"
)

// TicketMessage одно сообщение в переписке по тикету.
type TicketMessage struct {
	Sender    string    `json:"sender"` // user или support
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Ticket представляет обращение пользователя в поддержку.
type Ticket struct {
	ID        int64           `json:"id"`
	UserUID   string          `json:"user_uid"`
	Title     string          `json:"title"`
	Category  string          `json:"category"`
	Priority  string          `json:"priority"`
	Status    string          `json:"status"`
	Messages  []TicketMessage `json:"messages"`
	CreatedAt time.Time       `json:"created_at"`
}

// DummyCreateTicket используется для приёма данных нового тикета из JSON-запроса.
type DummyCreateTicket struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"required"`
	Category    string `json:"category" validate:"required,oneof=billing orders rentals technical other"`
	Priority    string `json:"priority" validate:"required,oneof=low medium high"`
}

// DummyReplyTicket используется для ответа в тикете.
type DummyReplyTicket struct {
	Content string `json:"content" validate:"required"`
}
