// Package tellabot реализует клиент REST API провайдера номеров Tellabot.
// Все запросы выполняются методом GET с параметрами user, api_key и cmd.
package tellabot

import (
	"encoding/json"
	"errors"
)

// ErrNoMessages возвращается, когда провайдер отвечает "No messages":
// сообщений для номера пока нет, это не ошибка вызова.
var ErrNoMessages = errors.New("no messages")

// envelope общий конверт ответа провайдера. Поле message может быть
// как строкой (при ошибке), так и массивом объектов.
type envelope struct {
	Status  string          `json:"status"`
	Message json.RawMessage `json:"message"`
}

// ServiceInfo позиция каталога сервисов провайдера.
type ServiceInfo struct {
	Name              string      `json:"name"`
	Price             json.Number `json:"price"`
	Available         json.Number `json:"available"`
	LTRAvailable      json.Number `json:"ltr_available"`
	LTRPrice          json.Number `json:"ltr_price"`
	LTRShortPrice     json.Number `json:"ltr_short_price"`
	RecommendedMarkup json.Number `json:"recommended_markup"`
}

// RequestResult результат команды request: выделенный номер.
type RequestResult struct {
	ID             string      `json:"id"`
	MDN            string      `json:"mdn"`
	Service        string      `json:"service"`
	Price          json.Number `json:"price"`
	TillExpiration json.Number `json:"till_expiration"`
	State          string      `json:"state"`
}

// SMSMessage одно входящее сообщение команды read_sms.
type SMSMessage struct {
	Timestamp json.Number `json:"timestamp"`
	DateTime  string      `json:"date_time"`
	From      string      `json:"from"`
	MDN       string      `json:"mdn"`
	Service   string      `json:"service"`
	Price     json.Number `json:"price"`
	Reply     string      `json:"reply"`
	Pin       string      `json:"pin"`
}

// StatusResult результат команды request_status.
type StatusResult struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	MDN    string `json:"mdn"`
}

// RentResult результат команды ltr_rent.
type RentResult struct {
	ID      string      `json:"id"`
	MDN     string      `json:"mdn"`
	Service string      `json:"service"`
	Price   json.Number `json:"price"`
}

// LTRStatusResult результат команды ltr_status.
type LTRStatusResult struct {
	MDN       string `json:"mdn"`
	Status    string `json:"status"`
	Expires   string `json:"expires"`
	AutoRenew string `json:"autorenew"`
}
