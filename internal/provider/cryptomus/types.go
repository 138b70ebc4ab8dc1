// Package cryptomus реализует клиент платёжного шлюза Cryptomus:
// создание криптоплатежей и проверку подписи вебхуков.
package cryptomus

// CreatePaymentRequest тело запроса POST /v1/payment.
type CreatePaymentRequest struct {
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Network     string `json:"network,omitempty"`
	OrderID     string `json:"order_id"`
	URLCallback string `json:"url_callback"`
	URLReturn   string `json:"url_return"`
	URLSuccess  string `json:"url_success"`
	Lifetime    int    `json:"lifetime"`
}

// PaymentResult данные созданного платежа.
type PaymentResult struct {
	UUID    string `json:"uuid"`
	OrderID string `json:"order_id"`
	Amount  string `json:"amount"`
	Status  string `json:"status"`
	URL     string `json:"url"`
	Network string `json:"network"`
}

// createPaymentResponse конверт ответа шлюза.
type createPaymentResponse struct {
	State   int            `json:"state"`
	Result  *PaymentResult `json:"result"`
	Message string         `json:"message"`
}

// WebhookPayload тело вебхука об изменении статуса платежа.
// Подпись приходит в HTTP-заголовке sign и считается по сырому телу.
type WebhookPayload struct {
	UUID          string `json:"uuid"`
	OrderID       string `json:"order_id"`
	Amount        string `json:"amount"`
	PaymentAmount string `json:"payment_amount"`
	Currency      string `json:"currency"`
	Network       string `json:"network"`
	Status        string `json:"status"`
	IsFinal       bool   `json:"is_final"`
}

// Статусы платежа, при которых зачисляются средства.
func IsPaid(status string) bool {
	return status == "paid" || status == "paid_over"
}
