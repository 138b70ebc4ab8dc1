package models

// MailMessage сообщение очереди почтовых уведомлений.
// Публикуется сервисами в обменник mail и потребляется отправителем.
type MailMessage struct {
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}
