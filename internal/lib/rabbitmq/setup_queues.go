package rabbitmq

// QueueConfig связывает очередь с ключом маршрутизации в обменнике mail.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// MailExchange — обменник для всех исходящих писем сервиса.
const MailExchange = "mail"

// Ключи маршрутизации исходящих писем.
const (
	RouteVerification = "verification"
	RoutePasswordInfo = "password"
	RouteTicketNotify = "ticket"
	RouteExpiryNotify = "expiry"
)

// GetMailQueues возвращает очереди, которые слушает notification-sender.
func GetMailQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "mail.verification", RoutingKey: RouteVerification},
		{QueueName: "mail.password", RoutingKey: RoutePasswordInfo},
		{QueueName: "mail.ticket", RoutingKey: RouteTicketNotify},
		{QueueName: "mail.expiry", RoutingKey: RouteExpiryNotify},
	}
}
