package rabbitmq

// ExchangeNotifications direct-exchange, через который идут все уведомления.
const ExchangeNotifications = "notifications"

// Ключи маршрутизации событий.
const (
	RoutingPaymentSucceeded     = "payment.succeeded"
	RoutingSubscriptionExpiring = "subscription.expiring"
)

// Очереди уведомлений.
const (
	QueuePayment  = "notification.payment"
	QueueExpiring = "notification.expiring"
)

// QueueConfig очередь и ключ, которым она привязана к exchange.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetNotificationQueues возвращает очереди, которые читает sender.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: QueuePayment, RoutingKey: RoutingPaymentSucceeded},
		{QueueName: QueueExpiring, RoutingKey: RoutingSubscriptionExpiring},
	}
}
