package bus

// Routing keys and their bound queues. A routing key becomes a Redis
// stream key; a queue becomes a consumer group on that stream.
const (
	TopicDatabaseSave    = "database.save"
	QueueDatabaseSave    = "database_save"
	TopicDatabaseRead    = "database.read"
	QueueDatabaseRead    = "database_read"
	TopicRequestedProfit = "requested.profit"
	QueueRequestedProfit = "requested_profit"
	TopicRequestedTrends = "requested.trends"
	QueueRequestedTrends = "requested_trends"
	TopicOrdersMake      = "orders.make"
	QueueOrdersMake      = "orders_make"
)
