package rabbitmq

type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetReportQueues lists the queues of the reports exchange.
func GetReportQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "reports.deliver", RoutingKey: "deliver"},
	}
}
